package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aetheria-app/aetheria/internal/api/dto"
	"github.com/aetheria-app/aetheria/internal/api/middleware"
	"github.com/aetheria-app/aetheria/internal/auth"
	"github.com/aetheria-app/aetheria/internal/config"
	"github.com/aetheria-app/aetheria/internal/domain/profile"
	"github.com/aetheria-app/aetheria/internal/pkg/errors"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
	"github.com/aetheria-app/aetheria/internal/pkg/utils"
	"github.com/aetheria-app/aetheria/internal/pkg/validator"
	"github.com/aetheria-app/aetheria/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService *services.UserService
	entitlement profile.Service
	config      *config.Config
	logger      *logger.Logger
	validator   *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	userService *services.UserService,
	entitlement profile.Service,
	cfg *config.Config,
	log *logger.Logger,
	val *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		entitlement: entitlement,
		config:      cfg,
		logger:      log,
		validator:   val,
	}
}

// Register handles account creation
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	newUser, err := h.userService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.issueTokens(w, newUser.ID, newUser.Email, false)
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	h.logger.Infof("Login attempt for email: %s", req.Email)

	authenticatedUser, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"email": req.Email,
		}).Warn("Authentication failed")
		if appErr, ok := err.(*errors.AppError); ok {
			utils.WriteError(w, appErr)
		} else {
			utils.WriteError(w, errors.Unauthorized("Invalid credentials"))
		}
		return
	}

	h.issueTokens(w, authenticatedUser.ID, authenticatedUser.Email, false)
}

// Guest issues a token for the shared guest identity. Guests get unlimited
// generations; their history lives under one shared log.
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	h.issueTokens(w, profile.GuestID, "", true)
}

// Me returns the caller's account and entitlement state
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok || identity.Class == profile.ClassAnonymous {
		utils.WriteError(w, errors.Unauthorized("No session"))
		return
	}

	resp := dto.MeResponse{
		ID:        identity.ID,
		Guest:     identity.Class == profile.ClassGuest,
		FreeLimit: h.entitlement.FreeLimit(),
	}

	if identity.Class == profile.ClassAuthenticated {
		account, err := h.userService.GetByID(r.Context(), identity.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp.Email = account.Email
	}

	state, err := h.entitlement.State(r.Context(), identity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp.IsPremium = state.IsPremium
	resp.FreeUsageCount = state.FreeUsageCount

	utils.WriteSuccess(w, http.StatusOK, resp)
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, userID, email string, guest bool) {
	tokens, err := auth.MintTokens(
		userID,
		email,
		guest,
		h.config.Auth.JWTSecret,
		h.config.Auth.AccessTokenExpiry,
		h.config.Auth.RefreshTokenExpiry,
	)
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to generate tokens")
		utils.WriteError(w, errors.Internal("Failed to generate tokens", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    tokens.AccessToken,
		HttpOnly: true,
		Secure:   h.config.Server.Environment == "production",
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(h.config.Auth.AccessTokenExpiry.Seconds()),
	})

	response := dto.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Guest:        guest,
	}
	if !guest {
		response.User = &dto.UserDTO{ID: userID, Email: email}
	}

	h.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"guest":   guest,
	}).Info("Session issued")

	utils.WriteSuccess(w, http.StatusOK, response)
}
