package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aetheria-app/aetheria/internal/api/dto"
	"github.com/aetheria-app/aetheria/internal/api/middleware"
	"github.com/aetheria-app/aetheria/internal/pkg/errors"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
	"github.com/aetheria-app/aetheria/internal/pkg/utils"
	"github.com/aetheria-app/aetheria/internal/pkg/validator"
	"github.com/aetheria-app/aetheria/internal/services"
)

// HoroscopeHandler drives the app session: onboarding, generation,
// paywall, retry and history replay.
type HoroscopeHandler struct {
	sessions  *services.SessionManager
	logger    *logger.Logger
	validator *validator.Validator
}

// NewHoroscopeHandler creates a new horoscope handler
func NewHoroscopeHandler(sessions *services.SessionManager, log *logger.Logger, val *validator.Validator) *HoroscopeHandler {
	return &HoroscopeHandler{
		sessions:  sessions,
		logger:    log,
		validator: val,
	}
}

// session resolves the caller's app session from the session-key header.
func (h *HoroscopeHandler) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	key := middleware.GetSessionKey(r)
	if key == "" {
		utils.WriteError(w, errors.BadRequest("Missing "+middleware.SessionKeyHeader+" header"))
		return nil, false
	}
	identity, _ := middleware.GetIdentity(r)
	return h.sessions.Get(key, identity, middleware.GetLocale(r)), true
}

// Submit accepts onboarding data and runs it through the entitlement gate
// and, when allowed, generation. The response carries the resulting state:
// result, paywall, or an authentication prompt.
func (h *HoroscopeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	snap, err := s.Submit(r.Context(), req.UserData())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sessionResponse(snap, middleware.GetLocale(r)))
}

// Resolve resumes a session waiting in AwaitAuth after the caller obtained
// a token (sign-in, registration, or guest entry).
func (h *HoroscopeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	identity, _ := middleware.GetIdentity(r)

	snap, err := s.ResolveAuth(r.Context(), identity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sessionResponse(snap, middleware.GetLocale(r)))
}

// Unlock performs the simulated premium purchase and resumes generation.
func (h *HoroscopeHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	snap, err := s.Unlock(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sessionResponse(snap, middleware.GetLocale(r)))
}

// Retry re-runs generation after a failed attempt
func (h *HoroscopeHandler) Retry(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	snap, err := s.Retry(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sessionResponse(snap, middleware.GetLocale(r)))
}

// Reset returns the session to onboarding
func (h *HoroscopeHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sessionResponse(s.Reset(), middleware.GetLocale(r)))
}

// State returns the session's current view without side effects
func (h *HoroscopeHandler) State(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sessionResponse(s.Snapshot(), middleware.GetLocale(r)))
}

// OpenHistory enters the history view
func (h *HoroscopeHandler) OpenHistory(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	snap, err := s.OpenHistory()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sessionResponse(snap, middleware.GetLocale(r)))
}

// CloseHistory leaves the history view
func (h *HoroscopeHandler) CloseHistory(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	snap, err := s.CloseHistory()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sessionResponse(snap, middleware.GetLocale(r)))
}

// SelectEntry loads an archived reading into the result view
func (h *HoroscopeHandler) SelectEntry(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	snap, err := s.SelectHistoryEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sessionResponse(snap, middleware.GetLocale(r)))
}
