package handlers

import (
	"net/http"

	"github.com/aetheria-app/aetheria/internal/api/dto"
	"github.com/aetheria-app/aetheria/internal/api/middleware"
	"github.com/aetheria-app/aetheria/internal/domain/profile"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
	"github.com/aetheria-app/aetheria/internal/pkg/utils"
)

// EntitlementHandler exposes the quota position and the premium unlock
type EntitlementHandler struct {
	entitlement profile.Service
	logger      *logger.Logger
}

// NewEntitlementHandler creates a new entitlement handler
func NewEntitlementHandler(entitlement profile.Service, log *logger.Logger) *EntitlementHandler {
	return &EntitlementHandler{entitlement: entitlement, logger: log}
}

// Get returns the caller's quota position
func (h *EntitlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r)

	state, err := h.entitlement.State(r.Context(), identity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, h.response(identity, state))
}

// Unlock flips the premium flag. There is no payment verification behind
// this endpoint; the purchase is simulated end to end.
func (h *EntitlementHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r)

	state, err := h.entitlement.UnlockPremium(r.Context(), identity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, h.response(identity, state))
}

func (h *EntitlementHandler) response(identity profile.Identity, state *profile.Profile) dto.EntitlementResponse {
	limit := h.entitlement.FreeLimit()
	remaining := limit - state.FreeUsageCount
	if remaining < 0 {
		remaining = 0
	}
	if state.IsPremium || identity.Class == profile.ClassGuest {
		remaining = limit
	}
	return dto.EntitlementResponse{
		IsPremium:      state.IsPremium,
		FreeUsageCount: state.FreeUsageCount,
		FreeLimit:      limit,
		Remaining:      remaining,
	}
}
