package handlers

import (
	"net/http"

	"github.com/aetheria-app/aetheria/internal/api/dto"
	"github.com/aetheria-app/aetheria/internal/locale"
	"github.com/aetheria-app/aetheria/internal/pkg/errors"
	"github.com/aetheria-app/aetheria/internal/pkg/utils"
	"github.com/aetheria-app/aetheria/internal/services"
)

// writeServiceError maps a service failure onto the wire format.
func writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		utils.WriteError(w, appErr)
		return
	}
	utils.WriteError(w, errors.Internal("Unexpected error", err))
}

// sessionResponse converts a session snapshot into its wire shape.
func sessionResponse(snap services.Snapshot, loc locale.Locale) dto.SessionResponse {
	resp := dto.SessionResponse{
		State:        string(snap.State),
		User:         snap.User,
		EntryID:      snap.EntryID,
		ErrorMessage: snap.ErrorMessage,
	}
	if snap.Result != nil {
		prediction := snap.Result.Prediction
		resp.Prediction = &prediction
		resp.Source = string(snap.Result.Source)
	}
	if snap.State == services.StatePaywall {
		resp.Paywall = &dto.PaywallDTO{
			Title:       locale.T(loc, locale.KeyPaywallTitle),
			Description: locale.T(loc, locale.KeyPaywallDesc),
		}
	}
	return resp
}
