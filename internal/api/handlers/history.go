package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aetheria-app/aetheria/internal/api/dto"
	"github.com/aetheria-app/aetheria/internal/api/middleware"
	"github.com/aetheria-app/aetheria/internal/domain/profile"
	"github.com/aetheria-app/aetheria/internal/locale"
	"github.com/aetheria-app/aetheria/internal/pkg/errors"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
	"github.com/aetheria-app/aetheria/internal/pkg/utils"
	"github.com/aetheria-app/aetheria/internal/services"
)

// HistoryHandler serves the per-identity reading archive
type HistoryHandler struct {
	history *services.HistoryService
	logger  *logger.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history *services.HistoryService, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: log}
}

// List returns the caller's readings, most recent first
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r)
	if identity.Class == profile.ClassAnonymous {
		utils.WriteError(w, errors.Unauthorized("No session"))
		return
	}

	entries, err := h.history.Load(r.Context(), identity.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := dto.HistoryResponse{Entries: make([]dto.HistoryEntryDTO, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dto.HistoryEntryDTO{
			ID:         e.ID,
			Timestamp:  e.Timestamp,
			Prediction: e.Prediction,
		})
	}
	if len(resp.Entries) == 0 {
		resp.Empty = locale.T(middleware.GetLocale(r), locale.KeyHistoryEmpty)
	}

	utils.WriteSuccess(w, http.StatusOK, resp)
}

// Get returns one reading by id
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r)
	if identity.Class == profile.ClassAnonymous {
		utils.WriteError(w, errors.Unauthorized("No session"))
		return
	}

	entry, err := h.history.Get(r.Context(), identity.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.HistoryEntryDTO{
		ID:         entry.ID,
		Timestamp:  entry.Timestamp,
		Prediction: entry.Prediction,
	})
}
