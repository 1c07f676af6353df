package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aetheria-app/aetheria/internal/domain/history"
	"github.com/aetheria-app/aetheria/internal/domain/horoscope"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
)

// HistoryService manages the per-identity append-only prediction log.
type HistoryService struct {
	repo   history.Repository
	now    func() time.Time
	logger *logger.Logger
}

// NewHistoryService creates a new history service.
func NewHistoryService(repo history.Repository, log *logger.Logger) *HistoryService {
	return &HistoryService{
		repo:   repo,
		now:    time.Now,
		logger: log,
	}
}

// Load returns an identity's history, most recent first. Identities never
// share a log; switching identity simply loads a different key.
func (s *HistoryService) Load(ctx context.Context, identityID string) ([]*horoscope.HistoryEntry, error) {
	return s.repo.List(ctx, identityID)
}

// Get returns one stored entry so a past reading can be replayed without a
// new generation.
func (s *HistoryService) Get(ctx context.Context, identityID, entryID string) (*horoscope.HistoryEntry, error) {
	return s.repo.Get(ctx, identityID, entryID)
}

// Append archives a prediction. The entry is returned even when
// persistence fails, so the caller can keep the just-produced reading
// visible for the rest of the session; the failure itself is only logged.
func (s *HistoryService) Append(ctx context.Context, identityID string, prediction horoscope.DailyPrediction) *horoscope.HistoryEntry {
	entry := &horoscope.HistoryEntry{
		ID:         uuid.New().String(),
		IdentityID: identityID,
		Timestamp:  s.now().UTC(),
		Prediction: prediction,
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"identity_id": identityID,
			"entry_id":    entry.ID,
		}).WithError(err).Error("Failed to persist history entry")
	}

	return entry
}
