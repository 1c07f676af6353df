// Package history defines the per-identity prediction log.
package history

import (
	"context"

	"github.com/aetheria-app/aetheria/internal/domain/horoscope"
)

// Repository defines the interface for history persistence. Entries are
// append-only and keyed per identity; identities never share a log.
type Repository interface {
	// Append stores a new entry.
	Append(ctx context.Context, entry *horoscope.HistoryEntry) error

	// List returns an identity's entries, most recent first.
	List(ctx context.Context, identityID string) ([]*horoscope.HistoryEntry, error)

	// Get returns one entry by id, scoped to an identity.
	Get(ctx context.Context, identityID, entryID string) (*horoscope.HistoryEntry, error)
}
