package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/aetheria-app/aetheria/internal/domain/history"
	"github.com/aetheria-app/aetheria/internal/domain/horoscope"
	"github.com/aetheria-app/aetheria/internal/pkg/errors"
)

// HistoryRepository implements history.Repository
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB) history.Repository {
	return &HistoryRepository{db: db}
}

// Append stores a new entry. Entries are never updated afterwards.
func (r *HistoryRepository) Append(ctx context.Context, entry *horoscope.HistoryEntry) error {
	payload, err := json.Marshal(entry.Prediction)
	if err != nil {
		return errors.Internal("Failed to encode prediction", err)
	}

	query := `
		INSERT INTO history (id, identity_id, ts, prediction)
		VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.IdentityID, entry.Timestamp.Unix(), string(payload),
	); err != nil {
		return errors.DatabaseError("Failed to append history entry", err)
	}
	return nil
}

// List returns an identity's entries, most recent first.
func (r *HistoryRepository) List(ctx context.Context, identityID string) ([]*horoscope.HistoryEntry, error) {
	query := `
		SELECT id, identity_id, ts, prediction
		FROM history WHERE identity_id = ?
		ORDER BY ts DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, identityID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list history", err)
	}
	defer rows.Close()

	var entries []*horoscope.HistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list history", err)
	}
	return entries, nil
}

// Get returns one entry by id, scoped to an identity.
func (r *HistoryRepository) Get(ctx context.Context, identityID, entryID string) (*horoscope.HistoryEntry, error) {
	query := `
		SELECT id, identity_id, ts, prediction
		FROM history WHERE identity_id = ? AND id = ?
	`

	row := r.db.QueryRowContext(ctx, query, identityID, entryID)
	entry, err := scanEntryRow(row)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*horoscope.HistoryEntry, error) {
	var entry horoscope.HistoryEntry
	var ts int64
	var payload string

	if err := s.Scan(&entry.ID, &entry.IdentityID, &ts, &payload); err != nil {
		return nil, errors.DatabaseError("Failed to scan history entry", err)
	}

	entry.Timestamp = time.Unix(ts, 0).UTC()
	if err := json.Unmarshal([]byte(payload), &entry.Prediction); err != nil {
		return nil, errors.Internal("Failed to decode stored prediction", err)
	}
	return &entry, nil
}

func scanEntryRow(row *sql.Row) (*horoscope.HistoryEntry, error) {
	var entry horoscope.HistoryEntry
	var ts int64
	var payload string

	err := row.Scan(&entry.ID, &entry.IdentityID, &ts, &payload)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("History entry")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get history entry", err)
	}

	entry.Timestamp = time.Unix(ts, 0).UTC()
	if err := json.Unmarshal([]byte(payload), &entry.Prediction); err != nil {
		return nil, errors.Internal("Failed to decode stored prediction", err)
	}
	return &entry, nil
}
