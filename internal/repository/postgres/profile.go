package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/aetheria-app/aetheria/internal/domain/profile"
	"github.com/aetheria-app/aetheria/internal/pkg/errors"
)

// ProfileRepository implements profile.Repository
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB) profile.Repository {
	return &ProfileRepository{db: db}
}

// Get retrieves the profile for an identity
func (r *ProfileRepository) Get(ctx context.Context, identityID string) (*profile.Profile, error) {
	query := `
		SELECT identity_id, free_usage_count, is_premium, created_at, updated_at
		FROM profiles WHERE identity_id = ?
	`

	var p profile.Profile
	var isPremium int
	var createdAt, updatedAt int64

	err := r.db.QueryRowContext(ctx, query, identityID).Scan(
		&p.IdentityID, &p.FreeUsageCount, &isPremium, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Profile")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get profile", err)
	}

	p.IsPremium = isPremium != 0
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

// CreateIfAbsent inserts a zeroed profile when none exists and returns the
// stored record either way. This covers the first-login case.
func (r *ProfileRepository) CreateIfAbsent(ctx context.Context, identityID string) (*profile.Profile, error) {
	now := time.Now().Unix()
	query := `
		INSERT INTO profiles (identity_id, free_usage_count, is_premium, created_at, updated_at)
		VALUES (?, 0, 0, ?, ?)
		ON CONFLICT (identity_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, identityID, now, now); err != nil {
		return nil, errors.DatabaseError("Failed to create profile", err)
	}

	return r.Get(ctx, identityID)
}

// IncrementUsage adds one to the persisted free-usage counter
func (r *ProfileRepository) IncrementUsage(ctx context.Context, identityID string) error {
	query := `
		UPDATE profiles
		SET free_usage_count = free_usage_count + 1, updated_at = ?
		WHERE identity_id = ?
	`

	res, err := r.db.ExecContext(ctx, query, time.Now().Unix(), identityID)
	if err != nil {
		return errors.DatabaseError("Failed to increment usage", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("Profile")
	}
	return nil
}

// SetPremium flips the premium flag
func (r *ProfileRepository) SetPremium(ctx context.Context, identityID string, premium bool) error {
	val := 0
	if premium {
		val = 1
	}

	query := `
		UPDATE profiles
		SET is_premium = ?, updated_at = ?
		WHERE identity_id = ?
	`

	res, err := r.db.ExecContext(ctx, query, val, time.Now().Unix(), identityID)
	if err != nil {
		return errors.DatabaseError("Failed to set premium flag", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("Profile")
	}
	return nil
}
