package profile

import "context"

// Repository defines the interface for entitlement-profile data access.
type Repository interface {
	// Get retrieves the profile for an identity.
	Get(ctx context.Context, identityID string) (*Profile, error)

	// CreateIfAbsent inserts a zeroed profile when none exists and returns
	// the stored record either way.
	CreateIfAbsent(ctx context.Context, identityID string) (*Profile, error)

	// IncrementUsage adds one to the persisted free-usage counter.
	IncrementUsage(ctx context.Context, identityID string) error

	// SetPremium flips the premium flag.
	SetPremium(ctx context.Context, identityID string, premium bool) error
}
