package profile

import "context"

// Service defines the interface for the entitlement gate.
type Service interface {
	// CheckAndRoute decides whether an identity may run a generation.
	CheckAndRoute(ctx context.Context, identity Identity) (Decision, *Profile, error)

	// CommitUsage increments the persisted counter by exactly one. It is
	// invoked only after a generation succeeds and is a no-op for guest
	// and premium identities.
	CommitUsage(ctx context.Context, identity Identity) error

	// UnlockPremium sets the premium flag for an identity.
	UnlockPremium(ctx context.Context, identity Identity) (*Profile, error)

	// State returns the current entitlement state for an identity.
	State(ctx context.Context, identity Identity) (*Profile, error)

	// FreeLimit returns the free-tier generation cap.
	FreeLimit() int
}
