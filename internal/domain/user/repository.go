package user

import "context"

// Repository defines the interface for account data access.
type Repository interface {
	// Create creates a new account
	Create(ctx context.Context, u *User) error

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves an account by email
	GetByEmail(ctx context.Context, email string) (*User, error)
}
