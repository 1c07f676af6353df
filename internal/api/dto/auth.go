package dto

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         *UserDTO `json:"user,omitempty"`
	Guest        bool     `json:"guest,omitempty"`
}

// UserDTO is the public view of an account
type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// MeResponse describes the authenticated caller and their entitlement state
type MeResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email,omitempty"`
	Guest          bool   `json:"guest,omitempty"`
	IsPremium      bool   `json:"isPremium"`
	FreeUsageCount int    `json:"freeUsageCount"`
	FreeLimit      int    `json:"freeLimit"`
}
