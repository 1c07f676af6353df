package profile

import "time"

// GuestID is the reserved sentinel identity for guest sessions. Guests get
// unconditional access and never accumulate persisted usage or history
// under a durable account.
const GuestID = "guest"

// IdentityClass determines quota and history-persistence behavior.
type IdentityClass string

const (
	ClassAnonymous     IdentityClass = "anonymous"
	ClassGuest         IdentityClass = "guest"
	ClassAuthenticated IdentityClass = "authenticated"
)

// Identity is a resolved caller identity.
type Identity struct {
	ID    string
	Class IdentityClass
}

// Classify derives the identity class from a session's subject id. An empty
// id means no session at all.
func Classify(id string) Identity {
	switch id {
	case "":
		return Identity{Class: ClassAnonymous}
	case GuestID:
		return Identity{ID: GuestID, Class: ClassGuest}
	default:
		return Identity{ID: id, Class: ClassAuthenticated}
	}
}

// Profile is the per-identity entitlement record.
type Profile struct {
	IdentityID     string    `json:"identity_id"`
	FreeUsageCount int       `json:"free_usage_count"`
	IsPremium      bool      `json:"is_premium"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Decision is the entitlement gate's routing verdict.
type Decision string

const (
	DecisionProceed     Decision = "proceed"
	DecisionPaywall     Decision = "paywall"
	DecisionRequireAuth Decision = "require_auth"
)
