// Package testutil provides in-memory repository doubles for service and
// handler tests.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aetheria-app/aetheria/internal/domain/history"
	"github.com/aetheria-app/aetheria/internal/domain/horoscope"
	"github.com/aetheria-app/aetheria/internal/domain/profile"
	"github.com/aetheria-app/aetheria/internal/domain/user"
	apperrors "github.com/aetheria-app/aetheria/internal/pkg/errors"
)

// ErrForced is returned by the failing repository variants.
var ErrForced = errors.New("forced repository failure")

// MemProfileRepo is an in-memory profile.Repository.
type MemProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*profile.Profile

	FailGet       bool
	FailIncrement bool
}

func NewMemProfileRepo() *MemProfileRepo {
	return &MemProfileRepo{profiles: make(map[string]*profile.Profile)}
}

// Seed inserts a profile directly, bypassing CreateIfAbsent.
func (r *MemProfileRepo) Seed(p *profile.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.IdentityID] = &cp
}

func (r *MemProfileRepo) Get(_ context.Context, identityID string) (*profile.Profile, error) {
	if r.FailGet {
		return nil, ErrForced
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[identityID]
	if !ok {
		return nil, apperrors.NotFound("Profile")
	}
	cp := *p
	return &cp, nil
}

func (r *MemProfileRepo) CreateIfAbsent(_ context.Context, identityID string) (*profile.Profile, error) {
	if r.FailGet {
		return nil, ErrForced
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[identityID]; ok {
		cp := *p
		return &cp, nil
	}
	now := time.Now()
	p := &profile.Profile{IdentityID: identityID, CreatedAt: now, UpdatedAt: now}
	r.profiles[identityID] = p
	cp := *p
	return &cp, nil
}

func (r *MemProfileRepo) IncrementUsage(_ context.Context, identityID string) error {
	if r.FailIncrement {
		return ErrForced
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[identityID]
	if !ok {
		return apperrors.NotFound("Profile")
	}
	p.FreeUsageCount++
	p.UpdatedAt = time.Now()
	return nil
}

func (r *MemProfileRepo) SetPremium(_ context.Context, identityID string, premium bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[identityID]
	if !ok {
		return apperrors.NotFound("Profile")
	}
	p.IsPremium = premium
	p.UpdatedAt = time.Now()
	return nil
}

// Usage reports the stored free usage count for an identity, 0 if absent.
func (r *MemProfileRepo) Usage(identityID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[identityID]; ok {
		return p.FreeUsageCount
	}
	return 0
}

// MemUserRepo is an in-memory user.Repository.
type MemUserRepo struct {
	mu    sync.Mutex
	byID  map[string]*user.User
	email map[string]*user.User
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{
		byID:  make(map[string]*user.User),
		email: make(map[string]*user.User),
	}
}

func (r *MemUserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.email[u.Email]; ok {
		return apperrors.Conflict("Email already registered")
	}
	cp := *u
	r.byID[u.ID] = &cp
	r.email[u.Email] = &cp
	return nil
}

func (r *MemUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("User")
	}
	cp := *u
	return &cp, nil
}

func (r *MemUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.email[email]
	if !ok {
		return nil, apperrors.NotFound("User")
	}
	cp := *u
	return &cp, nil
}

// MemHistoryRepo is an in-memory history.Repository.
type MemHistoryRepo struct {
	mu      sync.Mutex
	entries []*horoscope.HistoryEntry

	FailAppend bool
}

var _ history.Repository = (*MemHistoryRepo)(nil)
var _ profile.Repository = (*MemProfileRepo)(nil)
var _ user.Repository = (*MemUserRepo)(nil)

func NewMemHistoryRepo() *MemHistoryRepo {
	return &MemHistoryRepo{}
}

func (r *MemHistoryRepo) Append(_ context.Context, entry *horoscope.HistoryEntry) error {
	if r.FailAppend {
		return ErrForced
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *MemHistoryRepo) List(_ context.Context, identityID string) ([]*horoscope.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Appends arrive in chronological order, so reverse insertion order
	// is newest-first.
	var out []*horoscope.HistoryEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.IdentityID == identityID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemHistoryRepo) Get(_ context.Context, identityID, entryID string) (*horoscope.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.IdentityID == identityID && e.ID == entryID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("History entry")
}

// Len reports the number of stored entries across all identities.
func (r *MemHistoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
