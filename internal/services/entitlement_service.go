package services

import (
	"context"

	"github.com/aetheria-app/aetheria/internal/domain/profile"
	"github.com/aetheria-app/aetheria/internal/pkg/errors"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
	"github.com/aetheria-app/aetheria/internal/pkg/metrics"
)

// EntitlementService implements profile.Service: the free-quota/paywall
// gate in front of prediction generation.
type EntitlementService struct {
	repo      profile.Repository
	freeLimit int
	logger    *logger.Logger
}

// NewEntitlementService creates a new entitlement gate.
func NewEntitlementService(repo profile.Repository, freeLimit int, log *logger.Logger) profile.Service {
	return &EntitlementService{
		repo:      repo,
		freeLimit: freeLimit,
		logger:    log,
	}
}

// FreeLimit returns the free-tier generation cap.
func (s *EntitlementService) FreeLimit() int { return s.freeLimit }

// CheckAndRoute decides whether an identity may run a generation. Guests
// always proceed; anonymous callers are sent to authentication; everyone
// else is measured against the free quota unless premium.
func (s *EntitlementService) CheckAndRoute(ctx context.Context, identity profile.Identity) (profile.Decision, *profile.Profile, error) {
	decision, p := s.route(ctx, identity)
	metrics.RecordEntitlementDecision(string(decision), string(identity.Class))
	return decision, p, nil
}

func (s *EntitlementService) route(ctx context.Context, identity profile.Identity) (profile.Decision, *profile.Profile) {
	switch identity.Class {
	case profile.ClassAnonymous:
		return profile.DecisionRequireAuth, nil
	case profile.ClassGuest:
		return profile.DecisionProceed, &profile.Profile{IdentityID: profile.GuestID}
	}

	p := s.loadOrDegrade(ctx, identity.ID)

	if !p.IsPremium && p.FreeUsageCount >= s.freeLimit {
		return profile.DecisionPaywall, p
	}
	return profile.DecisionProceed, p
}

// CommitUsage increments the persisted counter by exactly one. It is
// skipped entirely for guest identities and for premium identities. It is
// not idempotent: calling it twice increments twice.
func (s *EntitlementService) CommitUsage(ctx context.Context, identity profile.Identity) error {
	if identity.Class != profile.ClassAuthenticated {
		return nil
	}

	p := s.loadOrDegrade(ctx, identity.ID)
	if p.IsPremium {
		return nil
	}

	if err := s.repo.IncrementUsage(ctx, identity.ID); err != nil {
		s.logger.ErrorWithErr(err, "Failed to commit usage")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"identity_id": identity.ID,
		"usage_count": p.FreeUsageCount + 1,
	}).Info("Usage committed")
	return nil
}

// UnlockPremium sets the premium flag. There is no server-side payment
// verification here: this mirrors the product's simulated unlock and is
// insecure by construction.
func (s *EntitlementService) UnlockPremium(ctx context.Context, identity profile.Identity) (*profile.Profile, error) {
	if identity.Class == profile.ClassAnonymous {
		return nil, errors.Unauthorized("No session")
	}

	if _, err := s.repo.CreateIfAbsent(ctx, identity.ID); err != nil {
		return nil, err
	}
	if err := s.repo.SetPremium(ctx, identity.ID, true); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"identity_id": identity.ID,
	}).Info("Premium unlocked")
	metrics.RecordPremiumUnlock()

	return s.repo.Get(ctx, identity.ID)
}

// State returns the current entitlement state for an identity.
func (s *EntitlementService) State(ctx context.Context, identity profile.Identity) (*profile.Profile, error) {
	if identity.Class == profile.ClassAnonymous {
		return nil, errors.Unauthorized("No session")
	}
	if identity.Class == profile.ClassGuest {
		return &profile.Profile{IdentityID: profile.GuestID}, nil
	}
	return s.loadOrDegrade(ctx, identity.ID), nil
}

// loadOrDegrade fetches the profile, creating it on first login. Any
// storage failure degrades to a zeroed record instead of blocking the
// user: an entitlement hiccup must not stand between them and a reading.
func (s *EntitlementService) loadOrDegrade(ctx context.Context, identityID string) *profile.Profile {
	p, err := s.repo.CreateIfAbsent(ctx, identityID)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to load profile, treating counts as zero")
		return &profile.Profile{IdentityID: identityID}
	}
	return p
}
