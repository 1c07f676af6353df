package services

import (
	"context"
	"testing"

	"github.com/aetheria-app/aetheria/internal/domain/profile"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
	"github.com/aetheria-app/aetheria/internal/testutil"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func TestCheckAndRouteAnonymous(t *testing.T) {
	svc := NewEntitlementService(testutil.NewMemProfileRepo(), 3, testLogger())

	decision, _, err := svc.CheckAndRoute(context.Background(), profile.Classify(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != profile.DecisionRequireAuth {
		t.Errorf("expected require_auth for anonymous, got %s", decision)
	}
}

func TestCheckAndRouteGuest(t *testing.T) {
	svc := NewEntitlementService(testutil.NewMemProfileRepo(), 3, testLogger())

	decision, p, err := svc.CheckAndRoute(context.Background(), profile.Classify(profile.GuestID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != profile.DecisionProceed {
		t.Errorf("expected proceed for guest, got %s", decision)
	}
	if p == nil || p.IdentityID != profile.GuestID {
		t.Errorf("expected synthetic guest profile, got %+v", p)
	}
}

func TestCheckAndRouteQuota(t *testing.T) {
	tests := []struct {
		name    string
		usage   int
		premium bool
		want    profile.Decision
	}{
		{"under limit", 2, false, profile.DecisionProceed},
		{"at limit", 3, false, profile.DecisionPaywall},
		{"over limit", 7, false, profile.DecisionPaywall},
		{"premium ignores count", 999, true, profile.DecisionProceed},
		{"fresh profile", 0, false, profile.DecisionProceed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewMemProfileRepo()
			repo.Seed(&profile.Profile{
				IdentityID:     "user-1",
				FreeUsageCount: tt.usage,
				IsPremium:      tt.premium,
			})
			svc := NewEntitlementService(repo, 3, testLogger())

			decision, _, err := svc.CheckAndRoute(context.Background(), profile.Classify("user-1"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decision != tt.want {
				t.Errorf("usage=%d premium=%v: expected %s, got %s", tt.usage, tt.premium, tt.want, decision)
			}
		})
	}
}

func TestCheckAndRouteDegradesOnStoreFailure(t *testing.T) {
	repo := testutil.NewMemProfileRepo()
	repo.FailGet = true
	svc := NewEntitlementService(repo, 3, testLogger())

	decision, _, err := svc.CheckAndRoute(context.Background(), profile.Classify("user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != profile.DecisionProceed {
		t.Errorf("store failure should degrade to proceed, got %s", decision)
	}
}

func TestCommitUsageIncrementsByOne(t *testing.T) {
	repo := testutil.NewMemProfileRepo()
	svc := NewEntitlementService(repo, 3, testLogger())
	identity := profile.Classify("user-1")
	ctx := context.Background()

	if _, _, err := svc.CheckAndRoute(ctx, identity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.CommitUsage(ctx, identity); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if got := repo.Usage("user-1"); got != 1 {
		t.Errorf("expected usage 1 after one commit, got %d", got)
	}

	if err := svc.CommitUsage(ctx, identity); err != nil {
		t.Fatalf("second commit failed: %v", err)
	}
	if got := repo.Usage("user-1"); got != 2 {
		t.Errorf("expected usage 2 after two commits, got %d", got)
	}
}

func TestCommitUsageSkipsGuestAndPremium(t *testing.T) {
	repo := testutil.NewMemProfileRepo()
	repo.Seed(&profile.Profile{IdentityID: "vip", IsPremium: true, FreeUsageCount: 1})
	svc := NewEntitlementService(repo, 3, testLogger())
	ctx := context.Background()

	if err := svc.CommitUsage(ctx, profile.Classify(profile.GuestID)); err != nil {
		t.Fatalf("guest commit should be a no-op: %v", err)
	}
	if got := repo.Usage(profile.GuestID); got != 0 {
		t.Errorf("guest usage should never be persisted, got %d", got)
	}

	if err := svc.CommitUsage(ctx, profile.Classify("vip")); err != nil {
		t.Fatalf("premium commit should be a no-op: %v", err)
	}
	if got := repo.Usage("vip"); got != 1 {
		t.Errorf("premium usage must not change, got %d", got)
	}
}

func TestUnlockPremium(t *testing.T) {
	repo := testutil.NewMemProfileRepo()
	repo.Seed(&profile.Profile{IdentityID: "user-1", FreeUsageCount: 3})
	svc := NewEntitlementService(repo, 3, testLogger())
	ctx := context.Background()
	identity := profile.Classify("user-1")

	p, err := svc.UnlockPremium(ctx, identity)
	if err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if !p.IsPremium {
		t.Error("expected premium flag set")
	}

	// The limit no longer applies after the unlock.
	decision, _, err := svc.CheckAndRoute(ctx, identity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != profile.DecisionProceed {
		t.Errorf("expected proceed after unlock, got %s", decision)
	}
}

func TestUnlockPremiumRejectsAnonymous(t *testing.T) {
	svc := NewEntitlementService(testutil.NewMemProfileRepo(), 3, testLogger())

	if _, err := svc.UnlockPremium(context.Background(), profile.Classify("")); err == nil {
		t.Error("expected error for anonymous unlock")
	}
}
