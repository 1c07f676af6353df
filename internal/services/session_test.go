package services

import (
	"context"
	"testing"
	"time"

	"github.com/aetheria-app/aetheria/internal/domain/horoscope"
	"github.com/aetheria-app/aetheria/internal/domain/profile"
	"github.com/aetheria-app/aetheria/internal/generator"
	"github.com/aetheria-app/aetheria/internal/locale"
	"github.com/aetheria-app/aetheria/internal/testutil"
)

type sessionFixture struct {
	profiles *testutil.MemProfileRepo
	history  *testutil.MemHistoryRepo
	manager  *SessionManager
}

// stalledBackend never answers; it waits for the context to expire.
type stalledBackend struct{}

func (stalledBackend) Name() string { return "stalled" }

func (stalledBackend) GenerateStructured(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func newSessionFixture(t *testing.T, backend generator.Backend, timeout time.Duration) *sessionFixture {
	t.Helper()
	log := testLogger()
	profiles := testutil.NewMemProfileRepo()
	hist := testutil.NewMemHistoryRepo()
	entitlement := NewEntitlementService(profiles, 3, log)
	historySvc := NewHistoryService(hist, log)
	client := generator.NewClient(backend, generator.NewMock(), false, log)
	return &sessionFixture{
		profiles: profiles,
		history:  hist,
		manager:  NewSessionManager(entitlement, historySvc, client, timeout, log),
	}
}

func annaData() horoscope.UserData {
	return horoscope.UserData{
		Name:      "анна",
		DOB:       "1995-07-15",
		TOB:       "08:30",
		Element:   horoscope.ElementWater,
		Archetype: horoscope.ArchetypeHealer,
		Feeling:   horoscope.FeelingSeekingLove,
	}
}

func TestSubmitHappyPath(t *testing.T) {
	f := newSessionFixture(t, nil, time.Second)
	identity := profile.Classify("anna-id")
	s := f.manager.Get("sess-1", identity, locale.RU)

	snap, err := s.Submit(context.Background(), annaData())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if snap.State != StateResult {
		t.Fatalf("expected result state, got %s", snap.State)
	}
	if snap.Result == nil || snap.Result.Prediction.Headline == "" {
		t.Fatal("expected a complete prediction")
	}
	if snap.User.Name != "Анна" {
		t.Errorf("expected capitalized name, got %q", snap.User.Name)
	}
	if snap.User.ZodiacSign != "Cancer" {
		t.Errorf("expected Cancer for July 15, got %s", snap.User.ZodiacSign)
	}

	// Success committed exactly one use and archived the reading.
	if got := f.profiles.Usage("anna-id"); got != 1 {
		t.Errorf("expected usage 1, got %d", got)
	}
	if f.history.Len() != 1 {
		t.Errorf("expected 1 history entry, got %d", f.history.Len())
	}
}

func TestSubmitIncompleteDataRejected(t *testing.T) {
	f := newSessionFixture(t, nil, time.Second)
	s := f.manager.Get("sess-1", profile.Classify("anna-id"), locale.RU)

	data := annaData()
	data.DOB = ""
	if _, err := s.Submit(context.Background(), data); err == nil {
		t.Fatal("expected rejection of incomplete data")
	}
	if got := s.Snapshot().State; got != StateOnboarding {
		t.Errorf("rejection must not transition, got %s", got)
	}
}

func TestSubmitAnonymousRoutesToAuth(t *testing.T) {
	f := newSessionFixture(t, nil, time.Second)
	s := f.manager.Get("sess-1", profile.Classify(""), locale.RU)

	snap, err := s.Submit(context.Background(), annaData())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if snap.State != StateAwaitAuth {
		t.Fatalf("expected await_auth, got %s", snap.State)
	}

	// Signing in resumes the held request without re-entering onboarding.
	snap, err = s.ResolveAuth(context.Background(), profile.Classify("anna-id"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if snap.State != StateResult {
		t.Fatalf("expected result after auth, got %s", snap.State)
	}
	if got := f.profiles.Usage("anna-id"); got != 1 {
		t.Errorf("expected usage 1, got %d", got)
	}
}

func TestSubmitAtLimitRoutesToPaywall(t *testing.T) {
	f := newSessionFixture(t, nil, time.Second)
	f.profiles.Seed(&profile.Profile{IdentityID: "anna-id", FreeUsageCount: 3})
	s := f.manager.Get("sess-1", profile.Classify("anna-id"), locale.RU)
	ctx := context.Background()

	snap, err := s.Submit(ctx, annaData())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if snap.State != StatePaywall {
		t.Fatalf("expected paywall at limit, got %s", snap.State)
	}

	// Unlock resumes the pending request.
	snap, err = s.Unlock(ctx)
	if err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if snap.State != StateResult {
		t.Fatalf("expected result after unlock, got %s", snap.State)
	}
	// Premium success does not touch the counter.
	if got := f.profiles.Usage("anna-id"); got != 3 {
		t.Errorf("expected usage unchanged at 3, got %d", got)
	}
}

func TestGuestBypassesQuotaAndPersistsHistory(t *testing.T) {
	f := newSessionFixture(t, nil, time.Second)
	s := f.manager.Get("sess-1", profile.Classify(profile.GuestID), locale.RU)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		snap, err := s.Submit(ctx, annaData())
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
		if snap.State != StateResult {
			t.Fatalf("submit %d: expected result, got %s", i, snap.State)
		}
	}
	if got := f.profiles.Usage(profile.GuestID); got != 0 {
		t.Errorf("guest usage must stay 0, got %d", got)
	}
	entries, err := f.history.List(ctx, profile.GuestID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("expected 5 guest history entries, got %d", len(entries))
	}
}

func TestStalledGenerationTimesOutAndRetries(t *testing.T) {
	f := newSessionFixture(t, stalledBackend{}, 20*time.Millisecond)
	s := f.manager.Get("sess-1", profile.Classify("anna-id"), locale.RU)
	ctx := context.Background()

	snap, err := s.Submit(ctx, annaData())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if snap.State != StateError {
		t.Fatalf("expected error state, got %s", snap.State)
	}
	if snap.ErrorMessage == "" {
		t.Error("expected a localized error message")
	}
	// Failed attempts never consume the quota or touch history.
	if got := f.profiles.Usage("anna-id"); got != 0 {
		t.Errorf("expected usage 0 after timeout, got %d", got)
	}
	if f.history.Len() != 0 {
		t.Errorf("expected no history after timeout, got %d", f.history.Len())
	}

	// Retry re-enters Generating; with the backend still stalled it fails
	// the same way rather than dropping to onboarding.
	snap, err = s.Retry(ctx)
	if err == nil {
		t.Fatal("expected timeout error on retry")
	}
	if snap.State != StateError {
		t.Fatalf("expected error state after retry, got %s", snap.State)
	}
}

func TestResetReturnsToOnboarding(t *testing.T) {
	f := newSessionFixture(t, nil, time.Second)
	s := f.manager.Get("sess-1", profile.Classify("anna-id"), locale.RU)

	if _, err := s.Submit(context.Background(), annaData()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	snap := s.Reset()
	if snap.State != StateOnboarding {
		t.Fatalf("expected onboarding after reset, got %s", snap.State)
	}
	if snap.User != nil || snap.Result != nil {
		t.Error("reset must clear session data")
	}
}

func TestHistoryOpenSelectClose(t *testing.T) {
	f := newSessionFixture(t, nil, time.Second)
	s := f.manager.Get("sess-1", profile.Classify("anna-id"), locale.RU)
	ctx := context.Background()

	if _, err := s.Submit(ctx, annaData()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	firstID := s.Snapshot().EntryID

	snap, err := s.OpenHistory()
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if snap.State != StateHistory {
		t.Fatalf("expected history state, got %s", snap.State)
	}

	snap, err = s.SelectHistoryEntry(ctx, firstID)
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if snap.State != StateResult {
		t.Fatalf("expected result after select, got %s", snap.State)
	}
	if snap.EntryID != firstID {
		t.Errorf("expected entry %s, got %s", firstID, snap.EntryID)
	}

	// Close returns to where history was opened from.
	snap2, err := s.OpenHistory()
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if snap2.State != StateHistory {
		t.Fatalf("expected history state, got %s", snap2.State)
	}
	snap2, err = s.CloseHistory()
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if snap2.State != StateResult {
		t.Errorf("expected return to result, got %s", snap2.State)
	}
}

func TestSwitchingIdentityDiscardsResult(t *testing.T) {
	f := newSessionFixture(t, nil, time.Second)
	s := f.manager.Get("sess-1", profile.Classify("anna-id"), locale.RU)

	if _, err := s.Submit(context.Background(), annaData()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Same key, different identity: result must not leak across accounts.
	s = f.manager.Get("sess-1", profile.Classify("boris-id"), locale.RU)
	if snap := s.Snapshot(); snap.Result != nil {
		t.Error("result leaked across identities")
	}
}

func TestIllegalEventsIgnored(t *testing.T) {
	f := newSessionFixture(t, nil, time.Second)
	s := f.manager.Get("sess-1", profile.Classify("anna-id"), locale.RU)
	ctx := context.Background()

	if _, err := s.Retry(ctx); err == nil {
		t.Error("retry outside Error must fail")
	}
	if _, err := s.Unlock(ctx); err == nil {
		t.Error("unlock outside Paywall must fail")
	}
	if _, err := s.CloseHistory(); err == nil {
		t.Error("close outside History must fail")
	}
	if got := s.Snapshot().State; got != StateOnboarding {
		t.Errorf("illegal events must not transition, got %s", got)
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		from    AppState
		ev      event
		want    AppState
		allowed bool
	}{
		{"submit proceed", StateOnboarding, event{kind: eventSubmit, decision: profile.DecisionProceed}, StateGenerating, true},
		{"submit paywall", StateOnboarding, event{kind: eventSubmit, decision: profile.DecisionPaywall}, StatePaywall, true},
		{"submit anon", StateOnboarding, event{kind: eventSubmit, decision: profile.DecisionRequireAuth}, StateAwaitAuth, true},
		{"auth with data", StateAwaitAuth, event{kind: eventAuthResolved, decision: profile.DecisionProceed, hasUser: true}, StateGenerating, true},
		{"auth lost data", StateAwaitAuth, event{kind: eventAuthResolved, hasUser: false}, StateOnboarding, true},
		{"guest", StateAwaitAuth, event{kind: eventGuestChosen}, StateGenerating, true},
		{"unlock", StatePaywall, event{kind: eventUnlock, hasUser: true}, StateGenerating, true},
		{"generation ok", StateGenerating, event{kind: eventGenerationOK}, StateResult, true},
		{"generation timeout", StateGenerating, event{kind: eventTimeout}, StateError, true},
		{"retry", StateError, event{kind: eventRetry}, StateGenerating, true},
		{"reset from error", StateError, event{kind: eventReset}, StateOnboarding, true},
		{"reset from paywall", StatePaywall, event{kind: eventReset}, StateOnboarding, true},
		{"history from result", StateResult, event{kind: eventOpenHistory}, StateHistory, true},
		{"history close", StateHistory, event{kind: eventCloseHistory, returnTo: StateResult}, StateResult, true},
		{"retry outside error", StateResult, event{kind: eventRetry}, StateResult, false},
		{"unlock outside paywall", StateOnboarding, event{kind: eventUnlock}, StateOnboarding, false},
		{"submit while generating", StateGenerating, event{kind: eventSubmit}, StateGenerating, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := transition(tt.from, tt.ev)
			if ok != tt.allowed {
				t.Fatalf("allowed=%v, want %v", ok, tt.allowed)
			}
			if ok && got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
