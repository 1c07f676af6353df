package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aetheria-app/aetheria/internal/domain/horoscope"
	"github.com/aetheria-app/aetheria/internal/domain/profile"
	"github.com/aetheria-app/aetheria/internal/generator"
	"github.com/aetheria-app/aetheria/internal/locale"
	apperrors "github.com/aetheria-app/aetheria/internal/pkg/errors"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
	"github.com/aetheria-app/aetheria/internal/pkg/metrics"
)

// AppState is the session's position in the product flow.
type AppState string

const (
	StateOnboarding AppState = "onboarding"
	StateAwaitAuth  AppState = "await_auth"
	StatePaywall    AppState = "paywall"
	StateGenerating AppState = "generating"
	StateResult     AppState = "result"
	StateError      AppState = "error"
	StateHistory    AppState = "history"
)

type eventKind string

const (
	eventSubmit       eventKind = "submit"
	eventAuthResolved eventKind = "auth_resolved"
	eventGuestChosen  eventKind = "guest_chosen"
	eventUnlock       eventKind = "unlock"
	eventGenerationOK eventKind = "generation_ok"
	eventTimeout      eventKind = "timeout"
	eventFailure      eventKind = "failure"
	eventRetry        eventKind = "retry"
	eventReset        eventKind = "reset"
	eventOpenHistory  eventKind = "open_history"
	eventCloseHistory eventKind = "close_history"
	eventSelectEntry  eventKind = "select_entry"
)

// event is a discrete trigger with the routing facts already resolved, so
// transition stays a pure function.
type event struct {
	kind     eventKind
	decision profile.Decision
	hasUser  bool
	returnTo AppState
}

// transition is the single authority on state changes:
// (currentState, event) -> newState. It returns false for an event that is
// not legal in the current state, and no transition fires.
func transition(current AppState, ev event) (AppState, bool) {
	// Reset and history replay are reachable from everywhere; the app has
	// no terminal state.
	switch ev.kind {
	case eventReset:
		return StateOnboarding, true
	case eventSelectEntry:
		return StateResult, true
	}

	switch current {
	case StateOnboarding:
		switch ev.kind {
		case eventSubmit:
			return routeDecision(ev.decision), true
		case eventOpenHistory:
			return StateHistory, true
		}
	case StateAwaitAuth:
		switch ev.kind {
		case eventAuthResolved:
			if !ev.hasUser {
				// Onboarding data was lost while authenticating.
				return StateOnboarding, true
			}
			return routeDecision(ev.decision), true
		case eventGuestChosen:
			return StateGenerating, true
		}
	case StatePaywall:
		if ev.kind == eventUnlock {
			if ev.hasUser {
				return StateGenerating, true
			}
			return StateOnboarding, true
		}
	case StateGenerating:
		switch ev.kind {
		case eventGenerationOK:
			return StateResult, true
		case eventTimeout, eventFailure:
			return StateError, true
		}
	case StateResult:
		if ev.kind == eventOpenHistory {
			return StateHistory, true
		}
	case StateError:
		if ev.kind == eventRetry {
			return StateGenerating, true
		}
	case StateHistory:
		if ev.kind == eventCloseHistory {
			return ev.returnTo, true
		}
	}
	return current, false
}

func routeDecision(d profile.Decision) AppState {
	switch d {
	case profile.DecisionPaywall:
		return StatePaywall
	case profile.DecisionRequireAuth:
		return StateAwaitAuth
	default:
		return StateGenerating
	}
}

// Session is one user-facing app session: current state, held user data,
// and the latest result. All mutation goes through the transition function
// in response to one event at a time.
type Session struct {
	mu sync.Mutex

	state    AppState
	returnTo AppState
	identity profile.Identity
	loc      locale.Locale
	user     *horoscope.UserData
	result   *generator.Result
	entryID  string
	errMsg   string

	// genSeq invalidates in-flight generations: a completion whose
	// sequence no longer matches is ignored, so a reset during a pending
	// call can never fire a second transition.
	genSeq uint64

	entitlement profile.Service
	history     *HistoryService
	client      *generator.Client
	timeout     time.Duration
	logger      *logger.Logger
}

// Snapshot is a read-only view of a session for the API layer.
type Snapshot struct {
	State        AppState                   `json:"state"`
	User         *horoscope.UserData        `json:"user,omitempty"`
	Result       *generator.Result          `json:"result,omitempty"`
	EntryID      string                     `json:"entryId,omitempty"`
	ErrorMessage string                     `json:"errorMessage,omitempty"`
}

// NewSession creates a session in the Onboarding state.
func NewSession(
	identity profile.Identity,
	loc locale.Locale,
	entitlement profile.Service,
	history *HistoryService,
	client *generator.Client,
	timeout time.Duration,
	log *logger.Logger,
) *Session {
	return &Session{
		state:       StateOnboarding,
		returnTo:    StateOnboarding,
		identity:    identity,
		loc:         loc,
		entitlement: entitlement,
		history:     history,
		client:      client,
		timeout:     timeout,
		logger:      log,
	}
}

// Snapshot returns the session's current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:        s.state,
		User:         s.user,
		Result:       s.result,
		EntryID:      s.entryID,
		ErrorMessage: s.errMsg,
	}
}

// Identity returns the identity bound to the session.
func (s *Session) Identity() profile.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// SetIdentity rebinds the session to a new identity (sign-in, sign-out,
// guest entry). The previous identity's result is discarded: histories are
// disjoint per identity.
func (s *Session) SetIdentity(identity profile.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity.ID == identity.ID && s.identity.Class == identity.Class {
		return
	}
	s.identity = identity
	s.result = nil
	s.entryID = ""
}

// Submit accepts completed onboarding data and routes through the
// entitlement gate. Incomplete data is rejected without a transition.
func (s *Session) Submit(ctx context.Context, data horoscope.UserData) (Snapshot, error) {
	data.Normalize()
	if !data.Complete() {
		return s.Snapshot(), apperrors.BadRequest("Onboarding data is incomplete")
	}

	s.mu.Lock()
	if s.state != StateOnboarding && s.state != StateResult && s.state != StateError {
		defer s.mu.Unlock()
		return s.snapshotLocked(), apperrors.Conflict("Session is not accepting onboarding data")
	}
	// Re-submitting from Result/Error is the "ask the stars again" loop.
	s.state = StateOnboarding
	s.user = &data
	identity := s.identity
	s.mu.Unlock()

	decision, _, err := s.entitlement.CheckAndRoute(ctx, identity)
	if err != nil {
		return s.Snapshot(), err
	}

	next := s.apply(event{kind: eventSubmit, decision: decision})
	if next != StateGenerating {
		return s.Snapshot(), nil
	}
	return s.generate(ctx)
}

// ResolveAuth continues the flow after a successful sign-in while the
// session waits in AwaitAuth.
func (s *Session) ResolveAuth(ctx context.Context, identity profile.Identity) (Snapshot, error) {
	s.SetIdentity(identity)

	s.mu.Lock()
	if s.state != StateAwaitAuth {
		defer s.mu.Unlock()
		return s.snapshotLocked(), nil
	}
	hasUser := s.user != nil
	s.mu.Unlock()

	var decision profile.Decision
	if hasUser {
		var err error
		decision, _, err = s.entitlement.CheckAndRoute(ctx, identity)
		if err != nil {
			return s.Snapshot(), err
		}
	}

	kind := eventAuthResolved
	if identity.Class == profile.ClassGuest && hasUser {
		// Guests bypass the quota unconditionally.
		kind = eventGuestChosen
	}
	next := s.apply(event{kind: kind, decision: decision, hasUser: hasUser})
	if next != StateGenerating {
		return s.Snapshot(), nil
	}
	return s.generate(ctx)
}

// Unlock simulates the premium purchase and resumes the pending request.
func (s *Session) Unlock(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.state != StatePaywall {
		defer s.mu.Unlock()
		return s.snapshotLocked(), apperrors.Conflict("Session is not at the paywall")
	}
	identity := s.identity
	hasUser := s.user != nil
	s.mu.Unlock()

	if _, err := s.entitlement.UnlockPremium(ctx, identity); err != nil {
		return s.Snapshot(), err
	}

	next := s.apply(event{kind: eventUnlock, hasUser: hasUser})
	if next != StateGenerating {
		return s.Snapshot(), nil
	}
	return s.generate(ctx)
}

// Retry re-enters Generating from the Error state.
func (s *Session) Retry(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.state != StateError {
		defer s.mu.Unlock()
		return s.snapshotLocked(), apperrors.Conflict("Nothing to retry")
	}
	s.mu.Unlock()

	s.apply(event{kind: eventRetry})
	return s.generate(ctx)
}

// Reset returns to Onboarding and stops listening for any in-flight
// generation. The underlying call may still complete in the background and
// must then be a no-op.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	s.genSeq++
	s.user = nil
	s.result = nil
	s.entryID = ""
	s.errMsg = ""
	s.mu.Unlock()

	s.apply(event{kind: eventReset})
	return s.Snapshot()
}

// OpenHistory enters the History side-state, remembering where to return.
func (s *Session) OpenHistory() (Snapshot, error) {
	s.mu.Lock()
	if s.state != StateOnboarding && s.state != StateResult {
		defer s.mu.Unlock()
		return s.snapshotLocked(), apperrors.Conflict("History is not available here")
	}
	s.returnTo = s.state
	s.mu.Unlock()

	s.apply(event{kind: eventOpenHistory})
	return s.Snapshot(), nil
}

// CloseHistory returns to whichever state History was opened from.
func (s *Session) CloseHistory() (Snapshot, error) {
	s.mu.Lock()
	if s.state != StateHistory {
		defer s.mu.Unlock()
		return s.snapshotLocked(), apperrors.Conflict("History is not open")
	}
	returnTo := s.returnTo
	s.mu.Unlock()

	s.apply(event{kind: eventCloseHistory, returnTo: returnTo})
	return s.Snapshot(), nil
}

// SelectHistoryEntry loads a stored prediction into the Result state
// without invoking generation.
func (s *Session) SelectHistoryEntry(ctx context.Context, entryID string) (Snapshot, error) {
	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()

	entry, err := s.history.Get(ctx, identity.ID, entryID)
	if err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	s.genSeq++ // a pending generation no longer owns the session
	s.result = &generator.Result{Prediction: entry.Prediction}
	s.entryID = entry.ID
	s.errMsg = ""
	if s.user == nil {
		// Substitute a placeholder so the result view can render.
		placeholder := horoscope.UserData{Name: locale.T(s.loc, locale.KeyPlaceholderName)}
		s.user = &placeholder
	}
	s.mu.Unlock()

	s.apply(event{kind: eventSelectEntry})
	return s.Snapshot(), nil
}

// generate runs the bounded generation attempt and applies exactly one
// completion event. Stale completions (the session was reset or replaced
// meanwhile) are dropped.
func (s *Session) generate(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.state != StateGenerating || s.user == nil {
		defer s.mu.Unlock()
		return s.snapshotLocked(), apperrors.Internal("Generation started outside Generating", nil)
	}
	s.genSeq++
	seq := s.genSeq
	userCopy := *s.user
	identity := s.identity
	loc := s.loc
	s.mu.Unlock()

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.client.Generate(genCtx, userCopy, loc)

	s.mu.Lock()
	if s.genSeq != seq || s.state != StateGenerating {
		// The session moved on; whichever event won the race already fired.
		defer s.mu.Unlock()
		return s.snapshotLocked(), nil
	}
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.setError(locale.T(loc, locale.KeyTimeoutError))
			s.apply(event{kind: eventTimeout})
			return s.Snapshot(), apperrors.GenerationTimeout(locale.T(loc, locale.KeyTimeoutError))
		}
		if errors.Is(err, context.Canceled) {
			return s.Snapshot(), err
		}
		// Only reachable in the error-surfacing build variant.
		s.setError(locale.T(loc, locale.KeyGenerationError))
		s.apply(event{kind: eventFailure})
		return s.Snapshot(), apperrors.GenerationFailed(err)
	}

	// Archive and commit usage before the Result state is stable. Both are
	// best effort: the reading stays visible even if persistence misbehaves.
	entry := s.history.Append(ctx, identity.ID, res.Prediction)
	if err := s.entitlement.CommitUsage(ctx, identity); err != nil {
		s.logger.WithError(err).Warn("usage commit failed after successful generation")
	}

	s.mu.Lock()
	s.result = &res
	s.entryID = entry.ID
	s.errMsg = ""
	s.mu.Unlock()

	s.apply(event{kind: eventGenerationOK})
	return s.Snapshot(), nil
}

func (s *Session) setError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

// apply fires one event through the transition function and records the
// new state. Illegal events leave the state untouched.
func (s *Session) apply(ev event) AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := transition(s.state, ev)
	if !ok {
		s.logger.WithFields(map[string]interface{}{
			"state": s.state,
			"event": ev.kind,
		}).Warn("ignoring illegal state-machine event")
		return s.state
	}
	if next != s.state {
		s.logger.WithFields(map[string]interface{}{
			"from":  s.state,
			"to":    next,
			"event": ev.kind,
		}).Debug("session transition")
	}
	s.state = next
	return next
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:        s.state,
		User:         s.user,
		Result:       s.result,
		EntryID:      s.entryID,
		ErrorMessage: s.errMsg,
	}
}

// SessionManager hands out one session per browser session key.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	entitlement profile.Service
	history     *HistoryService
	client      *generator.Client
	timeout     time.Duration
	logger      *logger.Logger
}

// NewSessionManager creates a session registry.
func NewSessionManager(
	entitlement profile.Service,
	history *HistoryService,
	client *generator.Client,
	timeout time.Duration,
	log *logger.Logger,
) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		entitlement: entitlement,
		history:     history,
		client:      client,
		timeout:     timeout,
		logger:      log,
	}
}

// Get returns the session for a key, creating it in Onboarding if needed,
// and rebinds it to the caller's current identity.
func (m *SessionManager) Get(key string, identity profile.Identity, loc locale.Locale) *Session {
	m.mu.Lock()
	s, ok := m.sessions[key]
	if !ok {
		s = NewSession(identity, loc, m.entitlement, m.history, m.client, m.timeout, m.logger)
		m.sessions[key] = s
		metrics.SetActiveSessions(float64(len(m.sessions)))
	}
	m.mu.Unlock()

	s.SetIdentity(identity)
	return s
}
