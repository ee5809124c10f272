package session

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/skylineops/costview/internal/errors"
)

const defaultRenewalWindow = time.Minute

// pendingFlow is the transient state of an in-flight authorization redirect.
type pendingFlow struct {
	State     string
	Nonce     string
	Verifier  string
	ReturnURL string
}

// Store owns the session state machine. It starts in StateUnknown; Resolve
// settles it, HandleCallback and SignOut move it, and a failed renewal
// inside AccessToken forces it back to StateUnauthenticated.
type Store struct {
	provider    Provider
	renewWindow time.Duration
	nowTime     func() time.Time

	mu      sync.RWMutex
	state   State
	claims  *Claims
	tokens  *Tokens
	lastErr error
	pending *pendingFlow

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// Option modifies a Store instance.
type Option func(*Store)

// WithRenewalWindow sets how long before expiry the access token is
// refreshed.
func WithRenewalWindow(window time.Duration) Option {
	return func(s *Store) {
		s.renewWindow = window
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

func NewStore(provider Provider, options ...Option) *Store {
	s := &Store{
		provider:    provider,
		renewWindow: defaultRenewalWindow,
		nowTime:     time.Now,
		state:       StateUnknown,
		subs:        make(map[int]func(Snapshot)),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns an immutable view of the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state}
	if s.claims != nil {
		snap.Subject = s.claims.Subject
		snap.Email = s.claims.Email
		snap.Name = s.claims.Name
	}
	if s.lastErr != nil {
		snap.Err = s.lastErr.Error()
	}
	return snap
}

// Subscribe registers fn for session change notifications and returns an
// unsubscribe function. Notifications are delivered after each transition
// with the snapshot that resulted from it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// SignIn begins a redirect-based authorization-code-with-PKCE flow and
// returns the provider authorization URL. Control leaves the application
// until the provider redirects back to the callback route.
func (s *Store) SignIn(returnURL string) string {
	flow := &pendingFlow{
		State:     randomToken(),
		Nonce:     randomToken(),
		Verifier:  oauth2.GenerateVerifier(),
		ReturnURL: returnURL,
	}

	s.mu.Lock()
	s.pending = flow
	s.mu.Unlock()

	return s.provider.AuthCodeURL(flow.State, flow.Nonce, flow.Verifier)
}

// HandleCallback finishes the flow started by SignIn. On success the session
// transitions to StateAuthenticated and the original return URL is given
// back; on failure the session settles unauthenticated with the error
// recorded for display.
func (s *Store) HandleCallback(ctx context.Context, state, code string) (string, error) {
	s.mu.Lock()
	flow := s.pending
	s.pending = nil
	s.mu.Unlock()

	if flow == nil || flow.State != state {
		return "", s.failCallback(apperrors.ErrStateMismatch)
	}

	tokens, claims, err := s.provider.Exchange(ctx, code, flow.Verifier)
	if err != nil {
		return "", s.failCallback(apperrors.Wrapf(err, "[HandleCallback] code exchange"))
	}
	if claims.Nonce != flow.Nonce {
		return "", s.failCallback(apperrors.ErrNonceMismatch)
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.claims = claims
	s.tokens = tokens
	s.lastErr = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return flow.ReturnURL, nil
}

// CallbackRejected records a failure the provider reported on the redirect
// (error/error_description parameters) and settles the session
// unauthenticated.
func (s *Store) CallbackRejected(reason string) {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	_ = s.failCallback(apperrors.Wrapf(apperrors.ErrCallbackRejected, "%s", reason))
}

func (s *Store) failCallback(err error) error {
	s.mu.Lock()
	s.state = StateUnauthenticated
	s.claims = nil
	s.tokens = nil
	s.lastErr = err
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return err
}

// AccessToken returns the current access token, renewing it when inside the
// early-renewal window. A failed renewal returns a TokenError and forces the
// session unauthenticated.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	state := s.state
	tokens := s.tokens
	s.mu.RUnlock()

	if state != StateAuthenticated || tokens == nil {
		return "", &AuthError{Reason: state.String()}
	}

	if s.nowTime().Before(tokens.Expiry.Add(-s.renewWindow)) {
		return tokens.AccessToken, nil
	}

	if tokens.RefreshToken == "" {
		err := &TokenError{Err: apperrors.ErrTokenExpired}
		s.forceUnauthenticated(err)
		return "", err
	}

	renewed, err := s.provider.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		tokenErr := &TokenError{Err: err}
		s.forceUnauthenticated(tokenErr)
		return "", tokenErr
	}

	s.mu.Lock()
	// Renewal replaces the token set wholesale; identity is unchanged so
	// subscribers are not notified.
	if renewed.RefreshToken == "" {
		renewed.RefreshToken = tokens.RefreshToken
	}
	if renewed.IDToken == "" {
		renewed.IDToken = tokens.IDToken
	}
	s.tokens = renewed
	token := renewed.AccessToken
	s.mu.Unlock()

	return token, nil
}

func (s *Store) forceUnauthenticated(err error) {
	s.mu.Lock()
	s.state = StateUnauthenticated
	s.claims = nil
	s.tokens = nil
	s.lastErr = err
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// SignOut clears the session synchronously and returns the provider
// end-session redirect URL.
func (s *Store) SignOut() string {
	s.mu.Lock()
	var idToken string
	if s.tokens != nil {
		idToken = s.tokens.IDToken
	}
	s.state = StateUnauthenticated
	s.claims = nil
	s.tokens = nil
	s.lastErr = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return s.provider.EndSessionURL(idToken)
}

// Restore stashes a previously persisted credential set while the session
// is still unresolved. Resolve decides what it is worth.
func (s *Store) Restore(tokens *Tokens, claims *Claims) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnknown {
		return
	}
	s.tokens = tokens
	s.claims = claims
}

// Resolve settles StateUnknown into authenticated or unauthenticated based
// on restored credentials. It is a no-op once the state is settled.
func (s *Store) Resolve(ctx context.Context) State {
	s.mu.Lock()
	if s.state != StateUnknown {
		state := s.state
		s.mu.Unlock()
		return state
	}
	tokens := s.tokens
	claims := s.claims
	s.mu.Unlock()

	if tokens == nil || claims == nil {
		s.forceUnauthenticated(nil)
		return StateUnauthenticated
	}

	if !s.nowTime().Before(tokens.Expiry.Add(-s.renewWindow)) {
		if tokens.RefreshToken == "" {
			s.forceUnauthenticated(&TokenError{Err: apperrors.ErrTokenExpired})
			return StateUnauthenticated
		}
		renewed, err := s.provider.Refresh(ctx, tokens.RefreshToken)
		if err != nil {
			s.forceUnauthenticated(&TokenError{Err: err})
			return StateUnauthenticated
		}
		if renewed.RefreshToken == "" {
			renewed.RefreshToken = tokens.RefreshToken
		}
		if renewed.IDToken == "" {
			renewed.IDToken = tokens.IDToken
		}
		tokens = renewed
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.tokens = tokens
	s.lastErr = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return StateAuthenticated
}
