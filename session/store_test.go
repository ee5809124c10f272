package session_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/skylineops/costview/internal/errors"
	"github.com/skylineops/costview/session"
	"github.com/skylineops/costview/session/providerfake"
)

type storeFixture struct {
	provider *providerfake.FakeProvider
	store    *session.Store
	now      time.Time
}

func setupStore(t *testing.T, options ...session.Option) *storeFixture {
	t.Helper()

	f := &storeFixture{
		provider: providerfake.New(),
		now:      time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	opts := append([]session.Option{session.WithNowTime(func() time.Time { return f.now })}, options...)
	f.store = session.NewStore(f.provider, opts...)
	return f
}

// signIn drives the full redirect round trip and leaves the store
// authenticated.
func (f *storeFixture) signIn(t *testing.T, returnURL string) string {
	t.Helper()

	authURL := f.store.SignIn(returnURL)
	state := queryParam(t, authURL, "state")

	gotReturn, err := f.store.HandleCallback(context.Background(), state, "auth-code")
	require.NoError(t, err)
	require.Equal(t, session.StateAuthenticated, f.store.State())
	return gotReturn
}

func queryParam(t *testing.T, rawURL, key string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Query().Get(key)
}

func TestStore_StartsUnknown(t *testing.T) {
	f := setupStore(t)

	require.Equal(t, session.StateUnknown, f.store.State())
	snap := f.store.Snapshot()
	require.False(t, snap.Authenticated())
	require.Empty(t, snap.Subject)
}

func TestSignIn_GeneratesDistinctFlows(t *testing.T) {
	f := setupStore(t)

	first := f.store.SignIn("/profile")
	second := f.store.SignIn("/profile")

	require.NotEqual(t, queryParam(t, first, "state"), queryParam(t, second, "state"))
	require.NotEqual(t, queryParam(t, first, "nonce"), queryParam(t, second, "nonce"))
}

func TestHandleCallback_Success(t *testing.T) {
	f := setupStore(t)

	returnURL := f.signIn(t, "/dashboard")
	require.Equal(t, "/dashboard", returnURL)

	snap := f.store.Snapshot()
	require.True(t, snap.Authenticated())
	require.Equal(t, "sub-0001", snap.Subject)
	require.Equal(t, "jane.doe@example.com", snap.Email)
	require.Empty(t, snap.Err)
}

func TestHandleCallback_StateMismatch(t *testing.T) {
	f := setupStore(t)

	f.store.SignIn("/profile")
	_, err := f.store.HandleCallback(context.Background(), "forged-state", "auth-code")

	require.ErrorIs(t, err, apperrors.ErrStateMismatch)
	require.Equal(t, session.StateUnauthenticated, f.store.State())
	// The forging attempt must not reach the provider.
	require.Zero(t, f.provider.ExchangeCnt)
}

func TestHandleCallback_WithoutPendingFlow(t *testing.T) {
	f := setupStore(t)

	_, err := f.store.HandleCallback(context.Background(), "any-state", "auth-code")
	require.ErrorIs(t, err, apperrors.ErrStateMismatch)
	require.Equal(t, session.StateUnauthenticated, f.store.State())
}

func TestHandleCallback_NonceMismatch(t *testing.T) {
	f := setupStore(t)
	f.provider.BreakNonce = true

	authURL := f.store.SignIn("/profile")
	_, err := f.store.HandleCallback(context.Background(), queryParam(t, authURL, "state"), "auth-code")

	require.ErrorIs(t, err, apperrors.ErrNonceMismatch)
	require.Equal(t, session.StateUnauthenticated, f.store.State())
}

func TestHandleCallback_ExchangeFails(t *testing.T) {
	f := setupStore(t)
	f.provider.ExchangeErr = errors.New("provider unavailable")

	authURL := f.store.SignIn("/profile")
	_, err := f.store.HandleCallback(context.Background(), queryParam(t, authURL, "state"), "auth-code")

	require.Error(t, err)
	require.Equal(t, session.StateUnauthenticated, f.store.State())
	require.Contains(t, f.store.Snapshot().Err, "provider unavailable")
}

func TestCallbackRejected_RecordsReason(t *testing.T) {
	f := setupStore(t)

	f.store.SignIn("/profile")
	f.store.CallbackRejected("access_denied")

	require.Equal(t, session.StateUnauthenticated, f.store.State())
	require.Contains(t, f.store.Snapshot().Err, "access_denied")
}

func TestAccessToken_WhenUnauthenticated(t *testing.T) {
	f := setupStore(t)

	_, err := f.store.AccessToken(context.Background())

	var authErr *session.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Zero(t, f.provider.RefreshCnt)
}

func TestAccessToken_OutsideRenewalWindow(t *testing.T) {
	f := setupStore(t)
	f.signIn(t, "/")

	token, err := f.store.AccessToken(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Zero(t, f.provider.RefreshCnt)
}

func TestAccessToken_RenewsInsideWindow(t *testing.T) {
	f := setupStore(t, session.WithRenewalWindow(time.Minute))
	f.signIn(t, "/")

	before, err := f.store.AccessToken(context.Background())
	require.NoError(t, err)

	// Move the clock to 30s before expiry, inside the renewal window.
	f.now = time.Now().Add(f.provider.TokenExpiry - 30*time.Second)

	after, err := f.store.AccessToken(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, before, after)
	require.Equal(t, 1, f.provider.RefreshCnt)
	require.Equal(t, session.StateAuthenticated, f.store.State())
}

func TestAccessToken_RenewalDoesNotNotify(t *testing.T) {
	f := setupStore(t)
	f.signIn(t, "/")

	var notifications int
	unsubscribe := f.store.Subscribe(func(session.Snapshot) { notifications++ })
	defer unsubscribe()

	f.now = time.Now().Add(f.provider.TokenExpiry - 30*time.Second)
	_, err := f.store.AccessToken(context.Background())
	require.NoError(t, err)
	require.Zero(t, notifications)
}

func TestAccessToken_RenewalFailureForcesUnauthenticated(t *testing.T) {
	f := setupStore(t)
	f.signIn(t, "/")
	f.provider.RefreshErr = errors.New("refresh_token revoked")

	f.now = time.Now().Add(f.provider.TokenExpiry - 30*time.Second)
	_, err := f.store.AccessToken(context.Background())

	var tokenErr *session.TokenError
	require.ErrorAs(t, err, &tokenErr)
	require.ErrorIs(t, err, apperrors.ErrTokenRenewal)
	require.Equal(t, session.StateUnauthenticated, f.store.State())

	// Later calls fail fast without hitting the provider again.
	refreshes := f.provider.RefreshCnt
	_, err = f.store.AccessToken(context.Background())
	var authErr *session.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, refreshes, f.provider.RefreshCnt)
}

func TestSubscribe_NotifiedOnTransitions(t *testing.T) {
	f := setupStore(t)

	var states []session.State
	unsubscribe := f.store.Subscribe(func(snap session.Snapshot) {
		states = append(states, snap.State)
	})
	defer unsubscribe()

	f.signIn(t, "/")
	f.store.SignOut()

	require.Equal(t, []session.State{session.StateAuthenticated, session.StateUnauthenticated}, states)
}

func TestSubscribe_UnsubscribeStopsDelivery(t *testing.T) {
	f := setupStore(t)

	var notifications int
	unsubscribe := f.store.Subscribe(func(session.Snapshot) { notifications++ })
	unsubscribe()

	f.signIn(t, "/")
	require.Zero(t, notifications)
}

func TestSignOut_ClearsSessionBeforeRedirect(t *testing.T) {
	f := setupStore(t)
	f.signIn(t, "/")

	endSession := f.store.SignOut()

	require.Equal(t, session.StateUnauthenticated, f.store.State())
	require.Contains(t, endSession, "id_token_hint=")

	_, err := f.store.AccessToken(context.Background())
	var authErr *session.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestResolve_NoStoredCredentials(t *testing.T) {
	f := setupStore(t)

	state := f.store.Resolve(context.Background())

	require.Equal(t, session.StateUnauthenticated, state)
	require.Empty(t, f.store.Snapshot().Err)
}

func TestResolve_ValidStoredCredentials(t *testing.T) {
	f := setupStore(t)

	f.store.Restore(
		&session.Tokens{AccessToken: "stored-access", Expiry: f.now.Add(time.Hour)},
		&session.Claims{Subject: "sub-0001", Email: "jane.doe@example.com"},
	)
	state := f.store.Resolve(context.Background())

	require.Equal(t, session.StateAuthenticated, state)
	token, err := f.store.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "stored-access", token)
}

func TestResolve_ExpiredCredentialsAreRenewed(t *testing.T) {
	f := setupStore(t)

	f.store.Restore(
		&session.Tokens{AccessToken: "stale", RefreshToken: "refresh-0", Expiry: f.now.Add(-time.Hour)},
		&session.Claims{Subject: "sub-0001"},
	)
	state := f.store.Resolve(context.Background())

	require.Equal(t, session.StateAuthenticated, state)
	require.Equal(t, 1, f.provider.RefreshCnt)
}

func TestResolve_ExpiredWithoutRefreshToken(t *testing.T) {
	f := setupStore(t)

	f.store.Restore(
		&session.Tokens{AccessToken: "stale", Expiry: f.now.Add(-time.Hour)},
		&session.Claims{Subject: "sub-0001"},
	)
	state := f.store.Resolve(context.Background())

	require.Equal(t, session.StateUnauthenticated, state)
	require.Zero(t, f.provider.RefreshCnt)
}

func TestResolve_IsIdempotentOnceSettled(t *testing.T) {
	f := setupStore(t)
	f.signIn(t, "/")

	require.Equal(t, session.StateAuthenticated, f.store.Resolve(context.Background()))
	require.Equal(t, session.StateAuthenticated, f.store.Resolve(context.Background()))
}
