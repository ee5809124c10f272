package providerfake

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/skylineops/costview/session"
)

var _ session.Provider = (*FakeProvider)(nil)

// FakeProvider is a scriptable in-memory identity provider for tests.
type FakeProvider struct {
	lock sync.Mutex

	// Claims returned on a successful exchange. The Nonce field is
	// overwritten with the nonce of the pending flow unless
	// BreakNonce is set.
	Claims session.Claims

	TokenExpiry  time.Duration
	ExchangeErr  error
	RefreshErr   error
	BreakNonce   bool
	ExchangeCnt  int
	RefreshCnt   int
	IssuedTokens int

	lastNonce string
}

func New() *FakeProvider {
	return &FakeProvider{
		Claims: session.Claims{
			Subject: "sub-0001",
			Email:   "jane.doe@example.com",
			Name:    "Jane Doe",
		},
		TokenExpiry: time.Hour,
	}
}

func (f *FakeProvider) AuthCodeURL(state, nonce, verifier string) string {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.lastNonce = nonce

	q := url.Values{}
	q.Set("state", state)
	q.Set("nonce", nonce)
	q.Set("code_challenge", verifier)
	return "https://idp.example.com/authorize?" + q.Encode()
}

func (f *FakeProvider) Exchange(_ context.Context, code, verifier string) (*session.Tokens, *session.Claims, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.ExchangeCnt++
	if f.ExchangeErr != nil {
		return nil, nil, f.ExchangeErr
	}
	if code == "" || verifier == "" {
		return nil, nil, errors.New("missing code or verifier")
	}

	claims := f.Claims
	if !f.BreakNonce {
		claims.Nonce = f.lastNonce
	}
	return f.issueTokens(), &claims, nil
}

func (f *FakeProvider) Refresh(_ context.Context, refreshToken string) (*session.Tokens, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.RefreshCnt++
	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}
	if refreshToken == "" {
		return nil, errors.New("missing refresh token")
	}
	return f.issueTokens(), nil
}

func (f *FakeProvider) VerifyIDToken(_ context.Context, rawIDToken string) (*session.Claims, error) {
	if rawIDToken == "" {
		return nil, errors.New("empty id token")
	}
	claims := f.Claims
	return &claims, nil
}

func (f *FakeProvider) EndSessionURL(idTokenHint string) string {
	q := url.Values{}
	if idTokenHint != "" {
		q.Set("id_token_hint", idTokenHint)
	}
	return "https://idp.example.com/logout?" + q.Encode()
}

func (f *FakeProvider) issueTokens() *session.Tokens {
	f.IssuedTokens++
	n := rune('a' + f.IssuedTokens%26)
	return &session.Tokens{
		AccessToken:  "access-" + string(n),
		IDToken:      "idtoken-" + string(n),
		RefreshToken: "refresh-" + string(n),
		Expiry:       time.Now().Add(f.TokenExpiry),
	}
}
