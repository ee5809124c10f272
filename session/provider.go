package session

import "context"

// Provider is the narrow surface the Store needs from an OIDC identity
// provider SDK. Any OIDC-compliant client library can back it; production
// uses the go-oidc implementation in oidc_provider.go and tests use
// providerfake.
type Provider interface {
	// AuthCodeURL builds the authorization redirect for a code+PKCE flow.
	// verifier is the plaintext PKCE code verifier; the implementation
	// derives the S256 challenge from it.
	AuthCodeURL(state, nonce, verifier string) string

	// Exchange swaps an authorization code for tokens, completing PKCE
	// with the stored verifier, and returns the verified claims of the
	// ID token contained in the response.
	Exchange(ctx context.Context, code, verifier string) (*Tokens, *Claims, error)

	// Refresh obtains a fresh token set from a refresh token.
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)

	// VerifyIDToken validates a raw ID token and extracts its claims.
	VerifyIDToken(ctx context.Context, rawIDToken string) (*Claims, error)

	// EndSessionURL returns the provider logout redirect for the given ID
	// token hint, or the post-logout URL when the provider exposes no
	// end-session endpoint.
	EndSessionURL(idTokenHint string) string
}
