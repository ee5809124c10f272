package server

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/skylineops/costview/internal/config"
	apperrors "github.com/skylineops/costview/internal/errors"
)

// BearerClaims is the decoded content of a verified access token.
type BearerClaims struct {
	Subject string
	Email   string
	Name    string
	Raw     map[string]any
}

// TokenVerifier validates a raw bearer token. The production implementation
// checks signature, issuer, audience and expiry against the identity
// provider's JWKS.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*BearerClaims, error)
}

// OIDCVerifier verifies tokens against the configured issuer's published
// keys, discovered once at construction.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ TokenVerifier = (*OIDCVerifier)(nil)

func NewOIDCVerifier(ctx context.Context, cfg config.OidcConfig) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.GetOidcIssuer())
	if err != nil {
		return nil, fmt.Errorf("[NewOIDCVerifier] discovery failed: %w", err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.GetOidcClientID()}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*BearerClaims, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, "token verification failed")
	}

	var tokenClaims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := token.Claims(&tokenClaims); err != nil {
		return nil, apperrors.Wrapf(err, "extract claims")
	}
	raw := map[string]any{}
	if err := token.Claims(&raw); err != nil {
		return nil, apperrors.Wrapf(err, "extract raw claims")
	}

	return &BearerClaims{
		Subject: token.Subject,
		Email:   tokenClaims.Email,
		Name:    tokenClaims.Name,
		Raw:     raw,
	}, nil
}

// DevVerifier accepts HS256 tokens signed with a shared secret. Only wired
// when no OIDC issuer is configured; never used in production.
type DevVerifier struct {
	secret []byte
}

var _ TokenVerifier = (*DevVerifier)(nil)

func NewDevVerifier(secret string) *DevVerifier {
	return &DevVerifier{secret: []byte(secret)}
}

func (v *DevVerifier) Verify(_ context.Context, rawToken string) (*BearerClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, "token verification failed")
	}
	if !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, apperrors.ErrMissingClaims
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	raw := make(map[string]any, len(claims))
	for k, v := range claims {
		raw[k] = v
	}
	return &BearerClaims{Subject: sub, Email: email, Name: name, Raw: raw}, nil
}
