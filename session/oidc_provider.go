package session

import (
	"context"
	"fmt"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/skylineops/costview/internal/config"
)

// OIDCProvider implements Provider on top of go-oidc and x/oauth2 against
// any OIDC-compliant issuer discovered at construction time.
type OIDCProvider struct {
	provider      *oidc.Provider
	oauthConfig   oauth2.Config
	verifier      *oidc.IDTokenVerifier
	endSession    string
	postLogoutURL string
}

var _ Provider = (*OIDCProvider)(nil)

func NewOIDCProvider(ctx context.Context, cfg config.OidcConfig) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.GetOidcIssuer())
	if err != nil {
		return nil, fmt.Errorf("[NewOIDCProvider] discovery failed: %w", err)
	}

	// end_session_endpoint is optional in the discovery document.
	var discoveryExtra struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := provider.Claims(&discoveryExtra); err != nil {
		return nil, fmt.Errorf("[NewOIDCProvider] discovery claims: %w", err)
	}

	return &OIDCProvider{
		provider: provider,
		oauthConfig: oauth2.Config{
			ClientID:     cfg.GetOidcClientID(),
			ClientSecret: cfg.GetOidcClientSecret(),
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.GetRedirectURL(),
			Scopes:       cfg.GetOidcScopes(),
		},
		verifier:      provider.Verifier(&oidc.Config{ClientID: cfg.GetOidcClientID()}),
		endSession:    discoveryExtra.EndSessionEndpoint,
		postLogoutURL: cfg.GetPostLogoutURL(),
	}, nil
}

func (p *OIDCProvider) AuthCodeURL(state, nonce, verifier string) string {
	return p.oauthConfig.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oidc.Nonce(nonce),
	)
}

func (p *OIDCProvider) Exchange(ctx context.Context, code, verifier string) (*Tokens, *Claims, error) {
	oauth2Token, err := p.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, nil, fmt.Errorf("[Exchange] token exchange failed: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, nil, fmt.Errorf("[Exchange] no ID token in response")
	}

	claims, err := p.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		return nil, nil, err
	}

	return &Tokens{
		AccessToken:  oauth2Token.AccessToken,
		IDToken:      rawIDToken,
		RefreshToken: oauth2Token.RefreshToken,
		Expiry:       oauth2Token.Expiry,
	}, claims, nil
}

func (p *OIDCProvider) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	source := p.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	oauth2Token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("[Refresh] %w", err)
	}

	tokens := &Tokens{
		AccessToken:  oauth2Token.AccessToken,
		RefreshToken: oauth2Token.RefreshToken,
		Expiry:       oauth2Token.Expiry,
	}
	if rawIDToken, ok := oauth2Token.Extra("id_token").(string); ok {
		tokens.IDToken = rawIDToken
	}
	return tokens, nil
}

func (p *OIDCProvider) VerifyIDToken(ctx context.Context, rawIDToken string) (*Claims, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("[VerifyIDToken] %w", err)
	}

	var tokenClaims struct {
		Nonce string `json:"nonce"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&tokenClaims); err != nil {
		return nil, fmt.Errorf("[VerifyIDToken] extract claims: %w", err)
	}

	raw := map[string]any{}
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("[VerifyIDToken] extract raw claims: %w", err)
	}

	return &Claims{
		Subject: idToken.Subject,
		Email:   tokenClaims.Email,
		Name:    tokenClaims.Name,
		Nonce:   tokenClaims.Nonce,
		Raw:     raw,
	}, nil
}

func (p *OIDCProvider) EndSessionURL(idTokenHint string) string {
	if p.endSession == "" {
		return p.postLogoutURL
	}
	params := url.Values{}
	if idTokenHint != "" {
		params.Set("id_token_hint", idTokenHint)
	}
	params.Set("post_logout_redirect_uri", p.postLogoutURL)
	return p.endSession + "?" + params.Encode()
}
