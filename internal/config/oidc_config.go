package config

import "strings"

// OidcConfig describes the external identity provider this service is a
// relying party of. Issuer and client ID are mandatory outside DEV; when
// the issuer is empty the server falls back to the HS256 dev verifier.
type OidcConfig interface {
	GetOidcIssuer() string
	GetOidcClientID() string
	GetOidcClientSecret() string
	GetOidcScopes() []string
	GetRedirectURL() string
	GetPostLogoutURL() string
	GetDevTokenSecret() string
}

type Oidc struct{}

var _ OidcConfig = Oidc{}

func (Oidc) GetOidcIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Oidc) GetOidcClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Oidc) GetOidcClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (Oidc) GetOidcScopes() []string {
	scopes := GetEnv("OIDC_SCOPES", "openid profile email")
	return strings.Fields(scopes)
}

func (o Oidc) GetRedirectURL() string {
	return GetEnv("OIDC_REDIRECT_URL", EnvVars{}.GetBaseURL()+"/login/callback")
}

func (o Oidc) GetPostLogoutURL() string {
	return GetEnv("OIDC_POST_LOGOUT_URL", EnvVars{}.GetBaseURL()+"/")
}

func (Oidc) GetDevTokenSecret() string {
	return GetEnv("DEV_TOKEN_SECRET", "")
}
