package config

import "time"

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetTokenRenewalWindow() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetMaxSessionAge bounds how long a browser session survives without
// activity before the registry sweeps it.
func (Security) GetMaxSessionAge() time.Duration {
	return 8 * time.Hour
}

// GetTokenRenewalWindow is how long before access-token expiry a renewal
// is attempted.
func (Security) GetTokenRenewalWindow() time.Duration {
	return time.Minute
}
