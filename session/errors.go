package session

import (
	"fmt"

	apperrors "github.com/skylineops/costview/internal/errors"
)

// AuthError means no valid session or token is available. Callers must
// treat it as "not authenticated", never as a transport failure.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "not authenticated"
	}
	return fmt.Sprintf("not authenticated: %s", e.Reason)
}

// TokenError means token renewal failed and the session has been forced to
// the unauthenticated state.
type TokenError struct {
	Err error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token renewal failed: %v", e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

// Is matches the renewal-failure sentinel so callers can use errors.Is
// without knowing the concrete type.
func (e *TokenError) Is(target error) bool {
	return target == apperrors.ErrTokenRenewal
}
