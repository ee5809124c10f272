package errors

import (
	"errors"
	"fmt"
)

// Common error values shared across the service
var (
	// Session errors
	ErrStateMismatch    = errors.New("state parameter mismatch")
	ErrNonceMismatch    = errors.New("nonce mismatch")
	ErrCallbackRejected = errors.New("authorization callback rejected")

	// Token errors
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenRenewal  = errors.New("token renewal failed")
	ErrMissingClaims = errors.New("required claims missing from token")

	// Resource errors
	ErrUserNotFound = errors.New("user not found")
	ErrRoleNotFound = errors.New("role not found")
	ErrInvalidRole  = errors.New("invalid role name")
	ErrForbidden    = errors.New("forbidden")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
