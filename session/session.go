// Package session tracks the authentication lifecycle of a single signed-in
// principal against an external OIDC identity provider. The Store owns the
// session state exclusively; everything else reads snapshots or subscribes
// to change notifications.
package session

import (
	"fmt"
	"time"
)

// State is the session lifecycle state.
type State int

const (
	// StateUnknown is the state before the first session check settles.
	StateUnknown State = iota
	// StateUnauthenticated means no valid session exists.
	StateUnauthenticated
	// StateAuthenticated means tokens and claims are held.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Claims are the identity assertions extracted from a verified ID token.
type Claims struct {
	Subject string
	Email   string
	Name    string
	Nonce   string
	Raw     map[string]any
}

// Tokens holds the credential set issued by the provider. AccessToken and
// IDToken are opaque to this service.
type Tokens struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	Expiry       time.Time
}

// Snapshot is an immutable view of the session handed to subscribers and
// readers. Views never mutate session state through it.
type Snapshot struct {
	State   State
	Subject string
	Email   string
	Name    string
	Err     string
}

// Authenticated reports whether the snapshot represents a signed-in session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}
