// Package guard gates rendering of protected routes on session state. The
// decision function is pure; the middleware applies it to HTTP requests.
package guard

import (
	"net/http"

	"github.com/skylineops/costview/session"
)

// Action is the rendering decision for a protected subtree.
type Action int

const (
	// ShowLoading renders a neutral placeholder while the session check is
	// still unresolved. No redirect happens here, avoiding a flash
	// redirect before the check completes.
	ShowLoading Action = iota
	// Redirect sends the user to the default landing location.
	Redirect
	// Render renders the protected subtree unchanged.
	Render
)

// DefaultLanding is the redirect target for unauthenticated requests.
const DefaultLanding = "/"

// Decide maps a session state to a rendering decision. Idempotent: the same
// state always yields the same decision.
func Decide(state session.State) Action {
	switch state {
	case session.StateAuthenticated:
		return Render
	case session.StateUnknown:
		return ShowLoading
	default:
		return Redirect
	}
}

// StoreLookup resolves the session store for a request, if any.
type StoreLookup func(r *http.Request) *session.Store

// Middleware wraps protected handlers. Requests without a resolvable
// session store are treated as unauthenticated.
func Middleware(lookup StoreLookup, loading http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := lookup(r)
			if store == nil {
				http.Redirect(w, r, DefaultLanding, http.StatusSeeOther)
				return
			}

			switch Decide(store.State()) {
			case Render:
				next.ServeHTTP(w, r)
			case ShowLoading:
				loading.ServeHTTP(w, r)
			default:
				http.Redirect(w, r, DefaultLanding, http.StatusSeeOther)
			}
		})
	}
}
