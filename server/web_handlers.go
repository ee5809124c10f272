package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/skylineops/costview/apiclient"
	"github.com/skylineops/costview/awscost"
	"github.com/skylineops/costview/session"
	"github.com/skylineops/costview/users"
	"github.com/skylineops/costview/view"
)

const sessionCookieName = "costview_session"

func escapeQuery(s string) string { return url.QueryEscape(s) }

// guardLookup resolves the request's session store from the session cookie.
func (s *Server) guardLookup(r *http.Request) *session.Store {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	store, ok := s.sessions.Get(cookie.Value)
	if !ok {
		return nil
	}
	return store
}

// ensureSession returns the request's session store, creating one (and a
// cookie) when none exists. Fresh stores settle immediately: with no
// persisted credentials the unknown state resolves to unauthenticated.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) *session.Store {
	if store := s.guardLookup(r); store != nil {
		return store
	}

	store := s.newSessionStore()
	store.Resolve(r.Context())
	id := s.sessions.Create(store)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return store
}

func (s *Server) apiFor(store *session.Store) *apiclient.Client {
	return apiclient.New(s.apiBase, store)
}

func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	store := s.ensureSession(w, r)
	snap := store.Snapshot()
	renderPage(w, "index", struct {
		Title         string
		Authenticated bool
		Email         string
		SessionErr    string
	}{
		Title:         "Welcome",
		Authenticated: snap.Authenticated(),
		Email:         snap.Email,
		SessionErr:    snap.Err,
	})
}

// LoadingHandler renders the neutral placeholder the guard shows while a
// session check is unresolved.
func (s *Server) LoadingHandler(w http.ResponseWriter, r *http.Request) {
	renderPage(w, "loading", struct{ Title string }{Title: "One moment"})
}

func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	store := s.ensureSession(w, r)

	returnTo := r.URL.Query().Get("return")
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		returnTo = "/profile"
	}

	http.Redirect(w, r, store.SignIn(returnTo), http.StatusFound)
}

func (s *Server) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	store := s.guardLookup(r)
	if store == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// FormValue covers both query params and form_post response mode.
	if errParam := r.FormValue("error"); errParam != "" {
		store.CallbackRejected(errParam + ": " + r.FormValue("error_description"))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	state := r.FormValue("state")
	code := r.FormValue("code")
	if state == "" || code == "" {
		store.CallbackRejected("missing code or state parameter")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	returnURL, err := store.HandleCallback(r.Context(), state, code)
	if err != nil {
		// The failure is recorded on the session for display.
		log.Warn().Err(err).Msg("authorization callback failed")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if returnURL == "" {
		returnURL = "/profile"
	}
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	store := s.guardLookup(r)
	if store == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// Local state is cleared synchronously before the provider redirect.
	endSessionURL := store.SignOut()

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	http.Redirect(w, r, endSessionURL, http.StatusFound)
}

func (s *Server) ProtectedPageHandler(w http.ResponseWriter, r *http.Request) {
	store := s.guardLookup(r)
	protected := view.NewProtected(s.apiFor(store))
	protected.Load(r.Context())
	st := protected.State()

	renderPage(w, "protected", struct {
		Title   string
		Loading bool
		Err     string
		Claims  map[string]any
	}{
		Title:   "Token claims",
		Loading: st.Loading,
		Err:     st.Err,
		Claims:  st.Data,
	})
}

func (s *Server) ProfilePageHandler(w http.ResponseWriter, r *http.Request) {
	store := s.guardLookup(r)
	profile := view.NewProfile(s.apiFor(store))
	profile.Load(r.Context())
	st := profile.State()

	renderPage(w, "profile", struct {
		Title   string
		Loading bool
		Err     string
		User    users.User
	}{
		Title:   "Profile",
		Loading: st.Loading,
		Err:     st.Err,
		User:    st.Data,
	})
}

func (s *Server) UsersPageHandler(w http.ResponseWriter, r *http.Request) {
	store := s.guardLookup(r)
	list := view.NewUsersList(s.apiFor(store))
	list.Load(r.Context())
	st := list.State()

	renderPage(w, "users", struct {
		Title     string
		Loading   bool
		Err       string
		EditorErr string
		Users     []users.User
	}{
		Title:     "Users",
		Loading:   st.Loading,
		Err:       st.Err,
		EditorErr: r.URL.Query().Get("editor_error"),
		Users:     st.Data,
	})
}

func (s *Server) UpdateRolePageHandler(w http.ResponseWriter, r *http.Request) {
	store := s.guardLookup(r)

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/users?editor_error=invalid+user+id", http.StatusSeeOther)
		return
	}

	editor := view.NewRoleEditor(s.apiFor(store), userID, r.FormValue("current_role"), nil)
	if err := editor.Submit(r.Context(), r.FormValue("role")); err != nil {
		http.Redirect(w, r, "/users?editor_error="+escapeQuery(editor.Err()), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (s *Server) DashboardPageHandler(w http.ResponseWriter, r *http.Request) {
	store := s.guardLookup(r)
	dashboard := view.NewCostDashboard(s.apiFor(store))
	dashboard.Load(r.Context())
	st := dashboard.State()

	renderPage(w, "dashboard", struct {
		Title   string
		Loading bool
		Err     string
		Summary awscost.CostSummary
	}{
		Title:   "AWS organization usage",
		Loading: st.Loading,
		Err:     st.Err,
		Summary: st.Data,
	})
}
