package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skylineops/costview/awscost"
	"github.com/skylineops/costview/guard"
	"github.com/skylineops/costview/internal/config"
	"github.com/skylineops/costview/internal/obs"
	"github.com/skylineops/costview/session"
	"github.com/skylineops/costview/users"
)

// Deps holds the collaborators the server is built from.
type Deps struct {
	Verifier TokenVerifier
	Users    users.Repo
	Costs    awscost.Source
	// Provider backs the session stores created for each browser session.
	Provider session.Provider
}

type Server struct {
	config   config.Config
	verifier TokenVerifier
	users    users.Repo
	costs    awscost.Source
	provider session.Provider
	sessions *session.Registry
	// apiBase is where the web views reach the API; normally the service's
	// own base URL.
	apiBase   string
	router    chi.Router
	stopSweep func()
}

// sweepInterval is how often abandoned browser sessions are reaped.
const sweepInterval = 10 * time.Minute

func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Verifier == nil {
		return nil, fmt.Errorf("[server.New] Verifier is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("[server.New] Users repo is required")
	}
	if deps.Costs == nil {
		return nil, fmt.Errorf("[server.New] Costs source is required")
	}
	if deps.Provider == nil {
		return nil, fmt.Errorf("[server.New] session Provider is required")
	}

	s := &Server{
		config:   cfg,
		verifier: deps.Verifier,
		users:    deps.Users,
		costs:    deps.Costs,
		provider: deps.Provider,
		sessions: session.NewRegistry(cfg.GetMaxSessionAge()),
		apiBase:  cfg.GetBaseURL(),
	}
	s.stopSweep = s.sessions.SweepEvery(sweepInterval)
	s.initRoutes()
	return s, nil
}

// Close stops the background session sweeper. Safe to call more than once.
func (s *Server) Close() {
	s.stopSweep()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetAPIBase overrides where web views reach the API, used by tests.
func (s *Server) SetAPIBase(base string) { s.apiBase = base }

func (s *Server) newSessionStore() *session.Store {
	return session.NewStore(s.provider,
		session.WithRenewalWindow(s.config.GetTokenRenewalWindow()),
	)
}

func (s *Server) initRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(obs.Instrument)
	r.Use(s.Cors)

	r.Get("/healthz", s.HealthHandler)
	r.Handle("/metrics", obs.Handler())

	// API surface
	r.Get("/api/public", s.PublicHandler)
	r.Group(func(pr chi.Router) {
		pr.Use(s.RequireAuth)
		pr.Get("/api/protected", s.ProtectedHandler)

		pr.Group(func(ur chi.Router) {
			ur.Use(s.RequireUser)
			ur.Get("/api/users/me", s.MeHandler)
			ur.Get("/api/aws/organization-usage", s.OrganizationUsageHandler)

			ur.Group(func(ar chi.Router) {
				ar.Use(s.RequireAdmin)
				ar.Get("/api/users", s.ListUsersHandler)
				ar.Put("/api/users/{id}/role", s.UpdateRoleHandler)
			})
		})
	})

	// Web surface
	r.Get("/", s.IndexHandler)
	r.Get("/login", s.LoginHandler)
	r.Get("/login/callback", s.CallbackHandler)
	r.Get("/logout", s.LogoutHandler)

	r.Group(func(gr chi.Router) {
		gr.Use(guard.Middleware(s.guardLookup, http.HandlerFunc(s.LoadingHandler)))
		gr.Get("/protected", s.ProtectedPageHandler)
		gr.Get("/profile", s.ProfilePageHandler)
		gr.Get("/users", s.UsersPageHandler)
		gr.Post("/users/{id}/role", s.UpdateRolePageHandler)
		gr.Get("/dashboard", s.DashboardPageHandler)
	})

	s.router = r
}
