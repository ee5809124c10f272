package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("write response failed")
	}
}

// writeError uses the {"detail": ...} body shape everywhere so clients can
// extract a display message uniformly.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// PublicHandler requires no authentication.
func (s *Server) PublicHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "This is a public route"})
}

// ProtectedHandler echoes the decoded claims of a valid bearer token.
func (s *Server) ProtectedHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		unauthorized(w, "No verified claims")
		return
	}
	writeJSON(w, http.StatusOK, claims.Raw)
}

// MeHandler returns the caller's provisioned profile.
func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		unauthorized(w, "No user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HealthHandler is the liveness probe.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
