package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/skylineops/costview/users"
)

// ListUsersHandler returns every user with their role assignments.
// Admin-only.
func (s *Server) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list users failed")
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	// An empty table is a valid answer; keep the JSON an array either way.
	if list == nil {
		list = []*users.User{}
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateRoleHandler replaces a user's role assignments with the single
// role named in the request body. The body is a bare JSON string, e.g.
// "ROLE_ADMIN". Admin-only.
func (s *Server) UpdateRoleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var roleName string
	if err := json.NewDecoder(r.Body).Decode(&roleName); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be a role-name string")
		return
	}
	roleName = strings.TrimSpace(roleName)
	if !users.KnownRole(roleName) {
		writeError(w, http.StatusUnprocessableEntity, "Unknown role: "+roleName)
		return
	}

	updated, err := s.users.SetRole(r.Context(), id, roleName)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Int64("user_id", id).Msg("role update failed")
			writeError(w, status, "Failed to update role")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	log.Info().Int64("user_id", id).Str("role", roleName).Msg("role updated")
	writeJSON(w, http.StatusOK, updated)
}
