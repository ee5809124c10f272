package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// OrganizationUsageHandler returns the AWS organization cost summary.
// Fetched fresh per request; the dashboard does no caching across views.
func (s *Server) OrganizationUsageHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := s.costs.OrganizationUsage(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("organization usage fetch failed")
		writeError(w, http.StatusBadGateway, "Failed to fetch AWS cost data")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
