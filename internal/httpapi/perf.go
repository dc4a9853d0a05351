package httpapi

import "net/http"

// handlePerfLatency serves the rolling generation-latency window. It
// answers "how slow is the collaborator right now" without waiting for
// a metrics scrape.
func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.Latency.Snapshot())
}
