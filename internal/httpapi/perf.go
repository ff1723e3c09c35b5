package httpapi

import "net/http"

// handlePerfLatency reports p50/p95 per turn stage (retrieval, generate,
// whole turn) from the rolling in-memory window. Metrics may be nil in
// tests; the endpoint then reports an empty window.
func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"generated_at": "",
			"window_size":  0,
			"stages":       []any{},
		})
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.SnapshotTurnStages())
}
