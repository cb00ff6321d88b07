// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// StatsProvider exposes the scoring service's runtime counters
// (total plays, shard count, dedupe cache size).
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the scoring service's counters on GET /stats.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler wraps provider in a stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats writes the current counters as a JSON object.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(h.provider.GetStats())
}
