// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// PercentileDependencies defines the interface for ad-hoc percentile queries.
type PercentileDependencies interface {
	Percentile(gameID string, rawScore float64) float64
}

// PercentileHandler answers percentile queries without recording a play.
type PercentileHandler struct {
	deps PercentileDependencies
}

// NewPercentileHandler creates a new percentile handler.
func NewPercentileHandler(deps PercentileDependencies) *PercentileHandler {
	return &PercentileHandler{deps: deps}
}

type percentileResponse struct {
	GameID     string  `json:"game_id"`
	RawScore   float64 `json:"raw_score"`
	Percentile float64 `json:"percentile"`
}

// HandleGetPercentile handles GET /api/percentile?game_id=X&raw_score=N requests.
func (h *PercentileHandler) HandleGetPercentile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	gameID := strings.TrimSpace(r.URL.Query().Get("game_id"))
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing game_id", ErrBadRequest))
		return
	}
	raw, err := strconv.ParseFloat(r.URL.Query().Get("raw_score"), 64)
	if err != nil || math.IsNaN(raw) || math.IsInf(raw, 0) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: raw_score must be a finite number", ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, percentileResponse{
		GameID:     gameID,
		RawScore:   raw,
		Percentile: h.deps.Percentile(gameID, raw),
	})
}
