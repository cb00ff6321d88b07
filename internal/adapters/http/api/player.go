// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mindgauge/mindgauge/internal/adapters/repository"
	"github.com/mindgauge/mindgauge/internal/domain/model"
)

// PlayerDependencies defines the interface for per-player stat lookups.
type PlayerDependencies interface {
	PlayerStat(ctx context.Context, playerID, gameID string) (model.PlayerGameStat, float64, error)
}

// PlayerHandler handles per-player stat requests.
type PlayerHandler struct {
	deps PlayerDependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps PlayerDependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

type playerStatResponse struct {
	PlayerID     string    `json:"player_id"`
	GameID       string    `json:"game_id"`
	BestScore    float64   `json:"best_score"`
	TotalPlays   int       `json:"total_plays"`
	Tier         string    `json:"tier"`
	Percentile   float64   `json:"percentile"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// HandleGetPlayerStat handles GET /api/players/{player_id}/games/{game_id} requests.
func (h *PlayerHandler) HandleGetPlayerStat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /api/players/
	rest := strings.TrimPrefix(r.URL.Path, "/api/players/")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] != "games" || parts[2] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	playerID, gameID := parts[0], parts[2]

	stat, pct, err := h.deps.PlayerStat(r.Context(), playerID, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, playerStatResponse{
		PlayerID:     stat.PlayerID,
		GameID:       stat.GameID,
		BestScore:    stat.BestScore,
		TotalPlays:   stat.TotalPlays,
		Tier:         stat.Tier,
		Percentile:   pct,
		LastPlayedAt: stat.LastPlayedAt,
	})
}
