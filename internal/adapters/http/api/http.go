// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mindgauge/mindgauge/internal/domain/dedupe"
	"github.com/mindgauge/mindgauge/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Record persists one play and returns the updated aggregate.
	Record(ctx context.Context, playerID, gameID string, rawScore float64) (model.PlayResult, error)

	// Read operations expose leaderboard and per-player data.
	TopN(ctx context.Context, gameID string, n int) ([]model.LeaderboardEntry, error)
	PlayerStat(ctx context.Context, playerID, gameID string) (model.PlayerGameStat, float64, error)
	Percentile(gameID string, rawScore float64) float64
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoresHandler      *ScoresHandler
	leaderboardHandler *LeaderboardHandler
	playerHandler      *PlayerHandler
	percentileHandler  *PercentileHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		scoresHandler:      NewScoresHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		playerHandler:      NewPlayerHandler(deps),
		percentileHandler:  NewPercentileHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/scores", MetricsMiddleware(s.scoresHandler.HandlePostScore, "scores"))
	mux.HandleFunc("/api/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/api/players/", MetricsMiddleware(s.playerHandler.HandleGetPlayerStat, "player_stat"))
	mux.HandleFunc("/api/percentile", MetricsMiddleware(s.percentileHandler.HandleGetPercentile, "percentile"))
}

// scoreRequest mirrors the OpenAPI schema for POST /api/scores.
type scoreRequest struct {
	SubmissionID string   `json:"submission_id,omitempty"`
	PlayerID     string   `json:"player_id,omitempty"`
	GameID       string   `json:"game_id"`
	RawScore     *float64 `json:"raw_score"`
}

type scoreResponse struct {
	Status string           `json:"status"`
	Result model.PlayResult `json:"result"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
