// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Direction says which way a raw score improves for a game.
type Direction int

const (
	// HigherIsBetter ranks larger raw scores first (counts, words per minute).
	HigherIsBetter Direction = iota
	// LowerIsBetter ranks smaller raw scores first (reaction milliseconds).
	LowerIsBetter
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == LowerIsBetter {
		return "lower_is_better"
	}
	return "higher_is_better"
}

// ParseDirection converts a config/JSON token into a Direction.
// Accepts "higher_is_better"/"lower_is_better" and the boolean-ish
// forms the reference data uses ("true"/"false" for lower_is_better).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "higher_is_better", "higher", "false":
		return HigherIsBetter, nil
	case "lower_is_better", "lower", "true":
		return LowerIsBetter, nil
	default:
		return HigherIsBetter, fmt.Errorf("unknown direction: %q", s)
	}
}

// GameProfile holds the reference population parameters for one game variant.
// Profiles are static configuration loaded once at startup.
type GameProfile struct {
	GameID  string    // unique game key, e.g. "chimp_test"
	Mean    float64   // reference population mean
	StdDev  float64   // reference population standard deviation, > 0
	Dir     Direction // which way a raw score improves
}

// PlayRecord is one row of append-only play history. Never mutated.
type PlayRecord struct {
	PlayerID string    // opaque identity token
	GameID   string    // game variant key
	RawScore float64   // raw performance score in game units
	PlayedAt time.Time // submission timestamp
}

// PlayerGameStat is the mutable aggregate for one (player, game) pair.
type PlayerGameStat struct {
	PlayerID     string    `json:"player_id"`
	GameID       string    `json:"game_id"`
	BestScore    float64   `json:"best_score"`
	TotalPlays   int       `json:"total_plays"`
	Tier         string    `json:"tier"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// LeaderboardEntry is one ranked row of a game's leaderboard.
// Entries with equal best scores share a rank.
type LeaderboardEntry struct {
	Rank         int       `json:"rank"`
	PlayerID     string    `json:"player_id"`
	BestScore    float64   `json:"best_score"`
	Tier         string    `json:"tier"`
	TotalPlays   int       `json:"total_plays"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// PlayResult is what a score submission returns to the caller.
type PlayResult struct {
	PlayerID   string  `json:"player_id"`
	GameID     string  `json:"game_id"`
	BestScore  float64 `json:"best_score"`
	TotalPlays int     `json:"total_plays"`
	Tier       string  `json:"tier"`
	// Percentile of the submitted raw score against the reference
	// population. Reporting only; it never feeds tiering.
	Percentile float64 `json:"percentile"`
}
