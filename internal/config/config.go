// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"github.com/mindgauge/mindgauge/internal/domain/model"
	"github.com/mindgauge/mindgauge/internal/domain/tier"
)

// GameProfileConfig mirrors one reference-population row in YAML/env form.
type GameProfileConfig struct {
	Mean          float64 `koanf:"mean"`
	StdDev        float64 `koanf:"std_dev"`
	LowerIsBetter bool    `koanf:"lower_is_better"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ShardCount configures the number of shards in the aggregate store.
	ShardCount int `koanf:"shard_count"`

	// MaxLeaderboardLimit caps GET /api/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SnapshotIntervalMS sets the monitoring snapshot rebuild cadence.
	SnapshotIntervalMS int `koanf:"snapshot_interval_ms"`

	// DedupeSize bounds the submission idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// GameProfiles maps game ids to their reference population parameters.
	GameProfiles map[string]GameProfileConfig `koanf:"game_profiles"`

	// TierLadders maps game families to their threshold ladders.
	TierLadders map[string]tier.Ladder `koanf:"tier_ladders"`
}

// New creates a Config with the shipped defaults: the reference
// population table for the current game suite and the chimp tier ladder.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		ShardCount:          8,
		MaxLeaderboardLimit: 100,
		SnapshotIntervalMS:  1000,
		DedupeSize:          50_000,
		GameProfiles: map[string]GameProfileConfig{
			"reaction_time":      {Mean: 300, StdDev: 50, LowerIsBetter: true},
			"reaction_time_hard": {Mean: 350, StdDev: 80, LowerIsBetter: true},
			"sequence_memory":    {Mean: 8, StdDev: 2.5},
			"aim_trainer":        {Mean: 500, StdDev: 120, LowerIsBetter: true},
			"aim_trainer_hard":   {Mean: 800, StdDev: 150, LowerIsBetter: true},
			"number_memory":      {Mean: 9, StdDev: 2.5},
			"number_memory_hard": {Mean: 6, StdDev: 2.0},
			"chimp_test":         {Mean: 10, StdDev: 2.5},
		},
		TierLadders: map[string]tier.Ladder{
			"chimp": {
				Steps: []tier.Step{
					{Min: 15, Label: "Alien"},
					{Min: 10, Label: "Chimp"},
					{Min: 5, Label: "Cat"},
				},
				Fallback: "Shrimp",
			},
		},
	}
}

// Profiles converts the configured profile table into domain profiles.
func (c *Config) Profiles() []model.GameProfile {
	out := make([]model.GameProfile, 0, len(c.GameProfiles))
	for gameID, p := range c.GameProfiles {
		dir := model.HigherIsBetter
		if p.LowerIsBetter {
			dir = model.LowerIsBetter
		}
		out = append(out, model.GameProfile{
			GameID: gameID,
			Mean:   p.Mean,
			StdDev: p.StdDev,
			Dir:    dir,
		})
	}
	return out
}
