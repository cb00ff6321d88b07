// Package repository defines the score storage contract and errors.
package repository

import (
	"context"
	"time"

	"github.com/mindgauge/mindgauge/internal/domain/model"
)

// TierFunc computes the tier label for an updated best score. It is
// invoked inside the per-pair critical section so the stored tier
// always matches the stored best.
type TierFunc func(bestScore float64) string

// Store provides durable access to play history and per-pair aggregates.
type Store interface {
	// InsertPlayRecord appends one row of play history. History is
	// append-only; rows are never mutated or deleted.
	InsertPlayRecord(ctx context.Context, rec model.PlayRecord) error

	// GetPlayerGameStat returns the aggregate for (playerID, gameID).
	// The bool reports whether the pair has ever played.
	GetPlayerGameStat(ctx context.Context, playerID, gameID string) (model.PlayerGameStat, bool, error)

	// UpsertPlayerGameStat merges one play into the aggregate for
	// (playerID, gameID) as a single atomic read-modify-write: first
	// play seeds best=rawScore and plays=1, later plays increment the
	// count and keep the direction-aware extremum. Concurrent calls
	// for the same pair serialize; distinct pairs do not block each
	// other. Returns the post-update aggregate.
	UpsertPlayerGameStat(ctx context.Context, playerID, gameID string, rawScore float64, lowerIsBetter bool, tier TierFunc, playedAt time.Time) (model.PlayerGameStat, error)

	// TopN returns up to n aggregates for gameID, best performance
	// first: bestScore descending unless ascending is set. Ties break
	// by earliest LastPlayedAt, then playerID.
	TopN(ctx context.Context, gameID string, n int, ascending bool) ([]model.PlayerGameStat, error)

	// CountPlayers returns the number of players with an aggregate for
	// gameID; empty gameID counts distinct (player, game) pairs.
	CountPlayers(ctx context.Context, gameID string) int

	// CountPlays returns the total number of history rows.
	CountPlays(ctx context.Context) int
}
