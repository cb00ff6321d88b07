// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mindgauge/mindgauge/internal/adapters/repository"
	"github.com/mindgauge/mindgauge/internal/domain/dedupe"
	"github.com/mindgauge/mindgauge/internal/domain/model"
	"github.com/mindgauge/mindgauge/internal/domain/percentile"
	"github.com/mindgauge/mindgauge/internal/domain/tier"
	"github.com/mindgauge/mindgauge/pkg/logger"
	"github.com/mindgauge/mindgauge/pkg/metrics"
)

// guestIDHexLen is how many uuid hex chars a generated guest token keeps.
const guestIDHexLen = 8

// Service orchestrates score submissions: history append, percentile
// reporting and the per-pair best-score aggregate.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	engine  *percentile.Engine
	tiers   *tier.Table
	deduper dedupe.Deduper

	// Configuration
	profiles         []model.GameProfile
	ladders          map[string]tier.Ladder
	shardCount       int
	snapshotInterval time.Duration
	dedupeSize       int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProfiles sets the reference population table.
func WithProfiles(profiles []model.GameProfile) Option {
	return func(s *Service) {
		s.profiles = profiles
	}
}

// WithTierLadders sets the per-family tier ladders.
func WithTierLadders(ladders map[string]tier.Ladder) Option {
	return func(s *Service) {
		s.ladders = ladders
	}
}

// WithShardCount sets the number of shards in the aggregate store.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithSnapshotInterval sets the store's monitoring snapshot cadence.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.snapshotInterval = interval
		}
	}
}

// WithDedupeSize sets the size of the submission idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStore injects a prebuilt store. Mostly useful in tests.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		shardCount:       8,
		snapshotInterval: time.Second,
		dedupeSize:       50_000,
		logger:           nil, // resolved on Start
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoring service...")

	engine, err := percentile.NewEngine(s.profiles)
	if err != nil {
		return fmt.Errorf("build percentile engine: %w", err)
	}
	s.engine = engine
	s.tiers = tier.NewTable(tier.WithLaddersFromConfig(s.ladders))
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	if s.store == nil {
		s.store = repository.NewMemStore(ctx,
			repository.WithShardCount(s.shardCount),
			repository.WithSnapshotInterval(s.snapshotInterval),
		)
	}

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("profiles", len(s.profiles)),
		logger.Int("shards", s.shardCount),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping scoring service...")

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

// SeenAndRecord atomically checks if a submission id was seen and
// records it if not. Duplicate POST retries resolve here without a
// second write. Before Start nothing has been seen, so it reports fresh.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	if !s.isStarted() {
		return false
	}
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordPlayDuplicate()
	}
	return seen
}

// Unrecord removes a submission id from the seen list so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	if !s.isStarted() {
		return
	}
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Record persists one play and returns the updated aggregate.
//
// The history append commits first and is never retracted: if the
// aggregate update fails afterwards the caller gets ErrAggregation
// while the play row stays on record.
func (s *Service) Record(ctx context.Context, playerID, gameID string, rawScore float64) (model.PlayResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRecordLatency(float64(time.Since(start).Milliseconds()))
	}()

	if !s.isStarted() {
		return model.PlayResult{}, ErrNotStarted
	}

	if strings.TrimSpace(gameID) == "" {
		metrics.RecordValidationError()
		return model.PlayResult{}, fmt.Errorf("%w: missing game id", ErrValidation)
	}
	if math.IsNaN(rawScore) || math.IsInf(rawScore, 0) {
		metrics.RecordValidationError()
		return model.PlayResult{}, fmt.Errorf("%w: raw score must be finite", ErrValidation)
	}
	if strings.TrimSpace(playerID) == "" {
		playerID = newGuestID()
		s.logger.Debug(ctx, "generated guest id",
			logger.String("playerID", playerID),
			logger.String("gameID", gameID),
		)
	}

	now := time.Now().UTC()

	if err := s.store.InsertPlayRecord(ctx, model.PlayRecord{
		PlayerID: playerID,
		GameID:   gameID,
		RawScore: rawScore,
		PlayedAt: now,
	}); err != nil {
		metrics.RecordErrorByComponent("service", "history_append")
		return model.PlayResult{}, fmt.Errorf("append play history: %w", err)
	}
	metrics.RecordPlayRecorded()

	if _, known := s.engine.Profile(gameID); !known {
		metrics.RecordUnknownGamePlay()
	}

	lowerIsBetter := s.engine.Direction(gameID) == model.LowerIsBetter
	stat, err := s.store.UpsertPlayerGameStat(ctx, playerID, gameID, rawScore, lowerIsBetter,
		func(best float64) string { return s.tiers.DetermineTier(gameID, best) }, now)
	if err != nil {
		metrics.RecordAggregationError()
		s.logger.Error(ctx, "aggregate update failed; play history kept",
			logger.String("playerID", playerID),
			logger.String("gameID", gameID),
			logger.Error(err),
		)
		return model.PlayResult{}, fmt.Errorf("update aggregate: %w: %w", ErrAggregation, err)
	}
	metrics.RecordAggregateUpdate()

	return model.PlayResult{
		PlayerID:   playerID,
		GameID:     gameID,
		BestScore:  stat.BestScore,
		TotalPlays: stat.TotalPlays,
		Tier:       stat.Tier,
		Percentile: s.Percentile(gameID, rawScore),
	}, nil
}

// Percentile reports the percentile rank of rawScore for gameID.
// Before Start no profile table exists, so it reports 0 like an
// unknown game.
func (s *Service) Percentile(gameID string, rawScore float64) float64 {
	if !s.isStarted() {
		return 0
	}
	start := time.Now()
	defer func() {
		metrics.RecordPercentileLatency(float64(time.Since(start).Milliseconds()))
	}()
	return s.engine.Percentile(gameID, rawScore)
}

// TopN returns the top n leaderboard entries for gameID, best
// performance first regardless of the game's direction.
func (s *Service) TopN(ctx context.Context, gameID string, n int) ([]model.LeaderboardEntry, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}

	ascending := s.engine.Direction(gameID) == model.LowerIsBetter
	stats, err := s.store.TopN(ctx, gameID, n, ascending)
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, len(stats))
	for i, st := range stats {
		entries[i] = model.LeaderboardEntry{
			PlayerID:     st.PlayerID,
			BestScore:    st.BestScore,
			Tier:         st.Tier,
			TotalPlays:   st.TotalPlays,
			LastPlayedAt: st.LastPlayedAt,
		}
	}
	assignRanksWithTies(entries)
	return entries, nil
}

// PlayerStat returns the aggregate for one (player, game) pair plus the
// percentile of the player's best score.
func (s *Service) PlayerStat(ctx context.Context, playerID, gameID string) (model.PlayerGameStat, float64, error) {
	if !s.isStarted() {
		return model.PlayerGameStat{}, 0, ErrNotStarted
	}

	stat, ok, err := s.store.GetPlayerGameStat(ctx, playerID, gameID)
	if err != nil {
		return model.PlayerGameStat{}, 0, err
	}
	if !ok {
		return model.PlayerGameStat{}, 0, repository.ErrNotFound
	}
	return stat, s.Percentile(gameID, stat.BestScore), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"shardCount": s.shardCount,
	}
	if !s.started {
		return stats
	}

	stats["games"] = s.engine.Games()
	stats["dedupeEntries"] = s.deduper.Size()

	ctx := context.Background()
	stats["totalPairs"] = s.store.CountPlayers(ctx, "")
	stats["totalPlays"] = s.store.CountPlays(ctx)

	if ms, ok := s.store.(*repository.MemStore); ok {
		if snap := ms.GetSnapshot(); snap != nil {
			stats["snapshotTakenAt"] = snap.TakenAt
			stats["playersByGame"] = snap.PlayersByGame
		}
	}
	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// newGuestID mints a short opaque token for anonymous submissions.
func newGuestID() string {
	id := uuid.New().String()
	return "guest-" + strings.ReplaceAll(id, "-", "")[:guestIDHexLen]
}

// assignRanksWithTies assigns dense ranks: entries with the same best
// score share a rank and the next distinct score takes the next rank.
func assignRanksWithTies(entries []model.LeaderboardEntry) {
	if len(entries) == 0 {
		return
	}

	currentRank := 1
	for i := 0; i < len(entries); i++ {
		entries[i].Rank = currentRank

		sameScoreCount := 1
		for j := i + 1; j < len(entries) && entries[j].BestScore == entries[i].BestScore; j++ {
			entries[j].Rank = currentRank
			sameScoreCount++
		}

		currentRank++
		i += sameScoreCount - 1
	}
}
