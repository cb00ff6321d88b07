package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mindgauge/mindgauge/internal/domain/model"
	"github.com/mindgauge/mindgauge/pkg/metrics"
)

// Sharded, in-memory Store implementation.
//
// Aggregates live in shards keyed by hash(playerID|gameID), so the
// read-modify-write for one (player, game) pair serializes under its
// shard lock while unrelated pairs proceed on other shards. Play
// history appends to the same shard as the pair, keeping a submission's
// two writes on one lock path.

// Default store configuration constants.
const (
	defaultShardCount       = 8
	defaultSnapshotInterval = 1 * time.Second
	pairKeySeparator        = '\x00'
)

type pairKey struct {
	playerID string
	gameID   string
}

// shard guards a slice of the aggregate map plus its history rows.
type shard struct {
	mu    sync.RWMutex
	stats map[pairKey]model.PlayerGameStat
	plays []model.PlayRecord
}

// Snapshot is an immutable monitoring view rebuilt periodically.
type Snapshot struct {
	PlayersByGame map[string]int
	TotalPairs    int
	TotalPlays    int
	TakenAt       time.Time
}

// MemStore implements Store in memory.
type MemStore struct {
	shards           []*shard
	shardCount       int
	snapshotInterval time.Duration

	snapshot atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopChan chan struct{}
	closed   atomic.Bool
}

// NewMemStore constructs an in-memory store with configuration options.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		shardCount:       defaultShardCount,
		snapshotInterval: defaultSnapshotInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{stats: make(map[pairKey]model.PlayerGameStat)}
	}

	s.stopChan = make(chan struct{})
	s.startPeriodicSnapshots(ctx)

	metrics.UpdateRepositoryShardCount(s.shardCount)
	return s
}

// shardFor picks the shard owning a (player, game) pair.
func (s *MemStore) shardFor(playerID, gameID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(playerID))
	_, _ = h.Write([]byte{pairKeySeparator})
	_, _ = h.Write([]byte(gameID))
	return s.shards[h.Sum32()%uint32(s.shardCount)]
}

// InsertPlayRecord implements Store.InsertPlayRecord.
func (s *MemStore) InsertPlayRecord(ctx context.Context, rec model.PlayRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if s.closed.Load() {
		metrics.RecordErrorByComponent("repository", "closed")
		return ErrClosed
	}

	sh := s.shardFor(rec.PlayerID, rec.GameID)
	sh.mu.Lock()
	sh.plays = append(sh.plays, rec)
	sh.mu.Unlock()
	return nil
}

// GetPlayerGameStat implements Store.GetPlayerGameStat.
func (s *MemStore) GetPlayerGameStat(ctx context.Context, playerID, gameID string) (model.PlayerGameStat, bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	sh := s.shardFor(playerID, gameID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	stat, ok := sh.stats[pairKey{playerID: playerID, gameID: gameID}]
	return stat, ok, nil
}

// UpsertPlayerGameStat implements Store.UpsertPlayerGameStat. The whole
// merge runs under the pair's shard lock, so concurrent submissions for
// one pair are equivalent to some serial order of arrival.
func (s *MemStore) UpsertPlayerGameStat(ctx context.Context, playerID, gameID string, rawScore float64, lowerIsBetter bool, tier TierFunc, playedAt time.Time) (model.PlayerGameStat, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if s.closed.Load() {
		metrics.RecordErrorByComponent("repository", "closed")
		return model.PlayerGameStat{}, ErrClosed
	}

	key := pairKey{playerID: playerID, gameID: gameID}
	sh := s.shardFor(playerID, gameID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	stat, ok := sh.stats[key]
	if !ok {
		stat = model.PlayerGameStat{
			PlayerID:   playerID,
			GameID:     gameID,
			BestScore:  rawScore,
			TotalPlays: 1,
		}
	} else {
		stat.TotalPlays++
		if lowerIsBetter {
			if rawScore < stat.BestScore {
				stat.BestScore = rawScore
			}
		} else if rawScore > stat.BestScore {
			stat.BestScore = rawScore
		}
	}
	stat.LastPlayedAt = playedAt
	if tier != nil {
		stat.Tier = tier(stat.BestScore)
	}
	sh.stats[key] = stat

	return stat, nil
}

// TopN implements Store.TopN.
func (s *MemStore) TopN(ctx context.Context, gameID string, n int, ascending bool) ([]model.PlayerGameStat, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	out := make([]model.PlayerGameStat, 0, n)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for key, stat := range sh.stats {
			if key.gameID == gameID {
				out = append(out, stat)
			}
		}
		sh.mu.RUnlock()
	}

	sortBestFirst(out, ascending)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// CountPlayers implements Store.CountPlayers.
func (s *MemStore) CountPlayers(ctx context.Context, gameID string) int {
	count := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		if gameID == "" {
			count += len(sh.stats)
		} else {
			for key := range sh.stats {
				if key.gameID == gameID {
					count++
				}
			}
		}
		sh.mu.RUnlock()
	}
	return count
}

// CountPlays implements Store.CountPlays.
func (s *MemStore) CountPlays(ctx context.Context) int {
	count := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		count += len(sh.plays)
		sh.mu.RUnlock()
	}
	return count
}

// GetSnapshot returns the latest monitoring snapshot, or nil before the
// first rebuild.
func (s *MemStore) GetSnapshot() *Snapshot {
	return s.snapshot.Load()
}

// Close stops the snapshot goroutine and rejects further writes.
func (s *MemStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.stopChan)
	s.wg.Wait()
	return nil
}

// startPeriodicSnapshots publishes monitoring snapshots at the
// configured interval.
func (s *MemStore) startPeriodicSnapshots(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishSnapshot()
			}
		}
	}()
}

// publishSnapshot rebuilds and publishes a new snapshot.
func (s *MemStore) publishSnapshot() {
	start := time.Now()

	snap := &Snapshot{
		PlayersByGame: make(map[string]int),
		TakenAt:       start,
	}
	for _, sh := range s.shards {
		sh.mu.RLock()
		for key := range sh.stats {
			snap.PlayersByGame[key.gameID]++
		}
		snap.TotalPairs += len(sh.stats)
		snap.TotalPlays += len(sh.plays)
		sh.mu.RUnlock()
	}
	s.snapshot.Store(snap)

	ms := float64(time.Since(start).Milliseconds())
	metrics.RecordRepositorySnapshotRebuildDuration(ms)
	metrics.IncrementRepositorySnapshotCount()
	metrics.UpdateRepositoryPairsTotal(snap.TotalPairs)
	metrics.UpdateRepositoryPlaysTotal(snap.TotalPlays)
	for gameID, players := range snap.PlayersByGame {
		metrics.UpdateGamePlayers(gameID, players)
	}
}

// sortBestFirst orders entries best performance first for the game's
// direction. Ties break by earliest LastPlayedAt, then playerID, so
// pagination stays deterministic.
func sortBestFirst(entries []model.PlayerGameStat, ascending bool) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.BestScore != b.BestScore {
			if ascending {
				return a.BestScore < b.BestScore
			}
			return a.BestScore > b.BestScore
		}
		if !a.LastPlayedAt.Equal(b.LastPlayedAt) {
			return a.LastPlayedAt.Before(b.LastPlayedAt)
		}
		return a.PlayerID < b.PlayerID
	})
}
