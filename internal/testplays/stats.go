package testplays

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// retrievePlayerStats retrieves per-pair aggregates for all plays concurrently.
func retrievePlayerStats(ctx context.Context, config *Config, plays []Play, stats *Stats) ([]PlayerStat, error) {
	log.Printf("Retrieving stats for %d players with %d workers...", len(plays), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Results storage
	results := make([]PlayerStat, len(plays))
	var (
		retrieved int64
		failed    int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	playChan := make(chan int, config.Workers*WorkerChannelMultiplier) // Send indices instead of plays
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range playChan {
				select {
				case <-ctx.Done():
					return
				default:
					play := plays[index]
					stat, err := retrieveSingleStat(client, config.BaseURL, play.PlayerID, play.GameID)

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("Failed to get stat for %s/%s: %v", play.PlayerID, play.GameID, err)
						}
					} else {
						results[index] = stat
						atomic.AddInt64(&retrieved, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&failed)
						log.Printf("Stat progress: %d/%d retrieved (success: %d, failed: %d)",
							total, len(plays), atomic.LoadInt64(&retrieved), atomic.LoadInt64(&failed))
					}
				}
			}
		}()
	}

	// Send play indices to workers
	go func() {
		defer close(playChan)
		for i := range plays {
			select {
			case <-ctx.Done():
				return
			case playChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Filter out empty entries (failed retrievals)
	validStats := make([]PlayerStat, 0, len(results))
	for _, stat := range results {
		if stat.PlayerID != "" { // Empty PlayerID indicates failed retrieval
			validStats = append(validStats, stat)
		}
	}

	// Update stats
	stats.StatsRetrieved = len(validStats)

	log.Printf(`Stat retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(validStats), int(atomic.LoadInt64(&failed)))

	return validStats, nil
}

// retrieveSingleStat retrieves the aggregate for a single (player, game) pair.
func retrieveSingleStat(client *HTTPClient, baseURL, playerID, gameID string) (PlayerStat, error) {
	url := fmt.Sprintf("%s/api/players/%s/games/%s", baseURL, playerID, gameID)

	resp, err := client.Get(url)
	if err != nil {
		return PlayerStat{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return PlayerStat{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return PlayerStat{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var stat PlayerStat
	if err := unmarshalJSON(body, &stat); err != nil {
		return PlayerStat{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return stat, nil
}

// getLeaderboard retrieves the top N leaderboard entries for one game.
func getLeaderboard(ctx context.Context, config *Config, gameID string, stats *Stats) (*Leaderboard, error) {
	log.Printf("Getting top %d leaderboard entries for %s...", config.TopN, gameID)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/api/leaderboard?game_id=%s&limit=%d", config.BaseURL, gameID, config.TopN)

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var board Leaderboard
	if err := unmarshalJSON(body, &board); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.LeaderboardEntries += len(board.Entries)
	log.Printf("Retrieved %d leaderboard entries for %s", len(board.Entries), gameID)

	return &board, nil
}
