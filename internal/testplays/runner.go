package testplays

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mindgauge/mindgauge/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete play test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting play test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("plays", config.NumPlays),
		logger.String("gameID", config.GameID),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate plays
	plays, err := generatePlays(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("play generation failed: %w", err)
	}

	// Step 3: Submit plays concurrently
	if err := submitPlays(ctx, config, plays, stats); err != nil {
		return fmt.Errorf("play submission failed: %w", err)
	}

	// Step 4: Retrieve per-player aggregates concurrently
	playerStats, err := retrievePlayerStats(ctx, config, plays, stats)
	if err != nil {
		return fmt.Errorf("stat retrieval failed: %w", err)
	}

	// Step 5: Get leaderboards for every game that was played
	seen := make(map[string]bool)
	var boards []*Leaderboard
	for _, play := range plays {
		if seen[play.GameID] {
			continue
		}
		seen[play.GameID] = true

		board, err := getLeaderboard(ctx, config, play.GameID, stats)
		if err != nil {
			return fmt.Errorf("leaderboard retrieval failed: %w", err)
		}
		boards = append(boards, board)
	}

	// Step 6: Verify results
	if err := verifyResults(config, playerStats, boards); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save plays to file
	if err := savePlaysToFile(ctx, config, plays); err != nil {
		logger.Get().Warn(ctx, "failed to save plays to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// savePlaysToFile saves the generated plays to a JSON file.
func savePlaysToFile(ctx context.Context, config *Config, plays []Play) error {
	if len(plays) == 0 {
		return fmt.Errorf("no plays to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_plays_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write plays to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, play := range plays {
		jsonData, err := marshalJSON(play)
		if err != nil {
			return fmt.Errorf("failed to marshal play %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write play %d: %w", i, err)
		}

		// Add comma except for last play
		if i < len(plays)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "plays saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, playsPerSecond float64

	if stats.PlaysSubmitted > 0 {
		successRate = float64(stats.PlaysSuccessful) / float64(stats.PlaysSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		playsPerSecond = float64(stats.PlaysSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("playsGenerated", stats.PlaysGenerated),
		logger.Int("playsSubmitted", stats.PlaysSubmitted),
		logger.Int("playsSuccessful", stats.PlaysSuccessful),
		logger.Int("playsDuplicate", stats.PlaysDuplicate),
		logger.Int("playsFailed", stats.PlaysFailed),
		logger.Int("statsRetrieved", stats.StatsRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("playsPerSecond", playsPerSecond))
}
