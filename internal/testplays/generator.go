package testplays

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mindgauge/mindgauge/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	playIDDivisor      = 10000
	performerDivisor   = 8
)

// Constants for score generation, expressed in standard deviations from
// the game's mean.
const (
	avgPerformerMin     = -0.5
	avgPerformerRange   = 1.0
	highPerformerMin    = 1.0
	highPerformerRange  = 1.0
	lowPerformerMin     = -2.0
	lowPerformerRange   = 1.0
	elitePerformerMin   = 2.0
	elitePerformerRange = 1.0
	veryLowMin          = -3.0
	veryLowRange        = 0.5
	midHighMin          = 0.5
	midHighRange        = 0.5
	midLowMin           = -1.0
	midLowRange         = 0.5
	wideRangeMin        = -3.0
	wideRange           = 6.0
)

// Constants for performance type cases.
const (
	caseAveragePerformer = 0
	caseHighPerformer    = 1
	caseLowPerformer     = 2
	caseElitePerformer   = 3
	caseVeryLowPerformer = 4
	caseMidHighPerformer = 5
	caseMidLowPerformer  = 6
	caseWideRange        = 7
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generatePlays creates the specified number of plays with unique player IDs.
func generatePlays(ctx context.Context, config *Config, stats *Stats) ([]Play, error) {
	logger.Get().Info(ctx, "generating plays with unique player IDs", logger.Int("numPlays", config.NumPlays))

	games := defaultGames
	if config.GameID != "" {
		games = nil
		for _, g := range defaultGames {
			if g.gameID == config.GameID {
				games = []gameProfile{g}
				break
			}
		}
		if games == nil {
			// Unknown game still exercises the server's unknown-game path.
			games = []gameProfile{{gameID: config.GameID, mean: 50, stdDev: 10}}
		}
	}

	plays := make([]Play, config.NumPlays)

	// Pre-allocate player IDs to ensure uniqueness
	playerIDs := make([]string, config.NumPlays)
	for i := 0; i < config.NumPlays; i++ {
		playerIDs[i] = uuid.New().String()
	}

	// Generate plays concurrently
	type playResult struct {
		index int
		play  Play
		err   error
	}

	resultChan := make(chan playResult, config.NumPlays)

	// Use worker pool for play generation
	workerCount := minInt(config.Workers, config.NumPlays)
	playsPerWorker := config.NumPlays / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * playsPerWorker
		end := start + playsPerWorker
		if worker == workerCount-1 {
			end = config.NumPlays // Last worker gets remaining plays
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- playResult{index: i, err: ctx.Err()}
					return
				default:
					game := games[i%len(games)]
					resultChan <- playResult{index: i, play: generateSinglePlay(i, playerIDs[i], game)}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumPlays; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during play generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate play %d: %w", result.index, result.err)
			}
			plays[result.index] = result.play
		}
	}

	stats.PlaysGenerated = len(plays)
	logger.Get().Info(ctx, "generated plays successfully", logger.Int("count", len(plays)))

	return plays, nil
}

// generateSinglePlay creates a single play with the given index and player ID.
func generateSinglePlay(index int, playerID string, game gameProfile) Play {
	rawScore := game.mean + generateZScore()*game.stdDev
	if game.lowerIsBetter && rawScore < 1 {
		rawScore = 1
	}

	// Generate unique submission ID
	randNum, _ := rand.Int(rand.Reader, big.NewInt(playIDDivisor))
	submissionID := "play_" + strconv.FormatInt(int64(index), 10) + "_" + strconv.FormatInt(time.Now().Unix(), 10) + "_" + strconv.FormatInt(randNum.Int64(), 10)

	return Play{
		SubmissionID: submissionID,
		PlayerID:     playerID,
		GameID:       game.gameID,
		RawScore:     rawScore,
	}
}

// generateZScore produces a standard deviation offset with a varied
// distribution favoring average performers.
func generateZScore() float64 {
	randNum, _ := rand.Int(rand.Reader, big.NewInt(performerDivisor))
	switch randNum.Int64() {
	case caseAveragePerformer:
		return avgPerformerMin + getRandomFloat()*avgPerformerRange
	case caseHighPerformer:
		return highPerformerMin + getRandomFloat()*highPerformerRange
	case caseLowPerformer:
		return lowPerformerMin + getRandomFloat()*lowPerformerRange
	case caseElitePerformer:
		return elitePerformerMin + getRandomFloat()*elitePerformerRange
	case caseVeryLowPerformer:
		return veryLowMin + getRandomFloat()*veryLowRange
	case caseMidHighPerformer:
		return midHighMin + getRandomFloat()*midHighRange
	case caseMidLowPerformer:
		return midLowMin + getRandomFloat()*midLowRange
	case caseWideRange:
		return wideRangeMin + getRandomFloat()*wideRange
	default:
		return wideRangeMin + getRandomFloat()*wideRange
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
