package testplays

import (
	"fmt"
	"log"
	"sort"
)

// verifyResults checks leaderboard ordering against the retrieved aggregates.
func verifyResults(config *Config, playerStats []PlayerStat, boards []*Leaderboard) error {
	log.Println("Verifying results...")

	if len(playerStats) == 0 {
		return fmt.Errorf("no player stats to verify")
	}

	// Group aggregates per game so each board can be checked against its
	// own population and direction.
	byGame := make(map[string][]PlayerStat)
	for _, stat := range playerStats {
		byGame[stat.GameID] = append(byGame[stat.GameID], stat)
	}

	for _, board := range boards {
		population := byGame[board.GameID]
		if len(board.Entries) == 0 || len(population) == 0 {
			continue
		}
		lowerIsBetter := gameIsLowerIsBetter(board.GameID)

		if err := verifyBoardConsistency(board, population, lowerIsBetter); err != nil {
			log.Printf("Leaderboard consistency warning for %s: %v", board.GameID, err)
		} else {
			log.Printf("Leaderboard consistency verified for %s", board.GameID)
		}

		displayTopPerformers(board, config.Verbose)
	}

	log.Println("Result verification completed")
	return nil
}

// gameIsLowerIsBetter reports the direction of a known game; unknown
// games default to higher-is-better, matching the server.
func gameIsLowerIsBetter(gameID string) bool {
	for _, g := range defaultGames {
		if g.gameID == gameID {
			return g.lowerIsBetter
		}
	}
	return false
}

// verifyBoardConsistency checks ordering and that the board's top entry
// matches the best aggregate seen for the game.
func verifyBoardConsistency(board *Leaderboard, population []PlayerStat, lowerIsBetter bool) error {
	// Best aggregate across the population
	sorted := make([]PlayerStat, len(population))
	copy(sorted, population)
	sort.Slice(sorted, func(i, j int) bool {
		if lowerIsBetter {
			return sorted[i].BestScore < sorted[j].BestScore
		}
		return sorted[i].BestScore > sorted[j].BestScore
	})

	top := board.Entries[0]
	if top.BestScore != sorted[0].BestScore {
		return fmt.Errorf("top leaderboard score (%.3f) does not match best aggregate (%.3f)",
			top.BestScore, sorted[0].BestScore)
	}

	// Check if leaderboard is properly sorted
	for i := 1; i < len(board.Entries); i++ {
		prev, cur := board.Entries[i-1].BestScore, board.Entries[i].BestScore
		if lowerIsBetter && cur < prev {
			return fmt.Errorf("leaderboard not properly sorted: entry %d beats entry %d", i, i-1)
		}
		if !lowerIsBetter && cur > prev {
			return fmt.Errorf("leaderboard not properly sorted: entry %d beats entry %d", i, i-1)
		}
		if board.Entries[i].Rank < board.Entries[i-1].Rank {
			return fmt.Errorf("leaderboard ranks not monotonic at entry %d", i)
		}
	}

	return nil
}

// displayTopPerformers shows the top performers from a leaderboard.
func displayTopPerformers(board *Leaderboard, verbose bool) {
	topN := 10
	if len(board.Entries) < topN {
		topN = len(board.Entries)
	}

	log.Printf("Top %d performers for %s:", topN, board.GameID)
	for i := 0; i < topN; i++ {
		entry := board.Entries[i]
		log.Printf("   %d. %s - Best: %.3f (%s, %d plays)", entry.Rank, entry.PlayerID, entry.BestScore, entry.Tier, entry.TotalPlays)
	}

	if verbose && len(board.Entries) > 0 {
		avg := 0.0
		for _, entry := range board.Entries {
			avg += entry.BestScore
		}
		avg /= float64(len(board.Entries))
		log.Printf(`Score statistics for %s:
   Average: %.3f
   First: %.3f
   Last: %.3f
`, board.GameID, avg, board.Entries[0].BestScore, board.Entries[len(board.Entries)-1].BestScore)
	}
}
