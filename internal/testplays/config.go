package testplays

import "time"

// Config holds configuration for the play test
type Config struct {
	BaseURL    string        // Base URL of the service
	NumPlays   int           // Number of plays to generate
	GameID     string        // Restrict plays to one game; empty rotates all games
	TopN       int           // Number of top entries to fetch
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for plays
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Play represents a play to be submitted
type Play struct {
	SubmissionID string  `json:"submission_id"`
	PlayerID     string  `json:"player_id"`
	GameID       string  `json:"game_id"`
	RawScore     float64 `json:"raw_score"`
}

// Entry represents a leaderboard entry
type Entry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	BestScore  float64 `json:"best_score"`
	Tier       string  `json:"tier"`
	TotalPlays int     `json:"total_plays"`
}

// Leaderboard represents the leaderboard response
type Leaderboard struct {
	GameID  string  `json:"game_id"`
	Entries []Entry `json:"entries"`
}

// PlayerStat represents the per-pair aggregate response
type PlayerStat struct {
	PlayerID   string  `json:"player_id"`
	GameID     string  `json:"game_id"`
	BestScore  float64 `json:"best_score"`
	TotalPlays int     `json:"total_plays"`
	Tier       string  `json:"tier"`
	Percentile float64 `json:"percentile"`
}

// AckResponse represents the response from a duplicate submission
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics
type Stats struct {
	PlaysGenerated     int
	PlaysSubmitted     int
	PlaysSuccessful    int
	PlaysDuplicate     int
	PlaysFailed        int
	StatsRetrieved     int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
