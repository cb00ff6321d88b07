package testplays

// HTTP status code constants.
const (
	StatusOK      = 200
	StatusCreated = 201
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
)

// gameProfile mirrors the server's default reference population so the
// generator can produce plausible scores per game.
type gameProfile struct {
	gameID        string
	mean          float64
	stdDev        float64
	lowerIsBetter bool
}

var defaultGames = []gameProfile{
	{gameID: "reaction_time", mean: 300, stdDev: 50, lowerIsBetter: true},
	{gameID: "reaction_time_hard", mean: 350, stdDev: 80, lowerIsBetter: true},
	{gameID: "sequence_memory", mean: 8, stdDev: 2.5},
	{gameID: "aim_trainer", mean: 500, stdDev: 120, lowerIsBetter: true},
	{gameID: "aim_trainer_hard", mean: 800, stdDev: 150, lowerIsBetter: true},
	{gameID: "number_memory", mean: 9, stdDev: 2.5},
	{gameID: "number_memory_hard", mean: 6, stdDev: 2},
	{gameID: "chimp_test", mean: 10, stdDev: 2.5},
}
