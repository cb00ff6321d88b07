// Package percentile converts raw game scores into percentile ranks
// against a static reference population.
package percentile

import (
	"fmt"
	"math"
	"sort"

	"github.com/mindgauge/mindgauge/internal/domain/model"
)

// Bounds of the percentile scale.
const (
	minPercentile = 0.0
	maxPercentile = 100.0
)

// Engine maps raw scores onto a 0-100 percentile scale, direction-aware.
// The profile table is fixed at construction; the engine is pure and
// safe for concurrent use.
type Engine struct {
	profiles map[string]model.GameProfile
}

// NewEngine builds an Engine from the given profile table.
// Profiles are validated at registration: empty game ids, non-positive
// standard deviations, non-finite parameters and duplicate ids are
// rejected so that per-call checks stay unnecessary.
func NewEngine(profiles []model.GameProfile) (*Engine, error) {
	table := make(map[string]model.GameProfile, len(profiles))
	for _, p := range profiles {
		if p.GameID == "" {
			return nil, ErrEmptyGameID
		}
		if !(p.StdDev > 0) || math.IsInf(p.StdDev, 0) {
			return nil, fmt.Errorf("profile %q: %w", p.GameID, ErrInvalidStdDev)
		}
		if math.IsNaN(p.Mean) || math.IsInf(p.Mean, 0) {
			return nil, fmt.Errorf("profile %q: %w", p.GameID, ErrInvalidMean)
		}
		if _, dup := table[p.GameID]; dup {
			return nil, fmt.Errorf("profile %q: %w", p.GameID, ErrDuplicateProfile)
		}
		table[p.GameID] = p
	}
	return &Engine{profiles: table}, nil
}

// Percentile returns the percentile rank of rawScore for gameID,
// rounded to two decimal places. Unknown games return 0; that is data,
// not a failure, so new game types can submit before a profile lands.
func (e *Engine) Percentile(gameID string, rawScore float64) float64 {
	p, ok := e.profiles[gameID]
	if !ok {
		return minPercentile
	}
	cdf := normalCDF(rawScore, p.Mean, p.StdDev) * maxPercentile

	pct := cdf
	if p.Dir == model.LowerIsBetter {
		// CDF(x) is the share of the population at or below x. For a
		// time-like score, being below x means being faster, so the
		// share beaten is the complement.
		pct = maxPercentile - cdf
	}
	return round2(clamp(pct))
}

// Direction reports which way rawScore improves for gameID.
// Unknown games default to HigherIsBetter so aggregation never blocks
// on a missing profile.
func (e *Engine) Direction(gameID string) model.Direction {
	if p, ok := e.profiles[gameID]; ok {
		return p.Dir
	}
	return model.HigherIsBetter
}

// Profile returns the registered profile for gameID, if any.
func (e *Engine) Profile(gameID string) (model.GameProfile, bool) {
	p, ok := e.profiles[gameID]
	return p, ok
}

// Games returns the registered game ids in sorted order.
func (e *Engine) Games() []string {
	ids := make([]string, 0, len(e.profiles))
	for id := range e.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// normalCDF is the cumulative distribution function of N(mean, std).
// Erfc saturates cleanly toward 0 and 1 many deviations out, so extreme
// inputs never leak NaN or Inf to the caller.
func normalCDF(x, mean, std float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return 0.5 * math.Erfc(-(x-mean)/(std*math.Sqrt2))
}

func clamp(v float64) float64 {
	return math.Max(minPercentile, math.Min(maxPercentile, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
