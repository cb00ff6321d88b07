// Package tier maps a best score to an ordinal tier label per game family.
package tier

import (
	"sort"
	"strings"
)

// DefaultLabel is the tier for games without a configured ladder.
const DefaultLabel = "Normal"

// Step is one rung of a ladder: scores at or above Min earn Label.
type Step struct {
	Min   float64 `koanf:"min" json:"min"`
	Label string  `koanf:"label" json:"label"`
}

// Ladder is an ordered threshold table for one game family.
// Steps are evaluated highest Min first; Fallback applies below them all.
type Ladder struct {
	Steps    []Step `koanf:"steps" json:"steps"`
	Fallback string `koanf:"fallback" json:"fallback"`
}

// Table resolves tiers from a family-keyed set of ladders.
// A game belongs to a family when the family name is a substring of its
// game id ("chimp" matches both "chimp_test" and "chimp_test_hard").
type Table struct {
	families []string // match order, longest first for specificity
	ladders  map[string]Ladder
}

// Option applies a configuration option to the Table.
type Option func(*Table)

// WithLadder registers or replaces the ladder for a game family.
func WithLadder(family string, l Ladder) Option {
	return func(t *Table) {
		if family == "" || len(l.Steps) == 0 {
			return
		}
		t.setLadder(family, l)
	}
}

// WithLaddersFromConfig registers every ladder in a configuration map.
func WithLaddersFromConfig(ladders map[string]Ladder) Option {
	return func(t *Table) {
		for family, l := range ladders {
			if family == "" || len(l.Steps) == 0 {
				continue
			}
			t.setLadder(family, l)
		}
	}
}

// NewTable builds a tier table. With no options it ships the default
// ruleset: the "chimp" family ladder plus DefaultLabel for everyone else.
func NewTable(opts ...Option) *Table {
	t := &Table{ladders: make(map[string]Ladder)}
	t.setLadder("chimp", Ladder{
		Steps: []Step{
			{Min: 15, Label: "Alien"},
			{Min: 10, Label: "Chimp"},
			{Min: 5, Label: "Cat"},
		},
		Fallback: "Shrimp",
	})

	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Table) setLadder(family string, l Ladder) {
	// Normalize step order so lookup can stop at the first match.
	steps := make([]Step, len(l.Steps))
	copy(steps, l.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Min > steps[j].Min })
	if l.Fallback == "" {
		l.Fallback = DefaultLabel
	}
	l.Steps = steps

	if _, exists := t.ladders[family]; !exists {
		t.families = append(t.families, family)
		sort.SliceStable(t.families, func(i, j int) bool {
			return len(t.families[i]) > len(t.families[j])
		})
	}
	t.ladders[family] = l
}

// DetermineTier returns the tier label for bestScore in gameID's family.
// Pure function: same inputs, same label, no side effects.
func (t *Table) DetermineTier(gameID string, bestScore float64) string {
	for _, family := range t.families {
		if !strings.Contains(gameID, family) {
			continue
		}
		l := t.ladders[family]
		for _, step := range l.Steps {
			if bestScore >= step.Min {
				return step.Label
			}
		}
		return l.Fallback
	}
	return DefaultLabel
}
