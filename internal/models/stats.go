package models

import "time"

// CategoryCounts tallies classification categories.
type CategoryCounts map[Category]int

// MistakePattern is a recurring inaccuracy-or-worse grouped by move and
// position signature.
type MistakePattern struct {
	Signature string    `json:"signature"`
	SAN       string    `json:"san"`
	Count     int       `json:"count"`
	Worst     Category  `json:"worst"`
	LastSeen  time.Time `json:"last_seen"` // most recent game containing the pattern
}

// AggregateStats is the commutative reduction over a set of GameReports.
type AggregateStats struct {
	Games           int                            `json:"games"`
	PliesClassified int                            `json:"plies_classified"`
	Unanalyzable    int                            `json:"unanalyzable"`
	ByColor         map[Color]CategoryCounts       `json:"by_color"`
	ByPhase         map[Phase]CategoryCounts       `json:"by_phase"`
	ByColorPhase    map[Color]map[Phase]CategoryCounts `json:"by_color_phase"`
	CommonMistakes  []MistakePattern               `json:"common_mistakes"`
}
