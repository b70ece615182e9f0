package models

import "time"

// ReportStatus describes how far a game's analysis got.
type ReportStatus string

const (
	StatusDone       ReportStatus = "done"
	StatusPartial    ReportStatus = "partial"    // cancelled mid-game, prefix is valid
	StatusFailed     ReportStatus = "failed"     // move list could not be reconstructed
	StatusUnanalyzed ReportStatus = "unanalyzed" // worker lost its engine before reaching the game
)

// Classification is the judgment of one subject ply.
type Classification struct {
	PlyIndex int      `json:"ply_index"`
	Category Category `json:"category"`
	// LossCP is the evaluation delta from the mover's perspective;
	// positive means the move lost value.
	LossCP    float64 `json:"loss_cp"`
	Phase     Phase   `json:"phase"`
	Color     Color   `json:"color"`
	SAN       string  `json:"san"`
	BestMove  string  `json:"best_move"`
	Signature string  `json:"signature"` // move + position fingerprint for pattern grouping
}

// GameReport is the per-game analysis result.
type GameReport struct {
	GameID          string           `json:"game_id"`
	Color           Color            `json:"color"`
	Result          string           `json:"result"`
	PlayedAt        time.Time        `json:"played_at"`
	Status          ReportStatus     `json:"status"`
	Classifications []Classification `json:"classifications"`
	Unanalyzable    []int            `json:"unanalyzable,omitempty"` // ply indexes the engine could not judge
	Error           string           `json:"error,omitempty"`
}
