package models

import "time"

// EvaluationRecord is one cached engine judgment of a single ply, keyed
// uniquely by (GameID, PlyIndex, Fingerprint). Records are immutable once
// written: a changed engine fingerprint creates a new record, it never
// overwrites an existing one.
//
// EvalBefore is the engine's best-move score in the position prior to the
// move, EvalAfter the score of the position after the move actually
// played. Both are centipawns from White's perspective with mate scores
// normalized to a bounded sentinel.
type EvaluationRecord struct {
	ID          int64     `json:"id"`
	GameID      string    `json:"game_id"`
	PlyIndex    int       `json:"ply_index"`
	Fingerprint string    `json:"fingerprint"`
	EvalBefore  float64   `json:"eval_before"`
	EvalAfter   float64   `json:"eval_after"`
	BestMove    string    `json:"best_move"`
	Depth       int       `json:"depth"`
	CreatedAt   time.Time `json:"created_at"`
}
