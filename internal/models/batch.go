package models

import "time"

// BatchStatus describes a submitted analysis batch.
type BatchStatus string

const (
	BatchQueued  BatchStatus = "queued"
	BatchRunning BatchStatus = "running"
	BatchDone    BatchStatus = "done"
	BatchFailed  BatchStatus = "failed"
)

// Batch tracks one analyze-this-year request through the job pool.
type Batch struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Year        int             `json:"year"`
	Result      string          `json:"result,omitempty"` // optional result filter (e.g. only losses)
	Depth       int             `json:"depth,omitempty"`  // optional search depth override
	Fingerprint string          `json:"fingerprint"`
	Status      BatchStatus     `json:"status"`
	TotalGames  int             `json:"total_games"`
	Completed   int             `json:"completed"`
	Error       string          `json:"error,omitempty"`
	Stats       *AggregateStats `json:"stats,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}
