package repository

import (
	"context"
	"time"

	"github.com/alexk/chessinsight/internal/models"
)

// EvalRepository is the persistent evaluation cache, keyed by
// (game id, ply index, engine fingerprint).
type EvalRepository interface {
	// Get returns the cached record, or nil on a miss.
	Get(ctx context.Context, gameID string, plyIndex int, fingerprint string) (*models.EvaluationRecord, error)
	// Put stores a record. Existing records are never overwritten: writing
	// the same key again is a no-op, a different fingerprint is a new row.
	Put(ctx context.Context, rec models.EvaluationRecord) error
	// RecordsForGame returns a game's cached records for one fingerprint,
	// ordered by ply index.
	RecordsForGame(ctx context.Context, gameID, fingerprint string) ([]models.EvaluationRecord, error)
	// GamesAnalyzed reports which of the given games are fully cached for
	// the fingerprint, without per-ply lookups.
	GamesAnalyzed(ctx context.Context, gameIDs []string, fingerprint string) (map[string]bool, error)
	// PurgeOlderThan deletes records older than the given age and returns
	// how many were removed.
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
	// PurgeAll clears the cache. The forced-reanalysis path.
	PurgeAll(ctx context.Context) (int64, error)
}

// GameRepository stores fetched game metadata.
type GameRepository interface {
	Upsert(ctx context.Context, game models.Game) error
	Get(ctx context.Context, id string) (*models.Game, error)
	List(ctx context.Context, filter models.GameFilter) ([]models.Game, error)
	Count(ctx context.Context, filter models.GameFilter) (int, error)
	SetSubjectPlies(ctx context.Context, id string, plies int) error
}
