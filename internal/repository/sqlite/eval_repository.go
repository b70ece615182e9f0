package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/alexk/chessinsight/internal/logger"
	"github.com/alexk/chessinsight/internal/models"
	"github.com/alexk/chessinsight/internal/repository"
)

type evalRepository struct {
	db *sql.DB
}

// NewEvalRepository creates a new EvalRepository implementation
func NewEvalRepository(db *sql.DB) repository.EvalRepository {
	return &evalRepository{db: db}
}

func (r *evalRepository) Get(ctx context.Context, gameID string, plyIndex int, fingerprint string) (*models.EvaluationRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("eval_repo")

	var rec models.EvaluationRecord
	err := r.db.QueryRowContext(ctx, `
SELECT id, game_id, ply_index, fingerprint, eval_before, eval_after, best_move, depth, created_at
FROM evaluations
WHERE game_id = ? AND ply_index = ? AND fingerprint = ?
`, gameID, plyIndex, fingerprint).Scan(&rec.ID, &rec.GameID, &rec.PlyIndex, &rec.Fingerprint, &rec.EvalBefore, &rec.EvalAfter, &rec.BestMove, &rec.Depth, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Error("failed to get evaluation: %v", err)
		return nil, err
	}
	return &rec, nil
}

func (r *evalRepository) Put(ctx context.Context, rec models.EvaluationRecord) error {
	log := logger.FromContext(ctx).WithPrefix("eval_repo")
	log.Debug("storing evaluation: game_id=%s, ply_index=%d", rec.GameID, rec.PlyIndex)

	// OR IGNORE keeps stored records immutable: a duplicate key write is a
	// no-op, and a new fingerprint lands in its own row.
	_, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO evaluations (game_id, ply_index, fingerprint, eval_before, eval_after, best_move, depth)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, rec.GameID, rec.PlyIndex, rec.Fingerprint, rec.EvalBefore, rec.EvalAfter, rec.BestMove, rec.Depth)
	if err != nil {
		log.Error("failed to store evaluation: %v", err)
		return err
	}
	return nil
}

func (r *evalRepository) RecordsForGame(ctx context.Context, gameID, fingerprint string) ([]models.EvaluationRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("eval_repo")
	log.Debug("fetching cached evaluations: game_id=%s", gameID)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, game_id, ply_index, fingerprint, eval_before, eval_after, best_move, depth, created_at
FROM evaluations
WHERE game_id = ? AND fingerprint = ?
ORDER BY ply_index ASC
`, gameID, fingerprint)
	if err != nil {
		log.Error("failed to query evaluations: %v", err)
		return nil, err
	}
	defer rows.Close()

	var records []models.EvaluationRecord
	for rows.Next() {
		var rec models.EvaluationRecord
		if err := rows.Scan(&rec.ID, &rec.GameID, &rec.PlyIndex, &rec.Fingerprint, &rec.EvalBefore, &rec.EvalAfter, &rec.BestMove, &rec.Depth, &rec.CreatedAt); err != nil {
			log.Error("failed to scan evaluation row: %v", err)
			return nil, err
		}
		records = append(records, rec)
	}
	log.Debug("found %d cached evaluations", len(records))
	return records, rows.Err()
}

func (r *evalRepository) GamesAnalyzed(ctx context.Context, gameIDs []string, fingerprint string) (map[string]bool, error) {
	log := logger.FromContext(ctx).WithPrefix("eval_repo")

	analyzed := make(map[string]bool, len(gameIDs))
	if len(gameIDs) == 0 {
		return analyzed, nil
	}

	// Fully cached means the cached record count covers every subject ply.
	// Games without a stored ply count are never reported as cached.
	query := sqlBuilder.
		Select("g.id").
		From("games g").
		Join("evaluations e ON e.game_id = g.id AND e.fingerprint = ?", fingerprint).
		Where(squirrel.Eq{"g.id": gameIDs}).
		Where("g.subject_plies > 0").
		GroupBy("g.id", "g.subject_plies").
		Having("COUNT(e.id) >= g.subject_plies")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query analyzed games: %v", err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		analyzed[id] = true
	}
	log.Debug("%d of %d games fully cached", len(analyzed), len(gameIDs))
	return analyzed, rows.Err()
}

func (r *evalRepository) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("eval_repo")

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM evaluations WHERE created_at < datetime('now', ?)`,
		fmt.Sprintf("-%d seconds", int64(age.Seconds())))
	if err != nil {
		log.Error("failed to purge old evaluations: %v", err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	log.Info("purged %d evaluations older than %v", n, age)
	return n, nil
}

func (r *evalRepository) PurgeAll(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("eval_repo")

	res, err := r.db.ExecContext(ctx, `DELETE FROM evaluations`)
	if err != nil {
		log.Error("failed to purge evaluations: %v", err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	log.Info("purged all %d evaluations", n)
	return n, nil
}
