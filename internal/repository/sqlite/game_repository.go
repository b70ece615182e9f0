package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/alexk/chessinsight/internal/logger"
	"github.com/alexk/chessinsight/internal/models"
	"github.com/alexk/chessinsight/internal/repository"
)

type gameRepository struct {
	db *sql.DB
}

// NewGameRepository creates a new GameRepository implementation
func NewGameRepository(db *sql.DB) repository.GameRepository {
	return &gameRepository{db: db}
}

func (r *gameRepository) Upsert(ctx context.Context, g models.Game) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("upserting game: id=%s, opponent=%s", g.ID, g.Opponent)

	// Games are immutable once fetched; a re-import of a known id only
	// refreshes the derived columns.
	_, err := r.db.ExecContext(ctx, `
INSERT INTO games (id, username, year, pgn, played_as, opponent, result, time_class, player_rating, opponent_rating, played_at, subject_plies)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    result = excluded.result,
    time_class = excluded.time_class,
    player_rating = excluded.player_rating,
    opponent_rating = excluded.opponent_rating,
    subject_plies = excluded.subject_plies
`, g.ID, g.Username, g.Year, g.PGN, g.PlayedAs, g.Opponent, g.Result, g.TimeClass, g.PlayerRating, g.OpponentRating, g.PlayedAt, g.SubjectPlies)
	if err != nil {
		log.Error("failed to upsert game: %v", err)
	}
	return err
}

func (r *gameRepository) Get(ctx context.Context, id string) (*models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("getting game: id=%s", id)

	var g models.Game
	err := r.db.QueryRowContext(ctx, `
SELECT id, username, year, pgn, played_as, opponent, result, time_class, player_rating, opponent_rating, played_at, subject_plies, created_at
FROM games
WHERE id = ?
`, id).Scan(&g.ID, &g.Username, &g.Year, &g.PGN, &g.PlayedAs, &g.Opponent, &g.Result, &g.TimeClass, &g.PlayerRating, &g.OpponentRating, &g.PlayedAt, &g.SubjectPlies, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("game not found: id=%s", id)
		} else {
			log.Error("failed to get game: %v", err)
		}
		return nil, err
	}
	return &g, nil
}

func (r *gameRepository) List(ctx context.Context, filter models.GameFilter) ([]models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("listing games: username=%s, year=%d, result=%s", filter.Username, filter.Year, filter.Result)

	query := sqlBuilder.Select(
		"id", "username", "year", "pgn", "played_as", "opponent", "result",
		"time_class", "player_rating", "opponent_rating", "played_at",
		"subject_plies", "created_at",
	).From("games")

	query = applyGameFilter(query, filter)
	query = query.OrderBy("played_at ASC")

	limit := filter.Limit
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list games: %v", err)
		return nil, err
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		var g models.Game
		if err := rows.Scan(&g.ID, &g.Username, &g.Year, &g.PGN, &g.PlayedAs, &g.Opponent, &g.Result, &g.TimeClass, &g.PlayerRating, &g.OpponentRating, &g.PlayedAt, &g.SubjectPlies, &g.CreatedAt); err != nil {
			log.Error("failed to scan game row: %v", err)
			return nil, err
		}
		games = append(games, g)
	}
	log.Debug("found %d games", len(games))
	return games, rows.Err()
}

func (r *gameRepository) Count(ctx context.Context, filter models.GameFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	query := applyGameFilter(sqlBuilder.Select("COUNT(*)").From("games"), filter)
	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count games: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *gameRepository) SetSubjectPlies(ctx context.Context, id string, plies int) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	_, err := r.db.ExecContext(ctx, `UPDATE games SET subject_plies = ? WHERE id = ?`, plies, id)
	if err != nil {
		log.Error("failed to set subject plies: %v", err)
	}
	return err
}

func applyGameFilter(query squirrel.SelectBuilder, filter models.GameFilter) squirrel.SelectBuilder {
	if filter.Username != "" {
		query = query.Where(squirrel.Eq{"username": filter.Username})
	}
	if filter.Year != 0 {
		query = query.Where(squirrel.Eq{"year": filter.Year})
	}
	if filter.Result != "" {
		query = query.Where(squirrel.Eq{"result": filter.Result})
	}
	if filter.PlayedAs != "" {
		query = query.Where(squirrel.Eq{"played_as": filter.PlayedAs})
	}
	return query
}
