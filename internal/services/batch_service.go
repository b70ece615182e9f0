package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexk/chessinsight/internal/analysis"
	"github.com/alexk/chessinsight/internal/chesscom"
	"github.com/alexk/chessinsight/internal/config"
	"github.com/alexk/chessinsight/internal/engine"
	"github.com/alexk/chessinsight/internal/errors"
	"github.com/alexk/chessinsight/internal/logger"
	"github.com/alexk/chessinsight/internal/models"
	"github.com/alexk/chessinsight/internal/pgn"
	"github.com/alexk/chessinsight/internal/repository"
	"github.com/alexk/chessinsight/internal/worker"
)

// BatchService owns the analyze-a-year workflow: it registers batches,
// hands them to the job pool, and tracks their progress in memory. The
// evaluation cache is the durable layer; batches themselves are cheap to
// re-run and are not persisted.
type BatchService interface {
	Start(ctx context.Context, username string, year int, result string, depth int) (models.Batch, error)
	Get(ctx context.Context, id string) (models.Batch, error)
	Reports(ctx context.Context, id string) ([]models.GameReport, error)
	RunBatch(ctx context.Context, batchID string) error
}

type batchService struct {
	gameRepo repository.GameRepository
	evalRepo repository.EvalRepository
	client   chesscom.ClientInterface
	pool     *worker.Pool

	factory       engine.Factory
	stockfishPath string
	analysisCfg   analysis.Config
	workers       int

	mu      sync.RWMutex
	batches map[string]*models.Batch
	reports map[string][]models.GameReport
}

// NewBatchService creates a new BatchService.
func NewBatchService(
	gameRepo repository.GameRepository,
	evalRepo repository.EvalRepository,
	client chesscom.ClientInterface,
	pool *worker.Pool,
	cfg AnalysisConfig,
	tuning config.Tuning,
) BatchService {
	path := cfg.StockfishPath
	threads := cfg.Constraints.Threads
	return &batchService{
		gameRepo: gameRepo,
		evalRepo: evalRepo,
		client:   client,
		pool:     pool,
		factory: func() (engine.Session, error) {
			return engine.NewUCIEngine(path, threads)
		},
		stockfishPath: path,
		analysisCfg: analysis.Config{
			Thresholds: analysis.Thresholds{
				InaccuracyCP: tuning.InaccuracyCP,
				MistakeCP:    tuning.MistakeCP,
				BlunderCP:    tuning.BlunderCP,
				MateCP:       tuning.MateCP,
			},
			Phases: analysis.PhaseConfig{
				OpeningPlies:    tuning.OpeningPlies,
				OpeningMaterial: tuning.OpeningMaterial,
				EndgameMaterial: tuning.EndgameMaterial,
				MateCP:          tuning.MateCP,
			},
			Constraints: cfg.Constraints,
			Fingerprint: engine.Fingerprint(path, cfg.Constraints),
		},
		workers: cfg.Workers,
		batches: make(map[string]*models.Batch),
		reports: make(map[string][]models.GameReport),
	}
}

// configFor returns the analysis config for a batch, applying an optional
// search depth override. A changed depth changes the fingerprint, so the
// override reads and writes its own cache rows.
func (s *batchService) configFor(depth int) analysis.Config {
	cfg := s.analysisCfg
	if depth > 0 {
		cfg.Constraints.Depth = depth
		cfg.Fingerprint = engine.Fingerprint(s.stockfishPath, cfg.Constraints)
	}
	return cfg
}

func (s *batchService) Start(ctx context.Context, username string, year int, result string, depth int) (models.Batch, error) {
	log := logger.FromContext(ctx)

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.Batch{}, errors.NewValidationError("username", "cannot be empty")
	}
	if year < 2007 || year > time.Now().Year() {
		return models.Batch{}, errors.NewValidationError("year", "outside the plausible range")
	}
	if result != "" && result != "win" && result != "draw" && result != "loss" {
		return models.Batch{}, errors.NewValidationError("result", "must be win, draw or loss")
	}
	if depth < 0 || depth > 40 {
		return models.Batch{}, errors.NewValidationError("depth", "must be between 1 and 40, or 0 for the default")
	}

	batch := models.Batch{
		ID:          uuid.NewString(),
		Username:    username,
		Year:        year,
		Result:      result,
		Depth:       depth,
		Fingerprint: s.configFor(depth).Fingerprint,
		Status:      models.BatchQueued,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.batches[batch.ID] = &batch
	s.mu.Unlock()

	log.Info("queueing analysis batch %s for %s/%d", batch.ID, username, year)
	s.pool.Submit(&worker.AnalyzeBatchJob{BatchService: s, BatchID: batch.ID})

	return batch, nil
}

func (s *batchService) Get(ctx context.Context, id string) (models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return models.Batch{}, errors.NewNotFoundError("batch", id)
	}
	return *b, nil
}

func (s *batchService) Reports(ctx context.Context, id string) ([]models.GameReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.batches[id]; !ok {
		return nil, errors.NewNotFoundError("batch", id)
	}
	reports := make([]models.GameReport, len(s.reports[id]))
	copy(reports, s.reports[id])
	return reports, nil
}

// RunBatch executes a registered batch: fetch, store, analyze, aggregate.
// It runs inside the job pool; errors both mark the batch failed and
// propagate so the pool logs them.
func (s *batchService) RunBatch(ctx context.Context, batchID string) error {
	log := logger.FromContext(ctx).WithField("batch_id", batchID)

	s.mu.Lock()
	b, ok := s.batches[batchID]
	if !ok {
		s.mu.Unlock()
		return errors.NewNotFoundError("batch", batchID)
	}
	b.Status = models.BatchRunning
	username, year, result, depth := b.Username, b.Year, b.Result, b.Depth
	s.mu.Unlock()

	games, err := s.fetchGames(ctx, username, year, result)
	if err != nil {
		s.finishBatch(batchID, nil, nil, err)
		return err
	}
	if len(games) == 0 {
		s.finishBatch(batchID, nil, &models.AggregateStats{}, nil)
		log.Info("no games matched for %s/%d", username, year)
		return nil
	}

	s.mu.Lock()
	b.TotalGames = len(games)
	s.mu.Unlock()

	orch := analysis.NewOrchestrator(s.evalRepo, s.factory, s.configFor(depth), s.workers)
	orch.OnReport = func(models.GameReport) {
		s.mu.Lock()
		b.Completed++
		s.mu.Unlock()
	}

	reports, err := orch.Run(ctx, games)
	if err != nil {
		s.finishBatch(batchID, nil, nil, err)
		return err
	}

	stats := analysis.Aggregate(reports)
	s.finishBatch(batchID, reports, &stats, nil)
	log.Info("batch finished: %d games, %d plies classified, %d unanalyzable",
		stats.Games, stats.PliesClassified, stats.Unanalyzable)
	return nil
}

func (s *batchService) finishBatch(id string, reports []models.GameReport, stats *models.AggregateStats, err error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return
	}
	b.FinishedAt = &now
	if err != nil {
		b.Status = models.BatchFailed
		b.Error = err.Error()
		return
	}
	b.Status = models.BatchDone
	b.Stats = stats
	s.reports[id] = reports
}

// fetchGames pulls the year's games from chess.com and upserts the ones
// matching the result filter, recording how many plies the user played in
// each so cache completeness can later be checked in bulk.
func (s *batchService) fetchGames(ctx context.Context, username string, year int, result string) ([]models.Game, error) {
	log := logger.FromContext(ctx)

	monthly, err := s.client.FetchYear(ctx, username, year)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var games []models.Game
	for _, mg := range monthly {
		gameID := pgn.ExtractGameID(mg.URL)
		if gameID == "" || seen[gameID] {
			continue
		}
		seen[gameID] = true

		playedAs, opponent, res, rating, oppRating := chesscom.DeriveResult(username, mg)
		if result != "" && res != result {
			continue
		}

		headers := pgn.ParsePGNHeaders(mg.PGN)
		if rating == 0 || oppRating == 0 {
			whiteElo, _ := strconv.Atoi(headers["WhiteElo"])
			blackElo, _ := strconv.Atoi(headers["BlackElo"])
			if playedAs == models.White {
				if rating == 0 {
					rating = whiteElo
				}
				if oppRating == 0 {
					oppRating = blackElo
				}
			} else {
				if rating == 0 {
					rating = blackElo
				}
				if oppRating == 0 {
					oppRating = whiteElo
				}
			}
		}

		game := models.Game{
			ID:             gameID,
			Username:       username,
			Year:           year,
			PGN:            mg.PGN,
			PlayedAs:       playedAs,
			Opponent:       opponent,
			Result:         res,
			TimeClass:      mg.TimeClass,
			PlayerRating:   rating,
			OpponentRating: oppRating,
			PlayedAt:       time.Unix(mg.EndTime, 0),
		}

		plies, err := pgn.Stream(game.ID, game.PGN)
		if err != nil {
			// Stored anyway so the batch reports it as failed instead of
			// silently shrinking.
			log.Warn("game %s has an unreplayable PGN: %v", game.ID, err)
		} else {
			game.SubjectPlies = pgn.CountSubject(plies, game.PlayedAs)
		}

		if err := s.gameRepo.Upsert(ctx, game); err != nil {
			log.Warn("failed to store game %s: %v", game.ID, err)
		}
		games = append(games, game)
	}

	log.Info("fetched %d games for %s/%d (filter=%q)", len(games), username, year, result)
	return games, nil
}
