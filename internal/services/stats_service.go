package services

import (
	"context"
	"time"

	"github.com/alexk/chessinsight/internal/analysis"
	"github.com/alexk/chessinsight/internal/config"
	"github.com/alexk/chessinsight/internal/engine"
	"github.com/alexk/chessinsight/internal/errors"
	"github.com/alexk/chessinsight/internal/logger"
	"github.com/alexk/chessinsight/internal/models"
	"github.com/alexk/chessinsight/internal/repository"
)

// StatsService answers read-only questions from data already on disk. It
// never talks to an engine: reports are rebuilt by replaying stored games
// against the evaluation cache, so the same cache always yields the same
// numbers.
type StatsService interface {
	GetStats(ctx context.Context, filter models.GameFilter) (models.AggregateStats, error)
	ListGames(ctx context.Context, filter models.GameFilter) ([]models.Game, int, error)
	PurgeCache(ctx context.Context, olderThan time.Duration) (int64, error)
}

type statsService struct {
	gameRepo    repository.GameRepository
	evalRepo    repository.EvalRepository
	analysisCfg analysis.Config
}

// NewStatsService creates a new StatsService.
func NewStatsService(
	gameRepo repository.GameRepository,
	evalRepo repository.EvalRepository,
	cfg AnalysisConfig,
	tuning config.Tuning,
) StatsService {
	return &statsService{
		gameRepo: gameRepo,
		evalRepo: evalRepo,
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
			Fingerprint: engine.Fingerprint(cfg.StockfishPath, cfg.Constraints),
		},
	}
}

func (s *statsService) GetStats(ctx context.Context, filter models.GameFilter) (models.AggregateStats, error) {
	log := logger.FromContext(ctx)
	log.Debug("rebuilding stats: username=%s, year=%d", filter.Username, filter.Year)

	games, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list games: %v", err)
		return models.AggregateStats{}, errors.NewInternalError(err)
	}
	if len(games) == 0 {
		return models.AggregateStats{}, nil
	}

	an := analysis.NewGameAnalyzer(s.evalRepo, nil, s.analysisCfg)
	reports := make([]models.GameReport, 0, len(games))
	for _, g := range games {
		reports = append(reports, an.Analyze(ctx, g))
	}

	return analysis.Aggregate(reports), nil
}

func (s *statsService) ListGames(ctx context.Context, filter models.GameFilter) ([]models.Game, int, error) {
	log := logger.FromContext(ctx)

	games, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list games: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}

	total, err := s.gameRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count games: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}

	return games, total, nil
}

func (s *statsService) PurgeCache(ctx context.Context, olderThan time.Duration) (int64, error) {
	log := logger.FromContext(ctx)

	var (
		removed int64
		err     error
	)
	if olderThan > 0 {
		removed, err = s.evalRepo.PurgeOlderThan(ctx, olderThan)
	} else {
		removed, err = s.evalRepo.PurgeAll(ctx)
	}
	if err != nil {
		log.Error("cache purge failed: %v", err)
		return 0, err
	}

	log.Info("purged %d cached evaluations", removed)
	return removed, nil
}
