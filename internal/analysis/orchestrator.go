package analysis

import (
	"context"
	"sync"

	"github.com/alexk/chessinsight/internal/engine"
	"github.com/alexk/chessinsight/internal/errors"
	"github.com/alexk/chessinsight/internal/logger"
	"github.com/alexk/chessinsight/internal/models"
	"github.com/alexk/chessinsight/internal/repository"
)

// Orchestrator fans a set of games out across a fixed number of workers.
// Each worker owns a single engine session for its whole lifetime; games
// that are already fully cached never touch an engine at all.
type Orchestrator struct {
	evals   repository.EvalRepository
	factory engine.Factory
	cfg     Config
	workers int

	// OnReport, when set, is invoked once per finished game report. Calls
	// arrive from multiple goroutines; the callback must be safe for that.
	OnReport func(models.GameReport)
}

func NewOrchestrator(evals repository.EvalRepository, factory engine.Factory, cfg Config, workers int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		evals:   evals,
		factory: factory,
		cfg:     cfg,
		workers: workers,
	}
}

// Run analyzes every game and returns one report per game, in input order.
// A game that cannot be analyzed still yields a report describing why; the
// only batch-level failure is an empty input.
func (o *Orchestrator) Run(ctx context.Context, games []models.Game) ([]models.GameReport, error) {
	if len(games) == 0 {
		return nil, errors.NewValidationError("games", "no games to analyze")
	}
	log := logger.FromContext(ctx)

	cached := o.cachedGameIDs(ctx, games)

	var replay, pending []models.Game
	for _, g := range games {
		if cached[g.ID] {
			replay = append(replay, g)
		} else {
			pending = append(pending, g)
		}
	}
	log.WithFields(map[string]any{
		"games":   len(games),
		"cached":  len(replay),
		"workers": o.workers,
	}).Info("starting analysis run")

	byID := make(map[string]models.GameReport, len(games))
	var mu sync.Mutex
	record := func(r models.GameReport) {
		mu.Lock()
		byID[r.GameID] = r
		mu.Unlock()
		if o.OnReport != nil {
			o.OnReport(r)
		}
	}

	var wg sync.WaitGroup

	// Fully cached games replay through a session-less analyzer so that a
	// warm run produces the same reports as the run that filled the cache.
	if len(replay) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			an := NewGameAnalyzer(o.evals, nil, o.cfg)
			for _, g := range replay {
				record(an.Analyze(ctx, g))
			}
		}()
	}

	for _, chunk := range partition(pending, o.workers) {
		wg.Add(1)
		go func(chunk []models.Game) {
			defer wg.Done()
			o.runWorker(ctx, chunk, record)
		}(chunk)
	}
	wg.Wait()

	reports := make([]models.GameReport, 0, len(games))
	for _, g := range games {
		reports = append(reports, byID[g.ID])
	}
	return reports, nil
}

func (o *Orchestrator) runWorker(ctx context.Context, games []models.Game, record func(models.GameReport)) {
	log := logger.FromContext(ctx)

	sess := engine.NewRespawning(o.factory)
	defer sess.Close()
	an := NewGameAnalyzer(o.evals, sess, o.cfg)

	for i, g := range games {
		if ctx.Err() != nil || sess.Broken() {
			reason := "engine unavailable"
			if ctx.Err() != nil {
				reason = "analysis cancelled"
			}
			// The rest of this worker's share is reported, not dropped,
			// so the batch total always matches the input.
			for _, rest := range games[i:] {
				record(models.GameReport{
					GameID:   rest.ID,
					Color:    rest.PlayedAs,
					Result:   rest.Result,
					PlayedAt: rest.PlayedAt,
					Status:   models.StatusUnanalyzed,
					Error:    reason,
				})
			}
			if sess.Broken() {
				log.WithField("remaining", len(games)-i).Warn("engine session broken, skipping remaining games")
			}
			return
		}
		record(an.Analyze(ctx, g))
	}
}

// cachedGameIDs asks the cache which games already hold a complete set of
// evaluations for the configured fingerprint. A cache error only costs the
// optimization: everything is treated as uncached and analyzed normally.
func (o *Orchestrator) cachedGameIDs(ctx context.Context, games []models.Game) map[string]bool {
	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID)
	}
	cached, err := o.evals.GamesAnalyzed(ctx, ids, o.cfg.Fingerprint)
	if err != nil {
		logger.FromContext(ctx).Warn("cache lookup failed, analyzing all games: %v", err)
		return map[string]bool{}
	}
	return cached
}

// partition splits games into at most n contiguous chunks of near-equal size.
func partition(games []models.Game, n int) [][]models.Game {
	if len(games) == 0 {
		return nil
	}
	if n > len(games) {
		n = len(games)
	}
	size := (len(games) + n - 1) / n
	chunks := make([][]models.Game, 0, n)
	for start := 0; start < len(games); start += size {
		end := start + size
		if end > len(games) {
			end = len(games)
		}
		chunks = append(chunks, games[start:end])
	}
	return chunks
}
