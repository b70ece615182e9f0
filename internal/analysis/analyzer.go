package analysis

import (
	"context"

	"github.com/alexk/chessinsight/internal/engine"
	"github.com/alexk/chessinsight/internal/errors"
	"github.com/alexk/chessinsight/internal/logger"
	"github.com/alexk/chessinsight/internal/models"
	"github.com/alexk/chessinsight/internal/pgn"
	"github.com/alexk/chessinsight/internal/repository"
)

// Config carries everything an analyzer needs to judge a game: where to
// look up cached work, how hard to search, and the thresholds to judge by.
type Config struct {
	Thresholds  Thresholds
	Phases      PhaseConfig
	Constraints engine.Constraints
	Fingerprint string
}

// GameAnalyzer analyzes one game at a time: cache first, engine on a miss,
// classifier on the result. A nil session replays purely from cache, which
// is how fully cached games are reproduced with zero engine calls.
type GameAnalyzer struct {
	evals   repository.EvalRepository
	session engine.Session
	cfg     Config
}

func NewGameAnalyzer(evals repository.EvalRepository, session engine.Session, cfg Config) *GameAnalyzer {
	return &GameAnalyzer{evals: evals, session: session, cfg: cfg}
}

// Analyze runs the per-game pipeline. Failures are contained: a corrupt
// PGN fails the game, a dead engine marks single plies unanalyzable,
// cancellation yields a partial report. Within the game, plies are always
// processed in play order.
func (a *GameAnalyzer) Analyze(ctx context.Context, game models.Game) models.GameReport {
	log := logger.FromContext(ctx).WithField("game_id", game.ID)

	report := models.GameReport{
		GameID:   game.ID,
		Color:    game.PlayedAs,
		Result:   game.Result,
		PlayedAt: game.PlayedAt,
		Status:   models.StatusDone,
	}

	plies, err := pgn.Stream(game.ID, game.PGN)
	if err != nil {
		log.Error("cannot reconstruct move list: %v", err)
		report.Status = models.StatusFailed
		report.Error = err.Error()
		return report
	}

	log.Debug("fetching cached evaluations")
	cached := map[int]models.EvaluationRecord{}
	cacheDegraded := false
	if recs, err := a.evals.RecordsForGame(ctx, game.ID, a.cfg.Fingerprint); err != nil {
		log.Warn("cache read failed, running in degraded-cache mode: %v", err)
		cacheDegraded = true
	} else {
		for _, rec := range recs {
			cached[rec.PlyIndex] = rec
		}
	}

	for _, ply := range plies {
		if ply.Color != game.PlayedAs {
			continue
		}
		if ctx.Err() != nil {
			log.Warn("analysis cancelled at ply %d: %v", ply.Index, ctx.Err())
			report.Status = models.StatusPartial
			return report
		}

		rec, ok := cached[ply.Index]
		if !ok && cacheDegraded {
			if found, err := a.evals.Get(ctx, game.ID, ply.Index, a.cfg.Fingerprint); err == nil && found != nil {
				rec, ok = *found, true
			}
		}
		if !ok {
			fresh, err := a.evaluatePly(ctx, ply)
			if err != nil {
				if ctx.Err() != nil {
					report.Status = models.StatusPartial
					return report
				}
				log.Warn("ply %d unanalyzable: %v", ply.Index, err)
				report.Unanalyzable = append(report.Unanalyzable, ply.Index)
				continue
			}
			rec = models.EvaluationRecord{
				GameID:      game.ID,
				PlyIndex:    ply.Index,
				Fingerprint: a.cfg.Fingerprint,
				EvalBefore:  fresh.before.CP,
				EvalAfter:   fresh.after.CP,
				BestMove:    fresh.before.BestMove,
				Depth:       a.cfg.Constraints.Depth,
			}
			if err := a.evals.Put(ctx, rec); err != nil {
				log.Warn("cache write failed for ply %d: %v", ply.Index, err)
			}
		}

		category, loss := Classify(rec.EvalBefore, rec.EvalAfter, ply.Color, a.cfg.Thresholds)
		report.Classifications = append(report.Classifications, models.Classification{
			PlyIndex:  ply.Index,
			Category:  category,
			LossCP:    loss,
			Phase:     PhaseOf(ply.Index, ply.FENBefore, rec.EvalBefore, a.cfg.Phases),
			Color:     ply.Color,
			SAN:       ply.SAN,
			BestMove:  rec.BestMove,
			Signature: MoveSignature(ply.SAN, ply.FENBefore),
		})
	}

	log.Debug("game analyzed: %d classified, %d unanalyzable",
		len(report.Classifications), len(report.Unanalyzable))
	return report
}

type plyEvaluation struct {
	before engine.EvalResult
	after  engine.EvalResult
}

// evaluatePly scores the positions around one ply on the engine session.
// Terminal resulting positions are not sent to the engine: a delivered
// mate scores as the mate sentinel in the mover's favor, a stalemate as
// dead equal.
func (a *GameAnalyzer) evaluatePly(ctx context.Context, ply models.Ply) (plyEvaluation, error) {
	if a.session == nil {
		return plyEvaluation{}, errors.NewEngineUnavailableError(nil)
	}

	before, err := a.session.Evaluate(ctx, ply.FENBefore, a.cfg.Constraints)
	if err != nil {
		return plyEvaluation{}, err
	}

	var after engine.EvalResult
	switch {
	case ply.Mating:
		after.CP = engine.MateScore
		if ply.Color == models.Black {
			after.CP = -engine.MateScore
		}
	case ply.Terminal:
		after.CP = 0
	default:
		after, err = a.session.Evaluate(ctx, ply.FENAfter, a.cfg.Constraints)
		if err != nil {
			return plyEvaluation{}, err
		}
	}

	return plyEvaluation{before: before, after: after}, nil
}
