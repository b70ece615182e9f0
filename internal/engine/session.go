package engine

import (
	"context"

	"github.com/alexk/chessinsight/internal/errors"
	"github.com/alexk/chessinsight/internal/logger"
)

// Respawning wraps a Session factory with the discard-and-retry-once
// policy: when an evaluation fails for an engine-side reason, the current
// session is closed, a fresh one is spawned, and the evaluation is retried
// exactly once. Not safe for concurrent use; each worker owns its own.
type Respawning struct {
	factory Factory
	log     *logger.Logger
	cur     Session
	broken  bool
}

var _ Session = (*Respawning)(nil)

// NewRespawning returns a session that lazily spawns on first use.
func NewRespawning(factory Factory) *Respawning {
	return &Respawning{
		factory: factory,
		log:     logger.Default().WithPrefix("engine-session"),
	}
}

func (s *Respawning) Evaluate(ctx context.Context, fen string, c Constraints) (EvalResult, error) {
	if s.cur == nil {
		if err := s.respawn(); err != nil {
			return EvalResult{}, err
		}
	}

	res, err := s.cur.Evaluate(ctx, fen, c)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		// Cancellation is the caller's doing, not an engine fault.
		return EvalResult{}, err
	}

	s.log.Warn("evaluation failed, restarting engine: %v", err)
	_ = s.cur.Close()
	s.cur = nil

	if rerr := s.respawn(); rerr != nil {
		return EvalResult{}, rerr
	}
	res, err = s.cur.Evaluate(ctx, fen, c)
	if err != nil && ctx.Err() == nil {
		// The replacement failed too. It must not serve the next ply:
		// a dead or desynchronized engine would answer with stale output.
		s.log.Warn("retry failed, discarding engine: %v", err)
		_ = s.cur.Close()
		s.cur = nil
	}
	return res, err
}

func (s *Respawning) respawn() error {
	sess, err := s.factory()
	if err != nil {
		s.broken = true
		s.log.Error("failed to spawn engine: %v", err)
		return errors.NewEngineUnavailableError(err)
	}
	s.broken = false
	s.cur = sess
	return nil
}

// Broken reports that the last attempt to spawn an engine failed. A broken
// session will keep retrying the factory, but callers owning many games may
// prefer to stop and report the remainder as unanalyzed.
func (s *Respawning) Broken() bool {
	return s.broken
}

func (s *Respawning) Close() error {
	if s.cur == nil {
		return nil
	}
	err := s.cur.Close()
	s.cur = nil
	return err
}
