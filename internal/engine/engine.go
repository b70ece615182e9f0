// Package engine drives an external UCI chess engine over its stdio pipes.
// One session wraps one long-lived process; sessions are owned by a single
// worker and never shared across concurrent callers.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"
)

// MateScore is the bounded sentinel mate evaluations are normalized to,
// in centipawns. Mate in N maps to +/-(MateScore - 10*N).
const MateScore = 10000

// Constraints bound a single evaluation.
type Constraints struct {
	Depth    int           // search depth; used when MoveTime is zero
	MoveTime time.Duration // optional wall-clock budget per evaluation
	Threads  int           // engine threads, part of the fingerprint
}

// EvalResult is the engine's judgment of one position.
type EvalResult struct {
	BestMove string
	// CP is the score in centipawns from White's perspective, with mate
	// scores folded into the MateScore sentinel band.
	CP float64
	// Mate is moves-to-mate from White's perspective when the engine
	// found a forced mate, nil otherwise.
	Mate *int
}

// Session evaluates positions on one engine instance. Implementations
// serialize consecutive calls; a session that returns a transport error
// must be discarded, not reused.
type Session interface {
	Evaluate(ctx context.Context, fen string, c Constraints) (EvalResult, error)
	Close() error
}

// Factory creates a fresh Session. Used by workers to own one session for
// their lifetime and to replace it after a crash.
type Factory func() (Session, error)

// Fingerprint identifies an engine binary plus the search configuration
// that produced an evaluation. It is part of the cache key: any change
// here makes previously cached records invisible without deleting them.
func Fingerprint(path string, c Constraints) string {
	name := filepath.Base(path)
	threads := c.Threads
	if threads <= 0 {
		threads = 1
	}
	return fmt.Sprintf("%s|depth=%d|movetime=%dms|threads=%d",
		name, c.Depth, c.MoveTime.Milliseconds(), threads)
}
