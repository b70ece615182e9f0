package engine

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alexk/chessinsight/internal/errors"
	"github.com/alexk/chessinsight/internal/logger"
)

// scriptedEngine builds a UCIEngine around channels instead of a spawned
// process, so the read loop can be driven line by line.
func scriptedEngine() *UCIEngine {
	return &UCIEngine{
		log:     logger.Default().WithPrefix("uci-test"),
		stdin:   &strings.Builder{},
		lines:   make(chan string),
		readErr: make(chan error, 1),
		done:    make(chan struct{}),
	}
}

func TestWaitFor_SilentEngineTimesOut(t *testing.T) {
	e := scriptedEngine()

	// Nothing ever arrives on the output channel; the deadline must still
	// fire instead of blocking on a read.
	err := e.waitFor("uciok", 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout waiting for uciok")
}

func TestEvaluate_ParsesScriptedSearch(t *testing.T) {
	e := scriptedEngine()

	go func() {
		e.lines <- "info depth 10 score cp 34 pv e2e4"
		e.lines <- "info depth 12 score cp 41 pv e2e4"
		e.lines <- "bestmove e2e4 ponder e7e5"
	}()

	res, err := e.Evaluate(context.Background(),
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Constraints{Depth: 10})
	require.NoError(t, err)
	assert.Equal(t, "e2e4", res.BestMove)
	assert.Equal(t, float64(41), res.CP, "last info line wins")
}

func TestEvaluate_ReportsReaderFailure(t *testing.T) {
	e := scriptedEngine()
	e.readErr <- io.EOF

	_, err := e.Evaluate(context.Background(),
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Constraints{Depth: 10})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEngineUnavailable))
}

func TestEvaluate_CancelledContextReturnsEarly(t *testing.T) {
	e := scriptedEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx,
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Constraints{Depth: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseScore_Centipawns(t *testing.T) {
	tests := []struct {
		line string
		cp   float64
	}{
		{"info depth 18 seldepth 24 score cp 35 nodes 1000 pv e2e4", 35},
		{"info depth 18 score cp -120 nodes 1000", -120},
		{"info depth 1 score cp 0", 0},
	}
	for _, tt := range tests {
		score, ok := parseScore(tt.line)
		require.True(t, ok, tt.line)
		assert.False(t, score.isMate)
		assert.Equal(t, tt.cp, score.cp)
	}
}

func TestParseScore_Mate(t *testing.T) {
	tests := []struct {
		line   string
		cp     float64
		mateIn int
	}{
		// Mate in 1 outranks mate in 2, every mate outranks any cp score.
		{"info depth 12 score mate 1 pv h5f7", 9990, 1},
		{"info depth 12 score mate 2", 9980, 2},
		{"info depth 12 score mate 30", 9700, 30},
		{"info depth 12 score mate -1", -9990, -1},
		{"info depth 12 score mate -5", -9950, -5},
	}
	for _, tt := range tests {
		score, ok := parseScore(tt.line)
		require.True(t, ok, tt.line)
		assert.True(t, score.isMate)
		assert.Equal(t, tt.cp, score.cp, tt.line)
		assert.Equal(t, tt.mateIn, score.mateIn, tt.line)
	}
}

func TestParseScore_MateZeroIsLost(t *testing.T) {
	score, ok := parseScore("info depth 0 score mate 0")
	require.True(t, ok)
	assert.True(t, score.isMate)
	assert.Equal(t, float64(-MateScore), score.cp)
}

func TestParseScore_NoScore(t *testing.T) {
	lines := []string{
		"info depth 18 nodes 153000 nps 1200000",
		"bestmove e2e4 ponder e7e5",
		"info string NNUE evaluation using nn-5af11540bbfe.nnue",
		"info score cp", // truncated
	}
	for _, line := range lines {
		_, ok := parseScore(line)
		assert.False(t, ok, line)
	}
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("/usr/local/bin/stockfish", Constraints{Depth: 18, Threads: 2})
	assert.Equal(t, "stockfish|depth=18|movetime=0ms|threads=2", fp)

	// Zero threads normalizes to 1 so the same search writes the same key.
	assert.Equal(t,
		Fingerprint("stockfish", Constraints{Depth: 18, Threads: 1}),
		Fingerprint("stockfish", Constraints{Depth: 18}),
	)

	// Any search-parameter change is a different cache identity.
	assert.NotEqual(t, fp, Fingerprint("/usr/local/bin/stockfish", Constraints{Depth: 20, Threads: 2}))
}
