package analysis_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexk/chessinsight/internal/analysis"
	"github.com/alexk/chessinsight/internal/engine"
	"github.com/alexk/chessinsight/internal/models"
)

func workingFactory(created *int32) engine.Factory {
	return func() (engine.Session, error) {
		atomic.AddInt32(created, 1)
		return &fakeSession{}, nil
	}
}

func testGames(n int) []models.Game {
	games := make([]models.Game, 0, n)
	for i := 0; i < n; i++ {
		games = append(games, testGame(fmt.Sprintf("g%d", i+1), models.White))
	}
	return games
}

func TestRun_EmptyInputIsAnError(t *testing.T) {
	var created int32
	orch := analysis.NewOrchestrator(newMemEvalRepo(), workingFactory(&created), testConfig(), 2)

	_, err := orch.Run(context.Background(), nil)
	assert.Error(t, err)
	assert.Zero(t, created)
}

func TestRun_ReportsMatchInputOrder(t *testing.T) {
	var created int32
	orch := analysis.NewOrchestrator(newMemEvalRepo(), workingFactory(&created), testConfig(), 3)

	games := testGames(7)
	reports, err := orch.Run(context.Background(), games)
	require.NoError(t, err)
	require.Len(t, reports, len(games))

	for i, r := range reports {
		assert.Equal(t, games[i].ID, r.GameID, "report %d out of order", i)
		assert.Equal(t, models.StatusDone, r.Status)
		assert.Len(t, r.Classifications, 4)
	}

	// One engine per worker, never more.
	assert.LessOrEqual(t, created, int32(3))
}

func TestRun_OnReportFiresOncePerGame(t *testing.T) {
	var created int32
	orch := analysis.NewOrchestrator(newMemEvalRepo(), workingFactory(&created), testConfig(), 2)

	var mu sync.Mutex
	seen := map[string]int{}
	orch.OnReport = func(r models.GameReport) {
		mu.Lock()
		seen[r.GameID]++
		mu.Unlock()
	}

	games := testGames(5)
	_, err := orch.Run(context.Background(), games)
	require.NoError(t, err)

	assert.Len(t, seen, len(games))
	for id, n := range seen {
		assert.Equal(t, 1, n, "game %s reported %d times", id, n)
	}
}

func TestRun_DeadFactoryReportsRemainderUnanalyzed(t *testing.T) {
	factory := func() (engine.Session, error) {
		return nil, fmt.Errorf("stockfish: no such file or directory")
	}
	orch := analysis.NewOrchestrator(newMemEvalRepo(), factory, testConfig(), 1)

	games := testGames(3)
	reports, err := orch.Run(context.Background(), games)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	// The first game is attempted ply by ply and comes back empty; once
	// the session is known broken, the rest is not attempted at all.
	assert.Equal(t, models.StatusDone, reports[0].Status)
	assert.Empty(t, reports[0].Classifications)
	assert.Len(t, reports[0].Unanalyzable, 4)

	for _, r := range reports[1:] {
		assert.Equal(t, models.StatusUnanalyzed, r.Status)
		assert.Equal(t, "engine unavailable", r.Error)
	}
}

func TestRun_FullyCachedGameNeverSpawnsAnEngine(t *testing.T) {
	repo := newMemEvalRepo()
	game := testGame("g1", models.White)

	warm := analysis.NewGameAnalyzer(repo, &fakeSession{}, testConfig()).
		Analyze(context.Background(), game)
	require.Equal(t, models.StatusDone, warm.Status)
	repo.analyzed["g1"] = true

	var created int32
	orch := analysis.NewOrchestrator(repo, workingFactory(&created), testConfig(), 2)

	reports, err := orch.Run(context.Background(), []models.Game{game})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	assert.Zero(t, created)
	assert.Equal(t, warm, reports[0])
}

func TestRun_CacheLookupFailureStillAnalyzesEverything(t *testing.T) {
	repo := newMemEvalRepo()
	repo.analyzed["g1"] = true
	repo.readErr = fmt.Errorf("disk I/O error")

	var created int32
	orch := analysis.NewOrchestrator(repo, workingFactory(&created), testConfig(), 1)

	reports, err := orch.Run(context.Background(), testGames(2))
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Equal(t, models.StatusDone, r.Status)
		assert.Len(t, r.Classifications, 4)
	}
	assert.Equal(t, int32(1), created)
}

func TestRun_CancelledContextReportsEveryGame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var created int32
	orch := analysis.NewOrchestrator(newMemEvalRepo(), workingFactory(&created), testConfig(), 2)

	games := testGames(4)
	reports, err := orch.Run(ctx, games)
	require.NoError(t, err)
	require.Len(t, reports, len(games))

	for _, r := range reports {
		assert.Contains(t, []models.ReportStatus{models.StatusPartial, models.StatusUnanalyzed}, r.Status)
		if r.Status == models.StatusUnanalyzed {
			assert.Equal(t, "analysis cancelled", r.Error, "a cancelled worker must not blame the engine")
		}
	}
}
