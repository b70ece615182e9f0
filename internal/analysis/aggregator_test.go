package analysis_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexk/chessinsight/internal/analysis"
	"github.com/alexk/chessinsight/internal/models"
)

func sampleReports() []models.GameReport {
	day := func(d int) time.Time {
		return time.Date(2023, 3, d, 12, 0, 0, 0, time.UTC)
	}
	return []models.GameReport{
		{
			GameID:   "g1",
			Color:    models.White,
			Status:   models.StatusDone,
			PlayedAt: day(1),
			Classifications: []models.Classification{
				{PlyIndex: 0, Category: models.CategoryOK, Phase: models.PhaseOpening, Color: models.White, SAN: "e4", Signature: "e4|posA"},
				{PlyIndex: 2, Category: models.CategoryBlunder, Phase: models.PhaseMiddlegame, Color: models.White, SAN: "Qh5", Signature: "Qh5|posB"},
			},
		},
		{
			GameID:   "g2",
			Color:    models.Black,
			Status:   models.StatusDone,
			PlayedAt: day(5),
			Classifications: []models.Classification{
				{PlyIndex: 1, Category: models.CategoryInaccuracy, Phase: models.PhaseOpening, Color: models.Black, SAN: "h6", Signature: "h6|posC"},
				{PlyIndex: 3, Category: models.CategoryMistake, Phase: models.PhaseMiddlegame, Color: models.Black, SAN: "Qh5", Signature: "Qh5|posB"},
			},
			Unanalyzable: []int{5},
		},
		{
			GameID:   "g3",
			Color:    models.White,
			Status:   models.StatusPartial,
			PlayedAt: day(3),
			Classifications: []models.Classification{
				{PlyIndex: 0, Category: models.CategoryOK, Phase: models.PhaseOpening, Color: models.White, SAN: "d4", Signature: "d4|posA"},
			},
		},
		{
			GameID: "g4",
			Color:  models.Black,
			Status: models.StatusFailed,
		},
	}
}

func TestAggregate_Counts(t *testing.T) {
	stats := analysis.Aggregate(sampleReports())

	// Failed games carry no classifications and do not count as analyzed.
	assert.Equal(t, 3, stats.Games)
	assert.Equal(t, 5, stats.PliesClassified)
	assert.Equal(t, 1, stats.Unanalyzable)

	assert.Equal(t, 2, stats.ByColor[models.White][models.CategoryOK])
	assert.Equal(t, 1, stats.ByColor[models.White][models.CategoryBlunder])
	assert.Equal(t, 1, stats.ByColor[models.Black][models.CategoryInaccuracy])
	assert.Equal(t, 1, stats.ByColor[models.Black][models.CategoryMistake])

	assert.Equal(t, 3, stats.ByPhase[models.PhaseOpening][models.CategoryOK]+
		stats.ByPhase[models.PhaseOpening][models.CategoryInaccuracy])
	assert.Equal(t, 1, stats.ByPhase[models.PhaseMiddlegame][models.CategoryBlunder])

	assert.Equal(t, 1, stats.ByColorPhase[models.White][models.PhaseMiddlegame][models.CategoryBlunder])
	assert.Equal(t, 1, stats.ByColorPhase[models.Black][models.PhaseOpening][models.CategoryInaccuracy])
}

func TestAggregate_CommonMistakes(t *testing.T) {
	stats := analysis.Aggregate(sampleReports())

	require.NotEmpty(t, stats.CommonMistakes)
	top := stats.CommonMistakes[0]

	// Qh5|posB appears twice (a blunder and a mistake) across two games.
	assert.Equal(t, "Qh5|posB", top.Signature)
	assert.Equal(t, "Qh5", top.SAN)
	assert.Equal(t, 2, top.Count)
	assert.Equal(t, models.CategoryBlunder, top.Worst)
	assert.Equal(t, time.Date(2023, 3, 5, 12, 0, 0, 0, time.UTC), top.LastSeen)

	// OK moves never become patterns.
	for _, p := range stats.CommonMistakes {
		assert.NotEqual(t, "e4|posA", p.Signature)
		assert.NotEqual(t, "d4|posA", p.Signature)
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	reports := sampleReports()
	want := analysis.Aggregate(reports)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]models.GameReport, len(reports))
		copy(shuffled, reports)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, analysis.Aggregate(shuffled))
	}
}

func TestAggregate_PatternTieBreak(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2023, 6, d, 0, 0, 0, 0, time.UTC)
	}
	reports := []models.GameReport{
		{
			GameID: "a", Status: models.StatusDone, PlayedAt: day(2),
			Classifications: []models.Classification{
				{Category: models.CategoryMistake, SAN: "Bc4", Signature: "Bc4|p1"},
			},
		},
		{
			GameID: "b", Status: models.StatusDone, PlayedAt: day(8),
			Classifications: []models.Classification{
				{Category: models.CategoryMistake, SAN: "Nf3", Signature: "Nf3|p2"},
			},
		},
	}

	stats := analysis.Aggregate(reports)
	require.Len(t, stats.CommonMistakes, 2)

	// Equal counts: the more recent pattern ranks first.
	assert.Equal(t, "Nf3|p2", stats.CommonMistakes[0].Signature)
	assert.Equal(t, "Bc4|p1", stats.CommonMistakes[1].Signature)

	// Equal counts and dates: signature breaks the tie deterministically.
	reports[1].PlayedAt = day(2)
	stats = analysis.Aggregate(reports)
	assert.Equal(t, "Bc4|p1", stats.CommonMistakes[0].Signature)
}

func TestAggregate_Empty(t *testing.T) {
	stats := analysis.Aggregate(nil)
	assert.Equal(t, 0, stats.Games)
	assert.Equal(t, 0, stats.PliesClassified)
	assert.Empty(t, stats.CommonMistakes)
}
