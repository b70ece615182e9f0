package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/alexk/chessinsight/internal/models"
	"github.com/alexk/chessinsight/internal/repository"
	"github.com/alexk/chessinsight/internal/repository/sqlite"
	"github.com/alexk/chessinsight/internal/testutil"
)

const testFingerprint = "stockfish|depth=12|movetime=0ms|threads=1"

type EvalRepositorySuite struct {
	suite.Suite
	db    *sql.DB
	repo  repository.EvalRepository
	games repository.GameRepository
}

func (s *EvalRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewEvalRepository(s.db)
	s.games = sqlite.NewGameRepository(s.db)
}

func (s *EvalRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *EvalRepositorySuite) insertGame(id string, subjectPlies int) {
	err := s.games.Upsert(context.Background(), models.Game{
		ID:           id,
		Username:     "alice",
		Year:         2023,
		PGN:          "1. e4 e5",
		PlayedAs:     models.White,
		PlayedAt:     time.Now(),
		SubjectPlies: subjectPlies,
	})
	s.Require().NoError(err)
}

func (s *EvalRepositorySuite) putEval(gameID string, ply int, evalBefore float64) {
	err := s.repo.Put(context.Background(), models.EvaluationRecord{
		GameID:      gameID,
		PlyIndex:    ply,
		Fingerprint: testFingerprint,
		EvalBefore:  evalBefore,
		EvalAfter:   evalBefore - 10,
		BestMove:    "e2e4",
		Depth:       12,
	})
	s.Require().NoError(err)
}

func (s *EvalRepositorySuite) TestPutAndGet() {
	ctx := context.Background()
	s.putEval("g1", 0, 35)

	rec, err := s.repo.Get(ctx, "g1", 0, testFingerprint)
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.Assert().Equal("g1", rec.GameID)
	s.Assert().Equal(0, rec.PlyIndex)
	s.Assert().InDelta(35, rec.EvalBefore, 0.001)
	s.Assert().InDelta(25, rec.EvalAfter, 0.001)
	s.Assert().Equal("e2e4", rec.BestMove)
	s.Assert().Equal(12, rec.Depth)
}

func (s *EvalRepositorySuite) TestGetMissReturnsNil() {
	rec, err := s.repo.Get(context.Background(), "nope", 0, testFingerprint)
	s.Require().NoError(err)
	s.Assert().Nil(rec)
}

func (s *EvalRepositorySuite) TestPutNeverOverwrites() {
	ctx := context.Background()
	s.putEval("g1", 0, 35)

	// Same key, different payload: the stored record must survive.
	err := s.repo.Put(ctx, models.EvaluationRecord{
		GameID:      "g1",
		PlyIndex:    0,
		Fingerprint: testFingerprint,
		EvalBefore:  999,
		EvalAfter:   999,
		BestMove:    "a2a3",
	})
	s.Require().NoError(err)

	rec, err := s.repo.Get(ctx, "g1", 0, testFingerprint)
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.Assert().InDelta(35, rec.EvalBefore, 0.001)
	s.Assert().Equal("e2e4", rec.BestMove)
}

func (s *EvalRepositorySuite) TestFingerprintsCoexist() {
	ctx := context.Background()
	s.putEval("g1", 0, 35)

	deeper := "stockfish|depth=20|movetime=0ms|threads=1"
	err := s.repo.Put(ctx, models.EvaluationRecord{
		GameID:      "g1",
		PlyIndex:    0,
		Fingerprint: deeper,
		EvalBefore:  42,
		EvalAfter:   40,
	})
	s.Require().NoError(err)

	rec, err := s.repo.Get(ctx, "g1", 0, testFingerprint)
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.Assert().InDelta(35, rec.EvalBefore, 0.001)

	rec, err = s.repo.Get(ctx, "g1", 0, deeper)
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.Assert().InDelta(42, rec.EvalBefore, 0.001)
}

func (s *EvalRepositorySuite) TestRecordsForGameOrderedByPly() {
	ctx := context.Background()
	s.putEval("g1", 4, 10)
	s.putEval("g1", 0, 20)
	s.putEval("g1", 2, 30)
	s.putEval("g2", 0, 40)

	recs, err := s.repo.RecordsForGame(ctx, "g1", testFingerprint)
	s.Require().NoError(err)
	s.Require().Len(recs, 3)
	s.Assert().Equal(0, recs[0].PlyIndex)
	s.Assert().Equal(2, recs[1].PlyIndex)
	s.Assert().Equal(4, recs[2].PlyIndex)
}

func (s *EvalRepositorySuite) TestGamesAnalyzed() {
	ctx := context.Background()
	s.insertGame("full", 2)
	s.insertGame("half", 2)
	s.insertGame("empty", 2)
	s.insertGame("unparsed", 0)

	s.putEval("full", 0, 10)
	s.putEval("full", 2, 10)
	s.putEval("half", 0, 10)
	s.putEval("unparsed", 0, 10)

	analyzed, err := s.repo.GamesAnalyzed(ctx, []string{"full", "half", "empty", "unparsed"}, testFingerprint)
	s.Require().NoError(err)

	s.Assert().True(analyzed["full"])
	s.Assert().False(analyzed["half"])
	s.Assert().False(analyzed["empty"])
	// A game whose PGN never parsed has no ply count and is never
	// considered cached.
	s.Assert().False(analyzed["unparsed"])
}

func (s *EvalRepositorySuite) TestGamesAnalyzedIgnoresOtherFingerprints() {
	ctx := context.Background()
	s.insertGame("g1", 1)

	err := s.repo.Put(ctx, models.EvaluationRecord{
		GameID:      "g1",
		PlyIndex:    0,
		Fingerprint: "stockfish|depth=20|movetime=0ms|threads=1",
		EvalBefore:  10,
		EvalAfter:   5,
	})
	s.Require().NoError(err)

	analyzed, err := s.repo.GamesAnalyzed(ctx, []string{"g1"}, testFingerprint)
	s.Require().NoError(err)
	s.Assert().False(analyzed["g1"])
}

func (s *EvalRepositorySuite) TestGamesAnalyzedEmptyInput() {
	analyzed, err := s.repo.GamesAnalyzed(context.Background(), nil, testFingerprint)
	s.Require().NoError(err)
	s.Assert().Empty(analyzed)
}

func (s *EvalRepositorySuite) TestPurgeAll() {
	ctx := context.Background()
	s.putEval("g1", 0, 10)
	s.putEval("g1", 2, 10)

	n, err := s.repo.PurgeAll(ctx)
	s.Require().NoError(err)
	s.Assert().Equal(int64(2), n)

	rec, err := s.repo.Get(ctx, "g1", 0, testFingerprint)
	s.Require().NoError(err)
	s.Assert().Nil(rec)
}

func (s *EvalRepositorySuite) TestPurgeOlderThan() {
	ctx := context.Background()

	// Backdate one record beyond the cutoff.
	_, err := s.db.ExecContext(ctx, `
INSERT INTO evaluations (game_id, ply_index, fingerprint, eval_before, eval_after, created_at)
VALUES ('old', 0, ?, 10, 5, datetime('now', '-48 hours'))
`, testFingerprint)
	s.Require().NoError(err)
	s.putEval("fresh", 0, 10)

	n, err := s.repo.PurgeOlderThan(ctx, 24*time.Hour)
	s.Require().NoError(err)
	s.Assert().Equal(int64(1), n)

	rec, err := s.repo.Get(ctx, "old", 0, testFingerprint)
	s.Require().NoError(err)
	s.Assert().Nil(rec)

	rec, err = s.repo.Get(ctx, "fresh", 0, testFingerprint)
	s.Require().NoError(err)
	s.Assert().NotNil(rec)
}

func TestEvalRepositorySuite(t *testing.T) {
	suite.Run(t, new(EvalRepositorySuite))
}
