package chesscom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alexk/chessinsight/internal/chesscom"
	"github.com/alexk/chessinsight/internal/models"
)

func TestNormalizeResult(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"win", "win"},
		{"WIN", "win"},
		{"stalemate", "draw"},
		{"agreed", "draw"},
		{"repetition", "draw"},
		{"timevsinsufficient", "draw"},
		{"insufficient", "draw"},
		{"fiftymove", "draw"},
		{"checkmated", "loss"},
		{"resigned", "loss"},
		{"timeout", "loss"},
		{"abandoned", "loss"},
		{"something-new", "loss"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, chesscom.NormalizeResult(tt.raw), tt.raw)
	}
}

func TestDeriveResult(t *testing.T) {
	mg := chesscom.MonthlyGame{
		White: chesscom.Player{Username: "Alice", Rating: 1500, Result: "win"},
		Black: chesscom.Player{Username: "bob", Rating: 1600, Result: "checkmated"},
	}

	playedAs, opponent, result, rating, oppRating := chesscom.DeriveResult("alice", mg)
	assert.Equal(t, models.White, playedAs)
	assert.Equal(t, "bob", opponent)
	assert.Equal(t, "win", result)
	assert.Equal(t, 1500, rating)
	assert.Equal(t, 1600, oppRating)

	playedAs, opponent, result, rating, oppRating = chesscom.DeriveResult("bob", mg)
	assert.Equal(t, models.Black, playedAs)
	assert.Equal(t, "Alice", opponent)
	assert.Equal(t, "loss", result)
	assert.Equal(t, 1600, rating)
	assert.Equal(t, 1500, oppRating)
}
