package analysis

import (
	"strings"

	"github.com/alexk/chessinsight/internal/models"
)

// Thresholds are the centipawn-loss boundaries between categories. A move
// is judged by how much value it gave away relative to the engine's best
// move, from the mover's perspective.
type Thresholds struct {
	InaccuracyCP float64
	MistakeCP    float64
	BlunderCP    float64
	// MateCP is the start of the mate band: evaluations at or beyond it
	// represent forced mates.
	MateCP float64
}

// Classify judges one played move. evalBefore is the engine's best-move
// score in the position prior to the move, evalAfter the score of the
// position after the move actually played; both centipawns from White's
// perspective. Returns the category and the loss from the mover's
// perspective (positive = value lost).
//
// Crossing out of a winning mate band, or into a losing one, is a blunder
// regardless of the centipawn delta.
func Classify(evalBefore, evalAfter float64, mover models.Color, t Thresholds) (models.Category, float64) {
	before, after := evalBefore, evalAfter
	if mover == models.Black {
		before, after = -before, -after
	}
	loss := before - after

	if before >= t.MateCP && after < t.MateCP {
		return models.CategoryBlunder, loss
	}
	if after <= -t.MateCP && before > -t.MateCP {
		return models.CategoryBlunder, loss
	}

	switch {
	case loss >= t.BlunderCP:
		return models.CategoryBlunder, loss
	case loss >= t.MistakeCP:
		return models.CategoryMistake, loss
	case loss >= t.InaccuracyCP:
		return models.CategoryInaccuracy, loss
	default:
		return models.CategoryOK, loss
	}
}

// PhaseConfig sets the boundaries for game-phase tagging.
type PhaseConfig struct {
	// OpeningPlies: plies below this index are the opening regardless of
	// material.
	OpeningPlies int
	// OpeningMaterial: total material points on the board at or above
	// which the game still counts as the opening.
	OpeningMaterial int
	// EndgameMaterial: per-side material points at or below which the
	// game is an endgame.
	EndgameMaterial int
	// MateCP: an evaluation in the mate band tags the ply as endgame
	// (a mating attack is underway).
	MateCP float64
}

// PhaseOf tags the phase a ply belongs to, from its index, the position
// before the move, and the engine's evaluation of that position.
func PhaseOf(plyIndex int, fenBefore string, evalBefore float64, cfg PhaseConfig) models.Phase {
	white, black := materialCount(fenBefore)

	if evalBefore >= cfg.MateCP || evalBefore <= -cfg.MateCP {
		return models.PhaseEndgame
	}
	if white <= cfg.EndgameMaterial || black <= cfg.EndgameMaterial {
		return models.PhaseEndgame
	}
	if plyIndex < cfg.OpeningPlies || white+black >= cfg.OpeningMaterial {
		return models.PhaseOpening
	}
	return models.PhaseMiddlegame
}

// materialCount sums piece values per side from a FEN's placement field
// (pawn 1, minor 3, rook 5, queen 9; kings excluded).
func materialCount(fen string) (white, black int) {
	placement, _, _ := strings.Cut(fen, " ")
	for _, r := range placement {
		switch r {
		case 'P':
			white++
		case 'N', 'B':
			white += 3
		case 'R':
			white += 5
		case 'Q':
			white += 9
		case 'p':
			black++
		case 'n', 'b':
			black += 3
		case 'r':
			black += 5
		case 'q':
			black += 9
		}
	}
	return white, black
}

// MoveSignature groups recurring mistakes: the played move plus the piece
// placement of the position it was played in.
func MoveSignature(san, fenBefore string) string {
	placement, _, _ := strings.Cut(fenBefore, " ")
	return san + "|" + placement
}
