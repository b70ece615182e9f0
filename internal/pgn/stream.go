package pgn

import (
	"strings"

	"github.com/corentings/chess/v2"

	"github.com/alexk/chessinsight/internal/errors"
	"github.com/alexk/chessinsight/internal/models"
)

// Stream replays a game's PGN main line into the ordered sequence of plies,
// each carrying the position before and after the move. A PGN that cannot
// be replayed yields a CorruptGameInput error; the caller skips the game,
// it is never retried.
func Stream(gameID, pgnText string) ([]models.Ply, error) {
	if strings.TrimSpace(pgnText) == "" {
		return nil, errors.NewCorruptGameInputError(gameID, nil)
	}

	opt, err := chess.PGN(strings.NewReader(pgnText))
	if err != nil {
		return nil, errors.NewCorruptGameInputError(gameID, err)
	}
	game := chess.NewGame(opt)

	positions := game.Positions()
	moves := game.Moves()
	if len(moves) == 0 || len(positions) != len(moves)+1 {
		return nil, errors.NewCorruptGameInputError(gameID, nil)
	}

	plies := make([]models.Ply, 0, len(moves))
	for i, mv := range moves {
		before := positions[i]

		color := models.White
		if before.Turn() == chess.Black {
			color = models.Black
		}

		ply := models.Ply{
			Index:     i,
			SAN:       chess.AlgebraicNotation{}.Encode(before, mv),
			UCI:       chess.UCINotation{}.Encode(before, mv),
			FENBefore: before.String(),
			FENAfter:  positions[i+1].String(),
			Color:     color,
		}

		if i == len(moves)-1 {
			switch game.Method() {
			case chess.Checkmate:
				ply.Terminal = true
				ply.Mating = true
			case chess.Stalemate:
				ply.Terminal = true
			}
		}

		plies = append(plies, ply)
	}
	return plies, nil
}

// CountSubject returns how many plies in the stream were played by the
// given color.
func CountSubject(plies []models.Ply, subject models.Color) int {
	n := 0
	for _, p := range plies {
		if p.Color == subject {
			n++
		}
	}
	return n
}
