package chesscom

import (
	"strings"

	"github.com/alexk/chessinsight/internal/models"
)

// DeriveResult determines which color the user played, their opponent,
// the ratings, and the normalized result.
func DeriveResult(username string, mg MonthlyGame) (playedAs models.Color, opponent, result string, rating, oppRating int) {
	if strings.EqualFold(mg.White.Username, username) {
		playedAs = models.White
		opponent = mg.Black.Username
		result = NormalizeResult(mg.White.Result)
		rating, oppRating = mg.White.Rating, mg.Black.Rating
		return
	}
	playedAs = models.Black
	opponent = mg.White.Username
	result = NormalizeResult(mg.Black.Result)
	rating, oppRating = mg.Black.Rating, mg.White.Rating
	return
}

// NormalizeResult converts chess.com result strings to standardized values
func NormalizeResult(res string) string {
	res = strings.ToLower(res)
	switch res {
	case "win":
		return "win"
	case "stalemate", "agreed", "repetition", "timevsinsufficient", "insufficient", "fiftymove", "draw":
		return "draw"
	case "checkmated", "resigned", "timeout", "abandoned", "kingofthehill", "threecheck", "bughousepartnerlose":
		return "loss"
	default:
		return "loss"
	}
}
