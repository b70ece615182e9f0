package models

import "time"

// Color is the side a move belongs to.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Category is the severity bucket assigned to a played move.
type Category string

const (
	CategoryOK         Category = "ok"
	CategoryInaccuracy Category = "inaccuracy"
	CategoryMistake    Category = "mistake"
	CategoryBlunder    Category = "blunder"
)

// Severity orders categories from least to most severe.
func (c Category) Severity() int {
	switch c {
	case CategoryOK:
		return 0
	case CategoryInaccuracy:
		return 1
	case CategoryMistake:
		return 2
	case CategoryBlunder:
		return 3
	default:
		return -1
	}
}

// Phase is a coarse segmentation of a game.
type Phase string

const (
	PhaseOpening    Phase = "opening"
	PhaseMiddlegame Phase = "middlegame"
	PhaseEndgame    Phase = "endgame"
)

// Game is one fetched game. Immutable once stored; the analysis pipeline
// only reads it.
type Game struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Year           int       `json:"year"`
	PGN            string    `json:"pgn"`
	PlayedAs       Color     `json:"played_as"`
	Opponent       string    `json:"opponent"`
	Result         string    `json:"result"`
	TimeClass      string    `json:"time_class"`
	PlayerRating   int       `json:"player_rating"`
	OpponentRating int       `json:"opponent_rating"`
	PlayedAt       time.Time `json:"played_at"`
	SubjectPlies   int       `json:"subject_plies"`
	CreatedAt      time.Time `json:"created_at"`
}

type GameFilter struct {
	Username string
	Year     int
	Result   string
	PlayedAs Color
	Limit    int
	Offset   int
}

// Ply is one half-move of a replayed game. Built by the position stream
// builder, never persisted.
type Ply struct {
	Index     int    `json:"index"` // 0-based over the whole game
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
	FENBefore string `json:"fen_before"`
	FENAfter  string `json:"fen_after"`
	Color     Color  `json:"color"`    // side that played the move
	Terminal  bool   `json:"terminal"` // the move ends the game (mate/stalemate)
	Mating    bool   `json:"mating"`   // the move delivers checkmate
}
