package services

import "github.com/alexk/chessinsight/internal/engine"

// AnalysisConfig bundles the engine settings shared by every batch.
type AnalysisConfig struct {
	StockfishPath string
	Constraints   engine.Constraints
	Workers       int
}
