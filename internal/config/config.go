package config

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr                string
	DBPath              string
	StockfishPath       string
	StockfishDepth      int
	StockfishMoveTimeMs int
	StockfishThreads    int
	LogLevel            string
	AnalysisWorkers     int
	JobWorkers          int
	JobQueueSize        int
	TuningPath          string
}

// Tuning holds the classifier and phase boundaries. All values are
// configuration, not ground truth; the defaults have only been sanity
// checked against a handful of reference games.
type Tuning struct {
	InaccuracyCP    float64 `yaml:"inaccuracy_cp"`
	MistakeCP       float64 `yaml:"mistake_cp"`
	BlunderCP       float64 `yaml:"blunder_cp"`
	MateCP          float64 `yaml:"mate_cp"`
	OpeningPlies    int     `yaml:"opening_plies"`
	OpeningMaterial int     `yaml:"opening_material"`
	EndgameMaterial int     `yaml:"endgame_material"`
}

// DefaultTuning returns the shipped classifier boundaries.
func DefaultTuning() Tuning {
	return Tuning{
		InaccuracyCP:    50,
		MistakeCP:       100,
		BlunderCP:       300,
		MateCP:          9000,
		OpeningPlies:    20,
		OpeningMaterial: 62,
		EndgameMaterial: 14,
	}
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                envOr("ADDR", ":8080"),
		DBPath:              envOr("DB_PATH", "file:chessinsight.db"),
		StockfishPath:       envOr("STOCKFISH_PATH", "stockfish"),
		StockfishDepth:      envIntOr("STOCKFISH_DEPTH", 18),
		StockfishMoveTimeMs: envIntOr("STOCKFISH_MOVETIME_MS", 0),
		StockfishThreads:    envIntOr("STOCKFISH_THREADS", 1),
		LogLevel:            envOr("LOG_LEVEL", "INFO"),
		AnalysisWorkers:     envIntOr("ANALYSIS_WORKERS", runtime.NumCPU()),
		JobWorkers:          envIntOr("JOB_WORKERS", 1),
		JobQueueSize:        envIntOr("JOB_QUEUE_SIZE", 16),
		TuningPath:          envOr("TUNING_PATH", ""),
	}
}

// LoadTuning reads classifier boundaries from a YAML file, falling back to
// defaults for any field the file leaves at zero. An empty path returns the
// defaults unchanged.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning file: %w", err)
	}

	var loaded Tuning
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return t, fmt.Errorf("parse tuning file %s: %w", path, err)
	}

	if loaded.InaccuracyCP > 0 {
		t.InaccuracyCP = loaded.InaccuracyCP
	}
	if loaded.MistakeCP > 0 {
		t.MistakeCP = loaded.MistakeCP
	}
	if loaded.BlunderCP > 0 {
		t.BlunderCP = loaded.BlunderCP
	}
	if loaded.MateCP > 0 {
		t.MateCP = loaded.MateCP
	}
	if loaded.OpeningPlies > 0 {
		t.OpeningPlies = loaded.OpeningPlies
	}
	if loaded.OpeningMaterial > 0 {
		t.OpeningMaterial = loaded.OpeningMaterial
	}
	if loaded.EndgameMaterial > 0 {
		t.EndgameMaterial = loaded.EndgameMaterial
	}
	return t, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
