package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexk/chessinsight/internal/api"
	"github.com/alexk/chessinsight/internal/chesscom"
	"github.com/alexk/chessinsight/internal/config"
	"github.com/alexk/chessinsight/internal/db"
	"github.com/alexk/chessinsight/internal/engine"
	"github.com/alexk/chessinsight/internal/logger"
	"github.com/alexk/chessinsight/internal/repository/sqlite"
	"github.com/alexk/chessinsight/internal/services"
	"github.com/alexk/chessinsight/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("ChessInsight Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("stockfish_path=%s", cfg.StockfishPath)
	log.Debug("stockfish_depth=%d", cfg.StockfishDepth)
	log.Debug("stockfish_movetime_ms=%d", cfg.StockfishMoveTimeMs)
	log.Debug("stockfish_threads=%d", cfg.StockfishThreads)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("analysis_workers=%d", cfg.AnalysisWorkers)
	log.Debug("job_workers=%d", cfg.JobWorkers)
	log.Debug("job_queue_size=%d", cfg.JobQueueSize)

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		log.Warn("tuning file ignored: %v", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	gameRepo := sqlite.NewGameRepository(database.DB)
	evalRepo := sqlite.NewEvalRepository(database.DB)

	jobPool := worker.NewPool(cfg.JobWorkers, cfg.JobQueueSize)

	analysisCfg := services.AnalysisConfig{
		StockfishPath: cfg.StockfishPath,
		Constraints: engine.Constraints{
			Depth:    cfg.StockfishDepth,
			MoveTime: time.Duration(cfg.StockfishMoveTimeMs) * time.Millisecond,
			Threads:  cfg.StockfishThreads,
		},
		Workers: cfg.AnalysisWorkers,
	}

	batchService := services.NewBatchService(gameRepo, evalRepo, chesscom.New(), jobPool, analysisCfg, tuning)
	statsService := services.NewStatsService(gameRepo, evalRepo, analysisCfg, tuning)

	srv := &api.Server{
		DB:           database,
		BatchService: batchService,
		StatsService: statsService,
	}

	ctx, cancel := context.WithCancel(context.Background())
	jobPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping worker pool")
	cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	jobPool.Stop()

	log.Info("===========================================")
	log.Info("ChessInsight Server Stopped")
	log.Info("===========================================")
}
