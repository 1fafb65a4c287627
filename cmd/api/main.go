package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freeeve/chessreview/internal/app"
	"github.com/freeeve/chessreview/internal/config"
	"github.com/freeeve/chessreview/internal/httpapi"
	"github.com/freeeve/chessreview/internal/ingest"
	"github.com/freeeve/chessreview/internal/logx"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (yaml, json or toml)")

		// Server
		addr = flag.String("addr", "", "listen address (default from config)")

		// Stockfish
		stockfishPath = flag.String("stockfish", "", "path to Stockfish executable (default: STOCKFISH_PATH, then PATH)")
		evalDepth     = flag.Int("eval-depth", 0, "Stockfish evaluation depth (0 = config value)")

		// Ingest settings
		ingestDir = flag.String("ingest-dir", "", "directory to watch for PGN files (empty = config value)")

		// ECO settings
		ecoDir = flag.String("eco-dir", "", "directory containing ECO .tsv files")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logx.NewLogger().Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *stockfishPath != "" {
		cfg.Engine.Path = *stockfishPath
	}
	if *evalDepth > 0 {
		cfg.Engine.Depth = *evalDepth
	}
	if *ingestDir != "" {
		cfg.Ingest.WatchDir = *ingestDir
	}
	if *ecoDir != "" {
		cfg.Opening.Dir = *ecoDir
	}

	logger, err := logx.New(logx.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Out: os.Stdout})
	if err != nil {
		logger.Warn().Err(err).Msg("using info level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("start reviewer")
	}

	// Start HTTP server
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpapi.NewRouter(httpapi.Config{
			Reviewer:     rt.Reviewer,
			MaxReviews:   cfg.Server.MaxReviews,
			CORSOrigin:   cfg.Server.CORSOrigin,
			MaxBodyBytes: int64(cfg.Server.MaxBodyKB) << 10,
			Logger:       logger.With().Str("component", "http").Logger(),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // a full review runs inside the request
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("api server")
		}
	}()

	// Start ingest worker if configured
	worker, err := ingest.NewWorker(ingest.Config{
		WatchDir:     cfg.Ingest.WatchDir,
		OutputDir:    cfg.Ingest.OutputDir,
		Workers:      cfg.Ingest.Workers,
		PollInterval: cfg.Ingest.PollInterval,
		Logger:       logger.With().Str("component", "ingest").Logger(),
	}, rt.Reviewer)
	if err != nil {
		logger.Fatal().Err(err).Msg("create ingest worker")
	}
	if worker != nil {
		go func() {
			if err := worker.Run(ctx); err != nil && err != context.Canceled {
				logger.Error().Err(err).Msg("ingest worker stopped")
			}
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown error")
	}
	if err := rt.Close(); err != nil {
		logger.Error().Err(err).Msg("runtime shutdown error")
	}

	logger.Info().Msg("shutdown complete")
}
