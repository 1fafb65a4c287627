package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/freeeve/chessreview/internal/app"
	"github.com/freeeve/chessreview/internal/config"
	"github.com/freeeve/chessreview/internal/ingest"
	"github.com/freeeve/chessreview/internal/logx"
)

func main() {
	defaultRatingMin := 0
	if envRating := os.Getenv("CHESSREVIEW_RATING_MIN"); envRating != "" {
		if rating, err := strconv.Atoi(envRating); err == nil {
			defaultRatingMin = rating
		}
	}

	var (
		configPath = flag.String("config", "", "config file (yaml, json or toml)")
		dir        = flag.String("dir", "", "directory of PGN files to review (supports .zst)")
		outDir     = flag.String("out", "", "directory for review JSON (default <dir>/reviews)")
		ratingMin  = flag.Int("rating-min", defaultRatingMin, "skip games with a player rated below this")
		workers    = flag.Int("workers", 0, "files reviewed in parallel (0 = config value)")
		watch      = flag.Bool("watch", false, "keep polling the directory instead of exiting")
	)
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Usage: ingest -dir <pgn-dir> [options]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Ingest.Workers = *workers
	}

	logger, err := logx.New(logx.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		logger.Warn().Err(err).Msg("using info level")
	}
	logger.Info().
		Str("dir", *dir).
		Int("rating_min", *ratingMin).
		Bool("watch", *watch).
		Msg("starting ingest")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("start reviewer")
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	worker, err := ingest.NewWorker(ingest.Config{
		WatchDir:     *dir,
		OutputDir:    *outDir,
		RatingMin:    *ratingMin,
		Workers:      cfg.Ingest.Workers,
		PollInterval: cfg.Ingest.PollInterval,
		Logger:       logger.With().Str("component", "ingest").Logger(),
	}, rt.Reviewer)
	if err != nil {
		logger.Fatal().Err(err).Msg("create ingest worker")
	}

	if *watch {
		if err := worker.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("ingest worker stopped")
		}
		return
	}

	stats, err := worker.ProcessOnce(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("ingest interrupted")
	}
	if stats.Failed > 0 {
		logger.Warn().Int("failed", stats.Failed).Msg("some files could not be reviewed")
	}
}
