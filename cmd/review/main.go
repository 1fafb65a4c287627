package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/freeeve/chessreview/internal/app"
	"github.com/freeeve/chessreview/internal/config"
	"github.com/freeeve/chessreview/internal/logx"
	"github.com/freeeve/chessreview/internal/report"
	"github.com/freeeve/chessreview/internal/walker"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (yaml, json or toml)")
		pgnPath    = flag.String("pgn", "", "PGN file to review (supports .zst)")
		gameIndex  = flag.Int("game", 1, "game number within the PGN (1-based)")
		format     = flag.String("format", "text", "output format: text, json or csv")
		outPath    = flag.String("out", "", "write output to this file (csv: .zst compresses)")
		retry      = flag.String("retry", "", "grade an alternative move, as ply:move (e.g. 12:Nf3)")

		stockfishPath = flag.String("stockfish", "", "path to Stockfish executable (default: STOCKFISH_PATH, then PATH)")
		depth         = flag.Int("depth", 0, "engine depth (0 = config value)")
		ecoDir        = flag.String("eco-dir", "", "directory containing ECO .tsv files")
		cachePath     = flag.String("cache", "", "eval cache file (.csv, .csv.gz or .csv.zst)")
		logLevel      = flag.String("log-level", "", "log level (default from config)")
	)
	flag.Parse()

	if *pgnPath == "" && flag.NArg() > 0 {
		*pgnPath = flag.Arg(0)
	}
	if *pgnPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: review [options] <game.pgn[.zst]>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *stockfishPath != "" {
		cfg.Engine.Path = *stockfishPath
	}
	if *depth > 0 {
		cfg.Engine.Depth = *depth
	}
	if *ecoDir != "" {
		cfg.Opening.Dir = *ecoDir
	}
	if *cachePath != "" {
		cfg.Cache.Path = *cachePath
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	// Logs go to stderr so stdout carries only the report.
	logger, err := logx.New(logx.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Out: os.Stderr})
	if err != nil {
		logger.Warn().Err(err).Msg("using info level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("start reviewer")
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	games, err := walker.ReadFile(*pgnPath)
	if err != nil {
		logger.Fatal().Err(err).Str("pgn", *pgnPath).Msg("read PGN")
	}
	if *gameIndex < 1 || *gameIndex > len(games) {
		logger.Fatal().Int("game", *gameIndex).Int("games", len(games)).Msg("game number out of range")
	}

	res, err := rt.Reviewer.ReviewGame(ctx, games[*gameIndex-1])
	if err != nil {
		logger.Fatal().Err(err).Msg("review")
	}

	out := os.Stdout
	if *outPath != "" && *format != "csv" {
		out, err = os.Create(*outPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("create output")
		}
		defer out.Close()
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(res)
	case "csv":
		if *outPath != "" {
			err = report.WriteCSVFile(*outPath, res.Review)
		} else {
			err = report.WriteCSV(out, res.Review)
		}
	default:
		err = report.WriteText(out, report.Summary{Title: res.Title, Opening: res.Opening, Review: res.Review})
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("write report")
	}

	if *retry != "" {
		ply, move, err := parseRetry(*retry)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse -retry")
		}
		outcome, err := rt.Reviewer.Retry(ctx, res, ply, move)
		if err != nil {
			logger.Fatal().Err(err).Msg("retry")
		}
		fmt.Fprintf(os.Stderr, "\nRetry at ply %d: played %s (%s, loss %d), tried %s (%s, loss %d)\n",
			ply, outcome.Original.Move, outcome.Original.Tag, outcome.Original.CPLoss,
			outcome.Retry.Move, outcome.Retry.Tag, outcome.Retry.CPLoss)
	}
}

// parseRetry splits "12:Nf3".
func parseRetry(s string) (int, string, error) {
	plyStr, move, ok := strings.Cut(s, ":")
	if !ok || move == "" {
		return 0, "", fmt.Errorf("want ply:move, got %q", s)
	}
	ply, err := strconv.Atoi(plyStr)
	if err != nil {
		return 0, "", fmt.Errorf("bad ply %q: %w", plyStr, err)
	}
	return ply, move, nil
}
