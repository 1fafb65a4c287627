// Package ingest reviews PGN files dropped into a watched directory.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/reviewer"
	"github.com/freeeve/chessreview/internal/walker"
)

// Config configures the ingest worker.
type Config struct {
	WatchDir     string         // Directory to watch for PGN files
	ProcessedDir string         // Directory to move processed files to
	OutputDir    string         // Directory for review JSON files
	RatingMin    int            // Skip games where either player is rated below this (0 = no filter)
	Workers      int            // Files reviewed in parallel
	PollInterval time.Duration  // How often to check for new files
	Logger       zerolog.Logger // Logger
}

// Worker watches a folder and reviews PGN files.
type Worker struct {
	cfg Config
	rv  *reviewer.Reviewer
	log zerolog.Logger
}

// NewWorker creates a new ingest worker. It returns nil when no watch
// directory is configured.
func NewWorker(cfg Config, rv *reviewer.Reviewer) (*Worker, error) {
	if cfg.WatchDir == "" {
		return nil, nil // Disabled
	}
	if cfg.ProcessedDir == "" {
		cfg.ProcessedDir = filepath.Join(cfg.WatchDir, "processed")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(cfg.WatchDir, "reviews")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Second
	}

	for _, dir := range []string{cfg.WatchDir, cfg.ProcessedDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return &Worker{
		cfg: cfg,
		rv:  rv,
		log: cfg.Logger,
	}, nil
}

// Run starts the folder watcher.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().
		Str("watch_dir", w.cfg.WatchDir).
		Str("output_dir", w.cfg.OutputDir).
		Int("workers", w.cfg.Workers).
		Msg("ingest worker started")

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil {
				w.log.Warn().Err(err).Msg("process files failed")
			}
		}
	}
}

// BatchStats summarises one pass over the watch directory.
type BatchStats struct {
	Files   int
	Failed  int
	Games   int
	Skipped int
}

type fileResult struct {
	name    string
	games   int
	skipped int
	err     error
}

// ProcessOnce reviews every PGN file currently in the watch directory with
// a pool of workers. Reviewed files move to the processed directory; failed
// ones stay for the next pass.
func (w *Worker) ProcessOnce(ctx context.Context) (BatchStats, error) {
	var stats BatchStats

	select {
	case <-ctx.Done():
		return stats, ctx.Err()
	default:
	}

	entries, err := os.ReadDir(w.cfg.WatchDir)
	if err != nil {
		return stats, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && isPGNFile(e.Name()) {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return stats, nil
	}

	// Sort by name to process in order
	sort.Strings(files)
	w.log.Info().Int("files", len(files)).Int("workers", w.cfg.Workers).Msg("found PGN files to review")

	fileChan := make(chan string, len(files))
	resultChan := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for name := range fileChan {
				if err := ctx.Err(); err != nil {
					resultChan <- fileResult{name: name, err: err}
					continue
				}
				games, skipped, err := w.processFile(ctx, workerID, name)
				resultChan <- fileResult{name: name, games: games, skipped: skipped, err: err}
			}
		}(i)
	}

	for _, name := range files {
		fileChan <- name
	}
	close(fileChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for result := range resultChan {
		stats.Games += result.games
		stats.Skipped += result.skipped
		if result.err != nil {
			w.log.Error().Err(result.err).Str("file", result.name).Msg("review failed")
			stats.Failed++
			continue
		}

		srcPath := filepath.Join(w.cfg.WatchDir, result.name)
		destPath := filepath.Join(w.cfg.ProcessedDir, result.name)
		if err := os.Rename(srcPath, destPath); err != nil {
			w.log.Warn().Err(err).Str("file", result.name).Msg("move to processed failed")
		}
		stats.Files++
	}

	w.log.Info().
		Int("files", stats.Files).
		Int("failed", stats.Failed).
		Int("games", stats.Games).
		Int("skipped", stats.Skipped).
		Msg("batch complete")
	return stats, ctx.Err()
}

// processFile reviews every game of one file and writes one JSON document
// per game.
func (w *Worker) processFile(ctx context.Context, workerID int, name string) (games, skipped int, err error) {
	path := filepath.Join(w.cfg.WatchDir, name)
	log := w.log.With().Str("file", name).Int("worker", workerID).Logger()
	log.Info().Msg("starting file review")
	start := time.Now()

	parsed, err := walker.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}

	base := strings.TrimSuffix(strings.TrimSuffix(name, ".zst"), ".pgn")
	for i, g := range parsed {
		if w.cfg.RatingMin > 0 &&
			(parseRating(g.Tags["WhiteElo"]) < w.cfg.RatingMin || parseRating(g.Tags["BlackElo"]) < w.cfg.RatingMin) {
			skipped++
			continue
		}

		res, err := w.rv.ReviewGame(ctx, g)
		if err != nil {
			return games, skipped, fmt.Errorf("game %d: %w", i+1, err)
		}
		out := filepath.Join(w.cfg.OutputDir, fmt.Sprintf("%s-%03d.json", base, i+1))
		if err := writeJSONFile(out, res); err != nil {
			return games, skipped, err
		}
		games++
	}

	log.Info().
		Int("games", games).
		Int("skipped", skipped).
		Dur("elapsed", time.Since(start)).
		Msg("file review complete")
	return games, skipped, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func isPGNFile(name string) bool {
	ext := filepath.Ext(name)
	if ext == ".pgn" {
		return true
	}
	if ext == ".zst" {
		// Check for .pgn.zst
		base := name[:len(name)-4]
		return filepath.Ext(base) == ".pgn"
	}
	return false
}

func parseRating(s string) int {
	if s == "" || s == "?" || s == "-" {
		return 0
	}
	r, _ := strconv.Atoi(s)
	return r
}
