package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/engine"
	"github.com/freeeve/chessreview/internal/review"
	"github.com/freeeve/chessreview/internal/reviewer"
)

const games = `[White "A"]
[Black "B"]
[WhiteElo "2100"]
[BlackElo "2050"]
[Result "1-0"]

1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0

[White "C"]
[Black "D"]
[WhiteElo "1500"]
[BlackElo "1600"]
[Result "*"]

1. d4 *
`

type zeroEvaluator struct{}

func (zeroEvaluator) Analyse(context.Context, string) (engine.Analysis, error) {
	return engine.Analysis{Eval: review.Centipawns(0), Depth: 1}, nil
}

func (zeroEvaluator) Close() error { return nil }

func newWorker(t *testing.T, ratingMin int) (*Worker, string) {
	t.Helper()
	a, err := review.NewAnalyzer(review.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	rv, err := reviewer.New(reviewer.Config{Analyzer: a, Evaluator: zeroEvaluator{}, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	w, err := NewWorker(Config{WatchDir: dir, RatingMin: ratingMin, Logger: zerolog.Nop()}, rv)
	if err != nil {
		t.Fatal(err)
	}
	return w, dir
}

func TestProcessOnce(t *testing.T) {
	w, dir := newWorker(t, 2000)
	if err := os.WriteFile(filepath.Join(dir, "club.pgn"), []byte(games), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644); err != nil {
		t.Fatal(err)
	}

	stats, err := w.ProcessOnce(context.Background())
	if err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	if stats.Files != 1 || stats.Games != 1 || stats.Skipped != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}

	if _, err := os.Stat(filepath.Join(dir, "processed", "club.pgn")); err != nil {
		t.Errorf("file not moved to processed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Errorf("non-PGN file touched: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "reviews", "club-001.json"))
	if err != nil {
		t.Fatalf("review output: %v", err)
	}
	var res reviewer.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Review.Plies) != 7 || res.Tags["White"] != "A" {
		t.Errorf("review = %d plies, tags %v", len(res.Review.Plies), res.Tags)
	}
}

func TestProcessOnceKeepsBadFiles(t *testing.T) {
	w, dir := newWorker(t, 0)
	if err := os.WriteFile(filepath.Join(dir, "empty.pgn"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	stats, err := w.ProcessOnce(context.Background())
	if err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	if stats.Failed != 1 || stats.Files != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if _, err := os.Stat(filepath.Join(dir, "empty.pgn")); err != nil {
		t.Errorf("failed file was moved: %v", err)
	}
}

func TestNewWorkerDisabled(t *testing.T) {
	w, err := NewWorker(Config{}, nil)
	if w != nil || err != nil {
		t.Errorf("NewWorker(empty) = %v, %v; want nil, nil", w, err)
	}
}

func TestIsPGNFile(t *testing.T) {
	tests := map[string]bool{
		"a.pgn":     true,
		"a.pgn.zst": true,
		"a.zst":     false,
		"a.txt":     false,
	}
	for name, want := range tests {
		if got := isPGNFile(name); got != want {
			t.Errorf("isPGNFile(%q) = %v, want %v", name, got, want)
		}
	}
}
