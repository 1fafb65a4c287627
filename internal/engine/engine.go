// Package engine supplies position evaluations to the review pipeline.
package engine

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/freeeve/chessreview/internal/review"
)

var (
	ErrEngineNotFound = errors.New("chess engine not found")
	ErrNoResult       = errors.New("no results from engine")
)

// Line is one candidate line from a MultiPV search.
type Line struct {
	Eval review.Evaluation `json:"eval"` // side-to-move POV
	Move string            `json:"move"` // first move, UCI
	PV   []string          `json:"pv,omitempty"`
}

// Analysis is an engine's verdict on one position.
type Analysis struct {
	Eval     review.Evaluation `json:"eval"` // side-to-move POV
	BestMove string            `json:"best_move,omitempty"`
	PV       []string          `json:"pv,omitempty"`
	Depth    int               `json:"depth"`
	Lines    []Line            `json:"lines,omitempty"` // best first
}

// Evaluator analyses positions given as FEN.
type Evaluator interface {
	Analyse(ctx context.Context, fen string) (Analysis, error)
	Close() error
}

// Discover resolves the engine binary: an explicit path wins, then
// STOCKFISH_PATH, then stockfish on PATH.
func Discover(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if env := os.Getenv("STOCKFISH_PATH"); env != "" {
		return env, nil
	}
	if found, err := exec.LookPath("stockfish"); err == nil {
		return found, nil
	}
	return "", ErrEngineNotFound
}
