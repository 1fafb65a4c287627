// Package reviewer runs the full review of a replayed game: engine
// analysis, classification, aggregation and opening lookup.
package reviewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/engine"
	"github.com/freeeve/chessreview/internal/opening"
	"github.com/freeeve/chessreview/internal/review"
	"github.com/freeeve/chessreview/internal/walker"
)

var (
	ErrPlyOutOfRange = errors.New("ply out of range")
	ErrGameIndex     = errors.New("game index out of range")
)

// Config wires a Reviewer.
type Config struct {
	Analyzer  *review.Analyzer
	Evaluator engine.Evaluator
	Book      *opening.Book // optional
	Logger    zerolog.Logger
}

// Reviewer is safe for concurrent use when its Evaluator is.
type Reviewer struct {
	analyzer  *review.Analyzer
	collector *engine.Collector
	book      *opening.Book
	log       zerolog.Logger
}

// New creates a Reviewer.
func New(cfg Config) (*Reviewer, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("reviewer: analyzer is required")
	}
	if cfg.Evaluator == nil {
		return nil, errors.New("reviewer: evaluator is required")
	}
	return &Reviewer{
		analyzer:  cfg.Analyzer,
		collector: engine.NewCollector(cfg.Evaluator, cfg.Logger),
		book:      cfg.Book,
		log:       cfg.Logger,
	}, nil
}

// Analyzer returns the analyzer in use.
func (rv *Reviewer) Analyzer() *review.Analyzer { return rv.analyzer }

// Result is a reviewed game.
type Result struct {
	Tags       map[string]string  `json:"tags"`
	Title      string             `json:"title"`
	Opening    *opening.Opening   `json:"opening,omitempty"`
	Review     *review.GameReview `json:"review"`
	Candidates [][]engine.Line    `json:"candidates,omitempty"` // engine lines before each ply
	FENs       []string           `json:"fens"`                 // position before each ply
}

// ReviewGame analyses and classifies every ply of g.
func (rv *Reviewer) ReviewGame(ctx context.Context, g *walker.Game) (*Result, error) {
	start := time.Now()

	col, err := rv.collector.Collect(ctx, g.Plies)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Tags:       g.Tags,
		Title:      g.Title(),
		Review:     rv.analyzer.Review(col.Records),
		Candidates: col.Candidates,
		FENs:       make([]string, len(g.Plies)),
	}
	for i, p := range g.Plies {
		res.FENs[i] = p.FENBefore
	}
	if rv.book != nil {
		res.Opening = rv.book.Identify(g.Moves)
	}

	ev := rv.log.Info().
		Str("game", res.Title).
		Int("plies", len(g.Plies)).
		Int("key_moments", len(res.Review.KeyMoments)).
		Int("warnings", len(res.Review.Warnings)).
		Dur("elapsed", time.Since(start))
	if res.Review.White != nil {
		ev = ev.Float64("white_accuracy", res.Review.White.Accuracy)
	}
	if res.Review.Black != nil {
		ev = ev.Float64("black_accuracy", res.Review.Black.Accuracy)
	}
	ev.Msg("review complete")

	return res, nil
}

// ReviewPGN reviews game index (0-based) of a PGN stream.
func (rv *Reviewer) ReviewPGN(ctx context.Context, r io.Reader, index int) (*Result, error) {
	games, err := walker.ReadGames(r)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(games) {
		return nil, fmt.Errorf("%w: %d of %d", ErrGameIndex, index, len(games))
	}
	return rv.ReviewGame(ctx, games[index])
}

// RetryOutcome pairs a retried move with the move actually played.
type RetryOutcome struct {
	Ply      int                `json:"ply"`
	Original review.PlyRecord   `json:"original"`
	Retry    review.RetryResult `json:"retry"`
	Improved bool               `json:"improved"` // retry lost fewer centipawns
}

// Retry grades move as an alternative to the given ply (1-based) of res.
func (rv *Reviewer) Retry(ctx context.Context, res *Result, ply int, move string) (*RetryOutcome, error) {
	if ply < 1 || ply > len(res.FENs) {
		return nil, fmt.Errorf("%w: %d of %d", ErrPlyOutOfRange, ply, len(res.FENs))
	}

	in, err := rv.collector.Retry(ctx, res.FENs[ply-1], move, ply)
	if err != nil {
		return nil, err
	}
	out := rv.analyzer.CompareRetry(in)
	orig := res.Review.Plies[ply-1]

	rv.log.Debug().
		Int("ply", ply).
		Str("played", orig.Move).
		Str("retry", out.Move).
		Str("tag", string(out.Tag)).
		Int("cp_loss", out.CPLoss).
		Msg("retry compared")

	return &RetryOutcome{
		Ply:      ply,
		Original: orig,
		Retry:    out,
		Improved: out.CPLoss < orig.CPLoss,
	}, nil
}
