// Package app wires configuration into a ready Reviewer for the commands.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/config"
	"github.com/freeeve/chessreview/internal/engine"
	"github.com/freeeve/chessreview/internal/opening"
	"github.com/freeeve/chessreview/internal/review"
	"github.com/freeeve/chessreview/internal/reviewer"
	"github.com/freeeve/chessreview/internal/store"
)

// Runtime owns the engine process and the eval cache behind a Reviewer.
type Runtime struct {
	Reviewer *reviewer.Reviewer
	Cache    *store.EvalCache

	cfg     *config.Config
	log     zerolog.Logger
	engine  engine.Evaluator
	cached  *engine.Cached
	evalNew func(engine.StockfishConfig) (engine.Evaluator, error)
}

// Option adjusts a Runtime before it starts.
type Option func(*Runtime)

// WithEvaluator replaces the Stockfish process, for tests and dry runs.
func WithEvaluator(ev engine.Evaluator) Option {
	return func(rt *Runtime) {
		rt.evalNew = func(engine.StockfishConfig) (engine.Evaluator, error) { return ev, nil }
	}
}

// New validates the review settings, starts the engine, loads the eval
// cache and the opening book.
func New(cfg *config.Config, log zerolog.Logger, opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		cfg: cfg,
		log: log,
		evalNew: func(c engine.StockfishConfig) (engine.Evaluator, error) {
			return engine.NewStockfish(c)
		},
	}
	for _, opt := range opts {
		opt(rt)
	}

	analyzer, err := review.NewAnalyzer(cfg.Review)
	if err != nil {
		return nil, err
	}

	rt.Cache = store.NewEvalCache()
	if cfg.Cache.Path != "" {
		n, err := rt.Cache.LoadFromFile(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("load eval cache: %w", err)
		}
		log.Info().Str("path", cfg.Cache.Path).Int("entries", n).Msg("eval cache loaded")
	}

	ev, err := rt.evalNew(engine.StockfishConfig{
		Path:    cfg.Engine.Path,
		Depth:   cfg.Engine.Depth,
		Threads: cfg.Engine.Threads,
		HashMB:  cfg.Engine.HashMB,
		MultiPV: cfg.Engine.MultiPV,
		Logger:  log.With().Str("component", "engine").Logger(),
	})
	if err != nil {
		return nil, err
	}
	rt.engine = ev
	rt.cached = engine.NewCached(ev, rt.Cache)

	var book *opening.Book
	if cfg.Opening.Dir != "" {
		book = opening.NewBook()
		if err := book.LoadDir(cfg.Opening.Dir); err != nil {
			log.Warn().Err(err).Str("dir", cfg.Opening.Dir).Msg("failed to load ECO book")
			book = nil
		} else {
			log.Info().Int("positions", book.Count()).Msg("ECO book loaded")
		}
	}

	rt.Reviewer, err = reviewer.New(reviewer.Config{
		Analyzer:  analyzer,
		Evaluator: rt.cached,
		Book:      book,
		Logger:    log.With().Str("component", "reviewer").Logger(),
	})
	if err != nil {
		ev.Close()
		return nil, err
	}
	return rt, nil
}

// Close stops the engine and persists the eval cache.
func (rt *Runtime) Close() error {
	hits, misses := rt.cached.Stats()
	rt.log.Info().Int64("hits", hits).Int64("misses", misses).Int("entries", rt.Cache.Len()).Msg("eval cache stats")

	err := rt.engine.Close()
	if rt.cfg.Cache.Path != "" {
		if serr := rt.Cache.SaveToFile(rt.cfg.Cache.Path); serr != nil {
			return fmt.Errorf("save eval cache: %w", serr)
		}
	}
	return err
}
