package engine

import (
	"context"
	"sync/atomic"

	"github.com/freeeve/chessreview/internal/store"
)

// Cached answers from an EvalCache before asking the wrapped Evaluator.
// Only the top line survives the cache, so hits carry a single Line.
type Cached struct {
	next  Evaluator
	cache *store.EvalCache

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCached wraps next with cache.
func NewCached(next Evaluator, cache *store.EvalCache) *Cached {
	return &Cached{next: next, cache: cache}
}

func (c *Cached) Analyse(ctx context.Context, fen string) (Analysis, error) {
	if e, ok := c.cache.Get(fen); ok {
		c.hits.Add(1)
		return Analysis{
			Eval:     e.Eval,
			BestMove: e.BestMove,
			PV:       e.PV,
			Depth:    e.Depth,
			Lines:    []Line{{Eval: e.Eval, Move: e.BestMove, PV: e.PV}},
		}, nil
	}

	c.misses.Add(1)
	a, err := c.next.Analyse(ctx, fen)
	if err != nil {
		return Analysis{}, err
	}
	c.cache.Put(fen, store.EvalEntry{
		Eval:     a.Eval,
		Depth:    a.Depth,
		BestMove: a.BestMove,
		PV:       a.PV,
	})
	return a, nil
}

func (c *Cached) Close() error {
	return c.next.Close()
}

// Stats returns cache hits and misses since creation.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
