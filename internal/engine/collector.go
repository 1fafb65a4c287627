package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/review"
	"github.com/freeeve/chessreview/internal/store"
	"github.com/freeeve/chessreview/internal/walker"
)

// Collector turns replayed plies into review inputs by analysing every
// position of the game.
type Collector struct {
	ev  Evaluator
	log zerolog.Logger
}

// NewCollector creates a collector backed by ev.
func NewCollector(ev Evaluator, log zerolog.Logger) *Collector {
	return &Collector{ev: ev, log: log}
}

// Collection is the engine view of a game.
type Collection struct {
	Records []review.PlyRecord
	// Candidates[i] are the engine lines at the position before ply i+1.
	Candidates [][]Line
}

// Collect analyses the position before every ply and the final position.
// Repeated positions are analysed once. Checkmate and stalemate are scored
// without the engine.
func (c *Collector) Collect(ctx context.Context, plies []walker.Ply) (*Collection, error) {
	out := &Collection{
		Records:    make([]review.PlyRecord, 0, len(plies)),
		Candidates: make([][]Line, 0, len(plies)),
	}
	if len(plies) == 0 {
		return out, nil
	}

	memo := make(map[string]Analysis)
	analyse := func(fen string, checkmate, stalemate bool) (Analysis, error) {
		switch {
		case checkmate:
			return Analysis{Eval: review.MateIn(0)}, nil
		case stalemate:
			return Analysis{Eval: review.Centipawns(0)}, nil
		}
		key := store.Key(fen)
		if a, ok := memo[key]; ok {
			return a, nil
		}
		a, err := c.ev.Analyse(ctx, fen)
		if err != nil {
			return Analysis{}, err
		}
		memo[key] = a
		return a, nil
	}

	before, err := analyse(plies[0].FENBefore, false, false)
	if err != nil {
		return nil, fmt.Errorf("analyse ply 1: %w", err)
	}

	for i := range plies {
		p := &plies[i]
		after, err := analyse(p.FENAfter, p.Checkmate, p.Stalemate)
		if err != nil {
			return nil, fmt.Errorf("analyse ply %d: %w", p.Index, err)
		}

		rec := review.PlyRecord{
			Ply:           p.Index,
			Side:          p.Side,
			Move:          p.SAN,
			EvalBefore:    before.Eval,
			EvalAfter:     after.Eval,
			PV:            before.PV,
			MaterialDelta: p.MaterialDelta(),
		}
		if before.BestMove != "" {
			best := before.Eval
			rec.BestAlternative = &best
			rec.BestMove = toSAN(p.FENBefore, before.BestMove)
		}
		out.Records = append(out.Records, rec)
		out.Candidates = append(out.Candidates, before.Lines)

		before = after
	}

	c.log.Debug().Int("plies", len(plies)).Int("positions", len(memo)).Msg("game analysed")
	return out, nil
}

// Retry plays move at fen and gathers the comparator input. ply is the
// game ply the move replaces.
func (c *Collector) Retry(ctx context.Context, fen, move string, ply int) (review.RetryInput, error) {
	p, err := walker.PlayMove(fen, move)
	if err != nil {
		return review.RetryInput{}, err
	}

	before, err := c.ev.Analyse(ctx, fen)
	if err != nil {
		return review.RetryInput{}, fmt.Errorf("analyse position: %w", err)
	}

	var after Analysis
	switch {
	case p.Checkmate:
		after = Analysis{Eval: review.MateIn(0)}
	case p.Stalemate:
		after = Analysis{Eval: review.Centipawns(0)}
	default:
		if after, err = c.ev.Analyse(ctx, p.FENAfter); err != nil {
			return review.RetryInput{}, fmt.Errorf("analyse result: %w", err)
		}
		walker.ApplyReply(&p, after.BestMove)
	}

	in := review.RetryInput{
		Ply:           ply,
		Side:          p.Side,
		Move:          p.SAN,
		Before:        before.Eval,
		Result:        after.Eval,
		PV:            before.PV,
		MaterialDelta: p.MaterialDelta(),
	}
	if before.BestMove != "" {
		best := before.Eval
		in.EngineBest = &best
		in.BestMove = toSAN(fen, before.BestMove)
	}
	return in, nil
}

// toSAN renders a UCI move in SAN, falling back to the input.
func toSAN(fen, uciMove string) string {
	p, err := walker.PlayMove(fen, uciMove)
	if err != nil {
		return uciMove
	}
	return p.SAN
}
