package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/freeeve/uci"
	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/review"
)

// StockfishConfig configures a Stockfish process.
type StockfishConfig struct {
	Path    string // resolved with Discover when empty
	Depth   int    // search depth per position (default 14)
	Threads int    // default 1
	HashMB  int    // default 64
	MultiPV int    // candidate lines per position (default 3)
	Logger  zerolog.Logger
}

// Stockfish evaluates positions with one UCI engine process. Calls are
// serialized.
type Stockfish struct {
	mu     sync.Mutex
	cfg    StockfishConfig
	engine *uci.Engine
	log    zerolog.Logger
}

// NewStockfish starts the engine.
func NewStockfish(cfg StockfishConfig) (*Stockfish, error) {
	if cfg.Depth <= 0 {
		cfg.Depth = 14
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}
	if cfg.HashMB <= 0 {
		cfg.HashMB = 64
	}
	if cfg.MultiPV <= 0 {
		cfg.MultiPV = 3
	}

	path, err := Discover(cfg.Path)
	if err != nil {
		return nil, err
	}
	cfg.Path = path

	engine, err := uci.NewEngine(path)
	if err != nil {
		return nil, fmt.Errorf("start engine %s: %w", path, err)
	}

	opts := uci.Options{
		Hash:    cfg.HashMB,
		Threads: cfg.Threads,
		MultiPV: cfg.MultiPV,
		Ponder:  false,
		OwnBook: false,
	}
	if err := engine.SetOptions(opts); err != nil {
		engine.Close()
		return nil, fmt.Errorf("set engine options: %w", err)
	}

	cfg.Logger.Info().
		Str("path", path).
		Int("depth", cfg.Depth).
		Int("threads", cfg.Threads).
		Int("hash_mb", cfg.HashMB).
		Int("multipv", cfg.MultiPV).
		Msg("engine started")

	return &Stockfish{cfg: cfg, engine: engine, log: cfg.Logger}, nil
}

// Analyse searches fen to the configured depth.
func (s *Stockfish) Analyse(ctx context.Context, fen string) (Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	if err := s.engine.SetFEN(fen); err != nil {
		return Analysis{}, fmt.Errorf("set FEN: %w", err)
	}

	results, err := s.engine.GoDepth(s.cfg.Depth, uci.HighestDepthOnly)
	if err != nil {
		return Analysis{}, fmt.Errorf("stockfish eval: %w", err)
	}

	raw := make([]rawLine, 0, len(results.Results))
	for _, r := range results.Results {
		raw = append(raw, rawLine{
			depth:   r.Depth,
			multiPV: r.MultiPV,
			score:   r.Score,
			mate:    r.Mate,
			pv:      r.BestMoves,
		})
	}
	a, err := buildAnalysis(raw, results.BestMove)
	if err != nil {
		return Analysis{}, err
	}

	s.log.Debug().
		Str("fen", fen).
		Str("eval", a.Eval.String()).
		Str("best", a.BestMove).
		Int("lines", len(a.Lines)).
		Msg("evaluated")
	return a, nil
}

// Close stops the engine process.
func (s *Stockfish) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Close()
	return nil
}

// rawLine is one "info" record as reported by the engine.
type rawLine struct {
	depth   int
	multiPV int
	score   int
	mate    bool
	pv      []string
}

// buildAnalysis keeps the deepest record of every MultiPV slot and orders
// the slots best first.
func buildAnalysis(raw []rawLine, bestMove string) (Analysis, error) {
	if len(raw) == 0 {
		return Analysis{}, ErrNoResult
	}

	bySlot := make(map[int]rawLine)
	maxDepth := 0
	for _, r := range raw {
		slot := r.multiPV
		if slot <= 0 {
			slot = 1
		}
		if old, ok := bySlot[slot]; !ok || r.depth >= old.depth {
			bySlot[slot] = r
		}
		maxDepth = max(maxDepth, r.depth)
	}

	slots := make([]int, 0, len(bySlot))
	for slot := range bySlot {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	a := Analysis{Depth: maxDepth}
	for _, slot := range slots {
		r := bySlot[slot]
		l := Line{PV: append([]string(nil), r.pv...)}
		if r.mate {
			l.Eval = review.MateIn(r.score)
		} else {
			l.Eval = review.Centipawns(r.score)
		}
		if len(l.PV) > 0 {
			l.Move = l.PV[0]
		}
		a.Lines = append(a.Lines, l)
	}

	top := a.Lines[0]
	a.Eval = top.Eval
	a.PV = top.PV
	a.BestMove = bestMove
	if a.BestMove == "" || a.BestMove == "(none)" {
		a.BestMove = top.Move
	}
	return a, nil
}
