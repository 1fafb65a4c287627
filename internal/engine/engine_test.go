package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/review"
	"github.com/freeeve/chessreview/internal/store"
	"github.com/freeeve/chessreview/internal/walker"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// fakeEvaluator answers every position with fn and counts calls.
type fakeEvaluator struct {
	mu    sync.Mutex
	fn    func(fen string) (Analysis, error)
	calls int
}

func (f *fakeEvaluator) Analyse(_ context.Context, fen string) (Analysis, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(fen)
}

func (f *fakeEvaluator) Close() error { return nil }

func openingBook(fen string) (Analysis, error) {
	if store.Key(fen) == store.Key(startFEN) {
		return Analysis{Eval: review.Centipawns(30), BestMove: "e2e4", PV: []string{"e2e4", "e7e5"}, Depth: 10}, nil
	}
	return Analysis{Eval: review.Centipawns(15), Depth: 10}, nil
}

func mustPlies(t *testing.T, pgn string) []walker.Ply {
	t.Helper()
	games, err := walker.ReadGames(strings.NewReader("[Event \"Test\"]\n\n" + pgn))
	if err != nil {
		t.Fatalf("ReadGames: %v", err)
	}
	return games[0].Plies
}

func TestCollect(t *testing.T) {
	plies := mustPlies(t, "1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0\n")
	ev := &fakeEvaluator{fn: openingBook}

	col, err := NewCollector(ev, zerolog.Nop()).Collect(context.Background(), plies)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(col.Records) != 7 || len(col.Candidates) != 7 {
		t.Fatalf("got %d records, %d candidate sets; want 7", len(col.Records), len(col.Candidates))
	}
	// Seven positions need the engine; the final checkmate does not.
	if ev.calls != 7 {
		t.Errorf("engine calls = %d, want 7", ev.calls)
	}

	first := col.Records[0]
	if first.Move != "e4" || first.BestMove != "e4" || !first.IsEngineChoice() {
		t.Errorf("first record move %q best %q, want engine choice e4", first.Move, first.BestMove)
	}
	if first.BestAlternative == nil || *first.BestAlternative != review.Centipawns(30) {
		t.Errorf("first best alternative = %v", first.BestAlternative)
	}
	if first.EvalAfter != review.Centipawns(15) {
		t.Errorf("first eval after = %s", first.EvalAfter)
	}

	if col.Records[1].BestAlternative != nil {
		t.Error("ply 2 has a best alternative without an engine best move")
	}
	if col.Records[1].EvalBefore != first.EvalAfter {
		t.Error("evaluations do not chain between plies")
	}

	last := col.Records[6]
	if last.EvalAfter != review.MateIn(0) {
		t.Errorf("eval after mate = %s, want #0", last.EvalAfter)
	}

	a, err := review.NewAnalyzer(review.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	r := a.Review(col.Records)
	if r.Plies[0].Tag != review.TagBest {
		t.Errorf("1. e4 tagged %s, want best", r.Plies[0].Tag)
	}
}

func TestCollectAnalysesRepeatedPositionsOnce(t *testing.T) {
	plies := mustPlies(t, "1. Nf3 Nf6 2. Ng1 Ng8 3. Nf3 *\n")
	ev := &fakeEvaluator{fn: openingBook}

	if _, err := NewCollector(ev, zerolog.Nop()).Collect(context.Background(), plies); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if ev.calls != 4 {
		t.Errorf("engine calls = %d, want 4 distinct positions", ev.calls)
	}
}

func TestCollectEngineError(t *testing.T) {
	boom := errors.New("engine died")
	plies := mustPlies(t, "1. e4 e5 *\n")
	ev := &fakeEvaluator{fn: func(string) (Analysis, error) { return Analysis{}, boom }}

	_, err := NewCollector(ev, zerolog.Nop()).Collect(context.Background(), plies)
	if !errors.Is(err, boom) {
		t.Fatalf("Collect error = %v, want %v", err, boom)
	}
}

func TestRetry(t *testing.T) {
	c := NewCollector(&fakeEvaluator{fn: openingBook}, zerolog.Nop())

	in, err := c.Retry(context.Background(), startFEN, "d2d4", 1)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if in.Move != "d4" || in.BestMove != "e4" || in.Side != review.White || in.Ply != 1 {
		t.Errorf("retry input = %+v", in)
	}
	if in.EngineBest == nil || *in.EngineBest != review.Centipawns(30) || in.Result != review.Centipawns(15) {
		t.Errorf("retry evaluations = best %v result %s", in.EngineBest, in.Result)
	}

	if _, err := c.Retry(context.Background(), startFEN, "Ke2", 1); !errors.Is(err, walker.ErrIllegalMove) {
		t.Errorf("Retry(illegal) error = %v, want ErrIllegalMove", err)
	}
}

func TestCached(t *testing.T) {
	inner := &fakeEvaluator{fn: openingBook}
	cache := store.NewEvalCache()
	ev := NewCached(inner, cache)
	ctx := context.Background()

	first, err := ev.Analyse(ctx, startFEN)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ev.Analyse(ctx, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 2 2")
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if second.Eval != first.Eval || second.BestMove != first.BestMove {
		t.Errorf("cached analysis = %+v, want %+v", second, first)
	}
	if hits, misses := ev.Stats(); hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits %d misses, want 1/1", hits, misses)
	}
	if cache.Len() != 1 {
		t.Errorf("cache len = %d, want 1", cache.Len())
	}
}

func TestBuildAnalysis(t *testing.T) {
	raw := []rawLine{
		{depth: 12, multiPV: 2, score: 10, pv: []string{"d2d4", "d7d5"}},
		{depth: 12, multiPV: 1, score: 35, pv: []string{"e2e4", "e7e5"}},
		{depth: 11, multiPV: 1, score: 20, pv: []string{"c2c4"}},
		{depth: 12, multiPV: 3, score: 3, mate: true, pv: []string{"g1f3"}},
	}
	a, err := buildAnalysis(raw, "")
	if err != nil {
		t.Fatal(err)
	}
	if a.Depth != 12 || a.BestMove != "e2e4" || a.Eval != review.Centipawns(35) {
		t.Errorf("analysis = %+v", a)
	}
	if len(a.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(a.Lines))
	}
	if a.Lines[1].Move != "d2d4" || a.Lines[2].Eval != review.MateIn(3) {
		t.Errorf("lines = %+v", a.Lines)
	}

	if _, err := buildAnalysis(nil, ""); !errors.Is(err, ErrNoResult) {
		t.Errorf("buildAnalysis(nil) error = %v, want ErrNoResult", err)
	}
}

func TestDiscover(t *testing.T) {
	if got, err := Discover("/opt/sf"); err != nil || got != "/opt/sf" {
		t.Errorf("Discover(explicit) = %q, %v", got, err)
	}
	t.Setenv("STOCKFISH_PATH", "/usr/games/stockfish")
	if got, err := Discover(""); err != nil || got != "/usr/games/stockfish" {
		t.Errorf("Discover(env) = %q, %v", got, err)
	}
}
