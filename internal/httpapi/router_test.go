package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/engine"
	"github.com/freeeve/chessreview/internal/review"
	"github.com/freeeve/chessreview/internal/reviewer"
)

const pgnText = `[White "Alice"]
[Black "Bob"]
[Result "*"]

1. e4 e5 2. Nf3 *
`

// stubEvaluator prefers 1.e4 at the start and is neutral elsewhere.
type stubEvaluator struct{}

func (stubEvaluator) Analyse(_ context.Context, fen string) (engine.Analysis, error) {
	if strings.HasPrefix(fen, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w") {
		return engine.Analysis{Eval: review.Centipawns(30), BestMove: "e2e4", PV: []string{"e2e4"}, Depth: 8}, nil
	}
	cp := 30
	if fields := strings.Fields(fen); len(fields) > 1 && fields[1] == "b" {
		cp = -30
	}
	return engine.Analysis{Eval: review.Centipawns(cp), Depth: 8}, nil
}

func (stubEvaluator) Close() error { return nil }

func newServer(t *testing.T, maxReviews int) http.Handler {
	t.Helper()
	a, err := review.NewAnalyzer(review.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	rv, err := reviewer.New(reviewer.Config{Analyzer: a, Evaluator: stubEvaluator{}, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	return NewRouter(Config{Reviewer: rv, MaxReviews: maxReviews, Logger: zerolog.Nop()})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createReview(t *testing.T, h http.Handler) ReviewResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/reviews", CreateReviewRequest{PGN: pgnText})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var resp ReviewResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	h := newServer(t, 4)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, h, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s = %d %q", path, rec.Code, rec.Body)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: missing X-Request-ID", path)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("%s: missing CORS header", path)
		}
	}
}

func TestReadyReportsRegistry(t *testing.T) {
	h := newServer(t, 4)
	created := createReview(t, h)
	if rec := do(t, h, http.MethodGet, "/v1/reviews/"+created.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/reviews/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get missing = %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/readyz", nil)
	var got ReadyResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := ReadyResponse{Status: "ok", Reviews: 1, Hits: 1, Misses: 1}
	if got != want {
		t.Errorf("readyz = %+v, want %+v", got, want)
	}
}

func TestCreateAndGetReview(t *testing.T) {
	h := newServer(t, 4)
	created := createReview(t, h)

	if created.ID == "" || created.Result == nil {
		t.Fatalf("created = %+v", created)
	}
	if got := len(created.Review.Plies); got != 3 {
		t.Fatalf("plies = %d, want 3", got)
	}
	if created.Review.Plies[0].Tag != review.TagBest {
		t.Errorf("1. e4 tag = %s, want best", created.Review.Plies[0].Tag)
	}
	if created.Tags["White"] != "Alice" {
		t.Errorf("tags = %v", created.Tags)
	}

	rec := do(t, h, http.MethodGet, "/v1/reviews/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body)
	}
	var got ReviewResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ID != created.ID || len(got.Review.Plies) != 3 {
		t.Errorf("got = %+v", got)
	}
}

func TestCreateReviewErrors(t *testing.T) {
	h := newServer(t, 4)
	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing pgn", CreateReviewRequest{}, http.StatusBadRequest},
		{"bad game index", CreateReviewRequest{PGN: pgnText, Game: 3}, http.StatusBadRequest},
		{"not json", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/reviews", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestRetry(t *testing.T) {
	h := newServer(t, 4)
	created := createReview(t, h)

	rec := do(t, h, http.MethodPost, "/v1/reviews/"+created.ID+"/retry", RetryRequest{Ply: 3, Move: "Nc3"})
	if rec.Code != http.StatusOK {
		t.Fatalf("retry status = %d: %s", rec.Code, rec.Body)
	}
	var out reviewer.RetryOutcome
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Ply != 3 || out.Original.Move != "Nf3" || out.Retry.Move != "Nc3" {
		t.Errorf("outcome = %+v", out)
	}

	rec = do(t, h, http.MethodPost, "/v1/reviews/"+created.ID+"/retry", RetryRequest{Ply: 3, Move: "Qh8"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("illegal retry status = %d, want 400", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/reviews/"+created.ID+"/retry", RetryRequest{Ply: 9, Move: "e4"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out of range retry status = %d, want 400", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/reviews/unknown/retry", RetryRequest{Ply: 1, Move: "e4"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown review retry status = %d, want 404", rec.Code)
	}
}

func TestReviewsAreEvicted(t *testing.T) {
	h := newServer(t, 1)
	first := createReview(t, h)
	createReview(t, h)

	if rec := do(t, h, http.MethodGet, "/v1/reviews/"+first.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("evicted review status = %d, want 404", rec.Code)
	}
}

func TestConfigEndpoint(t *testing.T) {
	rec := do(t, newServer(t, 4), http.MethodGet, "/v1/config", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var cfg review.Config
	if err := json.NewDecoder(rec.Body).Decode(&cfg); err != nil {
		t.Fatal(err)
	}
	if len(cfg.Thresholds) != review.NumThresholds || cfg.Thresholds[0] != 10 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	h := newServer(t, 4)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "bad id!")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got == "bad id!" || got == "" {
		t.Errorf("X-Request-ID = %q, want a generated id", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/v1/reviews", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	newServer(t, 4).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
}
