package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/freeeve/chessreview/internal/reviewer"
)

// CreateReviewRequest is the body of POST /v1/reviews.
type CreateReviewRequest struct {
	PGN  string `json:"pgn"`
	Game int    `json:"game"` // 0-based index into the PGN
}

// ReviewResponse is a stored review.
type ReviewResponse struct {
	ID string `json:"id"`
	*reviewer.Result
}

// ReadyResponse reports the review registry's state on GET /readyz.
type ReadyResponse struct {
	Status  string `json:"status"`
	Reviews int    `json:"reviews"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// RetryRequest is the body of POST /v1/reviews/{id}/retry.
type RetryRequest struct {
	Ply  int    `json:"ply"`
	Move string `json:"move"` // SAN or UCI
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
	// Don't call http.Error after setting headers - it causes "superfluous WriteHeader"
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSONStatus(w, status, errorResponse{Error: msg, RequestID: GetRequestID(r.Context())})
}
