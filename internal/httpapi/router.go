package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/reviewer"
	"github.com/freeeve/chessreview/internal/store"
	"github.com/freeeve/chessreview/internal/walker"
)

// Config configures the router.
type Config struct {
	Reviewer     *reviewer.Reviewer
	MaxReviews   int    // reviews kept in memory (default 256)
	CORSOrigin   string // default "*"
	MaxBodyBytes int64  // request body limit (default 512 KiB)
	Logger       zerolog.Logger
}

// Handler serves reviews.
type Handler struct {
	rv      *reviewer.Reviewer
	reviews *store.FIFOCache[string, *reviewer.Result]
	maxBody int64
	log     zerolog.Logger
}

// NewRouter creates the HTTP API.
func NewRouter(cfg Config) http.Handler {
	if cfg.MaxReviews <= 0 {
		cfg.MaxReviews = 256
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 512 << 10
	}

	h := &Handler{
		rv:      cfg.Reviewer,
		reviews: store.NewFIFOCache[string, *reviewer.Result](cfg.MaxReviews),
		maxBody: cfg.MaxBodyBytes,
		log:     cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.ready)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/config", h.config)
		r.Post("/reviews", h.createReview)
		r.Get("/reviews/{id}", h.getReview)
		r.Post("/reviews/{id}/retry", h.retry)
	})

	return CORS(cfg.CORSOrigin, RequestID(AccessLog(cfg.Logger, r)))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	hits, misses := h.reviews.Stats()
	writeJSON(w, ReadyResponse{
		Status:  "ok",
		Reviews: h.reviews.Len(),
		Hits:    hits,
		Misses:  misses,
	})
}

func (h *Handler) config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.rv.Analyzer().Config())
}

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PGN) == "" {
		writeError(w, r, http.StatusBadRequest, "missing pgn")
		return
	}

	res, err := h.rv.ReviewPGN(r.Context(), strings.NewReader(req.PGN), req.Game)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := uuid.NewString()
	h.reviews.Put(id, res)
	w.Header().Set("Location", "/v1/reviews/"+id)
	writeJSONStatus(w, http.StatusCreated, ReviewResponse{ID: id, Result: res})
}

func (h *Handler) getReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, ok := h.reviews.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "review not found")
		return
	}
	writeJSON(w, ReviewResponse{ID: id, Result: res})
}

func (h *Handler) retry(w http.ResponseWriter, r *http.Request) {
	res, ok := h.reviews.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "review not found")
		return
	}

	var req RetryRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.rv.Retry(r.Context(), res, req.Ply, req.Move)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, out)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// fail maps review errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, walker.ErrNoGames),
		errors.Is(err, walker.ErrIllegalMove),
		errors.Is(err, reviewer.ErrGameIndex),
		errors.Is(err, reviewer.ErrPlyOutOfRange):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Str("rid", GetRequestID(r.Context())).Msg("review failed")
		writeError(w, r, http.StatusInternalServerError, "review failed")
	}
}
