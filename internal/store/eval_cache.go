package store

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/chessreview/internal/review"
)

// EvalEntry is a cached engine result for one position.
type EvalEntry struct {
	Eval     review.Evaluation // side-to-move POV
	Depth    int
	BestMove string // UCI
	PV       []string
}

// EvalCache is an in-memory map of position evaluations, optionally
// persisted as CSV.
type EvalCache struct {
	mu    sync.RWMutex
	evals map[string]EvalEntry
}

// NewEvalCache creates an empty eval cache.
func NewEvalCache() *EvalCache {
	return &EvalCache{
		evals: make(map[string]EvalEntry),
	}
}

// Key reduces a FEN to the fields that decide an evaluation: placement,
// side to move, castling and en passant. Move clocks are dropped.
func Key(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

var csvHeader = []string{"fen", "cp", "mate", "depth", "best", "pv"}

// LoadFromFile loads evaluations from a CSV file (supports .zst and .gz compression).
// Malformed rows are skipped. A missing file is not an error.
func (c *EvalCache) LoadFromFile(path string) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle compression
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return 0, err
		}
		defer zr.Close()
		reader = zr
	} else if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return 0, err
		}
		defer gr.Close()
		reader = gr
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	// Skip header
	if _, err := csvReader.Read(); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, err
	}

	count := 0
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Truncated compressed files end with an unexpected EOF; keep what we have.
			if errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			continue
		}

		entry, ok := parseRow(row)
		if !ok {
			continue
		}
		c.Put(row[0], entry)
		count++
	}

	return count, nil
}

// parseRow decodes fen, cp, mate, depth, best, pv. Exactly one of cp and
// mate is set.
func parseRow(row []string) (EvalEntry, bool) {
	if len(row) < len(csvHeader) || row[0] == "" {
		return EvalEntry{}, false
	}

	var e EvalEntry
	switch {
	case row[2] != "":
		mate, err := strconv.Atoi(row[2])
		if err != nil {
			return EvalEntry{}, false
		}
		e.Eval = review.MateIn(mate)
	case row[1] != "":
		cp, err := strconv.Atoi(row[1])
		if err != nil {
			return EvalEntry{}, false
		}
		e.Eval = review.Centipawns(cp)
	default:
		return EvalEntry{}, false
	}

	e.Depth, _ = strconv.Atoi(row[3])
	e.BestMove = row[4]
	e.PV = strings.Fields(row[5])
	return e, true
}

// SaveToFile writes every entry as CSV, sorted by position. Paths ending in
// .zst or .gz are compressed.
func (c *EvalCache) SaveToFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".zst") {
		zw, zerr := zstd.NewWriter(f)
		if zerr != nil {
			return fmt.Errorf("zstd writer: %w", zerr)
		}
		defer func() {
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
		}()
		w = zw
	} else if strings.HasSuffix(path, ".gz") {
		gw := gzip.NewWriter(f)
		defer func() {
			if cerr := gw.Close(); err == nil {
				err = cerr
			}
		}()
		w = gw
	}

	c.mu.RLock()
	keys := make([]string, 0, len(c.evals))
	for k := range c.evals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeader)
	for _, k := range keys {
		e := c.evals[k]
		var cp, mate string
		if n, ok := e.Eval.Mate(); ok {
			mate = strconv.Itoa(n)
		} else {
			cp = strconv.Itoa(e.Eval.CP())
		}
		_ = cw.Write([]string{k, cp, mate, strconv.Itoa(e.Depth), e.BestMove, strings.Join(e.PV, " ")})
	}
	c.mu.RUnlock()

	cw.Flush()
	return cw.Error()
}

// Get retrieves the entry for a FEN.
func (c *EvalCache) Get(fen string) (EvalEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.evals[Key(fen)]
	return e, ok
}

// Put stores the entry for a FEN. Shallower results never replace deeper ones.
func (c *EvalCache) Put(fen string, e EvalEntry) {
	k := Key(fen)
	c.mu.Lock()
	if old, ok := c.evals[k]; !ok || e.Depth >= old.Depth {
		c.evals[k] = e
	}
	c.mu.Unlock()
}

// Len returns the number of cached evaluations.
func (c *EvalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.evals)
}

// EvalCacheStats holds statistics about the eval cache.
type EvalCacheStats struct {
	Total int
	CP    int
	Mate  int
}

// Stats returns counts of centipawn and mate entries.
func (c *EvalCache) Stats() EvalCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var stats EvalCacheStats
	stats.Total = len(c.evals)
	for _, e := range c.evals {
		if e.Eval.IsMate() {
			stats.Mate++
		} else {
			stats.CP++
		}
	}
	return stats
}
