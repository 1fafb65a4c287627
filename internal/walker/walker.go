// Package walker replays PGN games and describes every half-move: notation,
// positions before and after, and the material balance.
package walker

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/notnil/chess"

	"github.com/freeeve/chessreview/internal/review"
)

var (
	ErrNoGames     = errors.New("no games in PGN")
	ErrIllegalMove = errors.New("illegal move")
)

// Piece values in centipawns. Kings count zero.
var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 320,
	chess.Bishop: 330,
	chess.Rook:   500,
	chess.Queen:  900,
}

// Ply is one half-move of a replayed game.
type Ply struct {
	Index     int // 1-based
	Side      review.Side
	SAN       string
	UCI       string
	FENBefore string
	FENAfter  string

	// White POV material before the move, after it, and after the
	// opponent's reply (equal to MaterialAfter on the last ply).
	MaterialBefore int
	MaterialAfter  int
	MaterialReply  int

	Checkmate bool // position after the move
	Stalemate bool
}

// MaterialDelta is the material the mover gave up or won, counted once the
// opponent has had the chance to recapture. Negative means a net loss.
func (p Ply) MaterialDelta() int {
	d := p.MaterialReply - p.MaterialBefore
	if p.Side == review.Black {
		d = -d
	}
	return d
}

// Game is a replayed game.
type Game struct {
	Tags  map[string]string
	Plies []Ply
	// Moves holds the SAN of every ply, in order.
	Moves []string
}

// Tag returns a header value, or "?" when it is missing.
func (g *Game) Tag(key string) string {
	if v, ok := g.Tags[key]; ok && v != "" {
		return v
	}
	return "?"
}

// Title is "White vs Black (Result)".
func (g *Game) Title() string {
	return fmt.Sprintf("%s vs %s (%s)", g.Tag("White"), g.Tag("Black"), g.Tag("Result"))
}

// OpenPGN opens a PGN file, decompressing .zst transparently.
func OpenPGN(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}
	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return &zstdFile{Decoder: zr, f: f}, nil
}

type zstdFile struct {
	*zstd.Decoder
	f *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

// ReadGames replays every game of a PGN stream. Trailing blank lines make
// the scanner emit an empty game; those are dropped.
func ReadGames(r io.Reader) ([]*Game, error) {
	var games []*Game
	scanner := chess.NewScanner(r)
	for scanner.Scan() {
		g := scanner.Next()
		if len(g.Moves()) == 0 && len(g.TagPairs()) == 0 {
			continue
		}
		games = append(games, Walk(g))
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scan PGN: %w", err)
	}
	if len(games) == 0 {
		return nil, ErrNoGames
	}
	return games, nil
}

// ReadFile is OpenPGN followed by ReadGames.
func ReadFile(path string) ([]*Game, error) {
	rc, err := OpenPGN(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadGames(rc)
}

// Walk describes every half-move of g.
func Walk(g *chess.Game) *Game {
	out := &Game{Tags: make(map[string]string)}
	for _, tp := range g.TagPairs() {
		out.Tags[tp.Key] = tp.Value
	}

	moves := g.Moves()
	positions := g.Positions()
	out.Plies = make([]Ply, 0, len(moves))
	out.Moves = make([]string, 0, len(moves))

	for i, mv := range moves {
		before, after := positions[i], positions[i+1]
		p := describe(before, after, mv)
		p.Index = i + 1
		p.MaterialReply = p.MaterialAfter
		if i+2 < len(positions) {
			p.MaterialReply = Material(positions[i+2])
		}
		out.Plies = append(out.Plies, p)
		out.Moves = append(out.Moves, p.SAN)
	}
	return out
}

func describe(before, after *chess.Position, mv *chess.Move) Ply {
	status := after.Status()
	return Ply{
		Side:           sideOf(before.Turn()),
		SAN:            chess.AlgebraicNotation{}.Encode(before, mv),
		UCI:            chess.UCINotation{}.Encode(before, mv),
		FENBefore:      before.String(),
		FENAfter:       after.String(),
		MaterialBefore: Material(before),
		MaterialAfter:  Material(after),
		Checkmate:      status == chess.Checkmate,
		Stalemate:      status == chess.Stalemate,
	}
}

// Material is the White-minus-Black piece value on the board.
func Material(pos *chess.Position) int {
	total := 0
	for _, pc := range pos.Board().SquareMap() {
		v := pieceValues[pc.Type()]
		if pc.Color() == chess.Black {
			v = -v
		}
		total += v
	}
	return total
}

func decodeFEN(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse FEN %q: %w", fen, err)
	}
	return chess.NewGame(opt).Position(), nil
}

func sideOf(c chess.Color) review.Side {
	if c == chess.Black {
		return review.Black
	}
	return review.White
}
