package walker

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// PlayMove plays move (SAN, or UCI as a fallback) from fen. The returned
// ply has MaterialReply equal to MaterialAfter; use ApplyReply once the
// opponent's answer is known.
func PlayMove(fen, move string) (Ply, error) {
	pos, err := decodeFEN(fen)
	if err != nil {
		return Ply{}, err
	}
	mv, err := parseMove(pos, move)
	if err != nil {
		return Ply{}, err
	}
	p := describe(pos, pos.Update(mv), mv)
	p.MaterialReply = p.MaterialAfter
	return p, nil
}

// ApplyReply plays the opponent's reply (UCI or SAN) after p and records
// the resulting material. Unknown or illegal replies leave p unchanged.
func ApplyReply(p *Ply, reply string) {
	if reply == "" {
		return
	}
	pos, err := decodeFEN(p.FENAfter)
	if err != nil {
		return
	}
	mv, err := parseMove(pos, reply)
	if err != nil {
		return
	}
	p.MaterialReply = Material(pos.Update(mv))
}

func parseMove(pos *chess.Position, move string) (*chess.Move, error) {
	move = strings.TrimSpace(move)
	if move == "" {
		return nil, fmt.Errorf("%w: empty move", ErrIllegalMove)
	}
	if mv, err := (chess.AlgebraicNotation{}).Decode(pos, move); err == nil {
		return mv, nil
	}
	mv, err := (chess.UCINotation{}).Decode(pos, strings.ToLower(move))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrIllegalMove, move)
	}
	// UCI decoding only checks syntax.
	for _, legal := range pos.ValidMoves() {
		if legal.S1() == mv.S1() && legal.S2() == mv.S2() && legal.Promo() == mv.Promo() {
			return legal, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrIllegalMove, move)
}
