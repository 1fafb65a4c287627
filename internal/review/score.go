package review

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Side identifies a player.
type Side uint8

const (
	White Side = 0
	Black Side = 1
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) String() string {
	if s == Black {
		return "black"
	}
	return "white"
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "white", "White", "w":
		*s = White
	case "black", "Black", "b":
		*s = Black
	default:
		return fmt.Errorf("unknown side %q", b)
	}
	return nil
}

// Scale constants for NormalizedScore.
const (
	MateScore      = 100000 // magnitude of an immediate mate
	MaxMateMoves   = 1000   // longer mates are treated as this distance
	MaxFiniteScore = 50000  // finite scores are clamped to +/- this value
)

// Evaluation is an engine score from the perspective of the side to move.
// It is either a finite centipawn value or a forced mate.
type Evaluation struct {
	mate    bool
	cp      int
	moves   int  // mate distance in moves, >= 0
	winning bool // side to move delivers the mate
}

// Centipawns returns a finite evaluation.
func Centipawns(cp int) Evaluation {
	return Evaluation{cp: cp}
}

// MateIn returns a mate evaluation. n > 0: the side to move mates in n.
// n < 0: the side to move is mated in -n. n == 0: the side to move is
// already checkmated.
func MateIn(n int) Evaluation {
	if n > 0 {
		return Evaluation{mate: true, moves: n, winning: true}
	}
	return Evaluation{mate: true, moves: -n}
}

// IsMate reports whether e is a forced mate.
func (e Evaluation) IsMate() bool { return e.mate }

// CP returns the centipawn value of a finite evaluation (0 for mates).
func (e Evaluation) CP() int {
	if e.mate {
		return 0
	}
	return e.cp
}

// Mate returns the signed mate distance as an engine reports it:
// positive when the side to move mates, negative (or zero) when mated.
// ok is false for finite evaluations.
func (e Evaluation) Mate() (n int, ok bool) {
	if !e.mate {
		return 0, false
	}
	if e.winning {
		return e.moves, true
	}
	return -e.moves, true
}

// MatingIn returns the distance of a mate delivered by the side to move.
func (e Evaluation) MatingIn() (int, bool) {
	if e.mate && e.winning {
		return e.moves, true
	}
	return 0, false
}

// Negate returns the same evaluation from the other side's perspective.
func (e Evaluation) Negate() Evaluation {
	if e.mate {
		e.winning = !e.winning
		return e
	}
	e.cp = -e.cp
	return e
}

// Score collapses e onto a single ordered scale in the side-to-move
// perspective. Every mate outranks every finite score, and shorter mates
// outrank longer ones.
func (e Evaluation) Score() int {
	if !e.mate {
		return clamp(e.cp, -MaxFiniteScore, MaxFiniteScore)
	}
	magnitude := MateScore - min(e.moves, MaxMateMoves)
	if e.winning {
		return magnitude
	}
	return -magnitude
}

// String formats e like "+1.25", "-0.50", "#3" or "#-5".
func (e Evaluation) String() string {
	if n, ok := e.Mate(); ok {
		return "#" + strconv.Itoa(n)
	}
	cp := e.cp
	sign := "+"
	if cp < 0 {
		sign = "-"
		cp = -cp
	}
	return fmt.Sprintf("%s%d.%02d", sign, cp/100, cp%100)
}

// evaluationJSON is the wire form of an Evaluation.
type evaluationJSON struct {
	CP   *int `json:"cp,omitempty"`
	Mate *int `json:"mate,omitempty"`
}

func (e Evaluation) MarshalJSON() ([]byte, error) {
	var w evaluationJSON
	if n, ok := e.Mate(); ok {
		w.Mate = &n
	} else {
		cp := e.cp
		w.CP = &cp
	}
	return json.Marshal(w)
}

func (e *Evaluation) UnmarshalJSON(b []byte) error {
	var w evaluationJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch {
	case w.Mate != nil:
		*e = MateIn(*w.Mate)
	case w.CP != nil:
		*e = Centipawns(*w.CP)
	default:
		return fmt.Errorf("evaluation needs cp or mate")
	}
	return nil
}

// NormalizedScore is a Score expressed in White's perspective.
type NormalizedScore int

// Normalize converts an evaluation made with toMove to move into White's
// perspective.
func Normalize(e Evaluation, toMove Side) NormalizedScore {
	s := e.Score()
	if toMove == Black {
		s = -s
	}
	return NormalizedScore(s)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
