// Package review turns per-ply engine evaluations into move tags, accuracy
// scores and key moments.
//
// The package is pure: it never talks to an engine or parses move notation.
// Callers supply one PlyRecord per half-move and an Analyzer fills in the
// derived fields.
package review

// MoveTag grades a single move.
type MoveTag string

const (
	TagBest       MoveTag = "best"
	TagExcellent  MoveTag = "excellent"
	TagGood       MoveTag = "good"
	TagInaccuracy MoveTag = "inaccuracy"
	TagMistake    MoveTag = "mistake"
	TagBlunder    MoveTag = "blunder"
	TagBrilliant  MoveTag = "brilliant"
	TagMissedWin  MoveTag = "missed_win"
	TagMissedMate MoveTag = "missed_mate"
)

// baseTags are ordered by the loss thresholds that select them.
var baseTags = [NumThresholds + 1]MoveTag{
	TagBest, TagExcellent, TagGood, TagInaccuracy, TagMistake, TagBlunder,
}

// String returns the display label.
func (t MoveTag) String() string {
	switch t {
	case TagBest:
		return "Best"
	case TagExcellent:
		return "Excellent"
	case TagGood:
		return "Good"
	case TagInaccuracy:
		return "Inaccuracy"
	case TagMistake:
		return "Mistake"
	case TagBlunder:
		return "Blunder"
	case TagBrilliant:
		return "Brilliant"
	case TagMissedWin:
		return "Missed Win"
	case TagMissedMate:
		return "Missed Mate"
	default:
		return string(t)
	}
}

// IsError reports whether t marks a move worth revisiting as a key moment.
func (t MoveTag) IsError() bool {
	switch t {
	case TagMistake, TagBlunder, TagMissedWin, TagMissedMate:
		return true
	}
	return false
}

// WarningCode classifies a non-fatal data problem.
type WarningCode string

const (
	WarnMissingBestAlternative WarningCode = "missing_best_alternative"
	WarnMissingPV              WarningCode = "missing_pv"
)

// Warning is a per-ply annotation about incomplete input.
type Warning struct {
	Ply     int         `json:"ply"`
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// PlyRecord is one played half-move.
type PlyRecord struct {
	Ply  int    `json:"ply"`  // 1-based
	Side Side   `json:"side"` // side that played the move
	Move string `json:"move"` // opaque move token, compared verbatim with BestMove

	EvalBefore      Evaluation  `json:"eval_before"`                // before the move, mover POV
	EvalAfter       Evaluation  `json:"eval_after"`                 // after the move, side-to-move (opponent) POV
	BestAlternative *Evaluation `json:"best_alternative,omitempty"` // engine's best line, mover POV
	BestMove        string      `json:"best_move,omitempty"`        // engine's top choice, same notation as Move
	PV              []string    `json:"pv,omitempty"`
	MaterialDelta   int         `json:"material_delta"` // material change caused by the move, mover POV

	// Derived by the Analyzer.
	CPLoss      int             `json:"cp_loss"`
	Swing       int             `json:"swing"`
	ScoreBefore NormalizedScore `json:"score_before"`
	ScoreAfter  NormalizedScore `json:"score_after"`
	ChartBefore int             `json:"chart_before"`
	ChartAfter  int             `json:"chart_after"`
	Tag         MoveTag         `json:"tag"`
	Warnings    []Warning       `json:"warnings,omitempty"`
}

// AfterMoverPOV returns EvalAfter seen by the side that moved.
func (p *PlyRecord) AfterMoverPOV() Evaluation {
	return p.EvalAfter.Negate()
}

// IsEngineChoice reports whether the played move is the engine's top choice.
func (p *PlyRecord) IsEngineChoice() bool {
	return p.BestMove != "" && p.BestMove == p.Move
}

// Reason explains why a ply was picked as a key moment.
type Reason string

const (
	ReasonLargestSwing Reason = "largest_swing"
	ReasonMistake      Reason = "mistake"
	ReasonBlunder      Reason = "blunder"
	ReasonMissedWin    Reason = "missed_win"
	ReasonMissedMate   Reason = "missed_mate"
)

// Severity orders reasons; higher is worse.
func (r Reason) Severity() int {
	switch r {
	case ReasonBlunder, ReasonMissedMate:
		return 3
	case ReasonMistake, ReasonMissedWin:
		return 2
	case ReasonLargestSwing:
		return 1
	}
	return 0
}

// KeyMoment references a game-changing ply.
type KeyMoment struct {
	Rank   int     `json:"rank"` // 1-based
	Ply    int     `json:"ply"`
	Side   Side    `json:"side"`
	Move   string  `json:"move"`
	Tag    MoveTag `json:"tag"`
	Swing  int     `json:"swing"`
	CPLoss int     `json:"cp_loss"`
	Reason Reason  `json:"reason"`
}

// AccuracyScore summarises one side's play. ACPL averages each ply's loss
// capped at Config.AccuracyLossCap and drives Accuracy; RawACPL is the plain
// mean of the uncapped losses.
type AccuracyScore struct {
	Side     Side    `json:"side"`
	Moves    int     `json:"moves"`
	ACPL     float64 `json:"acpl"`
	RawACPL  float64 `json:"raw_acpl"`
	Accuracy float64 `json:"accuracy"` // 0-100
}

// GameReview is the output of Analyzer.Review.
type GameReview struct {
	Plies      []PlyRecord    `json:"plies"`
	KeyMoments []KeyMoment    `json:"key_moments"`
	White      *AccuracyScore `json:"white,omitempty"` // nil when White made no moves
	Black      *AccuracyScore `json:"black,omitempty"`
	Warnings   []Warning      `json:"warnings,omitempty"`
}

// TagCounts tallies tags per side.
func (r *GameReview) TagCounts(side Side) map[MoveTag]int {
	counts := make(map[MoveTag]int)
	for i := range r.Plies {
		if r.Plies[i].Side == side {
			counts[r.Plies[i].Tag]++
		}
	}
	return counts
}
