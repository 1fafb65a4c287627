package review

// RetryInput describes a user's alternative move at a reviewed position.
type RetryInput struct {
	Ply           int         `json:"ply"`
	Side          Side        `json:"side"`
	Move          string      `json:"move"`
	Before        Evaluation  `json:"before"`                // position before the move, mover POV
	Result        Evaluation  `json:"result"`                // after the user's move, side-to-move (opponent) POV
	EngineBest    *Evaluation `json:"engine_best,omitempty"` // best line at the position, mover POV
	BestMove      string      `json:"best_move,omitempty"`
	PV            []string    `json:"pv,omitempty"`
	MaterialDelta int         `json:"material_delta"` // material change caused by the user's move, mover POV
}

// RetryResult grades a retried move.
type RetryResult struct {
	Move     string    `json:"move"`
	CPLoss   int       `json:"cp_loss"`
	Swing    int       `json:"swing"`
	Tag      MoveTag   `json:"tag"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// CompareRetry grades an alternative move on its own resulting position.
// Nothing from the game's original ply is consulted.
func (a *Analyzer) CompareRetry(in RetryInput) RetryResult {
	p := PlyRecord{
		Ply:             in.Ply,
		Side:            in.Side,
		Move:            in.Move,
		EvalBefore:      in.Before,
		EvalAfter:       in.Result,
		BestAlternative: in.EngineBest,
		BestMove:        in.BestMove,
		PV:              in.PV,
		MaterialDelta:   in.MaterialDelta,
	}
	a.enrich(&p)
	return RetryResult{
		Move:     p.Move,
		CPLoss:   p.CPLoss,
		Swing:    p.Swing,
		Tag:      p.Tag,
		Warnings: p.Warnings,
	}
}
