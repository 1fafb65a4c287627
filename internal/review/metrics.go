package review

// Metrics are the raw numbers derived for one ply.
type Metrics struct {
	CPLoss      int             // shortfall against the best line, never negative
	Swing       int             // White-POV change across the ply
	ScoreBefore NormalizedScore // White POV
	ScoreAfter  NormalizedScore // White POV
}

// ComputeMetrics derives loss and swing. before, after and best are all in
// the perspective of mover; after must already be flipped back from the
// opponent's point of view.
func ComputeMetrics(before, after, best Evaluation, mover Side) Metrics {
	loss := best.Score() - after.Score()
	if loss < 0 {
		loss = 0
	}

	// Both positions are scored as if mover were to move, so Normalize with
	// mover puts them on White's scale.
	sb := Normalize(before, mover)
	sa := Normalize(after, mover)

	return Metrics{
		CPLoss:      loss,
		Swing:       int(sa - sb),
		ScoreBefore: sb,
		ScoreAfter:  sa,
	}
}
