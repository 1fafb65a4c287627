package review

// Accuracy aggregates one side's plies. It returns nil when side has no
// moves in plies. lossCap bounds each ply's contribution to the average and
// halfLife is the ACPL that maps to 50.
func Accuracy(plies []PlyRecord, side Side, lossCap int, halfLife float64) *AccuracyScore {
	var total, raw, n int
	for i := range plies {
		if plies[i].Side != side {
			continue
		}
		total += min(plies[i].CPLoss, lossCap)
		raw += plies[i].CPLoss
		n++
	}
	if n == 0 {
		return nil
	}

	acpl := float64(total) / float64(n)
	return &AccuracyScore{
		Side:     side,
		Moves:    n,
		ACPL:     acpl,
		RawACPL:  float64(raw) / float64(n),
		Accuracy: AccuracyFromACPL(acpl, halfLife),
	}
}

// AccuracyFromACPL maps an average centipawn loss onto (0, 100]. The curve is
// 100 at zero loss, strictly decreasing, and approaches 0 as the loss grows.
func AccuracyFromACPL(acpl, halfLife float64) float64 {
	if acpl <= 0 {
		return 100
	}
	return 100 * halfLife / (acpl + halfLife)
}
