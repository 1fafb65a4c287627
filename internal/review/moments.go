package review

import "sort"

var tagReasons = map[MoveTag]Reason{
	TagBlunder:    ReasonBlunder,
	TagMissedMate: ReasonMissedMate,
	TagMistake:    ReasonMistake,
	TagMissedWin:  ReasonMissedWin,
}

// reasonForTag maps error tags to their key-moment reason.
func reasonForTag(t MoveTag) (Reason, bool) {
	if !t.IsError() {
		return "", false
	}
	r, ok := tagReasons[t]
	return r, ok
}

// SelectKeyMoments picks at most limit plies: every error-tagged ply plus the
// swingWindow plies with the largest non-zero absolute swing. Each ply
// appears once, with its most severe reason. The plies must already be
// classified.
func SelectKeyMoments(plies []PlyRecord, limit, swingWindow int) []KeyMoment {
	moments := make([]KeyMoment, 0)
	if len(plies) == 0 || limit <= 0 {
		return moments
	}

	byPly := make(map[int]int) // ply index -> position in moments
	add := func(p *PlyRecord, r Reason) {
		if at, ok := byPly[p.Ply]; ok {
			if r.Severity() > moments[at].Reason.Severity() {
				moments[at].Reason = r
			}
			return
		}
		byPly[p.Ply] = len(moments)
		moments = append(moments, KeyMoment{
			Ply:    p.Ply,
			Side:   p.Side,
			Move:   p.Move,
			Tag:    p.Tag,
			Swing:  p.Swing,
			CPLoss: p.CPLoss,
			Reason: r,
		})
	}

	for i := range plies {
		if r, ok := reasonForTag(plies[i].Tag); ok {
			add(&plies[i], r)
		}
	}

	if swingWindow > 0 {
		order := make([]int, 0, len(plies))
		for i := range plies {
			if plies[i].Swing != 0 {
				order = append(order, i)
			}
		}
		sort.SliceStable(order, func(a, b int) bool {
			sa, sb := abs(plies[order[a]].Swing), abs(plies[order[b]].Swing)
			if sa != sb {
				return sa > sb
			}
			return plies[order[a]].Ply < plies[order[b]].Ply
		})
		for _, i := range order[:min(swingWindow, len(order))] {
			add(&plies[i], ReasonLargestSwing)
		}
	}

	sort.Slice(moments, func(a, b int) bool {
		ma, mb := moments[a], moments[b]
		if sa, sb := ma.Reason.Severity(), mb.Reason.Severity(); sa != sb {
			return sa > sb
		}
		if sa, sb := abs(ma.Swing), abs(mb.Swing); sa != sb {
			return sa > sb
		}
		return ma.Ply < mb.Ply
	})

	if len(moments) > limit {
		moments = moments[:limit]
	}
	for i := range moments {
		moments[i].Rank = i + 1
	}
	return moments
}
