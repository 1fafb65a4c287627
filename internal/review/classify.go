package review

import "fmt"

// Classifier maps a ply to a MoveTag. It holds no state besides its
// configuration and is safe for concurrent use.
type Classifier struct {
	cfg Config
}

// NewClassifier validates cfg and returns a Classifier.
func NewClassifier(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg.clone()}, nil
}

// assessment is everything derived from one ply's raw inputs.
type assessment struct {
	metrics  Metrics
	tag      MoveTag
	warnings []Warning
}

// Classify returns the tag for p. Only the raw input fields of p are read.
func (c *Classifier) Classify(p *PlyRecord) MoveTag {
	return c.assess(p).tag
}

// BaseTag thresholds a CP loss. It ignores every override.
func (c *Classifier) BaseTag(cpLoss int) MoveTag {
	for i, bound := range c.cfg.Thresholds {
		if cpLoss <= bound {
			return baseTags[i]
		}
	}
	return TagBlunder
}

func (c *Classifier) assess(p *PlyRecord) assessment {
	var a assessment

	after := p.AfterMoverPOV()
	reference := p.EvalBefore
	hasBest := p.BestAlternative != nil
	if hasBest {
		reference = *p.BestAlternative
	} else {
		a.warnings = append(a.warnings, Warning{
			Ply:     p.Ply,
			Code:    WarnMissingBestAlternative,
			Message: "no engine best line; loss measured against the pre-move evaluation",
		})
	}
	if len(p.PV) == 0 {
		a.warnings = append(a.warnings, Warning{
			Ply:     p.Ply,
			Code:    WarnMissingPV,
			Message: fmt.Sprintf("no principal variation for ply %d", p.Ply),
		})
	}

	a.metrics = ComputeMetrics(p.EvalBefore, after, reference, p.Side)

	base := c.BaseTag(a.metrics.CPLoss)
	if p.IsEngineChoice() {
		// The engine's own move loses nothing, whatever the next search says.
		a.metrics.CPLoss = 0
		base = TagBest
	}
	a.tag = base

	// Without the best line the overrides have nothing trustworthy to
	// compare against.
	if !hasBest {
		return a
	}

	switch {
	case c.missedMate(p, reference, after):
		a.tag = TagMissedMate
	case c.missedWin(p, reference, after):
		a.tag = TagMissedWin
	case c.brilliant(p, base, a.metrics.CPLoss):
		a.tag = TagBrilliant
	}
	return a
}

// missedMate: a forced mate was on the board and the move neither delivered
// it nor kept one at least as short.
func (c *Classifier) missedMate(p *PlyRecord, reference, after Evaluation) bool {
	had, ok := reference.MatingIn()
	if !ok || p.IsEngineChoice() {
		return false
	}
	kept, ok := after.MatingIn()
	return !ok || kept > had+c.cfg.MateSlack
}

// missedWin: a won position was handed back toward equality.
func (c *Classifier) missedWin(p *PlyRecord, reference, after Evaluation) bool {
	if p.IsEngineChoice() {
		return false
	}
	return reference.Score() > c.cfg.WinningScore && after.Score() <= c.cfg.DrawishScore
}

// brilliant: material was given up and the engine agrees it costs nothing.
func (c *Classifier) brilliant(p *PlyRecord, base MoveTag, cpLoss int) bool {
	if base != TagBest && base != TagExcellent {
		return false
	}
	if p.MaterialDelta >= 0 || -p.MaterialDelta < c.cfg.SacrificeMaterial {
		return false
	}
	return cpLoss <= c.cfg.BrilliantTolerance
}
