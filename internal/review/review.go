package review

// Analyzer runs the whole review pipeline with one validated configuration.
// An Analyzer is immutable and may be shared between goroutines.
type Analyzer struct {
	cfg Config
	cls *Classifier
}

// NewAnalyzer validates cfg. Invalid configuration is rejected here, before
// any ply is looked at.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	cls, err := NewClassifier(cfg)
	if err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cls.cfg, cls: cls}, nil
}

// Config returns a copy of the active configuration.
func (a *Analyzer) Config() Config {
	return a.cfg.clone()
}

// Review fills in the derived fields of every ply (in place) and then
// aggregates key moments and per-side accuracy. plies must be in game order.
func (a *Analyzer) Review(plies []PlyRecord) *GameReview {
	r := &GameReview{Plies: plies}

	for i := range plies {
		a.enrich(&plies[i])
		r.Warnings = append(r.Warnings, plies[i].Warnings...)
	}

	// Aggregation needs every ply classified first.
	r.KeyMoments = SelectKeyMoments(plies, a.cfg.KeyMomentCap, a.cfg.SwingWindow)
	r.White = Accuracy(plies, White, a.cfg.AccuracyLossCap, a.cfg.AccuracyHalfLife)
	r.Black = Accuracy(plies, Black, a.cfg.AccuracyLossCap, a.cfg.AccuracyHalfLife)
	return r
}

func (a *Analyzer) enrich(p *PlyRecord) {
	as := a.cls.assess(p)
	p.CPLoss = as.metrics.CPLoss
	p.Swing = as.metrics.Swing
	p.ScoreBefore = as.metrics.ScoreBefore
	p.ScoreAfter = as.metrics.ScoreAfter
	p.ChartBefore = clamp(int(as.metrics.ScoreBefore), -a.cfg.ChartClamp, a.cfg.ChartClamp)
	p.ChartAfter = clamp(int(as.metrics.ScoreAfter), -a.cfg.ChartClamp, a.cfg.ChartClamp)
	p.Tag = as.tag
	p.Warnings = as.warnings
}
