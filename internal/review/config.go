package review

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("invalid review config")

// ConfigError reports a configuration value that was rejected.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// NumThresholds is the number of loss boundaries between the six base tags.
const NumThresholds = 5

// Config holds every tunable of the review pipeline. All scores are in
// centipawns from the mover's perspective.
type Config struct {
	// Upper CP loss bounds for best, excellent, good, inaccuracy and mistake.
	// Anything above the last one is a blunder.
	Thresholds []int `mapstructure:"thresholds" json:"thresholds"`

	SacrificeMaterial  int `mapstructure:"sacrifice_material" json:"sacrifice_material"`   // material drop that counts as a sacrifice
	BrilliantTolerance int `mapstructure:"brilliant_tolerance" json:"brilliant_tolerance"` // max CP loss for a brilliant move
	WinningScore       int `mapstructure:"winning_score" json:"winning_score"`             // pre-move score that counts as won
	DrawishScore       int `mapstructure:"drawish_score" json:"drawish_score"`             // post-move score that counts as thrown away
	MateSlack          int `mapstructure:"mate_slack" json:"mate_slack"`                   // extra mate moves tolerated before missed_mate

	KeyMomentCap int `mapstructure:"key_moment_cap" json:"key_moment_cap"`
	SwingWindow  int `mapstructure:"swing_window" json:"swing_window"` // largest-swing plies considered as key moments

	AccuracyHalfLife float64 `mapstructure:"accuracy_half_life" json:"accuracy_half_life"` // ACPL at which accuracy is 50
	AccuracyLossCap  int     `mapstructure:"accuracy_loss_cap" json:"accuracy_loss_cap"`   // per-ply loss cap used for ACPL

	ChartClamp int `mapstructure:"chart_clamp" json:"chart_clamp"` // clamp for chart scores
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Thresholds:         []int{10, 35, 80, 150, 350},
		SacrificeMaterial:  120,
		BrilliantTolerance: 20,
		WinningScore:       200,
		DrawishScore:       50,
		MateSlack:          0,
		KeyMomentCap:       10,
		SwingWindow:        5,
		AccuracyHalfLife:   200,
		AccuracyLossCap:    1000,
		ChartClamp:         1000,
	}
}

// Validate checks ordering and sign constraints.
func (c Config) Validate() error {
	if len(c.Thresholds) != NumThresholds {
		return &ConfigError{Field: "thresholds", Reason: fmt.Sprintf("need %d boundaries, got %d", NumThresholds, len(c.Thresholds))}
	}
	for i, t := range c.Thresholds {
		if t < 0 {
			return &ConfigError{Field: "thresholds", Reason: fmt.Sprintf("boundary %d is negative (%d)", i, t)}
		}
		if i > 0 && t <= c.Thresholds[i-1] {
			return &ConfigError{Field: "thresholds", Reason: fmt.Sprintf("boundaries must be strictly increasing (%d after %d)", t, c.Thresholds[i-1])}
		}
	}

	nonNegative := []struct {
		field string
		v     int
	}{
		{"sacrifice_material", c.SacrificeMaterial},
		{"brilliant_tolerance", c.BrilliantTolerance},
		{"mate_slack", c.MateSlack},
		{"key_moment_cap", c.KeyMomentCap},
		{"swing_window", c.SwingWindow},
		{"accuracy_loss_cap", c.AccuracyLossCap},
	}
	for _, f := range nonNegative {
		if f.v < 0 {
			return &ConfigError{Field: f.field, Reason: fmt.Sprintf("must not be negative (%d)", f.v)}
		}
	}

	if c.DrawishScore >= c.WinningScore {
		return &ConfigError{Field: "drawish_score", Reason: fmt.Sprintf("must be below winning_score (%d >= %d)", c.DrawishScore, c.WinningScore)}
	}
	if c.AccuracyHalfLife <= 0 {
		return &ConfigError{Field: "accuracy_half_life", Reason: "must be positive"}
	}
	if c.AccuracyLossCap == 0 {
		return &ConfigError{Field: "accuracy_loss_cap", Reason: "must be positive"}
	}
	if c.ChartClamp <= 0 {
		return &ConfigError{Field: "chart_clamp", Reason: "must be positive"}
	}
	return nil
}

func (c Config) clone() Config {
	c.Thresholds = append([]int(nil), c.Thresholds...)
	return c
}
