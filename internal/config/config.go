// Package config loads service settings from a file and CHESSREVIEW_*
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/freeeve/chessreview/internal/review"
)

type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Review  review.Config `mapstructure:"review"`
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Opening OpeningConfig `mapstructure:"opening"`
}

type EngineConfig struct {
	Path    string `mapstructure:"path"` // empty: STOCKFISH_PATH, then PATH
	Depth   int    `mapstructure:"depth"`
	Threads int    `mapstructure:"threads"`
	HashMB  int    `mapstructure:"hash_mb"`
	MultiPV int    `mapstructure:"multipv"`
}

type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	MaxReviews int    `mapstructure:"max_reviews"` // reviews kept in memory
	CORSOrigin string `mapstructure:"cors_origin"`
	MaxBodyKB  int    `mapstructure:"max_body_kb"`
}

type CacheConfig struct {
	Path string `mapstructure:"path"` // eval cache CSV, .gz or .zst; empty disables persistence
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

type IngestConfig struct {
	WatchDir     string        `mapstructure:"watch_dir"` // empty disables the worker
	OutputDir    string        `mapstructure:"output_dir"`
	Workers      int           `mapstructure:"workers"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type OpeningConfig struct {
	Dir string `mapstructure:"dir"` // directory of ECO .tsv files
}

func setDefaults(v *viper.Viper) {
	rc := review.DefaultConfig()
	v.SetDefault("review.thresholds", rc.Thresholds)
	v.SetDefault("review.sacrifice_material", rc.SacrificeMaterial)
	v.SetDefault("review.brilliant_tolerance", rc.BrilliantTolerance)
	v.SetDefault("review.winning_score", rc.WinningScore)
	v.SetDefault("review.drawish_score", rc.DrawishScore)
	v.SetDefault("review.mate_slack", rc.MateSlack)
	v.SetDefault("review.key_moment_cap", rc.KeyMomentCap)
	v.SetDefault("review.swing_window", rc.SwingWindow)
	v.SetDefault("review.accuracy_half_life", rc.AccuracyHalfLife)
	v.SetDefault("review.accuracy_loss_cap", rc.AccuracyLossCap)
	v.SetDefault("review.chart_clamp", rc.ChartClamp)

	v.SetDefault("engine.path", "")
	v.SetDefault("engine.depth", 14)
	v.SetDefault("engine.threads", 1)
	v.SetDefault("engine.hash_mb", 64)
	v.SetDefault("engine.multipv", 3)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_reviews", 256)
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.max_body_kb", 512)

	v.SetDefault("cache.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("ingest.watch_dir", "")
	v.SetDefault("ingest.output_dir", "")
	v.SetDefault("ingest.workers", 2)
	v.SetDefault("ingest.poll_interval", 10*time.Second)

	v.SetDefault("opening.dir", "")
}

// Load reads path (any format viper understands) on top of the defaults.
// An empty path loads defaults and environment only. The review section is
// validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CHESSREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Review.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
