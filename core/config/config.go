// Package config loads topicalmap settings from defaults, an optional
// YAML or TOML file, and TOPICALMAP_* environment variables, in that order
// of precedence.
package config

import (
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/adalundhe/topicalmap/core/pagerank"
	"github.com/adalundhe/topicalmap/core/planner"
	"github.com/adalundhe/topicalmap/core/storage"
)

const (
	EnvPrefix = "TOPICALMAP"

	// LaunchDateLayout is the accepted format of planner.launch_date.
	LaunchDateLayout = "2006-01-02"
)

type Config struct {
	Graph    GraphConfig      `mapstructure:"graph" json:"graph" yaml:"graph"`
	PageRank pagerank.Options `mapstructure:"pagerank" json:"pagerank" yaml:"pagerank"`
	Planner  PlannerConfig    `mapstructure:"planner" json:"planner" yaml:"planner"`
	Store    StoreConfig      `mapstructure:"store" json:"store" yaml:"store"`
	Log      LogConfig        `mapstructure:"log" json:"log" yaml:"log"`
}

type GraphConfig struct {
	// CacheSize bounds the semantic distance cache. Zero disables it.
	CacheSize int `mapstructure:"cache_size" json:"cacheSize" yaml:"cache_size"`
}

type PlannerConfig struct {
	Phase1MinTopics int              `mapstructure:"phase1_min_topics" json:"phase1MinTopics" yaml:"phase1_min_topics"`
	Phase1MaxTopics int              `mapstructure:"phase1_max_topics" json:"phase1MaxTopics" yaml:"phase1_max_topics"`
	Phase2Rate      planner.RateBand `mapstructure:"phase2_rate" json:"phase2Rate" yaml:"phase2_rate"`
	Phase3Rate      planner.RateBand `mapstructure:"phase3_rate" json:"phase3Rate" yaml:"phase3_rate"`
	Phase4Rate      planner.RateBand `mapstructure:"phase4_rate" json:"phase4Rate" yaml:"phase4_rate"`
	// LaunchDate is YYYY-MM-DD. Empty means the day the plan is generated.
	LaunchDate string `mapstructure:"launch_date" json:"launchDate" yaml:"launch_date"`
	Seed       uint64 `mapstructure:"seed" json:"seed" yaml:"seed"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level" json:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" json:"json" yaml:"json"`
}

// SetDefaults registers every key with its default. Environment overrides
// only apply to registered keys.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("graph.cache_size", 4096)

	pr := pagerank.DefaultOptions()
	v.SetDefault("pagerank.damping", pr.Damping)
	v.SetDefault("pagerank.max_iterations", pr.MaxIterations)
	v.SetDefault("pagerank.convergence_threshold", pr.ConvergenceThreshold)

	pl := planner.DefaultConfig()
	v.SetDefault("planner.phase1_min_topics", pl.Phase1MinTopics)
	v.SetDefault("planner.phase1_max_topics", pl.Phase1MaxTopics)
	v.SetDefault("planner.phase2_rate.min", pl.Phase2Rate.Min)
	v.SetDefault("planner.phase2_rate.max", pl.Phase2Rate.Max)
	v.SetDefault("planner.phase3_rate.min", pl.Phase3Rate.Min)
	v.SetDefault("planner.phase3_rate.max", pl.Phase3Rate.Max)
	v.SetDefault("planner.phase4_rate.min", pl.Phase4Rate.Min)
	v.SetDefault("planner.phase4_rate.max", pl.Phase4Rate.Max)
	v.SetDefault("planner.launch_date", "")
	v.SetDefault("planner.seed", pl.Seed)

	v.SetDefault("store.path", storage.DatabasePath())

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// newViper returns a viper instance with defaults and env binding but no
// config file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// DefaultConfig returns the configuration with no file and no environment.
func DefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks ranges across all sections.
func (c *Config) Validate() error {
	var problems []string

	if c.Graph.CacheSize < 0 {
		problems = append(problems, "graph.cache_size must not be negative")
	}
	if c.PageRank.Damping <= 0 || c.PageRank.Damping >= 1 || math.IsNaN(c.PageRank.Damping) {
		problems = append(problems, "pagerank.damping must be in (0,1)")
	}
	if c.PageRank.MaxIterations < 1 {
		problems = append(problems, "pagerank.max_iterations must be at least 1")
	}
	if c.PageRank.ConvergenceThreshold <= 0 {
		problems = append(problems, "pagerank.convergence_threshold must be positive")
	}
	if _, err := c.Planner.Build(); err != nil {
		problems = append(problems, err.Error())
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		problems = append(problems, "store.path must not be empty")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, "log.level must be one of debug, info, warn, error")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.WithHint(
		errors.Mark(errors.Newf("%s", strings.Join(problems, "; ")), ErrInvalidConfig),
		"check the config file and TOPICALMAP_* environment variables",
	)
}

// Build converts the planner section into a planner.Config and validates
// it.
func (p PlannerConfig) Build() (planner.Config, error) {
	cfg := planner.Config{
		Phase1MinTopics: p.Phase1MinTopics,
		Phase1MaxTopics: p.Phase1MaxTopics,
		Phase2Rate:      p.Phase2Rate,
		Phase3Rate:      p.Phase3Rate,
		Phase4Rate:      p.Phase4Rate,
		Seed:            p.Seed,
	}
	if p.LaunchDate != "" {
		launch, err := time.Parse(LaunchDateLayout, p.LaunchDate)
		if err != nil {
			return planner.Config{}, errors.Wrapf(err, "planner.launch_date %q", p.LaunchDate)
		}
		cfg.BatchLaunchDate = launch
	}
	if err := cfg.Validate(); err != nil {
		return planner.Config{}, err
	}
	return cfg, nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encode config")
	}
	return out, nil
}
