package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Distribution views
	BinPolicy   string `mapstructure:"bin_policy" yaml:"bin_policy"`
	SturgesCap  int    `mapstructure:"sturges_cap" yaml:"sturges_cap"`
	ScaleMethod string `mapstructure:"scale_method" yaml:"scale_method"`

	// Percentile views
	Percentiles      []float64 `mapstructure:"percentiles" yaml:"percentiles"`
	NeighborhoodSize int       `mapstructure:"neighborhood_size" yaml:"neighborhood_size"`

	// Scatter reduction thresholds
	DedupTolerance    float64 `mapstructure:"dedup_tolerance" yaml:"dedup_tolerance"`
	LTTBHighThreshold int     `mapstructure:"lttb_high_threshold" yaml:"lttb_high_threshold"`
	LTTBHighTarget    int     `mapstructure:"lttb_high_target" yaml:"lttb_high_target"`
	LTTBMidThreshold  int     `mapstructure:"lttb_mid_threshold" yaml:"lttb_mid_threshold"`
	LTTBMidTarget     int     `mapstructure:"lttb_mid_target" yaml:"lttb_mid_target"`
	DedupThreshold    int     `mapstructure:"dedup_threshold" yaml:"dedup_threshold"`
	DedupTarget       int     `mapstructure:"dedup_target" yaml:"dedup_target"`
	SampleSeed        int64   `mapstructure:"sample_seed" yaml:"sample_seed"`

	// Execution shell
	SyncThreshold           int     `mapstructure:"sync_threshold" yaml:"sync_threshold"`
	BackgroundEnabled       bool    `mapstructure:"background_enabled" yaml:"background_enabled"`
	BackgroundWorkers       int     `mapstructure:"background_workers" yaml:"background_workers"`
	BackgroundTimeoutSec    int     `mapstructure:"background_timeout_sec" yaml:"background_timeout_sec"`
	ProgressiveEnabled      bool    `mapstructure:"progressive_enabled" yaml:"progressive_enabled"`
	ProgressiveInitialBatch int     `mapstructure:"progressive_initial_batch" yaml:"progressive_initial_batch"`
	ProgressiveGrowth       float64 `mapstructure:"progressive_growth" yaml:"progressive_growth"`
	ProgressiveIntervalMs   int     `mapstructure:"progressive_interval_ms" yaml:"progressive_interval_ms"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogOutput string `mapstructure:"log_output" yaml:"log_output"`
}

// LoggingConfig is the subset of Global consumed by the logger package.
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// Logging returns the logging section of the configuration.
func (c *Global) Logging() *LoggingConfig {
	return &LoggingConfig{Level: c.LogLevel, Format: c.LogFormat, Output: c.LogOutput}
}

// BackgroundTimeout returns the per-call timeout for offloaded computations.
func (c *Global) BackgroundTimeout() time.Duration {
	if c.BackgroundTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.BackgroundTimeoutSec) * time.Second
}

// ProgressiveInterval returns the reveal cadence for progressive results.
func (c *Global) ProgressiveInterval() time.Duration {
	if c.ProgressiveIntervalMs <= 0 {
		return 16 * time.Millisecond
	}
	return time.Duration(c.ProgressiveIntervalMs) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bin_policy", "sturges")
	v.SetDefault("sturges_cap", 20)
	v.SetDefault("scale_method", "none")
	v.SetDefault("percentiles", []float64{10, 90})
	v.SetDefault("neighborhood_size", 10)
	// Reduction defaults
	v.SetDefault("dedup_tolerance", 1.0)
	v.SetDefault("lttb_high_threshold", 10000)
	v.SetDefault("lttb_high_target", 1500)
	v.SetDefault("lttb_mid_threshold", 5000)
	v.SetDefault("lttb_mid_target", 2000)
	v.SetDefault("dedup_threshold", 2000)
	v.SetDefault("dedup_target", 2000)
	v.SetDefault("sample_seed", 1)
	// Shell defaults
	v.SetDefault("sync_threshold", 2000)
	v.SetDefault("background_enabled", true)
	v.SetDefault("background_workers", 2)
	v.SetDefault("background_timeout_sec", 30)
	v.SetDefault("progressive_enabled", false)
	v.SetDefault("progressive_initial_batch", 100)
	v.SetDefault("progressive_growth", 1.5)
	v.SetDefault("progressive_interval_ms", 16)
	// Logging defaults
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_output", "stderr")
}

// Default returns the built-in configuration without reading files or env.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	// Defaults always decode.
	_ = v.Unmarshal(&c)
	return &c
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.repostats/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
// A .env file in the working directory is applied to the environment first.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("REPOSTATS")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no component can run with.
func (c *Global) Validate() error {
	switch {
	case c.DedupTolerance < 0:
		return fmt.Errorf("dedup_tolerance must be >= 0, got %v", c.DedupTolerance)
	case c.LTTBHighTarget < 3 || c.LTTBMidTarget < 3:
		return fmt.Errorf("lttb targets must be >= 3 (high=%d, mid=%d)", c.LTTBHighTarget, c.LTTBMidTarget)
	case c.DedupTarget <= 0:
		return fmt.Errorf("dedup_target must be > 0, got %d", c.DedupTarget)
	case c.SturgesCap != 20 && c.SturgesCap != 30:
		return fmt.Errorf("sturges_cap must be 20 or 30, got %d", c.SturgesCap)
	case c.ProgressiveGrowth < 1:
		return fmt.Errorf("progressive_growth must be >= 1, got %v", c.ProgressiveGrowth)
	}
	for _, p := range c.Percentiles {
		if p < 0 || p > 100 {
			return fmt.Errorf("percentile out of range [0,100]: %v", p)
		}
	}
	return nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".repostats"), nil
}
