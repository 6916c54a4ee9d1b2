// Package config loads the quill host configuration from TOML.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mgomes/quill/coverage"
	"github.com/mgomes/quill/quill"
)

// EnvVar names the environment variable Discover consults first.
const EnvVar = "QUILL_CONFIG"

// DefaultPath is where Discover looks when EnvVar is unset.
const DefaultPath = "./quill.toml"

type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Coverage CoverageConfig `toml:"coverage"`
	Log      LogConfig      `toml:"log"`
}

type EngineConfig struct {
	StepQuota      int      `toml:"step_quota"`
	RecursionLimit int      `toml:"recursion_limit"`
	MaxArrayLength int      `toml:"max_array_length"`
	Timeout        Duration `toml:"timeout"`
}

type CoverageConfig struct {
	ExcludeAttribute string   `toml:"exclude_attribute"`
	Output           string   `toml:"output"`
	History          string   `toml:"history"`
	Retention        Duration `toml:"retention"`
	MinPercentage    int      `toml:"min_percentage"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration wraps time.Duration for text decoding.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load parses the TOML file at path. Environment references in the path
// and in string values are expanded.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %s in %s", undecoded[0], path)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Discover loads $QUILL_CONFIG or ./quill.toml, falling back to Default
// when neither exists.
func Discover() (*Config, error) {
	if path := os.Getenv(EnvVar); path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return Load(DefaultPath)
	}
	return Default(), nil
}

func (c *Config) applyDefaults() {
	if c.Engine.RecursionLimit == 0 {
		c.Engine.RecursionLimit = 256
	}
	if c.Engine.MaxArrayLength == 0 {
		c.Engine.MaxArrayLength = quill.DefaultMaxArrayLength
	}

	if c.Coverage.ExcludeAttribute == "" {
		c.Coverage.ExcludeAttribute = coverage.DefaultExcludeAttribute
	}
	if c.Coverage.Retention.Duration == 0 {
		c.Coverage.Retention.Duration = 30 * 24 * time.Hour
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) expandEnvVars() {
	c.Coverage.Output = os.ExpandEnv(c.Coverage.Output)
	c.Coverage.History = os.ExpandEnv(c.Coverage.History)
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	if c.Engine.StepQuota < 0 {
		return fmt.Errorf("engine.step_quota cannot be negative")
	}
	if c.Engine.RecursionLimit < 0 {
		return fmt.Errorf("engine.recursion_limit cannot be negative")
	}
	if c.Engine.MaxArrayLength < 0 {
		return fmt.Errorf("engine.max_array_length cannot be negative")
	}
	if c.Coverage.MinPercentage < 0 || c.Coverage.MinPercentage > 100 {
		return fmt.Errorf("coverage.min_percentage must be between 0 and 100")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// EngineConfig converts the [engine] table for quill.NewEngine.
func (c *Config) EngineConfig(logger *slog.Logger) quill.Config {
	return quill.Config{
		StepQuota:      c.Engine.StepQuota,
		RecursionLimit: c.Engine.RecursionLimit,
		MaxArrayLength: c.Engine.MaxArrayLength,
		Logger:         logger,
	}
}

// NewLogger builds a slog logger from the [log] table. verbose forces debug.
func (c *Config) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil || verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", name)
	}
}
