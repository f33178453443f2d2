// Package config loads postcraft settings from postcraft.yaml, POSTCRAFT_*
// environment variables and built-in defaults, in increasing order of
// precedence: defaults, file, environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/postcraft/internal/extractor"
	"github.com/valpere/postcraft/internal/generator"
	"github.com/valpere/postcraft/internal/loop"
	"github.com/valpere/postcraft/internal/quality"
	"github.com/valpere/postcraft/internal/translator"
)

const (
	EnvPrefix       = "POSTCRAFT"
	DefaultFileName = "postcraft"
	DefaultDBPath   = "./data/postcraft.db"
)

// Pipeline holds the refinement settings.
type Pipeline struct {
	MaxIterations     int           `mapstructure:"max_iterations" json:"max_iterations"`
	RegressionRetries int           `mapstructure:"regression_retries" json:"regression_retries"`
	StageTimeout      time.Duration `mapstructure:"stage_timeout" json:"stage_timeout"`
	// Near-duplicate warning threshold for finished posts; 0 disables it.
	DuplicateThreshold float64 `mapstructure:"duplicate_threshold" json:"duplicate_threshold"`

	quality.Thresholds `mapstructure:",squash"`
}

type Config struct {
	DBPath     string                   `mapstructure:"db_path" json:"db_path"`
	Generator  generator.Settings       `mapstructure:"generator" json:"generator"`
	Pipeline   Pipeline                 `mapstructure:"pipeline" json:"pipeline"`
	Extractor  extractor.Config         `mapstructure:"extractor" json:"extractor"`
	Translator translator.ServiceConfig `mapstructure:"translator" json:"translator"`
}

// SetDefaults registers every key so env overrides work without a file.
func SetDefaults(v *viper.Viper) {
	th := quality.DefaultThresholds()

	v.SetDefault("db_path", DefaultDBPath)

	v.SetDefault("generator.provider", "ollama")
	v.SetDefault("generator.model", "")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.base_url", "")
	v.SetDefault("generator.timeout", 120*time.Second)
	v.SetDefault("generator.max_attempts", 2)
	v.SetDefault("generator.retry_delay", time.Second)

	v.SetDefault("pipeline.max_iterations", loop.DefaultMaxIterations)
	v.SetDefault("pipeline.regression_retries", 1)
	v.SetDefault("pipeline.stage_timeout", 10*time.Minute)
	v.SetDefault("pipeline.duplicate_threshold", 0.9)
	v.SetDefault("pipeline.length_band.min", th.LengthBand.Min)
	v.SetDefault("pipeline.length_band.max", th.LengthBand.Max)
	v.SetDefault("pipeline.length_ceiling", th.LengthCeiling)
	v.SetDefault("pipeline.tag_band.min", th.TagBand.Min)
	v.SetDefault("pipeline.tag_band.max", th.TagBand.Max)
	v.SetDefault("pipeline.tag_ceiling", th.TagCeiling)
	v.SetDefault("pipeline.symbol_density_band.min", th.SymbolDensityBand.Min)
	v.SetDefault("pipeline.symbol_density_band.max", th.SymbolDensityBand.Max)

	v.SetDefault("extractor.timeout", extractor.DefaultTimeout)
	v.SetDefault("extractor.max_chars", extractor.DefaultMaxChars)
	v.SetDefault("extractor.user_agent", extractor.DefaultUserAgent)

	v.SetDefault("translator.service", "llm")
	v.SetDefault("translator.credentials", "")
	v.SetDefault("translator.email", "")
	v.SetDefault("translator.base_url", "")
	v.SetDefault("translator.timeout", 30*time.Second)
}

// New returns a viper instance with defaults, env binding and the config
// search path set up. An explicit path replaces the search.
func New(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		return v
	}
	v.SetConfigName(DefaultFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "postcraft"))
	}
	return v
}

// Load reads the configuration. A missing file is fine unless path was
// given explicitly.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Pipeline.MaxIterations < 1 {
		problems = append(problems, fmt.Sprintf("pipeline.max_iterations must be at least 1, got %d", c.Pipeline.MaxIterations))
	}
	if c.Pipeline.RegressionRetries < 0 {
		problems = append(problems, "pipeline.regression_retries must not be negative")
	}
	if c.Pipeline.DuplicateThreshold < 0 || c.Pipeline.DuplicateThreshold > 1 {
		problems = append(problems, "pipeline.duplicate_threshold must be within [0,1]")
	}
	if err := c.Pipeline.Thresholds.Validate(); err != nil {
		problems = append(problems, "pipeline: "+err.Error())
	}
	if c.Generator.MaxAttempts < 1 {
		problems = append(problems, "generator.max_attempts must be at least 1")
	}
	if c.Extractor.MaxChars < 1 {
		problems = append(problems, "extractor.max_chars must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
