// Package config provides CLI configuration management for the entitime
// command-line tool. It supports loading configuration from a YAML file,
// environment variables, and command-line flags, in that order of
// precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/entitime/pkg/matching"
	"github.com/otherjamesbrown/entitime/pkg/privateai"
	"github.com/otherjamesbrown/entitime/pkg/scoring"
)

// Default configuration values.
const (
	DefaultConfigDir  = ".entitime"
	DefaultConfigFile = "config.yaml"
)

// Environment variable overrides.
const (
	EnvAPIEndpoint = "ENTITIME_API_ENDPOINT"
	EnvAPITimeout  = "ENTITIME_API_TIMEOUT"
	EnvLogLevel    = "ENTITIME_LOG_LEVEL"
	EnvLogFormat   = "ENTITIME_LOG_FORMAT"
)

// MatchConfig holds entity matcher settings.
type MatchConfig struct {
	// Threshold is the minimum similarity score for accepting a match.
	Threshold float64 `yaml:"threshold"`

	// PositionTolerance bounds the position similarity component
	// (normalized 0-100 timeline units).
	PositionTolerance int `yaml:"position_tolerance"`

	// Weights blends the similarity components. The default scores on text
	// alone; sentence/phonetic/position weights are opt-in for noisy ASR
	// timelines.
	Weights matching.Weights `yaml:"weights"`
}

// ScoringConfig holds statistics aggregator settings.
type ScoringConfig struct {
	// Averaging is "micro" or "macro".
	Averaging string `yaml:"averaging"`

	// EntityErrorWeight re-weights word errors inside entity spans when
	// computing the entity-aware WER. 1.0 reduces to the plain WER.
	EntityErrorWeight float64 `yaml:"entity_error_weight"`
}

// APIConfig holds extraction API settings. The API key itself lives in the
// credential store, never in the config file.
type APIConfig struct {
	// Endpoint is the text-processing URL.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds each extraction request.
	Timeout time.Duration `yaml:"timeout"`
}

// CLIConfig is the full CLI configuration.
type CLIConfig struct {
	// EntityTypes is the recognized entity type set.
	EntityTypes []string `yaml:"entity_types"`

	Match   MatchConfig   `yaml:"match"`
	Scoring ScoringConfig `yaml:"scoring"`
	API     APIConfig     `yaml:"api"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		EntityTypes: []string{"NAME", "ORGANIZATION"},
		Match: MatchConfig{
			Threshold:         matching.DefaultThreshold,
			PositionTolerance: matching.DefaultPositionTolerance,
			Weights:           matching.DefaultWeights(),
		},
		Scoring: ScoringConfig{
			Averaging:         string(scoring.AveragingMicro),
			EntityErrorWeight: scoring.DefaultEntityErrorWeight,
		},
		API: APIConfig{
			Endpoint: privateai.DefaultEndpoint,
			Timeout:  privateai.DefaultTimeout,
		},
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// LoadConfig loads configuration from the default path, falling back to
// defaults when no config file exists, then applies environment overrides.
func LoadConfig() (*CLIConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom loads configuration from an explicit path. A missing file
// is not an error; defaults apply.
func LoadConfigFrom(path string) (*CLIConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *CLIConfig) applyEnvOverrides() {
	if v := os.Getenv(EnvAPIEndpoint); v != "" {
		c.API.Endpoint = v
	}
	if v := os.Getenv(EnvAPITimeout); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.API.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
}

// Validate checks the configuration for values the core packages would
// reject anyway, so misconfiguration surfaces before any work happens.
func (c *CLIConfig) Validate() error {
	if len(c.EntityTypes) == 0 {
		return fmt.Errorf("config: entity_types is empty")
	}
	if c.Match.Threshold < 0 || c.Match.Threshold > 1 {
		return fmt.Errorf("config: match.threshold %v outside [0,1]", c.Match.Threshold)
	}
	if c.Match.PositionTolerance <= 0 {
		return fmt.Errorf("config: match.position_tolerance must be positive, got %d", c.Match.PositionTolerance)
	}
	switch scoring.Averaging(c.Scoring.Averaging) {
	case scoring.AveragingMicro, scoring.AveragingMacro:
	default:
		return fmt.Errorf("config: scoring.averaging must be micro or macro, got %q", c.Scoring.Averaging)
	}
	if c.Scoring.EntityErrorWeight < 0 {
		return fmt.Errorf("config: scoring.entity_error_weight %v is negative", c.Scoring.EntityErrorWeight)
	}
	if c.API.Endpoint == "" {
		return fmt.Errorf("config: api.endpoint is empty")
	}
	return nil
}

// Save writes the configuration to the default path, creating the config
// directory if needed.
func (c *CLIConfig) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
