package config

// Configuration management for g5trace

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tturner/g5trace/internal/errors"
)

// DefaultPath is the configuration file used when --config is not given.
const DefaultPath = "g5trace.yaml"

// Config is the g5trace configuration file.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Weather  WeatherConfig  `yaml:"weather"`
	Capture  CaptureConfig  `yaml:"capture"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AnalysisConfig tunes the query layer and the dissemination engine.
type AnalysisConfig struct {
	PageSize                 int     `yaml:"page_size"`                  // Messages per page (default 10)
	BucketMinutes            int     `yaml:"bucket_minutes"`             // Time-series bucket width (default 1)
	CorrelationWindowSeconds int     `yaml:"correlation_window_seconds"` // Per-hop CAM window half-width (default 60)
	DistanceBucketMeters     float64 `yaml:"distance_bucket_meters"`     // Distance histogram width (default 200)
}

// WeatherConfig controls the best-effort weather lookups.
type WeatherConfig struct {
	Enabled       bool   `yaml:"enabled"`
	BaseURL       string `yaml:"base_url,omitempty"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// CaptureConfig locates external capture tooling.
type CaptureConfig struct {
	TsharkPath string `yaml:"tshark_path,omitempty"` // Empty resolves from TSHARK, PATH, then OS defaults
}

// LoggingConfig mirrors the logger options.
type LoggingConfig struct {
	Level    string `yaml:"level"`               // silent, error, info, verbose, debug
	File     string `yaml:"file,omitempty"`      // Optional log file
	Format   string `yaml:"format,omitempty"`    // text or json
	LogEvery int    `yaml:"log_every,omitempty"` // Console sampling; 1 logs every line
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// CreateDefault returns the default configuration.
func CreateDefault() *Config {
	cfg := &Config{
		Weather: WeatherConfig{
			Enabled: true,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Analysis.PageSize == 0 {
		cfg.Analysis.PageSize = 10
	}
	if cfg.Analysis.BucketMinutes == 0 {
		cfg.Analysis.BucketMinutes = 1
	}
	if cfg.Analysis.CorrelationWindowSeconds == 0 {
		cfg.Analysis.CorrelationWindowSeconds = 60
	}
	if cfg.Analysis.DistanceBucketMeters == 0 {
		cfg.Analysis.DistanceBucketMeters = 200
	}
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = "https://archive-api.open-meteo.com/v1/era5"
	}
	if cfg.Weather.TimeoutMs == 0 {
		cfg.Weather.TimeoutMs = 10000
	}
	if cfg.Weather.MaxConcurrent == 0 {
		cfg.Weather.MaxConcurrent = 4
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.LogEvery == 0 {
		cfg.Logging.LogEvery = 1
	}
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(CreateDefault())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Load reads the configuration at path. A missing file yields the defaults,
// or is written out first when autoCreate is set.
func Load(path string, autoCreate bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.WrapConfigError(fmt.Errorf("read config file: %w", err), path)
		}
		if !autoCreate {
			return CreateDefault(), nil
		}
		if err := WriteDefault(path); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.WrapConfigError(fmt.Errorf("read created config file: %w", err), path)
		}
	}

	// Start from the defaults so an omitted section keeps them.
	cfg := CreateDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("parse YAML: %w", err), path)
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("validate config: %w", err), path)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func Validate(cfg *Config) error {
	if cfg.Analysis.PageSize < 1 {
		return fmt.Errorf("analysis.page_size must be positive, got %d", cfg.Analysis.PageSize)
	}
	if cfg.Analysis.BucketMinutes < 1 || cfg.Analysis.BucketMinutes > 60 {
		return fmt.Errorf("analysis.bucket_minutes must be between 1 and 60, got %d", cfg.Analysis.BucketMinutes)
	}
	if cfg.Analysis.CorrelationWindowSeconds < 1 {
		return fmt.Errorf("analysis.correlation_window_seconds must be positive, got %d", cfg.Analysis.CorrelationWindowSeconds)
	}
	if cfg.Analysis.DistanceBucketMeters <= 0 {
		return fmt.Errorf("analysis.distance_bucket_meters must be positive, got %g", cfg.Analysis.DistanceBucketMeters)
	}
	if cfg.Weather.TimeoutMs < 1 {
		return fmt.Errorf("weather.timeout_ms must be positive, got %d", cfg.Weather.TimeoutMs)
	}
	if cfg.Weather.MaxConcurrent < 1 {
		return fmt.Errorf("weather.max_concurrent must be positive, got %d", cfg.Weather.MaxConcurrent)
	}
	if !strings.HasPrefix(cfg.Weather.BaseURL, "http://") && !strings.HasPrefix(cfg.Weather.BaseURL, "https://") {
		return fmt.Errorf("weather.base_url must be an http(s) URL, got %q", cfg.Weather.BaseURL)
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "silent", "error", "info", "verbose", "debug":
	default:
		return fmt.Errorf("logging.level must be one of silent, error, info, verbose, debug; got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.LogEvery < 1 {
		return fmt.Errorf("logging.log_every must be positive, got %d", cfg.Logging.LogEvery)
	}
	return nil
}

// CorrelationWindow returns the per-hop CAM window half-width.
func (a AnalysisConfig) CorrelationWindow() time.Duration {
	return time.Duration(a.CorrelationWindowSeconds) * time.Second
}

// Timeout returns the per-request weather timeout.
func (w WeatherConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutMs) * time.Millisecond
}
