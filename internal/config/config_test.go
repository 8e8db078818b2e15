package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tturner/g5trace/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "zero page size", mutate: func(c *Config) { c.Analysis.PageSize = 0 }, wantErr: "page_size"},
		{name: "bucket too wide", mutate: func(c *Config) { c.Analysis.BucketMinutes = 90 }, wantErr: "bucket_minutes"},
		{name: "negative window", mutate: func(c *Config) { c.Analysis.CorrelationWindowSeconds = -1 }, wantErr: "correlation_window_seconds"},
		{name: "zero distance bucket", mutate: func(c *Config) { c.Analysis.DistanceBucketMeters = 0 }, wantErr: "distance_bucket_meters"},
		{name: "bad weather url", mutate: func(c *Config) { c.Weather.BaseURL = "ftp://example" }, wantErr: "base_url"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Weather.MaxConcurrent = 0 }, wantErr: "max_concurrent"},
		{name: "unknown level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "upper-case level", mutate: func(c *Config) { c.Logging.Level = "DEBUG" }},
		{name: "unknown format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := CreateDefault()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g5trace.yaml")
	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Analysis.PageSize != 10 || cfg.Analysis.DistanceBucketMeters != 200 {
		t.Errorf("unexpected defaults: %+v", cfg.Analysis)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Load without autoCreate must not write the file")
	}
}

func TestLoadAutoCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g5trace.yaml")
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Weather.Enabled {
		t.Error("weather lookups are enabled by default")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if !strings.Contains(string(data), "correlation_window_seconds: 60") {
		t.Errorf("default config missing window:\n%s", data)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g5trace.yaml")
	content := `analysis:
  page_size: 25
  correlation_window_seconds: 30
weather:
  enabled: false
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Analysis.PageSize != 25 {
		t.Errorf("page_size = %d, want 25", cfg.Analysis.PageSize)
	}
	if cfg.Analysis.CorrelationWindow() != 30*time.Second {
		t.Errorf("window = %v, want 30s", cfg.Analysis.CorrelationWindow())
	}
	if cfg.Analysis.BucketMinutes != 1 {
		t.Errorf("bucket_minutes = %d, want default 1", cfg.Analysis.BucketMinutes)
	}
	if cfg.Weather.Enabled {
		t.Error("weather.enabled = true, want false")
	}
	if cfg.Weather.Timeout() != 10*time.Second {
		t.Errorf("weather timeout = %v, want 10s", cfg.Weather.Timeout())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"syntax.yaml":  "analysis: [unterminated",
		"invalid.yaml": "analysis:\n  bucket_minutes: 120\n",
	}
	for name, content := range tests {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path, false)
		var uf errors.UserFriendlyError
		if !stderrors.As(err, &uf) {
			t.Errorf("%s: expected UserFriendlyError, got %v", name, err)
			continue
		}
		if !strings.Contains(uf.Error(), path) {
			t.Errorf("%s: error should name the file: %v", name, uf)
		}
	}
}
