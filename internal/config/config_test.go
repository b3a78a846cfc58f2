package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := New()
	if cfg.Parallelism.MaxWorkers != 8 {
		t.Errorf("expected default max_workers 8, got %d", cfg.Parallelism.MaxWorkers)
	}
	if cfg.Delay() != 50*time.Millisecond {
		t.Errorf("expected default delay 50ms, got %v", cfg.Delay())
	}
	if !cfg.Caching.Enabled || cfg.Caching.Directory != ".cache" {
		t.Errorf("unexpected caching defaults: %+v", cfg.Caching)
	}
	if cfg.CacheTTL() != time.Hour {
		t.Errorf("expected default TTL 1h, got %v", cfg.CacheTTL())
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing org", func(c *Config) { c.Organization = "" }, "organization is required"},
		{"workers too low", func(c *Config) { c.Parallelism.MaxWorkers = 0 }, "max_workers"},
		{"workers too high", func(c *Config) { c.Parallelism.MaxWorkers = 17 }, "max_workers"},
		{"negative delay", func(c *Config) { c.Parallelism.RateLimitDelay = -0.1 }, "rate_limit_delay"},
		{"negative ttl", func(c *Config) { c.Caching.DurationSeconds = -1 }, "cache duration"},
		{"bad pattern", func(c *Config) { c.Exclusions.Patterns = []string{"[unclosed"} }, "invalid exclusion pattern"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := New()
			cfg.Organization = "acme"
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := New()
	cfg.Exclusions.Repositories = []string{"documentation"}
	cfg.Exclusions.Patterns = []string{"terraform-*", "*-infra"}

	cases := []struct {
		name string
		want bool
	}{
		{"documentation", true},
		{"terraform-modules", true},
		{"network-infra", true},
		{"billing-service", false},
		{"terraform", false},
	}
	for _, tc := range cases {
		if got := cfg.ShouldExclude(tc.name); got != tc.want {
			t.Errorf("ShouldExclude(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	raw := `organization: acme
parallelism:
  max_workers: 4
  rate_limit_delay: 0.1
exclusions:
  patterns:
    - "demo-*"
caching:
  enabled: false
output:
  csv_report: report.csv
`
	if err := os.WriteFile(file, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Organization != "acme" {
		t.Errorf("organization = %q", cfg.Organization)
	}
	if cfg.Parallelism.MaxWorkers != 4 {
		t.Errorf("max_workers = %d", cfg.Parallelism.MaxWorkers)
	}
	if cfg.Delay() != 100*time.Millisecond {
		t.Errorf("delay = %v", cfg.Delay())
	}
	if cfg.Caching.Enabled {
		t.Error("expected caching disabled")
	}
	// Unset sections keep defaults.
	if cfg.Caching.Directory != ".cache" {
		t.Errorf("cache directory = %q", cfg.Caching.Directory)
	}
	if cfg.Output.CSVReport != "report.csv" {
		t.Errorf("csv_report = %q", cfg.Output.CSVReport)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriteDefault(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(file); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	cfg.Organization = "acme"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("generated config does not validate: %v", err)
	}

	if err := WriteDefault(file); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}
