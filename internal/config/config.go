package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultFile = "config.yaml"

type Config struct {
	// Organization is the GitHub organization to analyze. Required.
	Organization string `yaml:"organization"`

	// Token is a GitHub access token. The GITHUB_TOKEN environment variable
	// takes precedence; keeping tokens out of config files is preferred.
	Token string `yaml:"token,omitempty"`

	Parallelism Parallelism `yaml:"parallelism"`
	Exclusions  Exclusions  `yaml:"exclusions"`
	Analysis    Analysis    `yaml:"analysis"`
	Caching     Caching     `yaml:"caching"`
	Output      Output      `yaml:"output"`
}

type Parallelism struct {
	// MaxWorkers is the number of repositories scanned concurrently (1-16).
	MaxWorkers int `yaml:"max_workers"`

	// RateLimitDelay is the fixed delay between consecutive API calls,
	// in seconds (may be fractional).
	RateLimitDelay float64 `yaml:"rate_limit_delay"`

	// Optimized enables the bulk-metadata enumeration path for large
	// organizations (repository search instead of per-page listing).
	Optimized bool `yaml:"optimized"`
}

type Exclusions struct {
	// Repositories are exact repository names to skip.
	Repositories []string `yaml:"repositories"`

	// Patterns are path.Match style globs; a matching name is skipped.
	Patterns []string `yaml:"patterns"`

	// ApplyToJenkinsSearch also applies exclusions to the Jenkins-only
	// search path. The full-listing path always applies them.
	ApplyToJenkinsSearch bool `yaml:"apply_to_jenkins_search"`
}

type Analysis struct {
	// JenkinsOnly restricts the scan to repositories that contain a
	// Jenkinsfile, discovered via the code search API.
	JenkinsOnly bool `yaml:"jenkins_only"`

	// SingleRepository, when set, analyzes just that repository.
	SingleRepository string `yaml:"single_repository,omitempty"`
}

type Caching struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`

	// DurationSeconds is the cache time-to-live, measured against the
	// cache file's modification time.
	DurationSeconds int `yaml:"duration"`
}

type Output struct {
	JSONReport string `yaml:"json_report,omitempty"`
	CSVReport  string `yaml:"csv_report,omitempty"`
	HTMLReport string `yaml:"html_report,omitempty"`
	Verbose    bool   `yaml:"verbose"`
}

func New() *Config {
	return &Config{
		Parallelism: Parallelism{
			MaxWorkers:     8,
			RateLimitDelay: 0.05,
		},
		Exclusions: Exclusions{
			ApplyToJenkinsSearch: true,
		},
		Caching: Caching{
			Enabled:         true,
			Directory:       ".cache",
			DurationSeconds: 3600,
		},
	}
}

// Load reads a YAML config file over the defaults from New. Fields absent
// from the file keep their default values.
func Load(file string) (*Config, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := New()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", file, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Organization == "" {
		return errors.New("organization is required")
	}
	if c.Parallelism.MaxWorkers < 1 || c.Parallelism.MaxWorkers > 16 {
		return fmt.Errorf("max_workers must be between 1 and 16, got %d", c.Parallelism.MaxWorkers)
	}
	if c.Parallelism.RateLimitDelay < 0 {
		return errors.New("rate_limit_delay must be non-negative")
	}
	if c.Caching.DurationSeconds < 0 {
		return errors.New("cache duration must be non-negative")
	}
	for _, p := range c.Exclusions.Patterns {
		if _, err := path.Match(p, "probe"); err != nil {
			return fmt.Errorf("invalid exclusion pattern %q: %w", p, err)
		}
	}
	return nil
}

// Delay returns the configured inter-call delay as a duration.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Parallelism.RateLimitDelay * float64(time.Second))
}

// CacheTTL returns the cache time-to-live as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Caching.DurationSeconds) * time.Second
}

// ShouldExclude reports whether a repository name matches the configured
// exclusions, either exactly or by glob pattern.
func (c *Config) ShouldExclude(name string) bool {
	for _, r := range c.Exclusions.Repositories {
		if name == r {
			return true
		}
	}
	for _, p := range c.Exclusions.Patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

const defaultConfig = `# BuildCheck configuration
organization: your-org-name

parallelism:
  max_workers: 8
  rate_limit_delay: 0.05
  optimized: false

exclusions:
  repositories:
    - infrastructure-environments
    - infrastructure-modules
    - documentation
    - wiki-content
  patterns:
    - "terraform-*"
    - "*-infra"
    - "legacy-*"
    - "test-*"
    - "demo-*"
  apply_to_jenkins_search: true

analysis:
  jenkins_only: false
  single_repository: ""

caching:
  enabled: true
  directory: .cache
  duration: 3600

output:
  json_report: ""
  csv_report: ""
  html_report: ""
  verbose: false
`

// WriteDefault creates a commented template config file. It refuses to
// overwrite an existing file.
func WriteDefault(file string) error {
	if _, err := os.Stat(file); err == nil {
		return fmt.Errorf("config file already exists: %s", file)
	}
	if err := os.WriteFile(file, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
