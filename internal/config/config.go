package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitesmith/internal/foundation/errors"
)

// DefaultPath is the configuration file consulted when --config is not given.
const DefaultPath = "sitesmith.yaml"

// Config represents the application configuration.
type Config struct {
	Input          string     `yaml:"input"`
	Output         string     `yaml:"output"`
	VariablesFile  string     `yaml:"variables_file,omitempty"`
	IgnoreFile     string     `yaml:"ignore_file,omitempty"`
	Categories     []Category `yaml:"categories,omitempty"`
	IncludeDir     string     `yaml:"include_dir,omitempty"`
	LayoutDir      string     `yaml:"layout_dir,omitempty"`
	AssetDirs      []string   `yaml:"asset_dirs,omitempty"`
	PassthroughDir string     `yaml:"passthrough_dir,omitempty"`
	Debug          bool       `yaml:"debug,omitempty"`
	// CopyConcurrency bounds parallel asset copies. Page composition is always sequential.
	CopyConcurrency int           `yaml:"copy_concurrency,omitempty"`
	Sitemap         SitemapConfig `yaml:"sitemap"`
	Retry           RetryConfig   `yaml:"retry"`
	Watch           WatchConfig   `yaml:"watch"`

	sitemapEnabledSpecified bool
	watchMetricsSpecified   bool
}

// Category is a directory of root pages under the input root.
type Category struct {
	Dir string `yaml:"dir"`
	// Output is the directory under the output root the category is written to; empty means the root.
	Output string `yaml:"output,omitempty"`
	// Prerendered categories are copied without directive expansion.
	Prerendered bool `yaml:"prerendered,omitempty"`
}

// SitemapConfig controls sitemap.xml and robots.txt emission.
type SitemapConfig struct {
	Enabled        bool   `yaml:"enabled"`
	URLVariable    string `yaml:"url_variable,omitempty"`
	SuppressMarker string `yaml:"suppress_marker,omitempty"`
}

// RetryConfig controls retries of transient filesystem failures.
type RetryConfig struct {
	MaxRetries   int              `yaml:"max_retries,omitempty"`
	Backoff      RetryBackoffMode `yaml:"backoff,omitempty"`
	InitialDelay string           `yaml:"initial_delay,omitempty"`
	MaxDelay     string           `yaml:"max_delay,omitempty"`
}

// RetryBackoffMode selects how the delay between retries grows.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffModes = []RetryBackoffMode{RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential}

// parseRetryBackoff maps user input onto a known mode, ignoring case and
// surrounding space.
func parseRetryBackoff(raw string) (RetryBackoffMode, bool) {
	mode := RetryBackoffMode(strings.ToLower(strings.TrimSpace(raw)))
	return mode, slices.Contains(retryBackoffModes, mode)
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	PollInterval string `yaml:"poll_interval,omitempty"`
	ServeAddr    string `yaml:"serve_addr,omitempty"`
	Metrics      bool   `yaml:"metrics"`
}

// UnmarshalYAML records which boolean fields were present so defaults do not
// override an explicit false.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type plain Config
	if err := value.Decode((*plain)(c)); err != nil {
		return err
	}
	c.sitemapEnabledSpecified = hasPath(value, "sitemap", "enabled")
	c.watchMetricsSpecified = hasPath(value, "watch", "metrics")
	return nil
}

func hasPath(node *yaml.Node, keys ...string) bool {
	cur := node
	for _, key := range keys {
		if cur == nil || cur.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(cur.Content); i += 2 {
			if cur.Content[i].Value == key {
				next = cur.Content[i+1]
				break
			}
		}
		if next == nil {
			return false
		}
		cur = next
	}
	return true
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads configuration from the specified file. A missing file yields Default().
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		slog.Info("Configuration file not found, using defaults", "path", configPath)
		return Default(), nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
			WithContext("path", configPath).Build()
	}

	// Relative input/output directories are resolved against the config file location.
	base := filepath.Dir(configPath)
	if cfg.Input != "" && !filepath.IsAbs(cfg.Input) {
		cfg.Input = filepath.Join(base, cfg.Input)
	}
	if cfg.Output != "" && !filepath.IsAbs(cfg.Output) {
		cfg.Output = filepath.Join(base, cfg.Output)
	}
	return cfg, nil
}

// Parse decodes YAML configuration, expanding ${VAR} references first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// RetryDurations parses the retry delays, falling back to defaults on empty or invalid input.
func (c *Config) RetryDurations() (initial, maxDelay time.Duration) {
	initial = parseDurationOr(c.Retry.InitialDelay, defaultRetryInitialDelay)
	maxDelay = parseDurationOr(c.Retry.MaxDelay, defaultRetryMaxDelay)
	return initial, maxDelay
}

// PollInterval returns the parsed watch poll interval.
func (c *Config) PollInterval() time.Duration {
	return parseDurationOr(c.Watch.PollInterval, defaultPollInterval)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
