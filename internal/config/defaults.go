package config

import "time"

const (
	defaultRetryInitialDelay = 25 * time.Millisecond
	defaultRetryMaxDelay     = 500 * time.Millisecond
	defaultPollInterval      = 500 * time.Millisecond
)

func applyDefaults(cfg *Config) {
	if cfg.Input == "" {
		cfg.Input = "."
	}
	if cfg.Output == "" {
		cfg.Output = "./public"
	}
	if cfg.VariablesFile == "" {
		cfg.VariablesFile = "variables.txt"
	}
	if cfg.IgnoreFile == "" {
		cfg.IgnoreFile = ".sitesmithignore"
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = []Category{{Dir: "pages"}}
	}
	if cfg.IncludeDir == "" {
		cfg.IncludeDir = "include"
	}
	if cfg.LayoutDir == "" {
		cfg.LayoutDir = "layout"
	}
	if len(cfg.AssetDirs) == 0 {
		cfg.AssetDirs = []string{"assets"}
	}
	if cfg.PassthroughDir == "" {
		cfg.PassthroughDir = "root"
	}
	if cfg.CopyConcurrency <= 0 {
		cfg.CopyConcurrency = 4
	}

	if !cfg.sitemapEnabledSpecified && !cfg.Sitemap.Enabled {
		cfg.Sitemap.Enabled = true
	}
	if cfg.Sitemap.URLVariable == "" {
		cfg.Sitemap.URLVariable = "siteurl"
	}
	if cfg.Sitemap.SuppressMarker == "" {
		cfg.Sitemap.SuppressMarker = ".nositemap"
	}

	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.Backoff == "" {
		cfg.Retry.Backoff = RetryBackoffLinear
	}

	if !cfg.watchMetricsSpecified && !cfg.Watch.Metrics {
		cfg.Watch.Metrics = true
	}
}
