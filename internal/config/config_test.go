package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesmith/internal/foundation/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "variables.txt", cfg.VariablesFile)
	assert.Equal(t, []Category{{Dir: "pages"}}, cfg.Categories)
	assert.Equal(t, "include", cfg.IncludeDir)
	assert.Equal(t, "layout", cfg.LayoutDir)
	assert.Equal(t, []string{"assets"}, cfg.AssetDirs)
	assert.True(t, cfg.Sitemap.Enabled)
	assert.Equal(t, "siteurl", cfg.Sitemap.URLVariable)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, RetryBackoffLinear, cfg.Retry.Backoff)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval())
}

func TestParse_ExplicitFalseIsKept(t *testing.T) {
	cfg, err := Parse([]byte("sitemap:\n  enabled: false\nwatch:\n  metrics: false\n"))
	require.NoError(t, err)

	assert.False(t, cfg.Sitemap.Enabled)
	assert.False(t, cfg.Watch.Metrics)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("SITESMITH_TEST_OUT", "/tmp/sitesmith-out")

	cfg, err := Parse([]byte("output: ${SITESMITH_TEST_OUT}\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/sitesmith-out", cfg.Output)
}

func TestParse_NormalizesCategoriesAndBackoff(t *testing.T) {
	cfg, err := Parse([]byte(`
categories:
  - dir: blog/
    output: /news/
retry:
  backoff: " Exponential "
  initial_delay: 10ms
  max_delay: nonsense
`))
	require.NoError(t, err)

	require.Len(t, cfg.Categories, 1)
	assert.Equal(t, "blog", cfg.Categories[0].Dir)
	assert.Equal(t, "news", cfg.Categories[0].Output)
	assert.Equal(t, RetryBackoffExponential, cfg.Retry.Backoff)

	initial, maxDelay := cfg.RetryDurations()
	assert.Equal(t, 10*time.Millisecond, initial)
	assert.Equal(t, defaultRetryMaxDelay, maxDelay)
}

func TestParse_UnknownBackoff(t *testing.T) {
	_, err := Parse([]byte("retry:\n  backoff: random\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestParseRetryBackoff(t *testing.T) {
	tests := []struct {
		raw  string
		want RetryBackoffMode
		ok   bool
	}{
		{raw: "fixed", want: RetryBackoffFixed, ok: true},
		{raw: " LINEAR ", want: RetryBackoffLinear, ok: true},
		{raw: "Exponential", want: RetryBackoffExponential, ok: true},
		{raw: "random"},
		{raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			mode, ok := parseRetryBackoff(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, mode)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Categories, cfg.Categories)
}

func TestLoad_ResolvesRelativeDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitesmith.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: src\noutput: out\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.Input)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Output)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty input", func(c *Config) { c.Input = " " }, true},
		{"absolute category", func(c *Config) { c.Categories = []Category{{Dir: "/abs"}} }, true},
		{"escaping category", func(c *Config) { c.Categories = []Category{{Dir: "../up"}} }, true},
		{"duplicate category", func(c *Config) { c.Categories = []Category{{Dir: "a"}, {Dir: "a"}} }, true},
		{"output inside category", func(c *Config) {
			c.Input = "/srv/site"
			c.Output = "/srv/site/pages/out"
		}, true},
		{"output equals input", func(c *Config) {
			c.Input = "/srv/site"
			c.Output = "/srv/site"
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Input = "/srv/site"
			cfg.Output = "/srv/public"
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitesmith.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Categories, 2)
}
