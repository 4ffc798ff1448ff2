package site

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesmith/internal/compose"
	"git.home.luguber.info/inful/sitesmith/internal/config"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
)

const (
	inRoot  = "/in"
	outRoot = "/out"
)

var fixedNow = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Input = inRoot
	cfg.Output = outRoot
	cfg.Retry = config.RetryConfig{MaxRetries: 1, Backoff: config.RetryBackoffFixed, InitialDelay: "1ms", MaxDelay: "1ms"}
	return cfg
}

func writeTree(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(inRoot, filepath.FromSlash(name)), []byte(content), 0o644))
	}
}

func newBuilder(fs afero.Fs, cfg *config.Config, opts ...Option) *Builder {
	base := []Option{
		WithFs(fs),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(cfg, append(base, opts...)...)
}

func readOut(t *testing.T, fs afero.Fs, rel string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, filepath.Join(outRoot, filepath.FromSlash(rel)))
	require.NoError(t, err, rel)
	return string(data)
}

func outExists(fs afero.Fs, rel string) bool {
	ok, _ := afero.Exists(fs, filepath.Join(outRoot, filepath.FromSlash(rel)))
	return ok
}

func basicSite() map[string]string {
	return map[string]string{
		"variables.txt":         "$(siteurl) = \"https://example.org\"\n$(sitename) = \"Demo\"\n",
		"layout/main.html":      "<html><title>{{ $(title) }}</title>{{ content }}</html>\n",
		"include/nav.html":      "<a href=\"index.html\">home</a>\n",
		"pages/index.html":      "{{ include nav.html }}\n<h1>{{ $(sitename) }}</h1>\n",
		"pages/docs/guide.html": "<a href=\"index.html\">x</a>\n<img src=\"assets/logo.png\">\n",
		"pages/blog/post.md":    "---\ntitle: Hello\n---\n# {{ $(title) }}\n",
		"assets/logo.png":       "png",
		"root/CNAME":            "example.org",
	}
}

func TestBuildGeneratesSite(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, basicSite())

	report, err := newBuilder(fs, testConfig()).Build(t.Context())
	require.NoError(t, err)

	index := readOut(t, fs, "index.html")
	assert.Contains(t, index, `<a href="index.html">home</a>`)
	assert.Contains(t, index, "<h1>Demo</h1>")

	guide := readOut(t, fs, "docs/guide.html")
	assert.Contains(t, guide, `href="../index.html"`)
	assert.Contains(t, guide, `src="../assets/logo.png"`)

	post := readOut(t, fs, "blog/post.html")
	assert.Contains(t, post, "<title>Hello</title>")
	assert.Contains(t, post, ">Hello</h1>")
	assert.False(t, outExists(fs, "blog/post.md"))

	assert.Equal(t, "png", readOut(t, fs, "assets/logo.png"))
	assert.Equal(t, "example.org", readOut(t, fs, "CNAME"))

	sm := readOut(t, fs, "sitemap.xml")
	assert.Contains(t, sm, "<loc>https://example.org/index.html</loc>")
	assert.Contains(t, sm, "<loc>https://example.org/blog/post.html</loc>")
	assert.Contains(t, sm, "<loc>https://example.org/docs/guide.html</loc>")
	assert.Less(t, strings.Index(sm, "blog/post.html"), strings.Index(sm, "docs/guide.html"))
	assert.Less(t, strings.Index(sm, "docs/guide.html"), strings.Index(sm, "/index.html"))
	assert.Contains(t, readOut(t, fs, "robots.txt"), "Sitemap: https://example.org/sitemap.xml")

	assert.Equal(t, 3, report.PagesComposed)
	assert.Equal(t, 3, report.PagesWritten)
	assert.Equal(t, 2, report.AssetsCopied)
	assert.Zero(t, report.BrokenLinks)
	assert.True(t, report.SitemapWritten)
	assert.NotEmpty(t, report.BuildID)
	assert.Equal(t, metrics.OutcomeSuccess, report.Outcome)
	assert.Equal(t, []string{"blog/post.html", "docs/guide.html", "index.html"}, report.URLs)
}

func TestBuildSkipsUnchangedOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, basicSite())
	b := newBuilder(fs, testConfig())

	_, err := b.Build(t.Context())
	require.NoError(t, err)
	first := readOut(t, fs, "index.html")

	report, err := b.Build(t.Context())
	require.NoError(t, err)
	assert.Zero(t, report.PagesWritten)
	assert.Equal(t, 3, report.PagesUnchanged)
	assert.Zero(t, report.AssetsCopied)
	assert.Equal(t, 2, report.AssetsUnchanged)
	assert.Equal(t, first, readOut(t, fs, "index.html"))
}

func TestBuildCountsDiagnostics(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{
		"pages/index.html": "before\n{{ include missing.html }}\nafter\n",
	})
	rec := &countingRecorder{}

	report, err := newBuilder(fs, testConfig(), WithRecorder(rec)).Build(t.Context())
	require.NoError(t, err)

	out := readOut(t, fs, "index.html")
	assert.Contains(t, out, "sitesmith-diagnostic")
	assert.Contains(t, out, "after")
	assert.Equal(t, 1, report.Diagnostics[compose.UnresolvedInclude])
	assert.Equal(t, metrics.OutcomeWarning, report.Outcome)
	assert.Equal(t, []string{string(compose.UnresolvedInclude)}, rec.diagnostics)
	assert.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeWarning}, rec.outcomes)
}

func TestBuildSitemapSuppressionAndMissingURL(t *testing.T) {
	t.Run("marker excludes directory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeTree(t, fs, map[string]string{
			"variables.txt":            "$(siteurl) = \"https://example.org/\"\n",
			"pages/index.html":         "home\n",
			"pages/private/.nositemap": "",
			"pages/private/p.html":     "secret\n",
		})

		report, err := newBuilder(fs, testConfig()).Build(t.Context())
		require.NoError(t, err)
		assert.Equal(t, []string{"index.html"}, report.URLs)
		assert.True(t, outExists(fs, "private/p.html"))
		assert.NotContains(t, readOut(t, fs, "sitemap.xml"), "private")
	})

	t.Run("no site url", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeTree(t, fs, map[string]string{"pages/index.html": "home\n"})

		report, err := newBuilder(fs, testConfig()).Build(t.Context())
		require.NoError(t, err)
		assert.False(t, report.SitemapWritten)
		assert.False(t, outExists(fs, "sitemap.xml"))
		assert.False(t, outExists(fs, "robots.txt"))
	})

	t.Run("disabled", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeTree(t, fs, map[string]string{
			"variables.txt":    "siteurl = \"https://example.org\"\n",
			"pages/index.html": "home\n",
		})
		cfg := testConfig()
		cfg.Sitemap.Enabled = false

		_, err := newBuilder(fs, cfg).Build(t.Context())
		require.NoError(t, err)
		assert.False(t, outExists(fs, "sitemap.xml"))
	})
}

func TestBuildAssetsAndIgnoreFilter(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{
		".sitesmithignore":         "*.psd\n",
		"pages/index.html":         "home\n",
		"pages/docs/assets/d.png":  "d",
		"pages/docs/diagram.svg":   "<svg/>",
		"pages/docs/include/x.txt": "partial",
		"assets/site.css":          "css",
		"assets/source.psd":        "psd",
		"root/.htaccess":           "deny",
	})

	report, err := newBuilder(fs, testConfig()).Build(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "d", readOut(t, fs, "docs/assets/d.png"))
	assert.Equal(t, "<svg/>", readOut(t, fs, "docs/diagram.svg"))
	assert.Equal(t, "css", readOut(t, fs, "assets/site.css"))
	assert.Equal(t, "deny", readOut(t, fs, ".htaccess"))
	assert.False(t, outExists(fs, "assets/source.psd"))
	assert.False(t, outExists(fs, "docs/include/x.txt"))
	assert.Equal(t, 1, report.AssetsIgnored)
	assert.Equal(t, 4, report.AssetsCopied)
}

func TestBuildPrerenderedCategory(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{
		"pages/index.html":  "home\n",
		"static/a/raw.html": "{{ $(x) }}<a href=\"b.html\">b</a>\n",
		"static/b.html":     "b\n",
	})
	cfg := testConfig()
	cfg.Categories = append(cfg.Categories, config.Category{Dir: "static", Output: "legacy", Prerendered: true})

	report, err := newBuilder(fs, cfg).Build(t.Context())
	require.NoError(t, err)

	raw := readOut(t, fs, "legacy/a/raw.html")
	assert.Contains(t, raw, "{{ $(x) }}")
	assert.Contains(t, raw, `href="../b.html"`)
	assert.Equal(t, 1, report.PagesComposed)
	assert.Equal(t, 3, report.PagesWritten)
	assert.Zero(t, report.BrokenLinks)
}

func TestBuildCountsBrokenLinks(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{
		"pages/index.html": "<a href=\"gone.html\">x</a><a href=\"https://example.org/\">y</a>\n",
	})

	report, err := newBuilder(fs, testConfig()).Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, report.BrokenLinks)
	assert.Equal(t, metrics.OutcomeWarning, report.Outcome)
}

// failingFs fails every Open of files named bad.bin with a transient error.
type failingFs struct {
	afero.Fs
}

func (f failingFs) Open(name string) (afero.File, error) {
	if filepath.Base(name) == "bad.bin" {
		return nil, stderrors.New("device busy")
	}
	return f.Fs.Open(name)
}

func TestBuildAggregatesCopyFailures(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeTree(t, mem, map[string]string{
		"pages/index.html": "home\n",
		"assets/ok.bin":    "ok",
		"assets/bad.bin":   "bad",
	})
	rec := &countingRecorder{}

	report, err := newBuilder(failingFs{Fs: mem}, testConfig(), WithRecorder(rec)).Build(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 1, report.AssetsCopied)
	assert.Equal(t, 1, report.AssetsSkipped)
	require.Error(t, report.CopyErrors)
	assert.Contains(t, report.CopyErrors.Error(), "assets/bad.bin")
	assert.Equal(t, 1, report.Retries)
	assert.Equal(t, []string{"copy"}, rec.retries)
	assert.Equal(t, metrics.OutcomeWarning, report.Outcome)
	assert.False(t, outExists(mem, "assets/bad.bin"))
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := newBuilder(fs, testConfig()).Build(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input directory does not exist")

	cfg := testConfig()
	cfg.Output = filepath.Join(inRoot, "pages", "out")
	require.NoError(t, fs.MkdirAll(inRoot, 0o755))
	_, err = newBuilder(fs, cfg).Build(t.Context())
	require.Error(t, err)
}

func TestBuildCanceled(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, basicSite())
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	report, err := newBuilder(fs, testConfig()).Build(ctx)
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, metrics.OutcomeCanceled, report.Outcome)
	assert.False(t, outExists(fs, "index.html"))
}

func TestLoadVariables(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{
		"variables.txt": "# comment\n$(a) = \"1\"\nb = \"$(a)2\"\n",
	})

	stack, err := newBuilder(fs, testConfig()).LoadVariables()
	require.NoError(t, err)
	assert.Equal(t, "1", stack.Lookup("a"))
	assert.Equal(t, "12", stack.Lookup("b"))
}

func TestDefaultLayoutIsFirstHTMLByName(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{
		"layout/notes.txt": "x",
		"layout/z.html":    "z",
		"layout/b.html":    "b",
	})

	assert.Equal(t, filepath.Join(inRoot, "layout", "b.html"), newBuilder(fs, testConfig()).defaultLayout())
}

func TestPageOutputPath(t *testing.T) {
	tests := []struct {
		rel, output, want string
		depth             int
	}{
		{rel: "index.html", want: "index.html"},
		{rel: "a/b/post.md", want: "a/b/post.html", depth: 2},
		{rel: "x.markdown", output: "blog", want: "blog/x.html"},
		{rel: "sub/page.htm", output: "blog", want: "blog/sub/page.htm", depth: 1},
	}
	for _, tt := range tests {
		p := page{rel: tt.rel, category: config.Category{Output: tt.output}}
		assert.Equal(t, tt.want, p.outputRel(), tt.rel)
		assert.Equal(t, tt.depth, p.depth(), tt.rel)
	}
}

type countingRecorder struct {
	metrics.NoopRecorder
	diagnostics []string
	outcomes    []metrics.OutcomeLabel
	retries     []string
}

func (c *countingRecorder) IncDiagnostic(kind string) { c.diagnostics = append(c.diagnostics, kind) }
func (c *countingRecorder) IncBuildOutcome(o metrics.OutcomeLabel) {
	c.outcomes = append(c.outcomes, o)
}
func (c *countingRecorder) IncRetry(op string) { c.retries = append(c.retries, op) }

func TestScaffoldBuilds(t *testing.T) {
	fs := afero.NewMemMapFs()
	written, err := Scaffold(fs, inRoot, false)
	require.NoError(t, err)
	assert.Len(t, written, len(skeleton))

	again, err := Scaffold(fs, inRoot, false)
	require.NoError(t, err)
	assert.Empty(t, again)

	cfg := testConfig()
	cfg.Categories = append(cfg.Categories, config.Category{Dir: "archive", Output: "archive", Prerendered: true})
	report, err := newBuilder(fs, cfg).Build(t.Context())
	require.NoError(t, err)

	index := readOut(t, fs, "index.html")
	assert.Contains(t, index, "<title>Home | Example Site</title>")
	assert.Contains(t, index, "<h1>Welcome to Example Site</h1>")
	assert.Contains(t, index, `<meta name="description" content="Example Site">`)
	assert.Contains(t, index, "Generated 2024-03-05")

	welcome := readOut(t, fs, "blog/welcome.html")
	assert.Contains(t, welcome, "<title>Welcome | Example Site</title>")
	assert.Contains(t, welcome, `href="../assets/site.css"`)
	assert.Contains(t, welcome, `href="../blog/welcome.html"`)

	assert.Contains(t, readOut(t, fs, "archive/index.html"), "{{ directives }}")
	assert.Equal(t, "/* TEAM */\n", readOut(t, fs, "humans.txt"))
	assert.True(t, report.SitemapWritten)
	assert.Zero(t, report.BrokenLinks)
	assert.Equal(t, metrics.OutcomeSuccess, report.Outcome)
}

func TestReportPersist(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := newReport("id-1", fixedNow)
	r.PagesComposed = 2
	r.URLs = []string{"b.html", "a.html"}
	r.addDiagnostic(compose.CyclicInclude)
	r.finish(fixedNow.Add(1500*time.Millisecond), false)

	require.NoError(t, r.Persist(fs, "/reports"))

	data, err := afero.ReadFile(fs, "/reports/build-report.json")
	require.NoError(t, err)
	js := string(data)
	assert.Contains(t, js, `"build_id": "id-1"`)
	assert.Contains(t, js, `"CyclicInclude": 1`)
	assert.Contains(t, js, `"outcome": "warning"`)
	assert.Less(t, strings.Index(js, `"b.html"`), strings.Index(js, `"a.html"`))
	assert.Equal(t, []string{"b.html", "a.html"}, r.URLs)

	txt, err := afero.ReadFile(fs, "/reports/build-report.txt")
	require.NoError(t, err)
	assert.Equal(t, r.Summary()+"\n", string(txt))
	assert.Contains(t, r.Summary(), "duration=1.5s")
}
