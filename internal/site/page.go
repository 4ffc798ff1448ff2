package site

import (
	"context"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitesmith/internal/compose"
	"git.home.luguber.info/inful/sitesmith/internal/frontmatter"
	"git.home.luguber.info/inful/sitesmith/internal/linkrewrite"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
)

// pageLinks holds the relative links of one written page.
type pageLinks struct {
	rel   string // output slash path
	links []linkrewrite.Link
}

// buildPages composes every category in configuration order. It reports
// whether the pass was canceled.
func (b *Builder) buildPages(ctx context.Context, r *run) bool {
	for _, cat := range b.cfg.Categories {
		pages, err := b.discover(ctx, r, cat)
		if ctx.Err() != nil {
			return true
		}
		if err != nil {
			r.report.addWarning(err)
		}
		for _, p := range pages {
			if ctx.Err() != nil {
				return true
			}
			b.buildPage(ctx, r, p)
		}
	}
	return false
}

// buildPage runs one root page through composition, link rewriting and the
// change-detecting write.
func (b *Builder) buildPage(ctx context.Context, r *run, p page) {
	start := time.Now()
	logger := r.logger.With(logfields.Page(path.Join(p.category.Dir, p.rel)))

	text := b.io.Read(p.src)

	r.stack.Push()
	defer r.stack.Pop()

	out := text
	if !p.category.Prerendered {
		c := compose.NewContext(p.src, r.stack)
		if isMarkdown(p.src) {
			text = b.prepareMarkdown(r, c, p, text)
		}
		out = r.engine.Compose(c, text)
		r.report.PagesComposed++
		for _, d := range c.Diagnostics() {
			r.report.addDiagnostic(d.Kind)
			b.recorder.IncDiagnostic(string(d.Kind))
		}
	}

	out = linkrewrite.Rewrite(out, linkrewrite.Options{
		Depth:         p.depth(),
		AssetDirs:     b.cfg.AssetDirs,
		MarkdownLinks: true,
	})

	rel := p.outputRel()
	changed, err := b.io.WriteIfChanged(ctx, b.outputPath(rel), []byte(out))
	switch {
	case err != nil:
		r.report.PagesFailed++
		r.report.addWarning(err)
		b.recorder.IncPage(metrics.PageFailed)
		logger.Warn("Page not written", logfields.Error(err))
		return
	case changed:
		r.report.PagesWritten++
		b.recorder.IncPage(metrics.PageWritten)
	default:
		r.report.PagesUnchanged++
		b.recorder.IncPage(metrics.PageUnchanged)
	}

	if !b.suppressed(p) {
		r.report.URLs = append(r.report.URLs, rel)
	}
	r.links = append(r.links, pageLinks{rel: rel, links: linkrewrite.RelativeLinks(out)})
	logger.Debug("Page generated",
		logfields.Path(rel),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
}

// prepareMarkdown defines front matter scalars in the page frame and
// converts the body, keeping directives intact.
func (b *Builder) prepareMarkdown(r *run, c *compose.Context, p page, text string) string {
	fm, body, had, err := frontmatter.Split([]byte(text))
	if err != nil {
		r.logger.Warn("Front matter not terminated", logfields.File(p.src), logfields.Error(err))
		body = []byte(text)
	} else if had {
		fields, perr := frontmatter.ParseYAML(fm)
		if perr != nil {
			r.logger.Warn("Front matter not parsed", logfields.File(p.src), logfields.Error(perr))
		}
		for _, v := range frontmatter.Scalars(fields) {
			r.stack.Define(v.Name, v.Value)
		}
	}

	html, err := b.conv.ConvertPage(string(body))
	if err != nil {
		r.logger.Warn("Markdown conversion failed", logfields.File(p.src), logfields.Error(err))
		html = string(body)
	}
	c.DefaultLayout = r.defaultLayout
	return html
}

// suppressed reports whether the page's directory carries the sitemap
// suppression marker.
func (b *Builder) suppressed(p page) bool {
	marker := filepath.Join(filepath.Dir(p.src), b.cfg.Sitemap.SuppressMarker)
	ok, _ := afero.Exists(b.fs, marker)
	return ok
}
