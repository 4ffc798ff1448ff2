package site

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/sitemap"
)

// writeSitemap emits sitemap.xml and robots.txt when enabled and the site
// URL variable is defined.
func (b *Builder) writeSitemap(ctx context.Context, r *run) {
	if !b.cfg.Sitemap.Enabled {
		return
	}
	base := strings.TrimSpace(r.stack.Lookup(b.cfg.Sitemap.URLVariable))
	if base == "" {
		r.logger.Debug("Sitemap skipped; site URL not defined", slog.String("variable", b.cfg.Sitemap.URLVariable))
		return
	}

	// Pages are listed in the order they were collected.
	data, err := sitemap.Render(base, r.report.URLs)
	if err != nil {
		r.report.addWarning(err)
		r.logger.Warn("Sitemap not rendered", logfields.Error(err))
		return
	}
	if _, err := b.io.WriteIfChanged(ctx, filepath.Join(b.cfg.Output, sitemap.FileName), data); err != nil {
		r.report.addWarning(err)
		r.logger.Warn("Sitemap not written", logfields.Error(err))
		return
	}
	if _, err := b.io.WriteIfChanged(ctx, filepath.Join(b.cfg.Output, sitemap.RobotsFileName), []byte(sitemap.Robots(base))); err != nil {
		r.report.addWarning(err)
		r.logger.Warn("robots.txt not written", logfields.Error(err))
		return
	}
	r.report.SitemapWritten = true
}

// checkLinks counts relative links of written pages that point at nothing
// in the output tree. Directory targets resolve to their index.html.
func (b *Builder) checkLinks(r *run) {
	for _, pl := range r.links {
		dir := path.Dir(pl.rel)
		for _, link := range pl.links {
			target := path.Clean(path.Join(dir, link.Target))
			if strings.HasPrefix(target, "../") || target == ".." {
				continue
			}
			if b.outputExists(target) {
				continue
			}
			r.report.BrokenLinks++
			r.logger.Warn("Broken relative link",
				logfields.Page(pl.rel),
				logfields.Path(link.Target),
				slog.String("tag", link.Tag))
		}
	}
}

func (b *Builder) outputExists(rel string) bool {
	p := b.outputPath(rel)
	info, err := b.fs.Stat(p)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	ok, _ := afero.Exists(b.fs, filepath.Join(p, "index.html"))
	return ok
}
