package site

import (
	"context"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitesmith/internal/config"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
)

// page is a discovered root page.
type page struct {
	src      string // absolute source path
	rel      string // slash path relative to the category dir
	category config.Category
}

// tree is a directory copied verbatim into the output.
type tree struct {
	src string
	dst string
}

// outputRel returns the slash path of the page below the output root.
func (p page) outputRel() string {
	rel := p.rel
	if isMarkdown(rel) {
		rel = strings.TrimSuffix(rel, path.Ext(rel)) + ".html"
	}
	return path.Join(p.category.Output, rel)
}

// depth is the number of directories between the category root and the page.
func (p page) depth() int {
	dir := path.Dir(p.rel)
	if dir == "." {
		return 0
	}
	return strings.Count(dir, "/") + 1
}

// discover walks one category and returns its root pages in lexical order.
// Nested asset directories and loose non-page files are queued as copies.
func (b *Builder) discover(ctx context.Context, r *run, cat config.Category) ([]page, error) {
	root := filepath.Join(b.cfg.Input, cat.Dir)
	if ok, _ := afero.DirExists(b.fs, root); !ok {
		r.logger.Warn("Category directory not found", logfields.Category(cat.Dir), logfields.Path(root))
		return nil, nil
	}

	var pages []page
	err := afero.Walk(b.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			r.logger.Warn("Walk error", logfields.Path(p), logfields.Error(err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		inputRel := path.Join(filepath.ToSlash(cat.Dir), rel)
		name := info.Name()

		if info.IsDir() {
			switch {
			case isHidden(name), name == b.cfg.IncludeDir, name == b.cfg.LayoutDir:
				return filepath.SkipDir
			case r.filter.Skip(inputRel, true):
				r.logger.Debug("Ignored directory", logfields.Path(inputRel))
				return filepath.SkipDir
			case slices.Contains(b.cfg.AssetDirs, name):
				r.copies = append(r.copies, tree{src: p, dst: b.outputPath(path.Join(cat.Output, rel))})
				return filepath.SkipDir
			}
			return nil
		}

		if isHidden(name) {
			return nil
		}
		if r.filter.Skip(inputRel, false) {
			r.logger.Debug("Ignored file", logfields.Path(inputRel))
			return nil
		}
		if !isPage(name) {
			r.copies = append(r.copies, tree{src: p, dst: b.outputPath(path.Join(cat.Output, rel))})
			return nil
		}
		pages = append(pages, page{src: p, rel: rel, category: cat})
		r.logger.Debug("Discovered page", logfields.Page(inputRel))
		return nil
	})
	if err != nil {
		return pages, err
	}
	r.logger.Debug("Category discovered", logfields.Category(cat.Dir), slog.Int("pages", len(pages)))
	return pages, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func isPage(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return isMarkdown(name)
}
