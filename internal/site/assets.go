package site

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
)

type copyJob struct {
	src string
	dst string
}

// copyAssets mirrors root asset directories, nested asset directories found
// during discovery and the passthrough directory into the output tree.
// Individual failures are aggregated into the report; only cancellation is
// returned.
func (b *Builder) copyAssets(ctx context.Context, r *run) error {
	trees := make([]tree, 0, len(b.cfg.AssetDirs)+1+len(r.copies))
	for _, dir := range b.cfg.AssetDirs {
		trees = append(trees, tree{src: filepath.Join(b.cfg.Input, dir), dst: filepath.Join(b.cfg.Output, dir)})
	}
	trees = append(trees, r.copies...)
	trees = append(trees, tree{src: filepath.Join(b.cfg.Input, b.cfg.PassthroughDir), dst: b.cfg.Output})

	var jobs []copyJob
	for _, t := range trees {
		jobs = append(jobs, b.collect(r, t)...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.CopyConcurrency)

	var mu sync.Mutex
	var errs *multierror.Error
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			copied, err := b.io.CopyIfChanged(gctx, job.src, job.dst)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				errs = multierror.Append(errs, err)
				r.report.AssetsSkipped++
				b.recorder.IncAsset(metrics.AssetSkipped)
				r.logger.Warn("Asset skipped", logfields.File(b.display(job.src)), logfields.Error(err))
			case copied:
				r.report.AssetsCopied++
				b.recorder.IncAsset(metrics.AssetCopied)
			default:
				r.report.AssetsUnchanged++
				b.recorder.IncAsset(metrics.AssetUnchanged)
			}
			return nil
		})
	}
	waitErr := g.Wait()
	r.report.CopyErrors = errs.ErrorOrNil()
	if ctx.Err() != nil {
		return canceledErr(ctx)
	}
	return waitErr
}

// collect expands a tree into file copies, applying the ignore filter to
// paths relative to the input root. A missing tree yields nothing.
func (b *Builder) collect(r *run, t tree) []copyJob {
	info, err := b.fs.Stat(t.src)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return []copyJob{{src: t.src, dst: t.dst}}
	}

	var jobs []copyJob
	_ = afero.Walk(b.fs, t.src, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			r.logger.Warn("Walk error", logfields.Path(p), logfields.Error(err))
			return nil
		}
		if r.filter.Skip(b.display(p), info.IsDir()) {
			r.report.AssetsIgnored++
			b.recorder.IncAsset(metrics.AssetIgnored)
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(t.src, p)
		if relErr != nil {
			return nil
		}
		jobs = append(jobs, copyJob{src: p, dst: filepath.Join(t.dst, rel)})
		return nil
	})
	return jobs
}

// display returns the slash path of p relative to the input root.
func (b *Builder) display(p string) string {
	rel, err := filepath.Rel(b.cfg.Input, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
