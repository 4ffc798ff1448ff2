package site

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitesmith/internal/compose"
	"git.home.luguber.info/inful/sitesmith/internal/config"
	"git.home.luguber.info/inful/sitesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesmith/internal/fsio"
	"git.home.luguber.info/inful/sitesmith/internal/ignore"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/markdown"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
	"git.home.luguber.info/inful/sitesmith/internal/resolve"
	"git.home.luguber.info/inful/sitesmith/internal/retry"
	"git.home.luguber.info/inful/sitesmith/internal/scope"
)

// Builder runs regeneration passes for one configuration. Passes are
// serialized: a Build call waits for any pass already in flight.
type Builder struct {
	cfg      *config.Config
	fs       afero.Fs
	io       *fsio.FS
	conv     *markdown.Converter
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	retries atomic.Int64
}

// Option customizes a Builder.
type Option func(*Builder)

// WithFs replaces the OS filesystem, mainly for tests.
func WithFs(fs afero.Fs) Option { return func(b *Builder) { b.fs = fs } }

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(b *Builder) { b.recorder = r } }

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

// WithClock overrides the time source used for $(date).
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

// New creates a Builder.
func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		fs:       afero.NewOsFs(),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.io = fsio.New(b.fs, retry.FromConfig(cfg),
		fsio.WithLogger(b.logger),
		fsio.WithRetryHook(func(op string) {
			b.retries.Add(1)
			b.recorder.IncRetry(op)
		}))
	b.conv = markdown.New()
	return b
}

// run holds the state of one pass.
type run struct {
	id            string
	logger        *slog.Logger
	stack         *scope.Stack
	engine        *compose.Engine
	filter        *ignore.Filter
	report        *Report
	defaultLayout string
	copies        []tree
	links         []pageLinks
}

// Build performs one full regeneration pass.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := config.Validate(b.cfg); err != nil {
		return nil, err
	}
	if info, err := b.fs.Stat(b.cfg.Input); err != nil || !info.IsDir() {
		return nil, errors.ConfigError("input directory does not exist").
			WithContext("input", b.cfg.Input).Build()
	}

	r := &run{id: uuid.NewString()}
	r.logger = b.logger.With(logfields.BuildID(r.id))
	r.report = newReport(r.id, b.now())
	retriesBefore := b.retries.Load()

	r.logger.Info("Regeneration started", slog.String("input", b.cfg.Input), slog.String("output", b.cfg.Output))

	stack, err := b.LoadVariables()
	if err != nil {
		r.logger.Warn("Variables file not fully loaded", logfields.Error(err))
		r.report.addWarning(err)
	}
	r.stack = stack

	filter, err := ignore.Load(b.fs, filepath.Join(b.cfg.Input, b.cfg.IgnoreFile))
	if err != nil {
		r.logger.Warn("Ignore file not loaded", logfields.Error(err))
		r.report.addWarning(err)
		filter = ignore.New(nil)
	}
	r.filter = filter

	r.engine = compose.New(compose.Options{
		Converter:  b.conv,
		Reader:     b.io,
		Resolver:   resolve.New(b.fs),
		InputRoot:  b.cfg.Input,
		IncludeDir: b.cfg.IncludeDir,
		LayoutDir:  b.cfg.LayoutDir,
		Debug:      b.cfg.Debug,
		Now:        b.now,
		Logger:     r.logger,
	})
	r.defaultLayout = b.defaultLayout()

	canceled := b.buildPages(ctx, r)
	if !canceled {
		b.writeSitemap(ctx, r)
		canceled = b.copyAssets(ctx, r) != nil
	}
	if !canceled {
		b.checkLinks(r)
	}

	r.report.Retries = int(b.retries.Load() - retriesBefore)
	r.report.finish(b.now(), canceled)
	b.recorder.ObserveBuildDuration(r.report.Duration())
	b.recorder.IncBuildOutcome(r.report.Outcome)

	r.logger.Info("Regeneration finished", slog.String("summary", r.report.Summary()))
	if canceled {
		return r.report, ctx.Err()
	}
	return r.report, nil
}

// LoadVariables returns a fresh stack seeded from the variables file. A
// missing file yields an empty stack.
func (b *Builder) LoadVariables() (*scope.Stack, error) {
	stack := scope.New()
	path := filepath.Join(b.cfg.Input, b.cfg.VariablesFile)
	text := b.io.Read(path)
	if text == "" {
		return stack, nil
	}
	n, err := stack.LoadInitial(strings.NewReader(text))
	if err != nil {
		return stack, errors.WrapError(err, errors.CategoryValidation, "invalid variables file").
			WithContext("path", path).Warning().Build()
	}
	b.logger.Debug("Variables loaded", logfields.Path(path), logfields.Count(n))
	return stack, nil
}

// defaultLayout returns the first HTML file, by name, in the global layout
// directory.
func (b *Builder) defaultLayout() string {
	dir := filepath.Join(b.cfg.Input, b.cfg.LayoutDir)
	entries, err := afero.ReadDir(b.fs, dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".html", ".htm":
			return filepath.Join(dir, entry.Name())
		}
	}
	return ""
}

func (b *Builder) outputPath(rel string) string {
	return filepath.Join(b.cfg.Output, filepath.FromSlash(rel))
}

func canceledErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("regeneration canceled: %w", err)
	}
	return nil
}
