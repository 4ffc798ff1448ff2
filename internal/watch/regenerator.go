// Package watch keeps the output tree current while sources change: a
// single-worker regeneration loop fed by a pending-changes token, a
// filesystem watcher that sets the token, and a development file server.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/sitesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/site"
)

// Builder runs one regeneration pass.
type Builder interface {
	Build(ctx context.Context) (*site.Report, error)
}

// Regenerator serializes regeneration passes. Notify may be called from any
// goroutine; Drain claims the pending token immediately before each pass and
// keeps going while the token was set again during the previous one.
type Regenerator struct {
	builder  Builder
	interval time.Duration
	logger   *slog.Logger
	onPass   func(*site.Report, error)

	pending atomic.Bool
	mu      sync.Mutex
	passes  atomic.Int64
}

// RegeneratorOption customizes a Regenerator.
type RegeneratorOption func(*Regenerator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RegeneratorOption {
	return func(r *Regenerator) { r.logger = l }
}

// WithPassHook registers fn to run after every pass.
func WithPassHook(fn func(*site.Report, error)) RegeneratorOption {
	return func(r *Regenerator) { r.onPass = fn }
}

// NewRegenerator creates a Regenerator polling the token every interval.
func NewRegenerator(b Builder, interval time.Duration, opts ...RegeneratorOption) *Regenerator {
	r := &Regenerator{builder: b, interval: interval, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Notify records that sources changed.
func (r *Regenerator) Notify() { r.pending.Store(true) }

// Pending reports whether a change is waiting for a pass.
func (r *Regenerator) Pending() bool { return r.pending.Load() }

// Passes returns the number of passes run so far.
func (r *Regenerator) Passes() int { return int(r.passes.Load()) }

// Drain runs passes until the pending token stays clear, returning the
// number of passes and the error of the last one.
func (r *Regenerator) Drain(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	var last error
	for ctx.Err() == nil && r.pending.Swap(false) {
		report, err := r.builder.Build(ctx)
		n++
		r.passes.Add(1)
		last = err
		switch {
		case err != nil:
			r.logger.Warn("Regeneration failed", logfields.Error(err))
		case report != nil:
			r.logger.Info("Regeneration complete", logfields.BuildID(report.BuildID), slog.String("summary", report.Summary()))
		}
		if r.onPass != nil {
			r.onPass(report, err)
		}
	}
	return n, last
}

// Run performs the initial pass, then drains the token every interval until
// ctx is done. An initial pass that fails for reasons other than
// cancellation is returned.
func (r *Regenerator) Run(ctx context.Context) error {
	r.Notify()
	if _, err := r.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create gocron scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() { _, _ = r.Drain(ctx) }),
		gocron.WithName("regenerate"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create regeneration job").Build()
	}

	r.logger.Info("Watching for changes", slog.Duration("interval", r.interval))
	s.Start()
	<-ctx.Done()
	r.logger.Info("Stopping regeneration loop")
	return s.Shutdown()
}
