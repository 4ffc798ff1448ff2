package commands

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
	"git.home.luguber.info/inful/sitesmith/internal/site"
	"git.home.luguber.info/inful/sitesmith/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BuildFlags `embed:""`
	Serve      string `name:"serve" help:"Serve the output directory on this address, e.g. :8080 (overrides config)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, w.BuildFlags)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := g.logger()
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Watch.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		prom := metrics.NewPrometheusRecorder(reg)
		recorder = prom
		metricsHandler = prom.Handler()
	}

	builder := site.New(cfg, site.WithRecorder(recorder), site.WithLogger(logger))
	regen := watch.NewRegenerator(builder, cfg.PollInterval(), watch.WithLogger(logger))

	watcher, err := watch.NewWatcher(cfg.Input, cfg.Output, regen.Notify, logger)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	go func() { _ = watcher.Run(ctx) }()

	addr := w.Serve
	if addr == "" {
		addr = cfg.Watch.ServeAddr
	}
	if addr != "" {
		srv := watch.NewServer(addr, cfg.Output, metricsHandler, logger)
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Dev server shutdown error", logfields.Error(err))
			}
		}()
	}

	return regen.Run(ctx)
}
