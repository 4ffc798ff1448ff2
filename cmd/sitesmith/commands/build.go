package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitesmith/internal/config"
	"git.home.luguber.info/inful/sitesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
	"git.home.luguber.info/inful/sitesmith/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	BuildFlags `embed:""`
	Report     string `name:"report" help:"Directory to write build-report.json and build-report.txt into"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, b.BuildFlags)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunBuild(ctx, cfg, b.Report, os.Stdout, site.WithLogger(g.logger()))
}

// RunBuild performs one pass and prints its summary to out.
func RunBuild(ctx context.Context, cfg *config.Config, reportDir string, out io.Writer, opts ...site.Option) error {
	report, err := site.New(cfg, opts...).Build(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, report.Summary())

	if reportDir != "" {
		if err := report.Persist(afero.NewOsFs(), reportDir); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to write build report").
				WithContext("dir", reportDir).Build()
		}
	}
	if report.Outcome == metrics.OutcomeFailed {
		return errors.BuildError("some pages could not be written").
			WithContext("failed", report.PagesFailed).Build()
	}
	return nil
}
