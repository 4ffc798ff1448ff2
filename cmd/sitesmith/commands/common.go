package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitesmith/internal/config"
)

// Global carries state shared by every command.
type Global struct {
	Logger *slog.Logger
}

// logger returns the command logger, falling back to the process default.
func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitesmith.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Regenerate the site once"`
	Watch WatchCmd `cmd:"" help:"Regenerate on every change, optionally serving the output"`
	Init  InitCmd  `cmd:"" help:"Write a sample configuration and starter site"`
	Vars  VarsCmd  `cmd:"" help:"Print the variables every page starts with"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)})))
	return nil
}

// parseLogLevel prefers --verbose, then SITESMITH_LOG_LEVEL, then Info.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SITESMITH_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// BuildFlags override configuration values for build-like commands.
type BuildFlags struct {
	Input  string `short:"i" help:"Input directory (overrides config)"`
	Output string `short:"o" help:"Output directory (overrides config)"`
	Debug  bool   `help:"Enable include-debug directives"`
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(path string, flags BuildFlags) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.Input != "" {
		cfg.Input = flags.Input
	}
	if flags.Output != "" {
		cfg.Output = flags.Output
	}
	if flags.Debug {
		cfg.Debug = true
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
