package compose

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitesmith/internal/resolve"
)

// Converter turns Markdown into HTML.
type Converter interface {
	Convert(src string) (string, error)
}

// Reader returns file contents, or "" when the file is absent or unreadable.
type Reader interface {
	Read(path string) string
}

// Options configures an Engine.
type Options struct {
	Converter  Converter
	Reader     Reader
	Resolver   *resolve.Resolver
	InputRoot  string
	IncludeDir string // directory name, default "include"
	LayoutDir  string // directory name, default "layout"
	// Debug enables include-debug directives.
	Debug  bool
	Now    func() time.Time
	Logger *slog.Logger
}

// Engine expands directives. It is immutable after New and may be shared.
type Engine struct {
	conv       Converter
	reader     Reader
	resolver   *resolve.Resolver
	inputRoot  string
	includeDir string
	layoutDir  string
	debug      bool
	now        func() time.Time
	logger     *slog.Logger
}

// New builds an Engine from opts.
func New(opts Options) *Engine {
	e := &Engine{
		conv:       opts.Converter,
		reader:     opts.Reader,
		resolver:   opts.Resolver,
		inputRoot:  opts.InputRoot,
		includeDir: opts.IncludeDir,
		layoutDir:  opts.LayoutDir,
		debug:      opts.Debug,
		now:        opts.Now,
		logger:     opts.Logger,
	}
	if e.includeDir == "" {
		e.includeDir = "include"
	}
	if e.layoutDir == "" {
		e.layoutDir = "layout"
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Compose expands text as the root file of c's composition chain, applying
// any requested layout. Diagnostics are collected on c.
func (e *Engine) Compose(c *Context, text string) string {
	return e.run(c, text)
}

func (e *Engine) includeDirs(c *Context) []string {
	return []string{
		filepath.Dir(c.File),
		filepath.Join(filepath.Dir(c.Root), e.includeDir),
		filepath.Join(e.inputRoot, e.includeDir),
	}
}

func (e *Engine) layoutDirs(c *Context) []string {
	return []string{
		filepath.Dir(c.File),
		filepath.Join(filepath.Dir(c.Root), e.layoutDir),
		filepath.Join(e.inputRoot, e.layoutDir),
	}
}

// display renders a path relative to the input root for diagnostics.
func (e *Engine) display(path string) string {
	rel, err := filepath.Rel(e.inputRoot, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
