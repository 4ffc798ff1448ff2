package compose

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesmith/internal/markdown"
	"git.home.luguber.info/inful/sitesmith/internal/resolve"
	"git.home.luguber.info/inful/sitesmith/internal/scope"
)

const siteRoot = "site"

var fixedNow = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

type fsReader struct{ fs afero.Fs }

func (r fsReader) Read(path string) string {
	b, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return ""
	}
	return string(b)
}

type fixture struct {
	fs     afero.Fs
	engine *Engine
	stack  *scope.Stack
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, sitePath(name), []byte(content), 0o644))
	}
	return &fixture{
		fs: fs,
		engine: New(Options{
			Converter: markdown.New(),
			Reader:    fsReader{fs: fs},
			Resolver:  resolve.New(fs),
			InputRoot: siteRoot,
			Now:       func() time.Time { return fixedNow },
			Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		}),
		stack: scope.New(),
	}
}

func (f *fixture) compose(t *testing.T, page string) (string, *Context) {
	t.Helper()
	path := sitePath(page)
	c := NewContext(path, f.stack)
	f.stack.Push()
	defer f.stack.Pop()
	return f.engine.Compose(c, fsReader{fs: f.fs}.Read(path)), c
}

func sitePath(rel string) string {
	return filepath.Join(siteRoot, filepath.FromSlash(rel))
}

func kinds(diags []Diagnostic) []Kind {
	out := make([]Kind, len(diags))
	for i, d := range diags {
		out[i] = d.Kind
	}
	return out
}
