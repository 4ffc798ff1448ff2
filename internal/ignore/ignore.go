// Package ignore decides which asset and passthrough files are skipped during
// copying, using gitignore pattern semantics.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/spf13/afero"
)

// Filter matches slash-separated paths relative to the input root.
type Filter struct {
	patterns []string
	matcher  gitignore.Matcher
}

// New compiles patterns. Blank lines and # comments are ignored.
func New(patterns []string) *Filter {
	f := &Filter{}
	var compiled []gitignore.Pattern
	for _, p := range patterns {
		p = strings.TrimRight(p, " \t\r")
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		f.patterns = append(f.patterns, p)
		compiled = append(compiled, gitignore.ParsePattern(p, nil))
	}
	f.matcher = gitignore.NewMatcher(compiled)
	return f
}

// Load reads patterns from path. A missing file yields an empty filter.
func Load(fsys afero.Fs, path string) (*Filter, error) {
	file, err := fsys.Open(path)
	if os.IsNotExist(err) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ignore file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file: %w", err)
	}
	return New(lines), nil
}

// Patterns returns the active patterns in file order.
func (f *Filter) Patterns() []string { return f.patterns }

// Skip reports whether rel should be left out of the copy.
func (f *Filter) Skip(rel string, isDir bool) bool {
	if f == nil || len(f.patterns) == 0 {
		return false
	}
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return false
	}
	return f.matcher.Match(strings.Split(rel, "/"), isDir)
}
