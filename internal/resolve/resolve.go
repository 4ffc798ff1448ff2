// Package resolve finds include and layout files by searching candidate
// directories in priority order.
package resolve

import (
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
)

// Result is the outcome of one resolution.
type Result struct {
	Requested string
	Found     bool
	Path      string   // set when Found
	Attempted []string // every candidate tried, in order
}

// Resolver checks candidate paths on a filesystem.
type Resolver struct {
	fs afero.Fs
}

// New returns a Resolver over fs.
func New(fs afero.Fs) *Resolver {
	return &Resolver{fs: fs}
}

// Resolve joins name with each dir in order and returns the first existing
// regular file. Empty and duplicate dirs are skipped. There is no partial
// matching and no extension inference.
func (r *Resolver) Resolve(name string, dirs ...string) Result {
	res := Result{Requested: name}
	if name == "" {
		return res
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, filepath.FromSlash(name))
		if slices.Contains(res.Attempted, candidate) {
			continue
		}
		res.Attempted = append(res.Attempted, candidate)
		if info, err := r.fs.Stat(candidate); err == nil && !info.IsDir() {
			res.Found = true
			res.Path = candidate
			return res
		}
	}
	return res
}
