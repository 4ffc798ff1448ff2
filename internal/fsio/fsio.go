// Package fsio wraps filesystem access for the site driver: reads that never
// fail, writes and copies that skip unchanged targets, and bounded retries of
// transient failures.
package fsio

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/retry"
)

// FS performs retried reads and change-aware writes on an afero filesystem.
type FS struct {
	fs      afero.Fs
	policy  retry.Policy
	logger  *slog.Logger
	onRetry func(op string)
}

// Option customizes an FS.
type Option func(*FS)

// WithLogger sets the logger used for retry and skip messages.
func WithLogger(l *slog.Logger) Option { return func(f *FS) { f.logger = l } }

// WithRetryHook registers a callback invoked on every retry with the
// operation name ("read", "write" or "copy").
func WithRetryHook(fn func(op string)) Option { return func(f *FS) { f.onRetry = fn } }

// New returns an FS over fs using policy for transient failures.
func New(fsys afero.Fs, policy retry.Policy, opts ...Option) *FS {
	f := &FS{fs: fsys, policy: policy, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Read returns the contents of path. A missing file, or one that still fails
// after all retries, reads as "".
func (f *FS) Read(path string) string {
	data, err := f.ReadBytes(context.Background(), path)
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("Read failed, treating file as empty", logfields.Path(path), logfields.Error(err))
		}
		return ""
	}
	return string(data)
}

// ReadBytes reads path, retrying transient failures.
func (f *FS) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := f.do(ctx, "read", path, func() error {
		b, err := afero.ReadFile(f.fs, path)
		if err != nil {
			return classify(err, "read failed", path)
		}
		data = b
		return nil
	})
	return data, err
}

// WriteIfChanged writes data to path unless the existing file already holds
// identical bytes. A read-only target is made writable first. It reports
// whether a write happened.
func (f *FS) WriteIfChanged(ctx context.Context, path string, data []byte) (bool, error) {
	if existing, err := afero.ReadFile(f.fs, path); err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	err := f.do(ctx, "write", path, func() error {
		if err := f.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return classify(err, "create directory failed", path)
		}
		if err := f.clearReadOnly(path); err != nil {
			return classify(err, "clear read-only failed", path)
		}
		if err := afero.WriteFile(f.fs, path, data, 0o644); err != nil {
			return classify(err, "write failed", path)
		}
		return nil
	})
	return err == nil, err
}

// CopyIfChanged copies src to dst unless dst already has identical content.
func (f *FS) CopyIfChanged(ctx context.Context, src, dst string) (bool, error) {
	info, err := f.fs.Stat(src)
	if err != nil {
		return false, classify(err, "stat source failed", src)
	}
	if dstInfo, err := f.fs.Stat(dst); err == nil && dstInfo.Size() == info.Size() {
		same, err := f.sameContent(src, dst)
		if err == nil && same {
			return false, nil
		}
	}
	err = f.do(ctx, "copy", dst, func() error {
		return f.copyFile(src, dst, info.Mode().Perm())
	})
	return err == nil, err
}

func (f *FS) copyFile(src, dst string, perm os.FileMode) error {
	if err := f.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return classify(err, "create directory failed", dst)
	}
	if err := f.clearReadOnly(dst); err != nil {
		return classify(err, "clear read-only failed", dst)
	}
	in, err := f.fs.Open(src)
	if err != nil {
		return classify(err, "open source failed", src)
	}
	defer func() { _ = in.Close() }()

	out, err := f.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o200)
	if err != nil {
		return classify(err, "open target failed", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return classify(err, "copy failed", dst)
	}
	if err := out.Close(); err != nil {
		return classify(err, "close target failed", dst)
	}
	return nil
}

func (f *FS) sameContent(a, b string) (bool, error) {
	da, err := afero.ReadFile(f.fs, a)
	if err != nil {
		return false, err
	}
	db, err := afero.ReadFile(f.fs, b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

// clearReadOnly adds the owner write bit to an existing file.
func (f *FS) clearReadOnly(path string) error {
	info, err := f.fs.Stat(path)
	if err != nil || info.IsDir() || info.Mode().Perm()&0o200 != 0 {
		return nil
	}
	return f.fs.Chmod(path, info.Mode().Perm()|0o200)
}

func (f *FS) do(ctx context.Context, op, path string, fn func() error) error {
	return retry.Do(ctx, f.policy, fn, func(attempt int, err error) {
		f.logger.Debug("Retrying filesystem operation",
			slog.String("op", op), logfields.Path(path), logfields.Attempt(attempt), logfields.Error(err))
		if f.onRetry != nil {
			f.onRetry(op)
		}
	})
}

func classify(err error, msg, path string) error {
	return errors.IOError(err, msg, path).Build()
}
