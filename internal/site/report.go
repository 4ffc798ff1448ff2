package site

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitesmith/internal/compose"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
)

// Report summarizes one regeneration pass.
type Report struct {
	BuildID string    `json:"build_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`

	PagesComposed  int `json:"pages_composed"`
	PagesWritten   int `json:"pages_written"`
	PagesUnchanged int `json:"pages_unchanged"`
	PagesFailed    int `json:"pages_failed"`

	Diagnostics map[compose.Kind]int `json:"diagnostics,omitempty"`

	AssetsCopied    int `json:"assets_copied"`
	AssetsUnchanged int `json:"assets_unchanged"`
	AssetsSkipped   int `json:"assets_skipped"`
	AssetsIgnored   int `json:"assets_ignored"`

	BrokenLinks    int      `json:"broken_links"`
	Retries        int      `json:"retries"`
	SitemapWritten bool     `json:"sitemap_written"`
	URLs           []string `json:"urls,omitempty"`

	// CopyErrors aggregates copies skipped after their retries were exhausted.
	CopyErrors error   `json:"-"`
	Warnings   []error `json:"-"`

	Outcome metrics.OutcomeLabel `json:"outcome"`
}

func newReport(id string, start time.Time) *Report {
	return &Report{BuildID: id, Start: start, Diagnostics: map[compose.Kind]int{}}
}

func (r *Report) addDiagnostic(kind compose.Kind) { r.Diagnostics[kind]++ }

func (r *Report) addWarning(err error) { r.Warnings = append(r.Warnings, err) }

// DiagnosticCount returns the number of composition faults across all kinds.
func (r *Report) DiagnosticCount() int {
	n := 0
	for _, c := range r.Diagnostics {
		n += c
	}
	return n
}

// Duration returns the wall time of the pass.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

func (r *Report) finish(end time.Time, canceled bool) {
	r.End = end
	r.deriveOutcome(canceled)
}

func (r *Report) deriveOutcome(canceled bool) {
	switch {
	case canceled:
		r.Outcome = metrics.OutcomeCanceled
	case r.PagesFailed > 0:
		r.Outcome = metrics.OutcomeFailed
	case r.DiagnosticCount() > 0 || r.AssetsSkipped > 0 || len(r.Warnings) > 0 || r.BrokenLinks > 0:
		r.Outcome = metrics.OutcomeWarning
	default:
		r.Outcome = metrics.OutcomeSuccess
	}
}

// Summary returns a one-line description for logs.
func (r *Report) Summary() string {
	return fmt.Sprintf("pages=%d written=%d unchanged=%d failed=%d diagnostics=%d assets=%d skipped=%d broken_links=%d duration=%s outcome=%s",
		r.PagesComposed, r.PagesWritten, r.PagesUnchanged, r.PagesFailed, r.DiagnosticCount(),
		r.AssetsCopied, r.AssetsSkipped, r.BrokenLinks, r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// reportSerializable adds the flattened error strings to the JSON form.
type reportSerializable struct {
	*Report
	CopyErrors []string `json:"copy_errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Persist writes build-report.json and build-report.txt into dir, each via
// a temporary file and rename.
func (r *Report) Persist(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	snapshot := *r
	snapshot.URLs = slices.Clone(r.URLs)
	out := reportSerializable{Report: &snapshot}
	if r.CopyErrors != nil {
		if me, ok := r.CopyErrors.(interface{ WrappedErrors() []error }); ok {
			for _, err := range me.WrappedErrors() {
				out.CopyErrors = append(out.CopyErrors, err.Error())
			}
		} else {
			out.CopyErrors = []string{r.CopyErrors.Error()}
		}
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeAtomic(fs, filepath.Join(dir, "build-report.json"), data); err != nil {
		return err
	}
	return writeAtomic(fs, filepath.Join(dir, "build-report.txt"), []byte(r.Summary()+"\n"))
}

func writeAtomic(fs afero.Fs, path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
