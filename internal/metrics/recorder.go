package metrics

import "time"

// OutcomeLabel enumerates regeneration pass outcomes.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeWarning  OutcomeLabel = "warning" // finished with diagnostics or skipped copies
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// PageResult enumerates what happened to one composed page.
type PageResult string

const (
	PageWritten   PageResult = "written"
	PageUnchanged PageResult = "unchanged"
	PageFailed    PageResult = "failed"
)

// AssetResult enumerates what happened to one copied file.
type AssetResult string

const (
	AssetCopied    AssetResult = "copied"
	AssetUnchanged AssetResult = "unchanged"
	AssetSkipped   AssetResult = "skipped"
	AssetIgnored   AssetResult = "ignored"
)

// Recorder defines observability hooks for regeneration passes.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome OutcomeLabel)
	IncPage(result PageResult)
	IncDiagnostic(kind string)
	IncAsset(result AssetResult)
	IncRetry(op string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(OutcomeLabel)       {}
func (NoopRecorder) IncPage(PageResult)                 {}
func (NoopRecorder) IncDiagnostic(string)               {}
func (NoopRecorder) IncAsset(AssetResult)               {}
func (NoopRecorder) IncRetry(string)                    {}
