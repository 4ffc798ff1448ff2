// Package site drives a full regeneration pass: it discovers root pages in
// the configured categories, composes each one, rewrites nested links,
// writes changed output, emits the sitemap and copies asset and passthrough
// trees.
//
// A single page fault never aborts a pass. Composition faults are rendered
// into the page and counted in the Report; copy failures that exhaust their
// retries are skipped, logged and aggregated into Report.CopyErrors.
package site
