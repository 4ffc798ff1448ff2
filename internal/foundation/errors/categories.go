package errors

import "maps"

// ErrorCategory groups errors by the part of a regeneration pass that raised
// them. The CLI maps categories to exit codes.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound marks a missing source file or directory.
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryFileSystem ErrorCategory = "filesystem"

	// CategoryCompose marks directive faults. They are rendered into the page
	// and never stop a pass.
	CategoryCompose ErrorCategory = "compose"
	CategoryBuild   ErrorCategory = "build"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity says how far an error propagates.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // aborts the command
	SeverityError   ErrorSeverity = "error"   // fails the current page or copy
	SeverityWarning ErrorSeverity = "warning" // output is produced, degraded
	SeverityInfo    ErrorSeverity = "info"
)

// RetryStrategy says whether repeating the operation can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user" // e.g. fix permissions, then rerun
)

// ErrorContext holds structured fields such as path or line.
type ErrorContext map[string]any

// Set adds or updates a value, allocating the map on first use.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a value.
func (c ErrorContext) Get(key string) (any, bool) {
	value, ok := c[key]
	return value, ok
}

// GetString retrieves a string value.
func (c ErrorContext) GetString(key string) (string, bool) {
	value, ok := c[key].(string)
	return value, ok
}

// clone returns an independent copy with extra applied on top.
func (c ErrorContext) clone(extra ErrorContext) ErrorContext {
	out := make(ErrorContext, len(c)+len(extra))
	maps.Copy(out, c)
	maps.Copy(out, extra)
	return out
}
