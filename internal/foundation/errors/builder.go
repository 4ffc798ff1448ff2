package errors

import (
	stderrors "errors"
	"io/fs"
)

// ErrorBuilder assembles a ClassifiedError fluently.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category. The defaults are severity
// error and no retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
	}}
}

// WrapError starts an error that wraps cause.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = cause
	return b
}

// IOError classifies a filesystem failure on path. Missing files are
// not_found and permission problems need user action; both are permanent.
// Every other failure is treated as transient.
func IOError(cause error, message, path string) *ErrorBuilder {
	b := WrapError(cause, CategoryFileSystem, message).WithContext("path", path)
	switch {
	case stderrors.Is(cause, fs.ErrNotExist):
		b.err.category = CategoryNotFound
	case stderrors.Is(cause, fs.ErrPermission):
		b.err.retry = RetryUserAction
	default:
		b.err.retry = RetryBackoff
	}
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder   { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder { return b.WithSeverity(SeverityWarning) }

// Retryable marks the error as transient.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	b.err.retry = RetryBackoff
	return b
}

// Build returns the error. The builder may be reused; later changes do not
// leak into errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	out.context = b.err.context.clone(nil)
	return &out
}

// ConfigError reports an unusable configuration file or flag.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError reports a configuration or input value that breaks an invariant.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

// FileSystemError reports a transient filesystem failure.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message).Retryable()
}

// ComposeError reports a directive fault.
func ComposeError(message string) *ErrorBuilder {
	return NewError(CategoryCompose, message).Warning()
}

// BuildError reports a pass that finished but could not write every page.
func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message)
}
