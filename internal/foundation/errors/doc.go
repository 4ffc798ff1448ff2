// Package errors provides the classified error primitives used across sitesmith.
//
// Errors carry a category (config, filesystem, compose, ...), a severity and a
// retry strategy so that callers can decide whether to retry, skip or abort
// without string matching.
//
// Example usage:
//
//	err := errors.WrapError(ioErr, errors.CategoryFileSystem, "read failed").
//		Retryable().
//		WithContext("path", path).
//		Build()
package errors
