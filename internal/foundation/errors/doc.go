// Package errors provides the classified error primitives used across dist.
//
// Key features:
//   - ErrorCategory: broad classification (config, validation, not_found, filesystem, build, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether re-running the operation can help
//   - ClassifiedError: structured error with category, severity, cause and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit code and message mapping for the dist binary
//
// Example usage:
//
//	err := errors.WrapError(statErr, errors.CategoryNotFound, "source directory not found").
//		WithContext("path", root).
//		Build()
package errors
