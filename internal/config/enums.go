package config

import (
	"git.home.luguber.info/inful/dist/internal/foundation/normalization"
)

// CollisionPolicy decides what the copier does with an existing destination
// file when overwrite is off.
type CollisionPolicy string

const (
	CollisionSkip  CollisionPolicy = "skip"
	CollisionError CollisionPolicy = "error"
)

var collisionNormalizer = normalization.NewNormalizer("collision policy", map[string]CollisionPolicy{
	"skip":  CollisionSkip,
	"error": CollisionError,
}, CollisionSkip)

// NormalizeCollisionPolicy canonicalizes user input, returning an error for unknown values.
func NormalizeCollisionPolicy(raw string) (CollisionPolicy, error) {
	return collisionNormalizer.NormalizeWithError(raw)
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer("log level", map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) (LogLevel, error) {
	return logLevelNormalizer.NormalizeWithError(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer("log format", map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

func NormalizeLogFormat(raw string) (LogFormat, error) {
	return logFormatNormalizer.NormalizeWithError(raw)
}

// RetryBackoffMode selects how the delay between upload retries grows.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer("retry backoff mode", map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, RetryBackoffLinear)

func NormalizeRetryBackoffMode(raw string) (RetryBackoffMode, error) {
	return retryBackoffNormalizer.NormalizeWithError(raw)
}
