package config

import "time"

const (
	defaultSrc           = "src"
	defaultDest          = "dist"
	defaultHost          = "localhost"
	defaultPort          = 9000
	defaultServePath     = "/"
	defaultMetricsPath   = "/metrics"
	defaultNotifySubject = "dist.builds"
	defaultDebounce      = 300 * time.Millisecond
	defaultRetries       = 2
)

// Defaults returns a Config populated with default values. Decoding a config
// file on top of it keeps these values for keys the file leaves out.
func Defaults() Config {
	return Config{
		Dist: DistConfig{
			Src:  defaultSrc,
			Dest: defaultDest,
		},
		Serve: ServeConfig{
			Host:       defaultHost,
			Port:       defaultPort,
			Path:       defaultServePath,
			LiveReload: true,
		},
		Flags: FlagsConfig{
			Overwrite: true,
			Collision: CollisionSkip,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
		Metrics: MetricsConfig{
			Path: defaultMetricsPath,
		},
		Notify: NotifyConfig{
			Subject: defaultNotifySubject,
		},
		Publish: PublishConfig{
			Retries: defaultRetries,
			Backoff: RetryBackoffLinear,
		},
	}
}
