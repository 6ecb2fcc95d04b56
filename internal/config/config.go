// Package config holds the dist configuration aggregate: the decoded config file,
// its defaults, validation, and the resolved (absolute path) view handed to every
// build component.
package config

import (
	"fmt"
	"time"
)

// DefaultConfigFile is the configuration file looked up when -c is not given.
const DefaultConfigFile = "dist.yaml"

// Config represents the dist configuration file.
type Config struct {
	WorkingDir string        `yaml:"cwd,omitempty" json:"cwd,omitempty"`
	Dist       DistConfig    `yaml:"dist" json:"dist"`
	Serve      ServeConfig   `yaml:"serve" json:"serve"`
	Flags      FlagsConfig   `yaml:"flags" json:"flags"`
	Watch      WatchConfig   `yaml:"watch" json:"watch"`
	Logging    LoggingConfig `yaml:"logging" json:"logging"`
	Metrics    MetricsConfig `yaml:"metrics" json:"metrics"`
	History    HistoryConfig `yaml:"history,omitempty" json:"history,omitempty"`
	Notify     NotifyConfig  `yaml:"notify,omitempty" json:"notify,omitempty"`
	Publish    PublishConfig `yaml:"publish,omitempty" json:"publish,omitempty"`
}

// DistConfig describes the source tree, the destination tree and the base URL.
type DistConfig struct {
	Src     string `yaml:"src" json:"src"`
	Dest    string `yaml:"dest" json:"dest"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Split and Partition select a disjoint slice of the discovered files so
	// several dist processes can share one build. Zero means "everything".
	Split     int `yaml:"split,omitempty" json:"split,omitempty"`
	Partition int `yaml:"partition,omitempty" json:"partition,omitempty"`
}

// ServeConfig configures the development server.
type ServeConfig struct {
	Host       string `yaml:"host" json:"host"`
	Port       int    `yaml:"port" json:"port"`
	Open       bool   `yaml:"open" json:"open"`
	Path       string `yaml:"path" json:"path"`
	LiveReload bool   `yaml:"live_reload" json:"live_reload"`
}

// FlagsConfig holds behaviour switches for the copy step.
type FlagsConfig struct {
	Overwrite bool            `yaml:"overwrite" json:"overwrite"`
	Collision CollisionPolicy `yaml:"collision,omitempty" json:"collision,omitempty"` // used when overwrite is false
}

// WatchConfig tunes the file watcher. Durations use time.ParseDuration syntax.
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty" json:"debounce,omitempty"`
	Interval string `yaml:"interval,omitempty" json:"interval,omitempty"` // periodic full rebuild; empty disables
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level" json:"level"`
	Format LogFormat `yaml:"format" json:"format"`
}

// MetricsConfig toggles Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// HistoryConfig points at the SQLite build history database. Empty disables history.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// NotifyConfig configures build notifications over NATS. Empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty" json:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty" json:"subject,omitempty"`
}

// PublishConfig configures uploads of the built tree to S3-compatible storage.
type PublishConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty" json:"region,omitempty"`
	Bucket    string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	AccessKey string `yaml:"access_key,omitempty" json:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty" json:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty" json:"use_ssl,omitempty"`
	// Retries is how many times a failed upload is retried.
	Retries int              `yaml:"retries" json:"retries"`
	Backoff RetryBackoffMode `yaml:"backoff,omitempty" json:"backoff,omitempty"`
}

// DebounceDuration returns the watcher debounce window.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	return parseDuration("watch.debounce", w.Debounce, defaultDebounce)
}

// IntervalDuration returns the periodic rebuild interval (zero when disabled).
func (w WatchConfig) IntervalDuration() (time.Duration, error) {
	return parseDuration("watch.interval", w.Interval, 0)
}

func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", field, raw)
	}
	return d, nil
}
