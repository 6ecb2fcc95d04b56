package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/dist/internal/foundation/errors"
)

// Load reads, decodes, normalizes and validates the configuration file at path.
// A missing file is a config error.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadOptional behaves like Load but returns the defaults when the file does not exist.
// The CLI uses it for the implicit dist.yaml.
func LoadOptional(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, required bool) (*Config, error) {
	loadEnvFiles()

	cfg := Defaults()
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case errors.Is(err, fs.ErrNotExist) && !required:
		// defaults only
	case err != nil:
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithCause(err).WithContext("path", path).Build()
		}
		return nil, ferrors.ConfigError("failed to read config file").
			WithCause(err).WithContext("path", path).Build()
	default:
		if err := decode(path, []byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, ferrors.ConfigError("failed to decode config file").
				WithCause(err).WithContext("path", path).Build()
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decode picks the decoder from the file extension. JSON files may carry comments.
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(cfg)
	}
}

// normalize canonicalizes enum-like fields in place.
func (c *Config) normalize() error {
	policy, err := NormalizeCollisionPolicy(string(c.Flags.Collision))
	if err != nil {
		return ferrors.ValidationError("invalid flags.collision").WithCause(err).Build()
	}
	c.Flags.Collision = policy

	level, err := NormalizeLogLevel(string(c.Logging.Level))
	if err != nil {
		return ferrors.ValidationError("invalid logging.level").WithCause(err).Build()
	}
	c.Logging.Level = level

	format, err := NormalizeLogFormat(string(c.Logging.Format))
	if err != nil {
		return ferrors.ValidationError("invalid logging.format").WithCause(err).Build()
	}
	c.Logging.Format = format

	backoff, err := NormalizeRetryBackoffMode(string(c.Publish.Backoff))
	if err != nil {
		return ferrors.ValidationError("invalid publish.backoff").WithCause(err).Build()
	}
	c.Publish.Backoff = backoff

	if c.Serve.Path == "" {
		c.Serve.Path = defaultServePath
	}
	if !strings.HasPrefix(c.Serve.Path, "/") {
		c.Serve.Path = "/" + c.Serve.Path
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = defaultMetricsPath
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = defaultNotifySubject
	}
	return nil
}
