package config

import (
	ferrors "git.home.luguber.info/inful/dist/internal/foundation/errors"
)

// Validate checks values that cannot be normalized into something usable.
func (c *Config) Validate() error {
	if _, ok := CheckPortNumber(c.Serve.Port); !ok {
		return ferrors.ValidationError("serve.port must be between 1 and 65535").
			WithContext("port", c.Serve.Port).Build()
	}
	if c.Dist.Src == "" {
		return ferrors.ValidationError("dist.src must not be empty").Build()
	}
	if c.Dist.Dest == "" {
		return ferrors.ValidationError("dist.dest must not be empty").Build()
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		return ferrors.ValidationError("invalid watch.debounce").WithCause(err).Build()
	}
	if _, err := c.Watch.IntervalDuration(); err != nil {
		return ferrors.ValidationError("invalid watch.interval").WithCause(err).Build()
	}
	if c.Publish.Retries < 0 {
		return ferrors.ValidationError("publish.retries cannot be negative").
			WithContext("retries", c.Publish.Retries).Build()
	}
	if c.Publish.Bucket != "" && c.Publish.Endpoint == "" {
		return ferrors.ValidationError("publish.endpoint is required when publish.bucket is set").Build()
	}
	return nil
}
