// Package notify announces finished builds to other systems.
package notify

import (
	"context"
	"time"
)

// BuildEvent is published once per build run.
type BuildEvent struct {
	RunID      string         `json:"run_id"`
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	DurationMS int64          `json:"duration_ms"`
	Source     string         `json:"source"`
	Dest       string         `json:"dest"`
	BaseURL    string         `json:"base_url"`
	Split      int            `json:"split,omitempty"`
	Partition  int            `json:"partition,omitempty"`
	Files      map[string]int `json:"files"`
	Error      string         `json:"error,omitempty"`
}

// Publisher sends build events.
type Publisher interface {
	Publish(ctx context.Context, event BuildEvent) error
	Close() error
}

// Noop is the Publisher used when notifications are not configured.
type Noop struct{}

func (Noop) Publish(context.Context, BuildEvent) error { return nil }
func (Noop) Close() error                              { return nil }
