// Package history keeps a local record of build runs.
package history

import (
	"context"
	"time"
)

// Entry is one recorded build run.
type Entry struct {
	RunID     string
	StartedAt time.Time
	Status    string
	Files     int
	Duration  time.Duration
	Split     int
	Partition int
	Error     string
}

// Store defines the interface for persisting and listing build runs.
type Store interface {
	// Record appends one run.
	Record(ctx context.Context, e Entry) error

	// Latest returns up to limit runs, newest first.
	Latest(ctx context.Context, limit int) ([]Entry, error)

	// Close closes the store and releases resources.
	Close() error
}
