// Package store provides the event journal interface and SQLite implementation.
package store

import (
	"context"
	"time"

	"github.com/rcliao/ram-pet/internal/model"
)

// AppendParams holds parameters for journaling an event.
type AppendParams struct {
	Kind           model.EventKind
	Personality    string
	RequestedBytes uint64
	GrantedBytes   uint64
	Hunger         float64
	CommittedBytes uint64
	Note           string
}

// ListParams holds parameters for listing events.
type ListParams struct {
	Kind  model.EventKind
	Since time.Time // zero means no lower bound
	Limit int
}

// Store defines the event journal interface.
type Store interface {
	// Append records one event. Returns the stored event.
	Append(ctx context.Context, p AppendParams) (*model.Event, error)

	// List returns events matching the filters, newest first.
	List(ctx context.Context, p ListParams) ([]model.Event, error)

	// Close closes the store.
	Close() error
}
