// Package store persists published snapshots so the last-known-good list
// survives restarts.
package store

import (
	"context"
	"errors"
	"time"

	"stagehub/pkg/models"
)

// ErrNoSnapshot is returned by Latest when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no persisted snapshot")

// SourceRun records how one source fared in a cycle.
type SourceRun struct {
	Source    string        `json:"source"`
	Records   int           `json:"records"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	StartedAt time.Time     `json:"started_at"`
}

// Record is what a cycle hands to the store.
type Record struct {
	Snapshot *models.Snapshot
	Runs     []SourceRun
}

type SnapshotStore interface {
	Save(ctx context.Context, rec Record) error
	Latest(ctx context.Context) (*models.Snapshot, error)
	Close() error
}
