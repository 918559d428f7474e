package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("crawl run not found")

// RunStatus mirrors the crawl_runs status column.
type RunStatus string

// Crawl run statuses persisted in crawl_runs.status.
const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// CrawlRun models one row of crawl_runs.
type CrawlRun struct {
	ID      uuid.UUID
	Chamber string
	// StartCoordinate is where the run resumed; LastCoordinate the most recent
	// position it reported.
	StartCoordinate string
	LastCoordinate  string
	StartedAt       time.Time
	// FinishedAt is nil while the run is in progress.
	FinishedAt   *time.Time
	Status       RunStatus
	ErrorMessage *string
	Documents    int64
	BytesTotal   int64
	Ingested     int64
	Dropped      int64
	Votes        int64
}

// RunDelta accumulates counters for a run between flushes.
type RunDelta struct {
	Documents      int64
	BytesTotal     int64
	Ingested       int64
	Dropped        int64
	Votes          int64
	LastCoordinate string
	At             time.Time
}

// Empty reports whether the delta would change nothing.
func (d RunDelta) Empty() bool {
	return d.Documents == 0 && d.BytesTotal == 0 && d.Ingested == 0 &&
		d.Dropped == 0 && d.Votes == 0 && d.LastCoordinate == ""
}

// RunRepository persists crawl-run bookkeeping.
type RunRepository interface {
	// StartRun inserts the run row; repeated calls are idempotent.
	StartRun(ctx context.Context, runID uuid.UUID, chamber, startCoordinate string, startedAt time.Time) error
	// AddRunCounts applies counter deltas and advances the last coordinate.
	AddRunCounts(ctx context.Context, runID uuid.UUID, delta RunDelta) error
	// CompleteRun marks the run finished with the provided status and error.
	CompleteRun(ctx context.Context, runID uuid.UUID, finishedAt time.Time, status RunStatus, errMsg *string) error

	// GetRun loads a single run or returns ErrNotFound.
	GetRun(ctx context.Context, runID uuid.UUID) (CrawlRun, error)
	// ListRuns returns runs filtered by optional chamber and status, newest first.
	ListRuns(ctx context.Context, chamber string, status *RunStatus, limit, offset int) ([]CrawlRun, error)
}
