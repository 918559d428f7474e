package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/rollcall-crawler/internal/store"
)

// RunStore is an in-memory store.RunRepository, used when no Postgres DSN is
// configured.
type RunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]store.CrawlRun
}

var _ store.RunRepository = (*RunStore)(nil)

// NewRunStore constructs an empty RunStore.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[uuid.UUID]store.CrawlRun)}
}

// StartRun records a running run; a repeated id is left untouched.
func (s *RunStore) StartRun(_ context.Context, runID uuid.UUID, chamber, startCoordinate string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[runID]; exists {
		return nil
	}
	s.runs[runID] = store.CrawlRun{
		ID:              runID,
		Chamber:         chamber,
		StartCoordinate: startCoordinate,
		LastCoordinate:  startCoordinate,
		StartedAt:       startedAt,
		Status:          store.RunRunning,
	}
	return nil
}

// AddRunCounts applies counter deltas.
func (s *RunStore) AddRunCounts(_ context.Context, runID uuid.UUID, delta store.RunDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, store.ErrNotFound)
	}
	run.Documents += delta.Documents
	run.BytesTotal += delta.BytesTotal
	run.Ingested += delta.Ingested
	run.Dropped += delta.Dropped
	run.Votes += delta.Votes
	if delta.LastCoordinate != "" {
		run.LastCoordinate = delta.LastCoordinate
	}
	s.runs[runID] = run
	return nil
}

// CompleteRun marks the run finished.
func (s *RunStore) CompleteRun(
	_ context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	errMsg *string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, store.ErrNotFound)
	}
	run.FinishedAt = pointerTime(finishedAt)
	run.Status = status
	if errMsg != nil {
		msg := *errMsg
		run.ErrorMessage = &msg
	}
	s.runs[runID] = run
	return nil
}

// GetRun fetches a run by id.
func (s *RunStore) GetRun(_ context.Context, runID uuid.UUID) (store.CrawlRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return store.CrawlRun{}, store.ErrNotFound
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *RunStore) ListRuns(
	_ context.Context,
	chamber string,
	status *store.RunStatus,
	limit,
	offset int,
) ([]store.CrawlRun, error) {
	s.mu.RLock()
	out := make([]store.CrawlRun, 0, len(s.runs))
	for _, run := range s.runs {
		if chamber != "" && run.Chamber != chamber {
			continue
		}
		if status != nil && run.Status != *status {
			continue
		}
		out = append(out, run)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if offset >= len(out) {
		return []store.CrawlRun{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func pointerTime(t time.Time) *time.Time {
	ts := t
	return &ts
}
