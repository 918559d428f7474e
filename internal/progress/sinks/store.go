package sinks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/progress"
	"github.com/JakeFAU/rollcall-crawler/internal/store"
)

// StoreSink persists crawl-run bookkeeping via a store.RunRepository. Counter
// events are collapsed per run so each batch costs one update per run.
type StoreSink struct {
	repo   store.RunRepository
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for the provided repository.
func NewStoreSink(repo store.RunRepository, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{repo: repo, logger: logger}
}

// Consume applies the batch in order: run starts before counters, counters
// before completions. Repository errors are returned to the hub.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	deltas := make(map[uuid.UUID]*store.RunDelta)
	var order []uuid.UUID
	var completions []progress.Event

	for _, evt := range batch {
		runID := evt.RunUUID()
		switch {
		case evt.Stage == progress.StageRunStart:
			if err := s.repo.StartRun(ctx, runID, evt.Chamber, evt.Coordinate, evt.TS); err != nil {
				return fmt.Errorf("start run: %w", err)
			}
		case evt.Stage.Terminal():
			completions = append(completions, evt)
		default:
			delta, ok := deltas[runID]
			if !ok {
				delta = &store.RunDelta{}
				deltas[runID] = delta
				order = append(order, runID)
			}
			accumulate(delta, evt)
		}
	}

	for _, runID := range order {
		delta := deltas[runID]
		if delta.Empty() {
			continue
		}
		if err := s.repo.AddRunCounts(ctx, runID, *delta); err != nil {
			return fmt.Errorf("add run counts: %w", err)
		}
	}

	for _, evt := range completions {
		status := store.RunSuccess
		var note *string
		if evt.Stage == progress.StageRunError {
			status = store.RunError
			if evt.Note != "" {
				msg := evt.Note
				note = &msg
			}
		}
		if err := s.repo.CompleteRun(ctx, evt.RunUUID(), evt.TS, status, note); err != nil {
			return fmt.Errorf("complete run: %w", err)
		}
	}
	return nil
}

func accumulate(delta *store.RunDelta, evt progress.Event) {
	switch evt.Stage {
	case progress.StageFetchDone:
		delta.Documents++
		delta.BytesTotal += evt.Bytes
	case progress.StageRecordIngested:
		delta.Ingested++
		delta.Votes += evt.Votes
	case progress.StageRecordDropped:
		delta.Dropped++
	}
	if evt.Coordinate != "" && !evt.TS.Before(delta.At) {
		delta.LastCoordinate = evt.Coordinate
		delta.At = evt.TS
	}
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
