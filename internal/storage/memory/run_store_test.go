package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rollcall-crawler/internal/store"
)

func TestRunStoreLifecycle(t *testing.T) {
	t.Parallel()

	s := NewRunStore()
	ctx := context.Background()
	runID := uuid.New()
	started := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.StartRun(ctx, runID, "house", "house 2024 #1", started))
	require.NoError(t, s.StartRun(ctx, runID, "house", "house 2030 #1", started))
	require.NoError(t, s.AddRunCounts(ctx, runID, store.RunDelta{Documents: 2, Ingested: 2, Votes: 860, LastCoordinate: "house 2024 #2"}))
	require.NoError(t, s.AddRunCounts(ctx, runID, store.RunDelta{Dropped: 1}))

	msg := "boom"
	require.NoError(t, s.CompleteRun(ctx, runID, started.Add(time.Minute), store.RunError, &msg))
	msg = "mutated"

	run, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	require.Equal(t, "house 2024 #1", run.StartCoordinate)
	require.Equal(t, "house 2024 #2", run.LastCoordinate)
	require.Equal(t, int64(2), run.Ingested)
	require.Equal(t, int64(1), run.Dropped)
	require.Equal(t, int64(860), run.Votes)
	require.Equal(t, store.RunError, run.Status)
	require.NotNil(t, run.FinishedAt)
	require.Equal(t, "boom", *run.ErrorMessage)
}

func TestRunStoreMissingRun(t *testing.T) {
	t.Parallel()

	s := NewRunStore()
	ctx := context.Background()
	_, err := s.GetRun(ctx, uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.AddRunCounts(ctx, uuid.New(), store.RunDelta{Ingested: 1}), store.ErrNotFound)
	require.ErrorIs(t, s.CompleteRun(ctx, uuid.New(), time.Now(), store.RunSuccess, nil), store.ErrNotFound)
}

func TestRunStoreListRuns(t *testing.T) {
	t.Parallel()

	s := NewRunStore()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	require.NoError(t, s.StartRun(ctx, ids[0], "house", "house 2024 #1", base))
	require.NoError(t, s.StartRun(ctx, ids[1], "senate", "senate 118-1 #1", base.Add(time.Hour)))
	require.NoError(t, s.StartRun(ctx, ids[2], "house", "house 2024 #9", base.Add(2*time.Hour)))
	require.NoError(t, s.CompleteRun(ctx, ids[0], base.Add(time.Minute), store.RunSuccess, nil))

	all, err := s.ListRuns(ctx, "", nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, ids[2], all[0].ID)

	house, err := s.ListRuns(ctx, "house", nil, 1, 0)
	require.NoError(t, err)
	require.Len(t, house, 1)
	require.Equal(t, ids[2], house[0].ID)

	running := store.RunRunning
	open, err := s.ListRuns(ctx, "house", &running, 10, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)

	empty, err := s.ListRuns(ctx, "", nil, 10, 5)
	require.NoError(t, err)
	require.Empty(t, empty)
}
