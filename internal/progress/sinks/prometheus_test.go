package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/rollcall-crawler/internal/progress"
)

func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	now := time.Now()
	batch := []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageRunStart, Chamber: "senate"},
		{
			RunID:       runID,
			TS:          now.Add(time.Second),
			Stage:       progress.StageFetchDone,
			Chamber:     "senate",
			Bytes:       2048,
			StatusClass: progress.Status2xx,
			Dur:         200 * time.Millisecond,
		},
		{RunID: runID, TS: now, Stage: progress.StageRecordIngested, Chamber: "senate", Coordinate: "senate 118-1 #1", Votes: 100},
		{RunID: runID, TS: now, Stage: progress.StageRecordDropped, Chamber: "senate", Coordinate: "senate 118-1 #2"},
		{RunID: runID, TS: now, Stage: progress.StageRollover, Chamber: "senate", Coordinate: "senate 118-1 #3"},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsActive.WithLabelValues("senate")))

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: now.Add(time.Minute), Stage: progress.StageRunDone, Chamber: "senate", Dur: time.Minute},
	}))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted.WithLabelValues("senate")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("senate", "success")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsActive.WithLabelValues("senate")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.fetches.WithLabelValues("senate", "2xx")))
	require.InDelta(t, 2048.0, testutil.ToFloat64(sink.fetchBytes.WithLabelValues("senate")), 1e-9)
	require.Equal(t, 1.0, testutil.ToFloat64(sink.recordsIngested.WithLabelValues("senate")))
	require.Equal(t, 100.0, testutil.ToFloat64(sink.votesIngested.WithLabelValues("senate")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.recordsDropped.WithLabelValues("senate")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.rollovers.WithLabelValues("senate")))
	require.Equal(t, 1, testutil.CollectAndCount(sink.runDuration, "rollcall_run_duration_seconds"))
}

func TestPrometheusSinkRejectsDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.ErrorContains(t, err, "register progress collector")
}

func TestLogSinkLevelsRecordDropped(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	sink := NewLogSink(zap.New(core))
	runID := progress.UUIDToBytes(uuid.New())

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, Stage: progress.StageRunStart, Chamber: "house"},
		{RunID: runID, Stage: progress.StageRecordDropped, Chamber: "house", Coordinate: "house 2024 #3"},
		{RunID: runID, Stage: progress.StageRunError, Chamber: "house", Note: "boom"},
	}))

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, zap.InfoLevel, entries[0].Level)
	require.Equal(t, zap.DebugLevel, entries[1].Level)
	require.Equal(t, "house 2024 #3", entries[1].ContextMap()["coordinate"])
	require.Equal(t, zap.WarnLevel, entries[2].Level)
	require.Equal(t, "boom", entries[2].ContextMap()["note"])
}
