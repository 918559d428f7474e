package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogExporterWritesSpans(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewLogExporter(zap.New(core))))
	tracer := tp.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "crawl.run")
	_, child := tracer.Start(ctx, "ingest.rollcall")
	child.SetAttributes(attribute.String("rollcall.key", "house-119-1-2"))
	child.End()
	parent.RecordError(errors.New("boom"))
	parent.SetStatus(codes.Error, "boom")
	parent.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "span ingest.rollcall", entries[0].Message)
	fields := entries[0].ContextMap()
	require.Equal(t, "house-119-1-2", fields["rollcall.key"])
	require.Equal(t, parent.SpanContext().SpanID().String(), fields["parent_span_id"])
	require.Equal(t, "span crawl.run", entries[1].Message)
	require.Equal(t, "Error", entries[1].ContextMap()["status"])
}

func TestInitTracerProvider(t *testing.T) {
	t.Parallel()

	tp, err := InitTracerProvider(context.Background(), "rollcall-test", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, tp.Shutdown(context.Background()))
}
