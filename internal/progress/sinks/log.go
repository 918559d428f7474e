package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/progress"
)

// LogSink writes each progress event as a zap entry. It is the only sink when
// no progress database is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a sink logging through logger; nil discards.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch at debug level; run completions and
// failures are logged at info and warn.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.Stringer("run_id", evt.RunUUID()),
			zap.String("stage", string(evt.Stage)),
			zap.String("chamber", evt.Chamber),
		}
		if evt.Coordinate != "" {
			fields = append(fields, zap.String("coordinate", evt.Coordinate))
		}
		if evt.URL != "" {
			fields = append(fields, zap.String("url", evt.URL), zap.Int64("bytes", evt.Bytes))
		}
		if evt.StatusClass != "" {
			fields = append(fields, zap.String("status_class", string(evt.StatusClass)))
		}
		if evt.Votes > 0 {
			fields = append(fields, zap.Int64("votes", evt.Votes))
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("dur", evt.Dur))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		switch evt.Stage {
		case progress.StageRunError:
			s.logger.Warn("progress event", fields...)
		case progress.StageRunStart, progress.StageRunDone:
			s.logger.Info("progress event", fields...)
		default:
			s.logger.Debug("progress event", fields...)
		}
	}
	return nil
}

// Close is a no-op.
func (*LogSink) Close(context.Context) error {
	return nil
}
