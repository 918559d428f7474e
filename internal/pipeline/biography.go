package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/bioguide"
	"github.com/JakeFAU/rollcall-crawler/internal/canonical"
)

// ErrSkipped marks a biography that was read but intentionally not written.
var ErrSkipped = errors.New("biography skipped")

// IngestBiography parses one biography document and writes it to the graph.
// Entries flagged as deleted return an error matching ErrSkipped.
func (r *Runner) IngestBiography(ctx context.Context, name string, data []byte, opts bioguide.Options) error {
	entry, err := bioguide.Parse(data, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if len(entry.Unrecognized) > 0 {
		keys := make([]string, 0, len(entry.Unrecognized))
		for k := range entry.Unrecognized {
			keys = append(keys, k)
		}
		r.logger.Debug("biography carries unrecognized fields", zap.String("file", name), zap.Strings("fields", keys))
	}
	rec, err := canonical.FromBioguide(entry)
	if errors.Is(err, canonical.ErrDeleted) {
		r.logger.Info("skipping deleted biography", zap.String("file", name), zap.String("bioguide_id", entry.USCongressBioID))
		return fmt.Errorf("%s: %w: %w", name, ErrSkipped, err)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := r.deps.Ingestor.IngestBiography(ctx, rec); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	r.logger.Debug("biography ingested",
		zap.String("file", name),
		zap.String("bioguide_id", rec.Legislator.BioguideID),
		zap.Int("memberships", len(rec.Memberships)),
		zap.Int("relations", len(rec.Relations)),
	)
	return nil
}
