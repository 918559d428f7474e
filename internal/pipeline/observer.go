package pipeline

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/crawler"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
	"github.com/JakeFAU/rollcall-crawler/internal/progress"
	"github.com/JakeFAU/rollcall-crawler/internal/storage"
)

// runObserver turns crawler milestones into progress events. It also keeps
// the coordinate of the most recent document, which is the coordinate of the
// record the crawler yields next.
type runObserver struct {
	runID    [16]byte
	emitter  progress.Emitter
	clock    Clock
	hasher   Hasher
	logger   *zap.Logger
	current  string
	digest   string
	frontier string
	dropped  int
}

func newRunObserver(runID uuid.UUID, emitter progress.Emitter, clock Clock) *runObserver {
	return &runObserver{runID: progress.UUIDToBytes(runID), emitter: emitter, clock: clock, logger: zap.NewNop()}
}

func (o *runObserver) emit(evt progress.Event) {
	evt.RunID = o.runID
	evt.TS = o.clock.Now()
	o.emitter.Emit(evt)
}

func (o *runObserver) DocumentFetched(_ context.Context, chamber model.Chamber, coord string, doc crawler.Document) {
	o.current = coord
	o.digest = ""
	if o.hasher != nil {
		digest, err := o.hasher.Hash(doc.Body)
		if err != nil {
			o.logger.Warn("hash document failed", zap.String("coordinate", coord), zap.Error(err))
		}
		o.digest = digest
	}
	o.emit(progress.Event{
		Stage:       progress.StageFetchDone,
		Chamber:     string(chamber),
		Coordinate:  coord,
		URL:         doc.URL,
		Bytes:       int64(len(doc.Body)),
		StatusClass: progress.ClassifyStatus(doc.StatusCode),
		Dur:         doc.Duration,
	})
}

func (o *runObserver) RecordDropped(_ context.Context, chamber model.Chamber, coord string, err error) {
	o.dropped++
	o.emit(progress.Event{
		Stage:      progress.StageRecordDropped,
		Chamber:    string(chamber),
		Coordinate: coord,
		Note:       err.Error(),
	})
}

func (o *runObserver) RolledOver(_ context.Context, chamber model.Chamber, from, to string) {
	o.emit(progress.Event{
		Stage:      progress.StageRollover,
		Chamber:    string(chamber),
		Coordinate: to,
		Note:       "from " + from,
	})
}

func (o *runObserver) FrontierReached(_ context.Context, _ model.Chamber, coord string) {
	o.frontier = coord
}

// archivingSource copies every found document to a blob store before handing
// it to the crawler. Archive failures are logged and never fail the fetch.
type archivingSource[C crawler.Coordinate[C]] struct {
	crawler.Source[C]
	store  storage.BlobStore
	prefix string
	logger *zap.Logger
}

func (s *archivingSource[C]) Fetch(ctx context.Context, coord C) crawler.Outcome {
	outcome := s.Source.Fetch(ctx, coord)
	if outcome.Kind != crawler.Found {
		return outcome
	}
	doc := outcome.Document
	objectPath := ArchivePath(s.prefix, coord.Chamber(), doc.URL)
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/xml"
	}
	uri, err := s.store.PutObject(ctx, objectPath, contentType, bytes.NewReader(doc.Body))
	if err != nil {
		s.logger.Warn("archive document failed",
			zap.String("coordinate", coord.String()),
			zap.String("path", objectPath),
			zap.Error(err),
		)
		return outcome
	}
	s.logger.Debug("archived document", zap.String("coordinate", coord.String()), zap.String("uri", uri))
	return outcome
}

// ArchivePath places a document at {prefix}/{chamber}/{period}/{file}, where
// period and file are the last two segments of the document URL.
func ArchivePath(prefix string, chamber model.Chamber, docURL string) string {
	p := docURL
	if u, err := url.Parse(docURL); err == nil {
		p = u.Path
	}
	segments := strings.Split(strings.Trim(p, "/"), "/")
	if len(segments) > 2 {
		segments = segments[len(segments)-2:]
	}
	parts := []string{string(chamber)}
	if trimmed := strings.Trim(prefix, "/"); trimmed != "" {
		parts = append([]string{trimmed}, parts...)
	}
	return path.Join(append(parts, segments...)...)
}
