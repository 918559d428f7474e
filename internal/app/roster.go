package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/canonical"
	"github.com/JakeFAU/rollcall-crawler/internal/chamber"
	"github.com/JakeFAU/rollcall-crawler/internal/config"
	"github.com/JakeFAU/rollcall-crawler/internal/crawler"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

const rosterTTL = 12 * time.Hour

type clock interface {
	Now() time.Time
}

// rosterSenateSource resolves Senate voters against the current roster. The
// roster is fetched on first use and refreshed once it is older than
// rosterTTL, so commands that never touch the Senate never download it.
type rosterSenateSource struct {
	fetcher crawler.Fetcher
	cfg     config.SenateConfig
	clock   clock
	logger  *zap.Logger

	mu       sync.Mutex
	inner    *chamber.SenateSource
	loadedAt time.Time
}

var _ crawler.Source[model.SenateCoordinate] = (*rosterSenateSource)(nil)

func newRosterSenateSource(f crawler.Fetcher, cfg config.SenateConfig, clk clock, logger *zap.Logger) *rosterSenateSource {
	return &rosterSenateSource{fetcher: f, cfg: cfg, clock: clk, logger: logger}
}

func (s *rosterSenateSource) source(ctx context.Context) (*chamber.SenateSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if s.inner != nil && now.Sub(s.loadedAt) < rosterTTL {
		return s.inner, nil
	}
	roster, err := chamber.FetchRoster(ctx, s.fetcher, s.cfg.RosterURL)
	if err != nil {
		if s.inner != nil {
			s.logger.Warn("roster refresh failed, keeping previous roster", zap.Error(err))
			return s.inner, nil
		}
		return nil, fmt.Errorf("load senate roster: %w", err)
	}
	resolver := canonical.NewRosterResolver(roster, s.cfg.MatchThreshold)
	s.logger.Info("senate roster loaded",
		zap.Int("members", resolver.Len()),
		zap.String("url", s.cfg.RosterURL),
	)
	s.inner = chamber.NewSenateSource(s.fetcher, s.cfg.BaseURL, resolver)
	s.loadedAt = now
	return s.inner, nil
}

// Fetch implements crawler.Source.
func (s *rosterSenateSource) Fetch(ctx context.Context, c model.SenateCoordinate) crawler.Outcome {
	src, err := s.source(ctx)
	if err != nil {
		return crawler.FailedOutcome(err)
	}
	return src.Fetch(ctx, c)
}

// Parse implements crawler.Source.
func (s *rosterSenateSource) Parse(ctx context.Context, c model.SenateCoordinate, doc crawler.Document) (model.RollCallRecord, error) {
	src, err := s.source(ctx)
	if err != nil {
		return model.RollCallRecord{}, err
	}
	return src.Parse(ctx, c, doc)
}
