// Package chamber adapts each publisher to crawler.Source: where its
// documents live, how absence is signalled and how a document becomes a
// canonical record.
package chamber

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JakeFAU/rollcall-crawler/internal/canonical"
	"github.com/JakeFAU/rollcall-crawler/internal/crawler"
	"github.com/JakeFAU/rollcall-crawler/internal/house"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
	"github.com/JakeFAU/rollcall-crawler/internal/senate"
)

// HouseSource reads the House Clerk's vote series. A 404 means absent.
type HouseSource struct {
	fetcher crawler.Fetcher
	baseURL string
}

// NewHouseSource builds a HouseSource. An empty base uses the Clerk's site.
func NewHouseSource(fetcher crawler.Fetcher, baseURL string) *HouseSource {
	if baseURL == "" {
		baseURL = house.DefaultBaseURL
	}
	return &HouseSource{fetcher: fetcher, baseURL: baseURL}
}

// Fetch implements crawler.Source.
func (s *HouseSource) Fetch(ctx context.Context, c model.HouseCoordinate) crawler.Outcome {
	return crawler.ClassifyResponse(s.fetcher.Fetch(ctx, house.URL(s.baseURL, c)))
}

// Parse implements crawler.Source.
func (s *HouseSource) Parse(_ context.Context, c model.HouseCoordinate, doc crawler.Document) (model.RollCallRecord, error) {
	vote, err := house.Parse(doc.Body)
	if err != nil {
		return model.RollCallRecord{}, crawler.NewParseError(c, "document", err)
	}
	record, err := canonical.FromHouse(vote)
	if err != nil {
		return model.RollCallRecord{}, crawler.NewParseError(c, "vote-metadata", err)
	}
	// the series is addressed by calendar year
	record.RollCall.Year = c.Year
	return record, nil
}

// SenateSource reads the Senate's vote series.
type SenateSource struct {
	fetcher  crawler.Fetcher
	baseURL  string
	resolver canonical.Resolver
}

// NewSenateSource builds a SenateSource. A nil resolver leaves identity
// resolution to the graph.
func NewSenateSource(fetcher crawler.Fetcher, baseURL string, resolver canonical.Resolver) *SenateSource {
	if baseURL == "" {
		baseURL = senate.DefaultBaseURL
	}
	return &SenateSource{fetcher: fetcher, baseURL: baseURL, resolver: resolver}
}

// Fetch implements crawler.Source. The Senate serves an HTML error page in
// place of a missing vote, so an HTML body counts as absent only on a 2xx or
// 404. Throttling and access-denied pages keep their status and fail.
func (s *SenateSource) Fetch(ctx context.Context, c model.SenateCoordinate) crawler.Outcome {
	resp, err := s.fetcher.Fetch(ctx, senate.URL(s.baseURL, c))
	if err == nil && absentStatus(resp.StatusCode) && senate.LooksLikeHTML(resp.Body) {
		return crawler.NotFoundOutcome()
	}
	return crawler.ClassifyResponse(resp, err)
}

func absentStatus(code int) bool {
	return code == http.StatusNotFound || (code >= 200 && code < 300)
}

// Parse implements crawler.Source.
func (s *SenateSource) Parse(_ context.Context, c model.SenateCoordinate, doc crawler.Document) (model.RollCallRecord, error) {
	vote, err := senate.Parse(doc.Body)
	if err != nil {
		return model.RollCallRecord{}, crawler.NewParseError(c, "document", err)
	}
	record, err := canonical.FromSenate(vote, s.resolver)
	if err != nil {
		return model.RollCallRecord{}, crawler.NewParseError(c, "roll_call_vote", err)
	}
	return record, nil
}

// FetchRoster downloads and parses the current senator roster.
func FetchRoster(ctx context.Context, fetcher crawler.Fetcher, url string) (senate.Roster, error) {
	if url == "" {
		url = senate.DefaultRosterURL
	}
	outcome := crawler.ClassifyResponse(fetcher.Fetch(ctx, url))
	switch outcome.Kind {
	case crawler.Found:
	case crawler.NotFound:
		return senate.Roster{}, fmt.Errorf("senate roster %s: %w", url, crawler.ErrFetch)
	default:
		return senate.Roster{}, fmt.Errorf("senate roster: %w", outcome.Err)
	}
	roster, err := senate.ParseRoster(outcome.Document.Body)
	if err != nil {
		return senate.Roster{}, fmt.Errorf("senate roster: %w", err)
	}
	return roster, nil
}

var (
	_ crawler.Source[model.HouseCoordinate]  = (*HouseSource)(nil)
	_ crawler.Source[model.SenateCoordinate] = (*SenateSource)(nil)
)
