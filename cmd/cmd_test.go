package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/JakeFAU/rollcall-crawler/internal/app"
	"github.com/JakeFAU/rollcall-crawler/internal/config"
	"github.com/JakeFAU/rollcall-crawler/internal/crawler"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

const houseBase = "https://clerk.example/evs"

const houseTemplate = `<rollcall-vote><vote-metadata>
<congress>119</congress><session>1st</session><rollcall-num>%d</rollcall-num>
<vote-question>On Passage</vote-question>
<action-date>3-Jan-2025</action-date><action-time time-etz="16:45">4:45 PM</action-time>
</vote-metadata><vote-data>
<recorded-vote><legislator name-id="A000370" party="D" state="NC">Adams</legislator><vote>Yea</vote></recorded-vote>
</vote-data></rollcall-vote>`

const biography = `{
  "usCongressBioId": "C000127",
  "familyName": "Cantwell",
  "givenName": "Maria",
  "jobPositions": [{
    "job": {"name": "Senator", "jobType": "CongressMemberJob"},
    "congressAffiliation": {
      "congress": {"name": "The 119th United States Congress", "congressNumber": 119, "startDate": "2025-01-03", "endDate": "2027-01-03"},
      "partyAffiliation": [{"party": {"name": "Democrat"}}],
      "represents": {"regionType": "StateRegion", "regionCode": "WA"}
    }
  }]
}`

// houseFetcher serves roll calls 1 and 2 of 2025; everything else is 404.
type houseFetcher struct{}

func (houseFetcher) Fetch(_ context.Context, url string) (crawler.FetchResponse, error) {
	for n := 1; n <= 2; n++ {
		if url == fmt.Sprintf("%s/2025/roll%03d.xml", houseBase, n) {
			return crawler.FetchResponse{URL: url, StatusCode: http.StatusOK, Body: []byte(fmt.Sprintf(houseTemplate, n))}, nil
		}
	}
	return crawler.FetchResponse{URL: url, StatusCode: http.StatusNotFound}, nil
}

func offline(cfg config.Config) config.Config {
	cfg.House.BaseURL = houseBase
	cfg.House.ResumeYear = 2025
	cfg.Crawler.DelayMs = 0
	cfg.Crawler.MaxRetries = 0
	cfg.Crawler.MaxRPS = 0
	cfg.Graph.URI = ""
	cfg.Progress.DSN = ""
	cfg.Archive.Provider = config.ArchiveNone
	cfg.PubSub.TopicName = ""
	return cfg
}

func newOfflineApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.App, error) {
	return app.New(ctx, offline(cfg), logger,
		app.WithRegisterer(prometheus.NewRegistry()),
		app.WithFetcher(houseFetcher{}),
	)
}

// useOfflineApp swaps the factory for the duration of the test. Tests using
// it must not run in parallel.
func useOfflineApp(t *testing.T) {
	t.Helper()
	prev := newApp
	newApp = func(ctx context.Context, cfg config.Config, _ *zap.Logger) (App, error) {
		return newOfflineApp(ctx, cfg, zaptest.NewLogger(t))
	}
	t.Cleanup(func() { newApp = prev })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), args, &out, &errOut)
	return out.String(), err
}

func TestParseCoordinates(t *testing.T) {
	t.Parallel()

	h, err := parseHouseCoordinate("2025-12")
	require.NoError(t, err)
	require.Equal(t, model.HouseCoordinate{Year: 2025, Number: 12}, h)

	s, err := parseSenateCoordinate(" 119-2-7 ")
	require.NoError(t, err)
	require.Equal(t, model.SenateCoordinate{Congress: 119, Session: 2, Number: 7}, s)

	bad := []string{"2025", "2025-x", "2025-0"}
	for _, raw := range bad {
		_, err := parseHouseCoordinate(raw)
		require.Error(t, err, raw)
	}
	_, err = parseSenateCoordinate("119-3-1")
	require.ErrorContains(t, err, "session must be 1 or 2")
	_, err = parseSenateCoordinate("119-1")
	require.Error(t, err)
}

func TestHouseCommand(t *testing.T) {
	useOfflineApp(t)

	out, err := execute(t, "house")
	require.NoError(t, err)
	require.Contains(t, out, "started at house 2025 #1")
	require.Contains(t, out, "last ingested house 2025 #2, 2 roll calls, 2 votes, 0 dropped")

	out, err = execute(t, "house", "--from", "2025-2")
	require.NoError(t, err)
	require.Contains(t, out, "1 roll calls")

	_, err = execute(t, "house", "--from", "last-week")
	require.ErrorContains(t, err, "want YEAR-NUMBER")
}

func TestResumeCommand(t *testing.T) {
	useOfflineApp(t)

	out, err := execute(t, "resume", "house")
	require.NoError(t, err)
	require.Equal(t, "house 2025 #1\t--from 2025-1\n", out)

	out, err = execute(t, "resume", "Senate")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(out, "--from 119-1-1\n"), out)

	_, err = execute(t, "resume", "lords")
	require.ErrorContains(t, err, "unknown chamber")
}

func TestBioguideCommand(t *testing.T) {
	useOfflineApp(t)

	dir := t.TempDir()
	good := filepath.Join(dir, "C000127.json")
	gone := filepath.Join(dir, "X000001.json")
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(good, []byte(biography), 0o600))
	require.NoError(t, os.WriteFile(gone,
		[]byte(`{"usCongressBioId": "X000001", "familyName": "Gone", "givenName": "Long", "deleted": true}`), 0o600))
	require.NoError(t, os.WriteFile(broken, []byte(`{`), 0o600))

	out, err := execute(t, "bioguide", good, gone)
	require.NoError(t, err)
	require.Equal(t, "biographies: 1 ingested, 1 skipped, 0 failed\n", out)

	out, err = execute(t, "bioguide", good, broken, filepath.Join(dir, "missing.json"))
	require.ErrorContains(t, err, "2 of 3 biographies failed")
	require.ErrorContains(t, err, "broken.json")
	require.Contains(t, out, "1 ingested, 0 skipped, 2 failed")

	_, err = execute(t, "bioguide")
	require.Error(t, err)
}

func TestInitFailureIsReported(t *testing.T) {
	prev := newApp
	newApp = func(context.Context, config.Config, *zap.Logger) (App, error) {
		return nil, fmt.Errorf("neo4j unreachable")
	}
	t.Cleanup(func() { newApp = prev })

	_, err := execute(t, "resume", "house")
	require.ErrorContains(t, err, "failed to initialize application services: neo4j unreachable")
}

func TestServeRunsQueuedCrawls(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)
	appInstance, err := newOfflineApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = appInstance.Close(context.Background()) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, appInstance, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(base+"/v1/chambers/house/crawls", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var submitted struct {
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	resp.Body.Close()
	require.NotEmpty(t, submitted.RequestID)

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/v1/crawls/" + submitted.RequestID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var status struct {
			State string `json:"state"`
		}
		if json.NewDecoder(resp.Body).Decode(&status) != nil {
			return false
		}
		return status.State == "succeeded"
	}, 5*time.Second, 20*time.Millisecond)

	resp, err = http.Get(base + "/v1/chambers/house/resume")
	require.NoError(t, err)
	var resume map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&resume))
	resp.Body.Close()
	require.EqualValues(t, 3, resume["number"])

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not shut down")
	}
}
