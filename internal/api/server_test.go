package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/config"
	"github.com/JakeFAU/rollcall-crawler/internal/dispatcher"
	"github.com/JakeFAU/rollcall-crawler/internal/graph"
	graphmemory "github.com/JakeFAU/rollcall-crawler/internal/graph/memory"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
	"github.com/JakeFAU/rollcall-crawler/internal/pipeline"
	queueMemory "github.com/JakeFAU/rollcall-crawler/internal/queue/memory"
	"github.com/JakeFAU/rollcall-crawler/internal/resume"
	"github.com/JakeFAU/rollcall-crawler/internal/storage/memory"
)

type fakeIDGen struct {
	mu   sync.Mutex
	next int
}

func (f *fakeIDGen) NewID() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return fmt.Sprintf("req-%d", f.next), nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

type idleRunner struct{}

func (idleRunner) Run(_ context.Context, chamber model.Chamber) (pipeline.Summary, error) {
	return pipeline.Summary{Chamber: chamber}, nil
}

type testServer struct {
	server *Server
	queue  *queueMemory.Queue
	graph  *graphmemory.Store
}

func newTestServer(t *testing.T, cfg config.ServerConfig, checks map[string]Check) testServer {
	t.Helper()

	q := queueMemory.NewQueue(4)
	g := graphmemory.New()
	dispatch := dispatcher.New(q, idleRunner{}, &fakeIDGen{}, &fakeClock{now: time.Unix(100, 0).UTC()}, zap.NewNop())
	server := NewServer(Deps{
		Dispatcher: dispatch,
		Locator:    resume.New(g, resume.Defaults{HouseYear: 2025, SenateCongress: 119}),
		Runs:       memory.NewRunStore(),
		Checks:     checks,
	}, cfg, zap.NewNop())
	return testServer{server: server, queue: q, graph: g}
}

func (ts testServer) do(method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServerHealthAndReadiness(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.ServerConfig{}, map[string]Check{
		"graph": func(context.Context) error { return nil },
	})
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/healthz", nil).Code)
	rec := ts.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ready"}`, rec.Body.String())

	down := newTestServer(t, config.ServerConfig{}, map[string]Check{
		"graph":    func(context.Context) error { return errors.New("connection refused") },
		"progress": func(context.Context) error { return nil },
	})
	rec = down.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "connection refused")
}

func TestServerMetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.ServerConfig{}, nil)
	ts.do(http.MethodGet, "/healthz", nil)
	rec := ts.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "rollcall_http_requests_total")
}

func TestServerResumePoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.ServerConfig{}, nil)
	rec := ts.do(http.MethodGet, "/v1/chambers/house/resume", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"chamber":"house","coordinate":"house 2025 #1","year":2025,"number":1}`, rec.Body.String())

	require.NoError(t, ts.graph.WriteTx(context.Background(), func(ctx context.Context, tx graph.Tx) error {
		return tx.MergeRollCall(ctx, model.RollCall{
			Chamber: model.ChamberSenate, Congress: 119, Session: 1, Number: 41, Year: 2025,
		})
	}))
	rec = ts.do(http.MethodGet, "/v1/chambers/senate/resume", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t,
		`{"chamber":"senate","coordinate":"senate 119-1 #42","congress":119,"session":1,"number":42}`,
		rec.Body.String())

	require.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/v1/chambers/lords/resume", nil).Code)
}

func TestServerSubmitCrawl(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.ServerConfig{}, nil)
	rec := ts.do(http.MethodPost, "/v1/chambers/senate/crawls", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created crawlDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "req-1", created.RequestID)
	require.Equal(t, "senate", created.Chamber)
	require.Equal(t, string(dispatcher.StateQueued), created.State)

	req, err := ts.queue.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "req-1", req.ID)
	require.Equal(t, model.ChamberSenate, req.Chamber)

	rec = ts.do(http.MethodGet, "/v1/crawls/req-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"state":"queued"`)

	require.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/v1/crawls/req-9", nil).Code)
	require.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, "/v1/chambers/lords/crawls", nil).Code)
}

func TestServerSubmitCrawlAfterShutdown(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.ServerConfig{}, nil)
	ts.queue.Close()
	rec := ts.do(http.MethodPost, "/v1/chambers/house/crawls", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/v1/crawls/req-1", nil).Code)
}

func TestServerAPIKeyGuardsV1Only(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.ServerConfig{APIKey: "secret"}, nil)
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/healthz", nil).Code)
	require.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/v1/runs", nil).Code)

	rec := ts.do(http.MethodGet, "/v1/runs", http.Header{"X-Api-Key": []string{"secret"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(strings.TrimSpace(rec.Body.String()), `{"runs":`))
}
