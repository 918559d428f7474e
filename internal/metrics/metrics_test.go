package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	require.NotNil(t, httpRequests)
	require.NotNil(t, crawlRequests)
	require.NotNil(t, activeRuns)
}

func TestCrawlRequestMetrics(t *testing.T) {
	Init()

	before := testutil.ToFloat64(crawlRequests.WithLabelValues("senate", "queued"))
	ObserveCrawlRequest("senate", "queued")
	require.InDelta(t, before+1, testutil.ToFloat64(crawlRequests.WithLabelValues("senate", "queued")), 0)

	IncActiveRuns()
	require.InDelta(t, 1, testutil.ToFloat64(activeRuns), 0)
	DecActiveRuns()
	require.InDelta(t, 0, testutil.ToFloat64(activeRuns), 0)

	SetQueueDepth(3)
	require.InDelta(t, 3, testutil.ToFloat64(queueDepth), 0)
}

func TestHandlerExposesCollectors(t *testing.T) {
	Init()
	ObserveCrawlRequest("house", "succeeded")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "rollcall_crawl_requests_total"))
}
