package crawler

import (
	"fmt"
	"net/http"
)

// ClassifyResponse maps an HTTP exchange onto an Outcome: 404 is NotFound,
// 2xx is Found, anything else is a failure.
func ClassifyResponse(resp FetchResponse, err error) Outcome {
	if err != nil {
		return FailedOutcome(fmt.Errorf("%w: %w", ErrFetch, err))
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return NotFoundOutcome()
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return FoundOutcome(resp.Document())
	default:
		return FailedOutcome(&StatusError{URL: resp.URL, StatusCode: resp.StatusCode})
	}
}
