package crawler

import (
	"net/http"
	"time"
)

// OutcomeKind classifies the result of fetching one coordinate.
type OutcomeKind int

// Fetch outcomes.
const (
	Found OutcomeKind = iota + 1
	NotFound
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Document is a fetched source document.
type Document struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// Outcome is what a Source reports for one coordinate.
type Outcome struct {
	Kind     OutcomeKind
	Document Document
	Err      error
}

// FoundOutcome wraps a retrieved document.
func FoundOutcome(doc Document) Outcome { return Outcome{Kind: Found, Document: doc} }

// NotFoundOutcome reports that the coordinate does not exist.
func NotFoundOutcome() Outcome { return Outcome{Kind: NotFound} }

// FailedOutcome reports a fetch failure.
func FailedOutcome(err error) Outcome { return Outcome{Kind: Failed, Err: err} }

// FetchResponse is the raw HTTP result produced by a Fetcher.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Document converts the response into the crawler's document form.
func (r FetchResponse) Document() Document {
	doc := Document{
		URL:        r.URL,
		StatusCode: r.StatusCode,
		Body:       r.Body,
		Duration:   r.Duration,
	}
	if r.Headers != nil {
		doc.ContentType = r.Headers.Get("Content-Type")
	}
	return doc
}
