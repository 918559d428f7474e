package crawler

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrParse marks a document that was retrieved but could not be read.
	ErrParse = errors.New("parse failed")
	// ErrFetch marks a document that could not be retrieved.
	ErrFetch = errors.New("fetch failed")
	// ErrDropStreak marks a crawl aborted because consecutive documents could
	// not be parsed, as when a publisher serves an outage page with a 200.
	ErrDropStreak = errors.New("too many consecutive unparseable documents")
)

// ParseError carries the coordinate and field that failed to parse.
type ParseError struct {
	Coordinate string
	Field      string
	Err        error
}

// NewParseError builds a ParseError.
func NewParseError(coord fmt.Stringer, field string, err error) *ParseError {
	return &ParseError{Coordinate: coord.String(), Field: field, Err: err}
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse %s: %v", e.Coordinate, e.Err)
	}
	return fmt.Sprintf("parse %s: %s: %v", e.Coordinate, e.Field, e.Err)
}

// Unwrap exposes both ErrParse and the underlying cause.
func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap ties status failures to ErrFetch.
func (e *StatusError) Unwrap() error { return ErrFetch }
