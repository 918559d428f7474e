// Package progress defines the event structures emitted by crawl runs.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart       Stage = "RUN_START"
	StageRunDone        Stage = "RUN_DONE"
	StageRunError       Stage = "RUN_ERROR"
	StageFetchDone      Stage = "FETCH_DONE"
	StageRecordIngested Stage = "RECORD_INGESTED"
	StageRecordDropped  Stage = "RECORD_DROPPED"
	StageRollover       Stage = "ROLLOVER"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported HTTP status classes tracked for fetch completions.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures a single milestone of a crawl run.
type Event struct {
	// RunID identifies the crawl run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Chamber is "house" or "senate".
	Chamber string
	// Coordinate is the rendered crawl position, e.g. "senate 118-1 #3".
	Coordinate string
	// URL is the document address for fetch events.
	URL string
	// Bytes carries the response size for fetch events.
	Bytes int64
	// StatusClass groups the HTTP response code of fetch events.
	StatusClass StatusClass
	// Votes counts the vote edges written for an ingested record.
	Votes int64
	// Dur captures fetch latency or total run time.
	Dur time.Duration
	// Note carries low-volume context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
		if e.Chamber == "" {
			return fmt.Errorf("%s requires chamber", e.Stage)
		}
	case StageFetchDone:
		if e.StatusClass == "" {
			return errors.New("fetch done requires status class")
		}
	case StageRecordIngested, StageRecordDropped, StageRollover:
		if e.Coordinate == "" {
			return fmt.Errorf("%s requires coordinate", e.Stage)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for repositories.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	return [16]byte(id)
}

// Terminal reports whether the stage closes a run.
func (s Stage) Terminal() bool {
	return s == StageRunDone || s == StageRunError
}

// ClassifyStatus groups HTTP status codes for fetch events.
func ClassifyStatus(code int) StatusClass {
	switch code / 100 {
	case 2:
		return Status2xx
	case 3:
		return Status3xx
	case 4:
		return Status4xx
	case 5:
		return Status5xx
	}
	return StatusOther
}
