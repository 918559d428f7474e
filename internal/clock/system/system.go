// Package system holds the wall clock and the publishers' time zone.
package system

import (
	"time"
	_ "time/tzdata" // hosts without a zoneinfo database still need Eastern time
)

// Eastern is the zone both chambers publish vote times in.
var Eastern = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Clock reads the wall clock in UTC.
type Clock struct{}

// New returns a Clock.
func New() *Clock {
	return &Clock{}
}

// Now implements pipeline.Clock and dispatcher.Clock.
func (*Clock) Now() time.Time {
	return time.Now().UTC()
}

// ParseEastern parses value with layout as an Eastern wall time.
func ParseEastern(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, Eastern)
}
