// Package house reads the House Clerk's electronic vote documents.
package house

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JakeFAU/rollcall-crawler/internal/clock/system"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// DefaultBaseURL is the Clerk's vote archive root.
const DefaultBaseURL = "https://clerk.house.gov/evs"

const actionLayout = "2-Jan-2006 15:04"

// URL builds the document address for one roll call.
func URL(base string, c model.HouseCoordinate) string {
	return fmt.Sprintf("%s/%d/roll%03d.xml", strings.TrimRight(base, "/"), c.Year, c.Number)
}

// Legislator is the member reference carried on each recorded vote.
type Legislator struct {
	NameID         string `xml:"name-id,attr"`
	SortField      string `xml:"sort-field,attr"`
	UnaccentedName string `xml:"unaccented-name,attr"`
	Party          string `xml:"party,attr"`
	State          string `xml:"state,attr"`
	Role           string `xml:"role,attr"`
	Name           string `xml:",chardata"`
}

// RecordedVote is one row of vote-data.
type RecordedVote struct {
	Legislator Legislator `xml:"legislator"`
	Vote       string     `xml:"vote"`
}

// ActionTime carries the Eastern clock time as an attribute.
type ActionTime struct {
	ETZ  string `xml:"time-etz,attr"`
	Text string `xml:",chardata"`
}

// VoteMetadata is the document header.
type VoteMetadata struct {
	Majority     string     `xml:"majority"`
	Congress     int        `xml:"congress"`
	Session      string     `xml:"session"`
	Chamber      string     `xml:"chamber"`
	RollCallNum  int        `xml:"rollcall-num"`
	LegisNum     string     `xml:"legis-num"`
	VoteQuestion string     `xml:"vote-question"`
	VoteType     string     `xml:"vote-type"`
	VoteResult   string     `xml:"vote-result"`
	ActionDate   string     `xml:"action-date"`
	ActionTime   ActionTime `xml:"action-time"`
	VoteDesc     string     `xml:"vote-desc"`
}

// RollCallVote is a parsed rollcall-vote document.
type RollCallVote struct {
	XMLName  xml.Name       `xml:"rollcall-vote"`
	Metadata VoteMetadata   `xml:"vote-metadata"`
	Votes    []RecordedVote `xml:"vote-data>recorded-vote"`

	// When combines action-date and action-time.
	When time.Time `xml:"-"`
}

// Parse decodes a rollcall-vote document.
func Parse(data []byte) (RollCallVote, error) {
	var vote RollCallVote
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&vote); err != nil {
		return RollCallVote{}, fmt.Errorf("decode rollcall-vote: %w", err)
	}
	if vote.Metadata.Congress == 0 || vote.Metadata.RollCallNum == 0 {
		return RollCallVote{}, errors.New("vote-metadata missing congress or rollcall-num")
	}
	when, err := ParseActionTime(vote.Metadata.ActionDate, vote.Metadata.ActionTime.ETZ)
	if err != nil {
		return RollCallVote{}, err
	}
	vote.When = when
	return vote, nil
}

// ParseActionTime combines a DD-Mon-YYYY date with an HH:MM Eastern time.
func ParseActionTime(date, clock string) (time.Time, error) {
	raw := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	when, err := system.ParseEastern(actionLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("action time %q: %w", raw, err)
	}
	return when, nil
}
