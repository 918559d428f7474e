// Package model holds the canonical entities every source is mapped into.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Chamber identifies which body of Congress produced a roll call.
type Chamber string

const (
	// ChamberHouse is the House of Representatives.
	ChamberHouse Chamber = "house"
	// ChamberSenate is the Senate.
	ChamberSenate Chamber = "senate"
)

// ParseChamber validates a chamber name.
func ParseChamber(raw string) (Chamber, error) {
	switch Chamber(strings.ToLower(strings.TrimSpace(raw))) {
	case ChamberHouse:
		return ChamberHouse, nil
	case ChamberSenate:
		return ChamberSenate, nil
	default:
		return "", fmt.Errorf("unknown chamber %q", raw)
	}
}

// Party is keyed by its canonical name.
type Party struct {
	Name         string
	Abbreviation string
}

var partyAbbreviations = map[string]string{
	"Republican":  "R",
	"Democrat":    "D",
	"Independent": "I",
}

// PartyFromName derives the abbreviation from a canonical party name.
// Unrecognized names carry an empty abbreviation.
func PartyFromName(name string) Party {
	name = strings.TrimSpace(name)
	return Party{Name: name, Abbreviation: partyAbbreviations[name]}
}

// PartyFromAbbreviation maps a vote-row party letter back to its canonical
// name. Unknown letters keep the raw value as the name.
func PartyFromAbbreviation(abbr string) Party {
	abbr = strings.ToUpper(strings.TrimSpace(abbr))
	for name, a := range partyAbbreviations {
		if a == abbr {
			return Party{Name: name, Abbreviation: abbr}
		}
	}
	return Party{Name: abbr}
}

// State is keyed by its two-letter postal code.
type State struct {
	Code string
}

// NewState upper-cases and trims a postal code.
func NewState(code string) State {
	return State{Code: strings.ToUpper(strings.TrimSpace(code))}
}

// Congress is keyed by number. Zero dates mean unknown.
type Congress struct {
	Number int
	Start  time.Time
	End    time.Time
}

// Legislator is keyed by bioguide id. Empty fields are unknown and never
// overwrite values already stored.
type Legislator struct {
	BioguideID           string
	FamilyName           string
	GivenName            string
	MiddleName           string
	UnaccentedFamilyName string
	UnaccentedGivenName  string
	UnaccentedMiddleName string
	NickName             string
	HonorificPrefix      string
	HonorificSuffix      string
	ProfileText          string
	ImageURL             string
	BirthDate            string
	BirthCirca           bool
	BirthDateUnknown     bool
	DeathDate            string
	DeathCirca           bool
	DeathDateUnknown     bool
}

// RollCall is keyed by (chamber, congress, session, number). It is
// immutable once stored.
type RollCall struct {
	Chamber  Chamber
	Congress int
	Session  int
	Number   int
	Year     int
	When     time.Time
	Question string

	LegislationNumber   string
	VoteType            string
	Result              string
	Description         string
	Title               string
	MajorityRequirement string
	DocumentName        string
	Yeas                *int
	Nays                *int
	Present             *int
	Absent              *int
}

// Key renders the natural key, used for logging and archive paths.
func (r RollCall) Key() string {
	return fmt.Sprintf("%s-%d-%d-%d", r.Chamber, r.Congress, r.Session, r.Number)
}

// VoterRef identifies who cast a vote. BioguideID is set when the source
// carries it; otherwise the descriptive fields drive identity resolution.
type VoterRef struct {
	BioguideID string
	FullName   string
	FamilyName string
	GivenName  string
	State      State
	Party      Party
	LISID      string
}

// Vote is one VOTED_ON edge candidate.
type Vote struct {
	Voter VoterRef
	Cast  string
}

// RollCallRecord is the canonical output of one vote document.
type RollCallRecord struct {
	RollCall RollCall
	Votes    []Vote
}

// Membership is an IS_MEMBER_OF_CONGRESS edge with the parties held.
type Membership struct {
	Congress Congress
	Parties  []string
	State    State
}

// Relation is an IS_RELATED_TO edge.
type Relation struct {
	BioguideID string
	Type       string
}

// BiographyRecord is the canonical output of one biography document.
type BiographyRecord struct {
	Legislator  Legislator
	Memberships []Membership
	Relations   []Relation
	// CurrentState and CurrentParty come from the most recent position; nil
	// when the biography has none.
	CurrentState *State
	CurrentParty *Party
}
