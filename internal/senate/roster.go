package senate

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// RosterMember is one senator's contact record.
type RosterMember struct {
	Full               string `xml:"member_full"`
	LastName           string `xml:"last_name"`
	FirstName          string `xml:"first_name"`
	Party              string `xml:"party"`
	State              string `xml:"state"`
	Address            string `xml:"address"`
	Phone              string `xml:"phone"`
	Email              string `xml:"email"`
	Website            string `xml:"website"`
	Class              string `xml:"class"`
	BioguideID         string `xml:"bioguide_id"`
	LeadershipPosition string `xml:"leadership_position"`
}

// Roster is the parsed contact_information document.
type Roster struct {
	XMLName     xml.Name       `xml:"contact_information"`
	Members     []RosterMember `xml:"member"`
	LastUpdated string         `xml:"last_updated"`
}

// ParseRoster decodes the senators contact list.
func ParseRoster(data []byte) (Roster, error) {
	var roster Roster
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&roster); err != nil {
		return Roster{}, fmt.Errorf("decode contact_information: %w", err)
	}
	return roster, nil
}
