// Package senate reads the Senate's roll call vote documents and member roster.
package senate

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/rollcall-crawler/internal/clock/system"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// Default publisher addresses.
const (
	DefaultBaseURL   = "https://www.senate.gov/legislative/LIS/roll_call_votes"
	DefaultRosterURL = "https://www.senate.gov/general/contact_information/senators_cfm.xml"
)

const voteDateLayout = "January 2, 2006, 3:04 PM"

// URL builds the document address for one roll call.
func URL(base string, c model.SenateCoordinate) string {
	return fmt.Sprintf("%s/vote%d%d/vote_%d_%d_%05d.xml",
		strings.TrimRight(base, "/"), c.Congress, c.Session, c.Congress, c.Session, c.Number)
}

// Document is the legislation the vote concerns.
type Document struct {
	Congress   string `xml:"document_congress"`
	Type       string `xml:"document_type"`
	Number     string `xml:"document_number"`
	Name       string `xml:"document_name"`
	Title      string `xml:"document_title"`
	ShortTitle string `xml:"document_short_title"`
}

// Amendment describes the amendment voted on, if any.
type Amendment struct {
	Number                    string `xml:"amendment_number"`
	ToAmendmentNumber         string `xml:"amendment_to_amendment_number"`
	ToAmendmentToAmendmentNum string `xml:"amendment_to_amendment_to_amendment_number"`
	ToDocumentNumber          string `xml:"amendment_to_document_number"`
	ToDocumentShortTitle      string `xml:"amendment_to_document_short_title"`
	Purpose                   string `xml:"amendment_purpose"`
}

// Count is the published tally. Blank values are kept as empty strings.
type Count struct {
	Yeas    string `xml:"yeas"`
	Nays    string `xml:"nays"`
	Present string `xml:"present"`
	Absent  string `xml:"absent"`
}

// TieBreaker records a vice-presidential tie break.
type TieBreaker struct {
	ByWhom string `xml:"by_whom"`
	Vote   string `xml:"tie_breaker_vote"`
}

// Member is one senator's vote row.
type Member struct {
	Full      string `xml:"member_full"`
	LastName  string `xml:"last_name"`
	FirstName string `xml:"first_name"`
	Party     string `xml:"party"`
	State     string `xml:"state"`
	VoteCast  string `xml:"vote_cast"`
	LISID     string `xml:"lis_member_id"`
}

// RollCallVote is a parsed roll_call_vote document.
type RollCallVote struct {
	XMLName             xml.Name   `xml:"roll_call_vote"`
	Congress            int        `xml:"congress"`
	Session             int        `xml:"session"`
	CongressYear        int        `xml:"congress_year"`
	VoteNumber          int        `xml:"vote_number"`
	VoteDate            string     `xml:"vote_date"`
	ModifyDate          string     `xml:"modify_date"`
	VoteQuestionText    string     `xml:"vote_question_text"`
	VoteDocumentText    string     `xml:"vote_document_text"`
	VoteResultText      string     `xml:"vote_result_text"`
	Question            string     `xml:"question"`
	VoteTitle           string     `xml:"vote_title"`
	MajorityRequirement string     `xml:"majority_requirement"`
	VoteResult          string     `xml:"vote_result"`
	Document            Document   `xml:"document"`
	Amendment           Amendment  `xml:"amendment"`
	Count               Count      `xml:"count"`
	TieBreaker          TieBreaker `xml:"tie_breaker"`
	Members             []Member   `xml:"members>member"`

	When time.Time `xml:"-"`
}

// Parse decodes a roll_call_vote document.
func Parse(data []byte) (RollCallVote, error) {
	var vote RollCallVote
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&vote); err != nil {
		return RollCallVote{}, fmt.Errorf("decode roll_call_vote: %w", err)
	}
	if vote.Congress == 0 || vote.VoteNumber == 0 {
		return RollCallVote{}, errors.New("roll_call_vote missing congress or vote_number")
	}
	if vote.Session != 1 && vote.Session != 2 {
		return RollCallVote{}, fmt.Errorf("roll_call_vote session %d out of range", vote.Session)
	}
	raw := strings.Join(strings.Fields(vote.VoteDate), " ")
	when, err := system.ParseEastern(voteDateLayout, raw)
	if err != nil {
		return RollCallVote{}, fmt.Errorf("vote_date %q: %w", vote.VoteDate, err)
	}
	vote.When = when
	return vote, nil
}

// Tally converts a count value. Blank means unpublished.
func Tally(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("tally %q: %w", raw, err)
	}
	return &n, nil
}

// LooksLikeHTML reports whether a response body is an HTML page rather than
// a vote document. The Senate answers missing votes with a styled error page
// and a success status, so this is the only "not found" signal it gives.
func LooksLikeHTML(body []byte) bool {
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.ToLower(bytes.TrimSpace(head))
	return bytes.Contains(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}
