package canonical

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/rollcall-crawler/internal/model"
	"github.com/JakeFAU/rollcall-crawler/internal/senate"
)

// Resolver finds the bioguide id for a Senate vote row.
type Resolver interface {
	Resolve(m senate.Member) (string, bool)
}

// FromSenate maps a Senate vote document. Rows the resolver cannot place
// keep an empty BioguideID and are resolved against the graph at write time.
// A nil resolver defers every row to the graph.
func FromSenate(v senate.RollCallVote, resolver Resolver) (model.RollCallRecord, error) {
	rc := model.RollCall{
		Chamber:             model.ChamberSenate,
		Congress:            v.Congress,
		Session:             v.Session,
		Number:              v.VoteNumber,
		Year:                v.CongressYear,
		When:                v.When,
		Question:            strings.TrimSpace(v.Question),
		Title:               strings.TrimSpace(v.VoteTitle),
		Result:              strings.TrimSpace(v.VoteResult),
		MajorityRequirement: strings.TrimSpace(v.MajorityRequirement),
		DocumentName:        strings.TrimSpace(v.Document.Name),
		Description:         strings.TrimSpace(v.VoteQuestionText),
	}
	if rc.Year == 0 {
		rc.Year = v.When.Year()
	}
	tallies := []struct {
		name string
		raw  string
		dst  **int
	}{
		{"yeas", v.Count.Yeas, &rc.Yeas},
		{"nays", v.Count.Nays, &rc.Nays},
		{"present", v.Count.Present, &rc.Present},
		{"absent", v.Count.Absent, &rc.Absent},
	}
	for _, tally := range tallies {
		n, err := senate.Tally(tally.raw)
		if err != nil {
			return model.RollCallRecord{}, fmt.Errorf("count %s: %w", tally.name, err)
		}
		*tally.dst = n
	}

	record := model.RollCallRecord{RollCall: rc, Votes: make([]model.Vote, 0, len(v.Members))}
	for _, m := range v.Members {
		voter := model.VoterRef{
			FullName:   strings.TrimSpace(m.Full),
			FamilyName: strings.TrimSpace(m.LastName),
			GivenName:  strings.TrimSpace(m.FirstName),
			State:      model.NewState(m.State),
			Party:      model.PartyFromAbbreviation(m.Party),
			LISID:      strings.TrimSpace(m.LISID),
		}
		if resolver != nil {
			if id, ok := resolver.Resolve(m); ok {
				voter.BioguideID = id
			}
		}
		record.Votes = append(record.Votes, model.Vote{Voter: voter, Cast: strings.TrimSpace(m.VoteCast)})
	}
	return record, nil
}
