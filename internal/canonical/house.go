package canonical

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/rollcall-crawler/internal/house"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// ParseSession maps a session ordinal token to its number.
func ParseSession(token string) (int, error) {
	switch strings.TrimSpace(token) {
	case "1st":
		return 1, nil
	case "2nd":
		return 2, nil
	default:
		return 0, fmt.Errorf("unknown session token %q", token)
	}
}

// FromHouse maps a House vote document. Every row carries a bioguide id, so
// no identity resolution is needed.
func FromHouse(v house.RollCallVote) (model.RollCallRecord, error) {
	meta := v.Metadata
	session, err := ParseSession(meta.Session)
	if err != nil {
		return model.RollCallRecord{}, err
	}

	record := model.RollCallRecord{
		RollCall: model.RollCall{
			Chamber:           model.ChamberHouse,
			Congress:          meta.Congress,
			Session:           session,
			Number:            meta.RollCallNum,
			Year:              v.When.Year(),
			When:              v.When,
			Question:          strings.TrimSpace(meta.VoteQuestion),
			LegislationNumber: strings.TrimSpace(meta.LegisNum),
			VoteType:          strings.TrimSpace(meta.VoteType),
			Result:            strings.TrimSpace(meta.VoteResult),
			Description:       strings.TrimSpace(meta.VoteDesc),
		},
		Votes: make([]model.Vote, 0, len(v.Votes)),
	}
	for _, row := range v.Votes {
		leg := row.Legislator
		record.Votes = append(record.Votes, model.Vote{
			Voter: model.VoterRef{
				BioguideID: strings.TrimSpace(leg.NameID),
				FullName:   strings.TrimSpace(leg.Name),
				FamilyName: strings.TrimSpace(leg.UnaccentedName),
				State:      model.NewState(leg.State),
				Party:      model.PartyFromAbbreviation(leg.Party),
			},
			Cast: strings.TrimSpace(row.Vote),
		})
	}
	return record, nil
}
