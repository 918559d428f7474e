package canonical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rollcall-crawler/internal/bioguide"
	"github.com/JakeFAU/rollcall-crawler/internal/house"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
	"github.com/JakeFAU/rollcall-crawler/internal/senate"
)

func TestParseSession(t *testing.T) {
	t.Parallel()

	n, err := ParseSession("1st")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = ParseSession(" 2nd ")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = ParseSession("3rd")
	require.Error(t, err)
}

func TestUnaccentAndNormalize(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Lujan", Unaccent("Luján"))
	require.Equal(t, "Velazquez", Unaccent("Velázquez"))
	require.Equal(t, "lujan (d-nm)", NormalizeName("  Luján   (D-NM) "))
}

func TestFromHouse(t *testing.T) {
	t.Parallel()

	when := time.Date(2025, time.January, 3, 21, 45, 0, 0, time.UTC)
	v := house.RollCallVote{
		Metadata: house.VoteMetadata{
			Congress:     119,
			Session:      "1st",
			RollCallNum:  2,
			VoteQuestion: " On Ordering the Previous Question ",
			LegisNum:     "H RES 5",
			VoteResult:   "Passed",
		},
		Votes: []house.RecordedVote{
			{Legislator: house.Legislator{NameID: "A000370", UnaccentedName: "Adams", Party: "D", State: "nc", Name: "Adams"}, Vote: "Nay"},
		},
		When: when,
	}

	record, err := FromHouse(v)
	require.NoError(t, err)
	rc := record.RollCall
	require.Equal(t, model.ChamberHouse, rc.Chamber)
	require.Equal(t, 1, rc.Session)
	require.Equal(t, 2025, rc.Year)
	require.Equal(t, "On Ordering the Previous Question", rc.Question)
	require.Equal(t, "house-119-1-2", rc.Key())
	require.Len(t, record.Votes, 1)
	require.Equal(t, "A000370", record.Votes[0].Voter.BioguideID)
	require.Equal(t, model.State{Code: "NC"}, record.Votes[0].Voter.State)
	require.Equal(t, "Democrat", record.Votes[0].Voter.Party.Name)

	v.Metadata.Session = "special"
	_, err = FromHouse(v)
	require.ErrorContains(t, err, "session")
}

func TestFromSenateWithRoster(t *testing.T) {
	t.Parallel()

	roster := senate.Roster{Members: []senate.RosterMember{
		{Full: "Alsobrooks (D-MD)", LastName: "Alsobrooks", FirstName: "Angela", Party: "D", State: "MD", BioguideID: "A000382"},
		{Full: "Lujan, Ben Ray (D-NM)", LastName: "Lujan", FirstName: "Ben Ray", Party: "D", State: "NM", BioguideID: "L000570"},
	}}
	resolver := NewRosterResolver(roster, 0)
	require.Equal(t, 2, resolver.Len())

	v := senate.RollCallVote{
		Congress: 119, Session: 1, CongressYear: 2025, VoteNumber: 18,
		Question: "On the Nomination",
		Count:    senate.Count{Yeas: "99", Nays: "0", Absent: "1"},
		Members: []senate.Member{
			{Full: "Alsobrooks (D-MD)", LastName: "Alsobrooks", FirstName: "Angela", Party: "D", State: "MD", VoteCast: "Yea"},
			{Full: "Luján (D-NM)", LastName: "Luján", FirstName: "Ben Ray", Party: "D", State: "NM", VoteCast: "Yea"},
			{Full: "Smith (R-WY)", LastName: "Smith", FirstName: "Pat", Party: "R", State: "WY", VoteCast: "Nay"},
		},
	}

	record, err := FromSenate(v, resolver)
	require.NoError(t, err)
	require.Equal(t, 2025, record.RollCall.Year)
	require.Equal(t, 99, *record.RollCall.Yeas)
	require.Nil(t, record.RollCall.Present)
	require.Equal(t, "A000382", record.Votes[0].Voter.BioguideID)
	require.Equal(t, "L000570", record.Votes[1].Voter.BioguideID)
	require.Empty(t, record.Votes[2].Voter.BioguideID)
	require.Equal(t, "Republican", record.Votes[2].Voter.Party.Name)
}

func TestFromSenateDefersWithoutResolver(t *testing.T) {
	t.Parallel()

	record, err := FromSenate(senate.RollCallVote{
		Congress: 118, Session: 2, VoteNumber: 1,
		Members: []senate.Member{{LastName: "King", Party: "I", State: "ME", VoteCast: "Yea"}},
	}, nil)
	require.NoError(t, err)
	require.Empty(t, record.Votes[0].Voter.BioguideID)
	require.Equal(t, "Independent", record.Votes[0].Voter.Party.Name)

	_, err = FromSenate(senate.RollCallVote{Congress: 118, Session: 2, VoteNumber: 1, Count: senate.Count{Yeas: "x"}}, nil)
	require.ErrorContains(t, err, "yeas")
}

func TestRosterResolverRejectsDistantNames(t *testing.T) {
	t.Parallel()

	resolver := NewRosterResolver(senate.Roster{Members: []senate.RosterMember{
		{Full: "Jones (D-NM)", LastName: "Jones", FirstName: "Mary", Party: "D", State: "NM", BioguideID: "J000001"},
		{Full: "Nobody (D-NM)", LastName: "Nobody", Party: "D", State: "NM"},
	}}, 0.95)
	require.Equal(t, 1, resolver.Len())

	_, ok := resolver.Resolve(senate.Member{Full: "Heinrich (D-NM)", LastName: "Heinrich", FirstName: "Martin", Party: "D", State: "NM"})
	require.False(t, ok)

	_, ok = resolver.Resolve(senate.Member{Full: "Jones (R-TX)", LastName: "Jones", FirstName: "Mary", Party: "R", State: "TX"})
	require.False(t, ok)
}

func TestFromBioguide(t *testing.T) {
	t.Parallel()

	entry := bioguide.Entry{
		USCongressBioID: "S000033",
		FamilyName:      "Sanders",
		GivenName:       "Bernard",
		NickName:        "Bernie",
		Image:           []bioguide.Image{{}, {ContentURL: "https://example.com/s.jpg"}},
		JobPositions: []bioguide.JobPosition{
			{CongressAffiliation: bioguide.CongressAffiliation{
				Congress:         &bioguide.Congress{CongressNumber: 102, StartDate: "1991-01-03", EndDate: "1993-01-03"},
				PartyAffiliation: []bioguide.PartyAffiliation{{Party: bioguide.Party{Name: "Independent"}}},
				Represents:       &bioguide.Represents{RegionCode: "VT"},
			}},
			{CongressAffiliation: bioguide.CongressAffiliation{
				Congress:         &bioguide.Congress{CongressNumber: 119, StartDate: "2025-01-03"},
				PartyAffiliation: []bioguide.PartyAffiliation{{Party: bioguide.Party{Name: "Independent"}}},
				Represents:       &bioguide.Represents{RegionCode: "vt"},
			}},
			{CongressAffiliation: bioguide.CongressAffiliation{
				Congress:         &bioguide.Congress{CongressNumber: 102},
				PartyAffiliation: []bioguide.PartyAffiliation{{Party: bioguide.Party{Name: "Socialist"}}},
			}},
		},
		Relationship: []bioguide.Relationship{
			{RelationshipType: "brother", RelatedTo: bioguide.RelatedTo{USCongressBioID: "X000001"}},
		},
	}

	record, err := FromBioguide(entry)
	require.NoError(t, err)
	require.Equal(t, "Sanders", record.Legislator.UnaccentedFamilyName)
	require.Equal(t, "https://example.com/s.jpg", record.Legislator.ImageURL)
	require.Len(t, record.Memberships, 2)
	require.Equal(t, 102, record.Memberships[0].Congress.Number)
	require.Equal(t, []string{"Independent", "Socialist"}, record.Memberships[0].Parties)
	require.Equal(t, time.Date(1991, time.January, 3, 0, 0, 0, 0, time.UTC), record.Memberships[0].Congress.Start)
	require.Equal(t, 119, record.Memberships[1].Congress.Number)
	require.True(t, record.Memberships[1].Congress.End.IsZero())
	require.Equal(t, &model.State{Code: "VT"}, record.CurrentState)
	require.Equal(t, &model.Party{Name: "Independent", Abbreviation: "I"}, record.CurrentParty)
	require.Equal(t, []model.Relation{{BioguideID: "X000001", Type: "brother"}}, record.Relations)
}

func TestFromBioguideRejects(t *testing.T) {
	t.Parallel()

	_, err := FromBioguide(bioguide.Entry{USCongressBioID: "D1", Deleted: true})
	require.ErrorIs(t, err, ErrDeleted)

	_, err = FromBioguide(bioguide.Entry{
		USCongressBioID: "B1",
		JobPositions: []bioguide.JobPosition{{CongressAffiliation: bioguide.CongressAffiliation{
			Congress: &bioguide.Congress{CongressNumber: 1, StartDate: "March 4"},
		}}},
	})
	require.ErrorContains(t, err, "congress 1 start")
}
