package bioguide

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sandersWrapped = `{
  "data": {
    "usCongressBioId": "S000033",
    "familyName": "Sanders",
    "givenName": "Bernard",
    "unaccentedFamilyName": "Sanders",
    "unaccentedGivenName": "Bernard",
    "nickName": "Bernie",
    "birthDate": "1941-09-08",
    "profileText": "SANDERS, Bernard, a Representative and a Senator from Vermont",
    "image": [{"contentUrl": "https://bioguide.congress.gov/photo/s000033.jpg", "caption": "Courtesy U.S. Senate Historical Office"}],
    "asset": [],
    "jobPositions": [
      {
        "job": {"name": "Senator", "jobType": "CongressMemberJob"},
        "congressAffiliation": {
          "congress": {"name": "The 119th United States Congress", "congressNumber": 119, "congressType": "USCongress", "startDate": "2025-01-03", "endDate": "2027-01-03"},
          "partyAffiliation": [{"party": {"name": "Independent"}}],
          "represents": {"regionType": "StateRegion", "regionCode": "VT"}
        }
      }
    ],
    "creativeWork": [{"freeFormCitationText": "Sanders, Bernard. Our Revolution. 2016."}],
    "researchRecord": [],
    "relationship": [],
    "lastUpdated": "2025-01-21"
  }
}`

func TestParseWrappedPermissive(t *testing.T) {
	t.Parallel()

	entry, err := Parse([]byte(sandersWrapped), Options{})
	require.NoError(t, err)
	require.Equal(t, "S000033", entry.USCongressBioID)
	require.Equal(t, "Bernie", entry.NickName)
	require.Len(t, entry.JobPositions, 1)
	pos := entry.JobPositions[0]
	require.Equal(t, 119, pos.CongressAffiliation.Congress.CongressNumber)
	require.Equal(t, "Independent", pos.CongressAffiliation.PartyAffiliation[0].Party.Name)
	require.Equal(t, "VT", pos.CongressAffiliation.Represents.RegionCode)
	require.Contains(t, entry.Unrecognized, "lastUpdated")
	require.Len(t, entry.Unrecognized, 1)
}

func TestParseStrictRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(sandersWrapped), Options{Strict: true})
	require.ErrorContains(t, err, "lastUpdated")
}

func TestParseEnvelopeFields(t *testing.T) {
	t.Parallel()

	doc := []byte(`{
		"data": {"usCongressBioId": "C000127", "familyName": "Cantwell", "givenName": "Maria"},
		"requestId": "abc",
		"apiVersion": 2
	}`)

	_, err := Parse(doc, Options{Strict: true})
	require.ErrorContains(t, err, "unknown envelope field(s) apiVersion, requestId")

	entry, err := Parse(doc, Options{})
	require.NoError(t, err)
	require.Equal(t, "Cantwell", entry.FamilyName)
	require.JSONEq(t, `"abc"`, string(entry.Unrecognized["requestId"]))
	require.Len(t, entry.Unrecognized, 2)
}

func TestParseBareDocument(t *testing.T) {
	t.Parallel()

	entry, err := Parse([]byte(`{
		"usCongressBioId": "C000127",
		"familyName": "Cantwell",
		"givenName": "Maria",
		"relationship": [{"relationshipType": "cousin", "relatedTo": {"usCongressBioId": "X000001"}}]
	}`), Options{Strict: true})
	require.NoError(t, err)
	require.Equal(t, "Cantwell", entry.FamilyName)
	require.Equal(t, "cousin", entry.Relationship[0].RelationshipType)
	require.Nil(t, entry.Unrecognized)
}

func TestParseRequiresIdentityFields(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"data": {"familyName": "Nobody"}}`), Options{})
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorContains(t, err, "USCongressBioID")

	_, err = Parse([]byte(`{"usCongressBioId": "A1", "familyName": "A", "givenName": "B",
		"relationship": [{"relationshipType": "son", "relatedTo": {}}]}`), Options{})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsNonJSON(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("<html>"), Options{})
	require.Error(t, err)
}
