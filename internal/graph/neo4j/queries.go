package neo4jgraph

import (
	"fmt"
	"strings"
)

var schemaStatements = []string{
	"CREATE CONSTRAINT legislator_bioguide IF NOT EXISTS FOR (l:Legislator) REQUIRE l.bioguide_id IS UNIQUE",
	"CREATE CONSTRAINT congress_number IF NOT EXISTS FOR (c:Congress) REQUIRE c.number IS UNIQUE",
	"CREATE CONSTRAINT party_name IF NOT EXISTS FOR (p:Party) REQUIRE p.name IS UNIQUE",
	"CREATE CONSTRAINT state_code IF NOT EXISTS FOR (s:State) REQUIRE s.code IS UNIQUE",
	"CREATE CONSTRAINT roll_call_key IF NOT EXISTS FOR (rc:RollCall) REQUIRE (rc.chamber, rc.congress, rc.session, rc.number) IS UNIQUE",
}

const mergeRollCallQuery = `
MERGE (rc:RollCall {chamber: $chamber, congress: $congress, session: $session, number: $number})
ON CREATE SET rc += $props
MERGE (c:Congress {number: $congress})
MERGE (rc)-[:DURING_CONGRESS]->(c)
RETURN rc.number AS number`

const mergeCongressQuery = `
MERGE (c:Congress {number: $number})
ON CREATE SET c += $props
ON MATCH SET c.start_date = coalesce(c.start_date, $props.start_date),
             c.end_date = coalesce(c.end_date, $props.end_date)
RETURN c.number AS number`

const mergePartyQuery = `
MERGE (p:Party {name: $name})
ON CREATE SET p.abbreviation = $abbreviation
RETURN p.name AS name`

const mergeStateQuery = `
MERGE (s:State {code: $code})
RETURN s.code AS code`

// legislatorProperties lists the enrichable properties; each is filled only
// while still unset.
var legislatorProperties = []string{
	"family_name",
	"given_name",
	"middle_name",
	"unaccented_family_name",
	"unaccented_given_name",
	"unaccented_middle_name",
	"nick_name",
	"honorific_prefix",
	"honorific_suffix",
	"profile_text",
	"image",
	"birth_date",
	"birth_circa",
	"birth_date_unknown",
	"death_date",
	"death_circa",
	"death_date_unknown",
}

var mergeLegislatorQuery = buildMergeLegislatorQuery()

func buildMergeLegislatorQuery() string {
	sets := make([]string, 0, len(legislatorProperties))
	for _, p := range legislatorProperties {
		sets = append(sets, fmt.Sprintf("l.%[1]s = coalesce(l.%[1]s, $props.%[1]s)", p))
	}
	return "\nMERGE (l:Legislator {bioguide_id: $bioguide_id})\nSET " +
		strings.Join(sets, ",\n    ") +
		"\nRETURN l.bioguide_id AS bioguide_id"
}

const resolveLegislatorQuery = `
MATCH (l:Legislator {unaccented_family_name: $family_name})
MATCH (l)-[:CURRENTLY_REPRESENTS]->(:State {code: $state})
MATCH (l)-[:CURRENTLY_MEMBER_OF]->(:Party {name: $party})
MATCH (l)-[:IS_MEMBER_OF_CONGRESS]->(:Congress {number: $congress})
RETURN l.bioguide_id AS bioguide_id
ORDER BY bioguide_id
LIMIT 1`

const mergeVoteQuery = `
MATCH (l:Legislator {bioguide_id: $bioguide_id})
MATCH (rc:RollCall {chamber: $chamber, congress: $congress, session: $session, number: $number})
MERGE (l)-[v:VOTED_ON]->(rc)
ON CREATE SET v.vote = $vote
RETURN v.vote AS vote`

const mergeMembershipQuery = `
MATCH (l:Legislator {bioguide_id: $bioguide_id})
MATCH (c:Congress {number: $congress})
MERGE (l)-[m:IS_MEMBER_OF_CONGRESS]->(c)
ON CREATE SET m.parties = $parties
ON MATCH SET m.parties = coalesce(m.parties, []) + [p IN $parties WHERE NOT p IN coalesce(m.parties, [])]
RETURN m.parties AS parties`

const setCurrentStateQuery = `
MATCH (l:Legislator {bioguide_id: $bioguide_id})
MATCH (target:State {code: $code})
MERGE (l)-[:CURRENTLY_REPRESENTS]->(target)
WITH l, target
OPTIONAL MATCH (l)-[old:CURRENTLY_REPRESENTS]->(other:State)
WHERE other <> target
DELETE old
RETURN DISTINCT l.bioguide_id AS bioguide_id`

const setCurrentPartyQuery = `
MATCH (l:Legislator {bioguide_id: $bioguide_id})
MATCH (target:Party {name: $name})
MERGE (l)-[:CURRENTLY_MEMBER_OF]->(target)
WITH l, target
OPTIONAL MATCH (l)-[old:CURRENTLY_MEMBER_OF]->(other:Party)
WHERE other <> target
DELETE old
RETURN DISTINCT l.bioguide_id AS bioguide_id`

const mergeRelationQuery = `
MATCH (a:Legislator {bioguide_id: $from})
MATCH (b:Legislator {bioguide_id: $to})
MERGE (a)-[r:IS_RELATED_TO {relationship_type: $relationship_type}]->(b)
RETURN r.relationship_type AS relationship_type`

const latestRollCallQuery = `
MATCH (rc:RollCall {chamber: $chamber})
RETURN rc.chamber AS chamber, rc.congress AS congress, rc.session AS session,
       rc.number AS number, rc.year AS year, rc.when AS when, rc.question AS question
ORDER BY rc.congress DESC, rc.session DESC, rc.number DESC
LIMIT 1`
