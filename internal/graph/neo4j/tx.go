package neo4jgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/JakeFAU/rollcall-crawler/internal/graph"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

const dateLayout = "2006-01-02"

type cypherTx struct {
	runner runner
}

func (t *cypherTx) MergeRollCall(ctx context.Context, rc model.RollCall) error {
	props := map[string]any{
		"chamber":  string(rc.Chamber),
		"congress": int64(rc.Congress),
		"session":  int64(rc.Session),
		"number":   int64(rc.Number),
	}
	putInt(props, "year", rc.Year)
	if !rc.When.IsZero() {
		props["when"] = rc.When
	}
	putString(props, "question", rc.Question)
	putString(props, "legislation_number", rc.LegislationNumber)
	putString(props, "vote_type", rc.VoteType)
	putString(props, "result", rc.Result)
	putString(props, "description", rc.Description)
	putString(props, "title", rc.Title)
	putString(props, "majority_requirement", rc.MajorityRequirement)
	putString(props, "document_name", rc.DocumentName)
	putTally(props, "yeas", rc.Yeas)
	putTally(props, "nays", rc.Nays)
	putTally(props, "present", rc.Present)
	putTally(props, "absent", rc.Absent)

	params := rollCallKeyParams(graph.KeyOf(rc))
	params["props"] = props
	return t.exec(ctx, "merge roll call", mergeRollCallQuery, params)
}

func (t *cypherTx) MergeCongress(ctx context.Context, c model.Congress) error {
	props := map[string]any{}
	if !c.Start.IsZero() {
		props["start_date"] = c.Start.Format(dateLayout)
	}
	if !c.End.IsZero() {
		props["end_date"] = c.End.Format(dateLayout)
	}
	return t.exec(ctx, "merge congress", mergeCongressQuery, map[string]any{
		"number": int64(c.Number),
		"props":  props,
	})
}

func (t *cypherTx) MergeParty(ctx context.Context, p model.Party) error {
	var abbreviation any
	if p.Abbreviation != "" {
		abbreviation = p.Abbreviation
	}
	return t.exec(ctx, "merge party", mergePartyQuery, map[string]any{
		"name":         p.Name,
		"abbreviation": abbreviation,
	})
}

func (t *cypherTx) MergeState(ctx context.Context, s model.State) error {
	return t.exec(ctx, "merge state", mergeStateQuery, map[string]any{"code": s.Code})
}

func (t *cypherTx) MergeLegislator(ctx context.Context, l model.Legislator) error {
	props := map[string]any{}
	putString(props, "family_name", l.FamilyName)
	putString(props, "given_name", l.GivenName)
	putString(props, "middle_name", l.MiddleName)
	putString(props, "unaccented_family_name", l.UnaccentedFamilyName)
	putString(props, "unaccented_given_name", l.UnaccentedGivenName)
	putString(props, "unaccented_middle_name", l.UnaccentedMiddleName)
	putString(props, "nick_name", l.NickName)
	putString(props, "honorific_prefix", l.HonorificPrefix)
	putString(props, "honorific_suffix", l.HonorificSuffix)
	putString(props, "profile_text", l.ProfileText)
	putString(props, "image", l.ImageURL)
	putString(props, "birth_date", l.BirthDate)
	putBool(props, "birth_circa", l.BirthCirca)
	putBool(props, "birth_date_unknown", l.BirthDateUnknown)
	putString(props, "death_date", l.DeathDate)
	putBool(props, "death_circa", l.DeathCirca)
	putBool(props, "death_date_unknown", l.DeathDateUnknown)

	return t.exec(ctx, "merge legislator", mergeLegislatorQuery, map[string]any{
		"bioguide_id": l.BioguideID,
		"props":       props,
	})
}

func (t *cypherTx) ResolveLegislator(ctx context.Context, q graph.LegislatorQuery) (string, bool, error) {
	rows, err := t.runner.run(ctx, resolveLegislatorQuery, map[string]any{
		"family_name": q.UnaccentedFamilyName,
		"state":       q.State,
		"party":       q.Party,
		"congress":    int64(q.Congress),
	})
	if err != nil {
		return "", false, fmt.Errorf("resolve legislator: %w", err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	id, ok := rows[0]["bioguide_id"].(string)
	return id, ok && id != "", nil
}

func (t *cypherTx) MergeVote(ctx context.Context, bioguideID string, key graph.RollCallKey, cast string) error {
	params := rollCallKeyParams(key)
	params["bioguide_id"] = bioguideID
	params["vote"] = cast
	return t.exec(ctx, "merge vote", mergeVoteQuery, params)
}

func (t *cypherTx) MergeMembership(ctx context.Context, bioguideID string, congress int, parties []string) error {
	if parties == nil {
		parties = []string{}
	}
	return t.exec(ctx, "merge membership", mergeMembershipQuery, map[string]any{
		"bioguide_id": bioguideID,
		"congress":    int64(congress),
		"parties":     parties,
	})
}

func (t *cypherTx) SetCurrentState(ctx context.Context, bioguideID string, state model.State) error {
	return t.exec(ctx, "set current state", setCurrentStateQuery, map[string]any{
		"bioguide_id": bioguideID,
		"code":        state.Code,
	})
}

func (t *cypherTx) SetCurrentParty(ctx context.Context, bioguideID string, party model.Party) error {
	return t.exec(ctx, "set current party", setCurrentPartyQuery, map[string]any{
		"bioguide_id": bioguideID,
		"name":        party.Name,
	})
}

func (t *cypherTx) MergeRelation(ctx context.Context, from, to, relationshipType string) error {
	return t.exec(ctx, "merge relation", mergeRelationQuery, map[string]any{
		"from":              from,
		"to":                to,
		"relationship_type": relationshipType,
	})
}

// exec runs a statement whose MATCH clauses must all bind; no rows means a
// referenced node is missing.
func (t *cypherTx) exec(ctx context.Context, op, cypher string, params map[string]any) error {
	rows, err := t.runner.run(ctx, cypher, params)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s: %w", op, graph.ErrNotFound)
	}
	return nil
}

func rollCallKeyParams(key graph.RollCallKey) map[string]any {
	return map[string]any{
		"chamber":  string(key.Chamber),
		"congress": int64(key.Congress),
		"session":  int64(key.Session),
		"number":   int64(key.Number),
	}
}

func decodeRollCall(row map[string]any) (model.RollCall, error) {
	chamber, err := model.ParseChamber(asString(row["chamber"]))
	if err != nil {
		return model.RollCall{}, err
	}
	rc := model.RollCall{
		Chamber:  chamber,
		Congress: asInt(row["congress"]),
		Session:  asInt(row["session"]),
		Number:   asInt(row["number"]),
		Year:     asInt(row["year"]),
		Question: asString(row["question"]),
	}
	if when, ok := row["when"].(time.Time); ok {
		rc.When = when
	}
	if rc.Congress == 0 || rc.Number == 0 {
		return model.RollCall{}, fmt.Errorf("roll call row missing key: %v", row)
	}
	return rc, nil
}

func putString(props map[string]any, key, v string) {
	if v != "" {
		props[key] = v
	}
}

func putInt(props map[string]any, key string, v int) {
	if v != 0 {
		props[key] = int64(v)
	}
}

func putBool(props map[string]any, key string, v bool) {
	if v {
		props[key] = true
	}
}

func putTally(props map[string]any, key string, v *int) {
	if v != nil {
		props[key] = int64(*v)
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
