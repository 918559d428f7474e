package canonical

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/JakeFAU/rollcall-crawler/internal/senate"
)

// DefaultMatchThreshold is the minimum Jaro-Winkler similarity accepted by
// the fuzzy fallback.
const DefaultMatchThreshold = 0.92

// RosterResolver places Senate vote rows using the current senator roster.
// Rows are matched on the accent-normalized display name first; failing that
// the closest surname within the same state and party is accepted when it
// clears the threshold.
type RosterResolver struct {
	byName    map[string]senate.RosterMember
	members   []senate.RosterMember
	threshold float64
}

// NewRosterResolver indexes a roster. A non-positive threshold uses
// DefaultMatchThreshold.
func NewRosterResolver(roster senate.Roster, threshold float64) *RosterResolver {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	r := &RosterResolver{
		byName:    make(map[string]senate.RosterMember, len(roster.Members)),
		threshold: threshold,
	}
	for _, m := range roster.Members {
		if strings.TrimSpace(m.BioguideID) == "" {
			continue
		}
		r.byName[NormalizeName(m.Full)] = m
		r.members = append(r.members, m)
	}
	return r
}

// Len reports how many roster members carry a bioguide id.
func (r *RosterResolver) Len() int { return len(r.members) }

// Resolve implements Resolver.
func (r *RosterResolver) Resolve(m senate.Member) (string, bool) {
	if hit, ok := r.byName[NormalizeName(m.Full)]; ok {
		return strings.TrimSpace(hit.BioguideID), true
	}

	state := strings.ToUpper(strings.TrimSpace(m.State))
	party := strings.ToUpper(strings.TrimSpace(m.Party))
	want := NormalizeName(m.LastName + " " + m.FirstName)

	var (
		best      senate.RosterMember
		bestScore float64
	)
	for _, candidate := range r.members {
		if strings.ToUpper(strings.TrimSpace(candidate.State)) != state ||
			strings.ToUpper(strings.TrimSpace(candidate.Party)) != party {
			continue
		}
		score := matchr.JaroWinkler(want, NormalizeName(candidate.LastName+" "+candidate.FirstName), false)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if bestScore < r.threshold {
		return "", false
	}
	return strings.TrimSpace(best.BioguideID), true
}
