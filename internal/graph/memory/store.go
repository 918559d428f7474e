// Package memory implements graph.Store in process memory for development
// and tests. Each write unit runs against a copy that replaces the live graph
// only when the unit succeeds.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/JakeFAU/rollcall-crawler/internal/graph"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// VoteKey addresses a VOTED_ON edge.
type VoteKey struct {
	BioguideID string
	RollCall   graph.RollCallKey
}

// MembershipKey addresses an IS_MEMBER_OF_CONGRESS edge.
type MembershipKey struct {
	BioguideID string
	Congress   int
}

// RelationKey addresses an IS_RELATED_TO edge.
type RelationKey struct {
	From string
	To   string
	Type string
}

// Snapshot is a point-in-time copy of the whole graph.
type Snapshot struct {
	RollCalls      map[graph.RollCallKey]model.RollCall
	DuringCongress map[graph.RollCallKey]int
	Congresses     map[int]model.Congress
	Parties        map[string]model.Party
	States         map[string]model.State
	Legislators    map[string]model.Legislator
	Votes          map[VoteKey]string
	Memberships    map[MembershipKey][]string
	// CurrentState and CurrentParty map bioguide id to each outgoing
	// current relation's target key.
	CurrentState map[string][]string
	CurrentParty map[string][]string
	Relations    map[RelationKey]struct{}
}

func newSnapshot() Snapshot {
	return Snapshot{
		RollCalls:      make(map[graph.RollCallKey]model.RollCall),
		DuringCongress: make(map[graph.RollCallKey]int),
		Congresses:     make(map[int]model.Congress),
		Parties:        make(map[string]model.Party),
		States:         make(map[string]model.State),
		Legislators:    make(map[string]model.Legislator),
		Votes:          make(map[VoteKey]string),
		Memberships:    make(map[MembershipKey][]string),
		CurrentState:   make(map[string][]string),
		CurrentParty:   make(map[string][]string),
		Relations:      make(map[RelationKey]struct{}),
	}
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		RollCalls:      maps.Clone(s.RollCalls),
		DuringCongress: maps.Clone(s.DuringCongress),
		Congresses:     maps.Clone(s.Congresses),
		Parties:        maps.Clone(s.Parties),
		States:         maps.Clone(s.States),
		Legislators:    maps.Clone(s.Legislators),
		Votes:          maps.Clone(s.Votes),
		Memberships:    make(map[MembershipKey][]string, len(s.Memberships)),
		CurrentState:   make(map[string][]string, len(s.CurrentState)),
		CurrentParty:   make(map[string][]string, len(s.CurrentParty)),
		Relations:      maps.Clone(s.Relations),
	}
	for k, v := range s.Memberships {
		out.Memberships[k] = slices.Clone(v)
	}
	for k, v := range s.CurrentState {
		out.CurrentState[k] = slices.Clone(v)
	}
	for k, v := range s.CurrentParty {
		out.CurrentParty[k] = slices.Clone(v)
	}
	return out
}

// Store is an in-memory graph.Store.
type Store struct {
	mu    sync.RWMutex
	graph Snapshot
}

// New constructs an empty Store.
func New() *Store {
	return &Store{graph: newSnapshot()}
}

// WriteTx implements graph.Store.
func (s *Store) WriteTx(ctx context.Context, fn func(ctx context.Context, tx graph.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := &tx{g: s.graph.clone()}
	if err := fn(ctx, work); err != nil {
		return err
	}
	s.graph = work.g
	return nil
}

// LatestRollCall implements graph.Store.
func (s *Store) LatestRollCall(_ context.Context, chamber model.Chamber) (model.RollCall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		latest model.RollCall
		found  bool
	)
	for key, rc := range s.graph.RollCalls {
		if key.Chamber != chamber {
			continue
		}
		if !found || compareKeys(key, graph.KeyOf(latest)) > 0 {
			latest, found = rc, true
		}
	}
	if !found {
		return model.RollCall{}, graph.ErrNotFound
	}
	return latest, nil
}

// Snapshot returns a copy of the graph.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.clone()
}

// Close implements graph.Store.
func (s *Store) Close(context.Context) error { return nil }

func compareKeys(a, b graph.RollCallKey) int {
	return cmp.Or(
		cmp.Compare(a.Congress, b.Congress),
		cmp.Compare(a.Session, b.Session),
		cmp.Compare(a.Number, b.Number),
	)
}

type tx struct {
	g Snapshot
}

func (t *tx) MergeRollCall(ctx context.Context, rc model.RollCall) error {
	key := graph.KeyOf(rc)
	if _, ok := t.g.RollCalls[key]; !ok {
		t.g.RollCalls[key] = rc
	}
	if err := t.MergeCongress(ctx, model.Congress{Number: rc.Congress}); err != nil {
		return err
	}
	t.g.DuringCongress[key] = rc.Congress
	return nil
}

func (t *tx) MergeCongress(_ context.Context, c model.Congress) error {
	existing, ok := t.g.Congresses[c.Number]
	if !ok {
		t.g.Congresses[c.Number] = c
		return nil
	}
	if existing.Start.IsZero() {
		existing.Start = c.Start
	}
	if existing.End.IsZero() {
		existing.End = c.End
	}
	t.g.Congresses[c.Number] = existing
	return nil
}

func (t *tx) MergeParty(_ context.Context, p model.Party) error {
	if _, ok := t.g.Parties[p.Name]; !ok {
		t.g.Parties[p.Name] = p
	}
	return nil
}

func (t *tx) MergeState(_ context.Context, s model.State) error {
	if _, ok := t.g.States[s.Code]; !ok {
		t.g.States[s.Code] = s
	}
	return nil
}

func (t *tx) MergeLegislator(_ context.Context, l model.Legislator) error {
	existing, ok := t.g.Legislators[l.BioguideID]
	if !ok {
		t.g.Legislators[l.BioguideID] = l
		return nil
	}
	t.g.Legislators[l.BioguideID] = fillLegislator(existing, l)
	return nil
}

func (t *tx) ResolveLegislator(_ context.Context, q graph.LegislatorQuery) (string, bool, error) {
	ids := slices.Sorted(maps.Keys(t.g.Legislators))
	for _, id := range ids {
		l := t.g.Legislators[id]
		if l.UnaccentedFamilyName != q.UnaccentedFamilyName {
			continue
		}
		if !slices.Contains(t.g.CurrentState[id], q.State) || !slices.Contains(t.g.CurrentParty[id], q.Party) {
			continue
		}
		if _, ok := t.g.Memberships[MembershipKey{BioguideID: id, Congress: q.Congress}]; !ok {
			continue
		}
		return id, true, nil
	}
	return "", false, nil
}

func (t *tx) MergeVote(_ context.Context, bioguideID string, key graph.RollCallKey, cast string) error {
	if _, ok := t.g.Legislators[bioguideID]; !ok {
		return fmt.Errorf("legislator %s: %w", bioguideID, graph.ErrNotFound)
	}
	if _, ok := t.g.RollCalls[key]; !ok {
		return fmt.Errorf("roll call %v: %w", key, graph.ErrNotFound)
	}
	vk := VoteKey{BioguideID: bioguideID, RollCall: key}
	if _, ok := t.g.Votes[vk]; !ok {
		t.g.Votes[vk] = cast
	}
	return nil
}

func (t *tx) MergeMembership(_ context.Context, bioguideID string, congress int, parties []string) error {
	if _, ok := t.g.Legislators[bioguideID]; !ok {
		return fmt.Errorf("legislator %s: %w", bioguideID, graph.ErrNotFound)
	}
	if _, ok := t.g.Congresses[congress]; !ok {
		return fmt.Errorf("congress %d: %w", congress, graph.ErrNotFound)
	}
	mk := MembershipKey{BioguideID: bioguideID, Congress: congress}
	held := t.g.Memberships[mk]
	if held == nil {
		held = []string{}
	}
	for _, p := range parties {
		if !slices.Contains(held, p) {
			held = append(held, p)
		}
	}
	t.g.Memberships[mk] = held
	return nil
}

func (t *tx) SetCurrentState(_ context.Context, bioguideID string, state model.State) error {
	if _, ok := t.g.States[state.Code]; !ok {
		return fmt.Errorf("state %s: %w", state.Code, graph.ErrNotFound)
	}
	return t.setCurrent(t.g.CurrentState, bioguideID, state.Code)
}

func (t *tx) SetCurrentParty(_ context.Context, bioguideID string, party model.Party) error {
	if _, ok := t.g.Parties[party.Name]; !ok {
		return fmt.Errorf("party %s: %w", party.Name, graph.ErrNotFound)
	}
	return t.setCurrent(t.g.CurrentParty, bioguideID, party.Name)
}

// setCurrent merges the edge to target and prunes every other target.
func (t *tx) setCurrent(edges map[string][]string, bioguideID, target string) error {
	if _, ok := t.g.Legislators[bioguideID]; !ok {
		return fmt.Errorf("legislator %s: %w", bioguideID, graph.ErrNotFound)
	}
	edges[bioguideID] = []string{target}
	return nil
}

func (t *tx) MergeRelation(_ context.Context, from, to, relationshipType string) error {
	for _, id := range []string{from, to} {
		if _, ok := t.g.Legislators[id]; !ok {
			return fmt.Errorf("legislator %s: %w", id, graph.ErrNotFound)
		}
	}
	t.g.Relations[RelationKey{From: from, To: to, Type: relationshipType}] = struct{}{}
	return nil
}

func fillLegislator(have, add model.Legislator) model.Legislator {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&have.FamilyName, add.FamilyName)
	fill(&have.GivenName, add.GivenName)
	fill(&have.MiddleName, add.MiddleName)
	fill(&have.UnaccentedFamilyName, add.UnaccentedFamilyName)
	fill(&have.UnaccentedGivenName, add.UnaccentedGivenName)
	fill(&have.UnaccentedMiddleName, add.UnaccentedMiddleName)
	fill(&have.NickName, add.NickName)
	fill(&have.HonorificPrefix, add.HonorificPrefix)
	fill(&have.HonorificSuffix, add.HonorificSuffix)
	fill(&have.ProfileText, add.ProfileText)
	fill(&have.ImageURL, add.ImageURL)
	fill(&have.BirthDate, add.BirthDate)
	fill(&have.DeathDate, add.DeathDate)
	have.BirthCirca = have.BirthCirca || add.BirthCirca
	have.BirthDateUnknown = have.BirthDateUnknown || add.BirthDateUnknown
	have.DeathCirca = have.DeathCirca || add.DeathCirca
	have.DeathDateUnknown = have.DeathDateUnknown || add.DeathDateUnknown
	return have
}
