// Package graph defines the write primitives of the legislative graph.
//
// Every node is merged on its natural key and receives its properties only
// when first created. The two "current" relations are exclusive: setting one
// removes any other outgoing relation of the same kind in the same
// transaction.
package graph

import (
	"context"
	"errors"

	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// Relationship type names.
const (
	RelVotedOn             = "VOTED_ON"
	RelMemberOfCongress    = "IS_MEMBER_OF_CONGRESS"
	RelCurrentlyRepresents = "CURRENTLY_REPRESENTS"
	RelCurrentlyMemberOf   = "CURRENTLY_MEMBER_OF"
	RelRelatedTo           = "IS_RELATED_TO"
	RelDuringCongress      = "DURING_CONGRESS"
)

// ErrNotFound is returned by reads that match nothing.
var ErrNotFound = errors.New("not found")

// RollCallKey is the natural key of a RollCall node.
type RollCallKey struct {
	Chamber  model.Chamber
	Congress int
	Session  int
	Number   int
}

// KeyOf extracts the natural key of a roll call.
func KeyOf(rc model.RollCall) RollCallKey {
	return RollCallKey{Chamber: rc.Chamber, Congress: rc.Congress, Session: rc.Session, Number: rc.Number}
}

// LegislatorQuery locates a legislator without a durable id: family name,
// current state, current party and membership in a congress must all match.
type LegislatorQuery struct {
	UnaccentedFamilyName string
	State                string
	Party                string
	Congress             int
}

// Tx is one atomic write unit.
type Tx interface {
	// MergeRollCall creates the roll call, its congress and the
	// DURING_CONGRESS edge.
	MergeRollCall(ctx context.Context, rc model.RollCall) error
	MergeCongress(ctx context.Context, c model.Congress) error
	MergeParty(ctx context.Context, p model.Party) error
	MergeState(ctx context.Context, s model.State) error
	// MergeLegislator creates the legislator or fills properties still unset.
	MergeLegislator(ctx context.Context, l model.Legislator) error
	// ResolveLegislator returns the bioguide id of the first match.
	ResolveLegislator(ctx context.Context, q LegislatorQuery) (string, bool, error)
	MergeVote(ctx context.Context, bioguideID string, key RollCallKey, cast string) error
	// MergeMembership unions parties into the congress membership.
	MergeMembership(ctx context.Context, bioguideID string, congress int, parties []string) error
	SetCurrentState(ctx context.Context, bioguideID string, state model.State) error
	SetCurrentParty(ctx context.Context, bioguideID string, party model.Party) error
	MergeRelation(ctx context.Context, from, to, relationshipType string) error
}

// Store runs write units and answers resume queries.
type Store interface {
	// WriteTx runs fn atomically; nothing fn wrote survives an error.
	WriteTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// LatestRollCall returns the roll call with the greatest
	// (congress, session, number) for chamber, or ErrNotFound.
	LatestRollCall(ctx context.Context, chamber model.Chamber) (model.RollCall, error)
	Close(ctx context.Context) error
}
