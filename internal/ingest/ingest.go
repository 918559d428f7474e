// Package ingest writes canonical records into the graph, one atomic write
// unit per record. Writes are idempotent so a record may be delivered any
// number of times.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/canonical"
	"github.com/JakeFAU/rollcall-crawler/internal/graph"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// Result summarizes one roll call write.
type Result struct {
	Votes   int
	Skipped int
}

// Ingestor performs idempotent graph upserts.
type Ingestor struct {
	store  graph.Store
	logger *zap.Logger
}

// New builds an Ingestor.
func New(store graph.Store, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{store: store, logger: logger.Named("ingest")}
}

// IngestRollCall writes a roll call with its votes. Voters without a
// bioguide id are matched against the graph; a voter that cannot be placed
// loses only its own vote edge.
func (i *Ingestor) IngestRollCall(ctx context.Context, rec model.RollCallRecord) (Result, error) {
	rc := rec.RollCall
	key := graph.KeyOf(rc)
	var res Result

	err := i.store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
		// the driver may replay the unit
		res = Result{}

		if err := tx.MergeRollCall(ctx, rc); err != nil {
			return err
		}
		if err := mergeVoteTargets(ctx, tx, rec.Votes); err != nil {
			return err
		}

		for _, vote := range rec.Votes {
			id, err := i.identify(ctx, tx, rc, vote.Voter)
			if err != nil {
				return err
			}
			if id == "" {
				res.Skipped++
				continue
			}
			if err := tx.MergeVote(ctx, id, key, vote.Cast); err != nil {
				return err
			}
			if err := i.refreshCurrent(ctx, tx, id, rc.Congress, vote.Voter); err != nil {
				return err
			}
			res.Votes++
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("ingest %s: %w", rc.Key(), err)
	}
	return res, nil
}

// IngestBiography writes a legislator with memberships, current
// affiliations and family relations.
func (i *Ingestor) IngestBiography(ctx context.Context, rec model.BiographyRecord) error {
	leg := rec.Legislator
	err := i.store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
		if err := tx.MergeLegislator(ctx, leg); err != nil {
			return err
		}
		for _, m := range rec.Memberships {
			if err := tx.MergeCongress(ctx, m.Congress); err != nil {
				return err
			}
			for _, name := range m.Parties {
				if err := tx.MergeParty(ctx, model.PartyFromName(name)); err != nil {
					return err
				}
			}
			if m.State.Code != "" {
				if err := tx.MergeState(ctx, m.State); err != nil {
					return err
				}
			}
			if err := tx.MergeMembership(ctx, leg.BioguideID, m.Congress.Number, m.Parties); err != nil {
				return err
			}
		}
		if rec.CurrentState != nil {
			if err := tx.MergeState(ctx, *rec.CurrentState); err != nil {
				return err
			}
			if err := tx.SetCurrentState(ctx, leg.BioguideID, *rec.CurrentState); err != nil {
				return err
			}
		}
		if rec.CurrentParty != nil {
			if err := tx.MergeParty(ctx, *rec.CurrentParty); err != nil {
				return err
			}
			if err := tx.SetCurrentParty(ctx, leg.BioguideID, *rec.CurrentParty); err != nil {
				return err
			}
		}
		for _, rel := range rec.Relations {
			if err := tx.MergeLegislator(ctx, model.Legislator{BioguideID: rel.BioguideID}); err != nil {
				return err
			}
			if err := tx.MergeRelation(ctx, leg.BioguideID, rel.BioguideID, rel.Type); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ingest biography %s: %w", leg.BioguideID, err)
	}
	return nil
}

// mergeVoteTargets creates every state and party the votes refer to before
// any edge is written.
func mergeVoteTargets(ctx context.Context, tx graph.Tx, votes []model.Vote) error {
	states := make(map[string]struct{})
	parties := make(map[string]struct{})
	for _, v := range votes {
		if code := v.Voter.State.Code; code != "" {
			if _, seen := states[code]; !seen {
				states[code] = struct{}{}
				if err := tx.MergeState(ctx, v.Voter.State); err != nil {
					return err
				}
			}
		}
		if name := v.Voter.Party.Name; name != "" {
			if _, seen := parties[name]; !seen {
				parties[name] = struct{}{}
				if err := tx.MergeParty(ctx, v.Voter.Party); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// identify returns the voter's bioguide id, or "" when it cannot be found.
func (i *Ingestor) identify(ctx context.Context, tx graph.Tx, rc model.RollCall, voter model.VoterRef) (string, error) {
	if voter.BioguideID != "" {
		if err := tx.MergeLegislator(ctx, model.Legislator{BioguideID: voter.BioguideID}); err != nil {
			return "", err
		}
		return voter.BioguideID, nil
	}
	id, ok, err := tx.ResolveLegislator(ctx, graph.LegislatorQuery{
		UnaccentedFamilyName: canonical.Unaccent(voter.FamilyName),
		State:                voter.State.Code,
		Party:                voter.Party.Name,
		Congress:             rc.Congress,
	})
	if err != nil {
		return "", err
	}
	if !ok {
		i.logger.Error("unable to find bioguide id, skipping vote",
			zap.Error(canonical.ErrUnresolved),
			zap.String("roll_call", rc.Key()),
			zap.String("name", voter.FamilyName),
			zap.String("party", voter.Party.Abbreviation),
			zap.String("state", voter.State.Code),
			zap.String("lis_id", voter.LISID),
		)
		return "", nil
	}
	return id, nil
}

func (i *Ingestor) refreshCurrent(ctx context.Context, tx graph.Tx, id string, congress int, voter model.VoterRef) error {
	var parties []string
	if voter.Party.Name != "" {
		parties = []string{voter.Party.Name}
	}
	if err := tx.MergeMembership(ctx, id, congress, parties); err != nil {
		return err
	}
	if voter.State.Code != "" {
		if err := tx.SetCurrentState(ctx, id, voter.State); err != nil {
			return err
		}
	}
	if voter.Party.Name != "" {
		if err := tx.SetCurrentParty(ctx, id, voter.Party); err != nil {
			return err
		}
	}
	return nil
}
