package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rollcall-crawler/internal/graph"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

func TestWriteTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
		require.NoError(t, tx.MergeState(ctx, model.NewState("VT")))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Empty(t, store.Snapshot().States)
}

func TestRollCallIsCreateOnly(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	rc := model.RollCall{Chamber: model.ChamberSenate, Congress: 119, Session: 1, Number: 3, Question: "original"}

	for _, q := range []string{"original", "rewritten"} {
		rc.Question = q
		require.NoError(t, store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
			return tx.MergeRollCall(ctx, rc)
		}))
	}

	snap := store.Snapshot()
	require.Len(t, snap.RollCalls, 1)
	require.Equal(t, "original", snap.RollCalls[graph.KeyOf(rc)].Question)
	require.Equal(t, 119, snap.DuringCongress[graph.KeyOf(rc)])
	require.Contains(t, snap.Congresses, 119)
}

func TestLatestRollCallOrdersByCongressSessionNumber(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	_, err := store.LatestRollCall(ctx, model.ChamberSenate)
	require.ErrorIs(t, err, graph.ErrNotFound)

	calls := []model.RollCall{
		{Chamber: model.ChamberSenate, Congress: 118, Session: 2, Number: 400},
		{Chamber: model.ChamberSenate, Congress: 119, Session: 1, Number: 12},
		{Chamber: model.ChamberSenate, Congress: 119, Session: 1, Number: 9},
		{Chamber: model.ChamberHouse, Congress: 120, Session: 1, Number: 1},
	}
	require.NoError(t, store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
		for _, rc := range calls {
			if err := tx.MergeRollCall(ctx, rc); err != nil {
				return err
			}
		}
		return nil
	}))

	latest, err := store.LatestRollCall(ctx, model.ChamberSenate)
	require.NoError(t, err)
	require.Equal(t, 12, latest.Number)
	require.Equal(t, 119, latest.Congress)
}

func TestLegislatorEnrichmentNeverOverwrites(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	require.NoError(t, store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
		if err := tx.MergeLegislator(ctx, model.Legislator{BioguideID: "S000033", NickName: "Bernie"}); err != nil {
			return err
		}
		return tx.MergeLegislator(ctx, model.Legislator{BioguideID: "S000033", NickName: "Bern", FamilyName: "Sanders"})
	}))

	got := store.Snapshot().Legislators["S000033"]
	require.Equal(t, "Bernie", got.NickName)
	require.Equal(t, "Sanders", got.FamilyName)
}

func TestCurrentRelationsAreExclusive(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	require.NoError(t, store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
		for _, code := range []string{"VT", "NY"} {
			if err := tx.MergeState(ctx, model.NewState(code)); err != nil {
				return err
			}
		}
		if err := tx.MergeLegislator(ctx, model.Legislator{BioguideID: "S000033"}); err != nil {
			return err
		}
		if err := tx.SetCurrentState(ctx, "S000033", model.NewState("NY")); err != nil {
			return err
		}
		return tx.SetCurrentState(ctx, "S000033", model.NewState("VT"))
	}))
	require.Equal(t, []string{"VT"}, store.Snapshot().CurrentState["S000033"])

	err := store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
		return tx.SetCurrentParty(ctx, "S000033", model.PartyFromName("Whig"))
	})
	require.ErrorIs(t, err, graph.ErrNotFound)
}

func TestMembershipUnionsParties(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	require.NoError(t, store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
		if err := tx.MergeCongress(ctx, model.Congress{Number: 102}); err != nil {
			return err
		}
		if err := tx.MergeLegislator(ctx, model.Legislator{BioguideID: "S000033"}); err != nil {
			return err
		}
		if err := tx.MergeMembership(ctx, "S000033", 102, []string{"Independent"}); err != nil {
			return err
		}
		return tx.MergeMembership(ctx, "S000033", 102, []string{"Independent", "Socialist"})
	}))
	require.Equal(t, []string{"Independent", "Socialist"},
		store.Snapshot().Memberships[MembershipKey{BioguideID: "S000033", Congress: 102}])
}
