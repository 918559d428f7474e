package resume

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rollcall-crawler/internal/graph"
	"github.com/JakeFAU/rollcall-crawler/internal/graph/memory"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

var defaults = Defaults{HouseYear: 2025, SenateCongress: 119}

func TestDefaultsWhenEmpty(t *testing.T) {
	t.Parallel()

	loc := New(memory.New(), defaults)
	ctx := context.Background()

	h, err := loc.House(ctx)
	require.NoError(t, err)
	require.Equal(t, model.HouseCoordinate{Year: 2025, Number: 1}, h)

	s, err := loc.Senate(ctx)
	require.NoError(t, err)
	require.Equal(t, model.SenateCoordinate{Congress: 119, Session: 1, Number: 1}, s)
}

func TestResumeAfterLatest(t *testing.T) {
	t.Parallel()

	store := memory.New()
	ctx := context.Background()
	var calls []model.RollCall
	for n := 1; n <= 7; n++ {
		calls = append(calls, model.RollCall{Chamber: model.ChamberHouse, Congress: 119, Session: 1, Number: n, Year: 2025})
	}
	calls = append(calls,
		model.RollCall{Chamber: model.ChamberSenate, Congress: 118, Session: 2, Number: 300},
		model.RollCall{Chamber: model.ChamberSenate, Congress: 119, Session: 1, Number: 17},
	)
	require.NoError(t, store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
		for _, rc := range calls {
			if err := tx.MergeRollCall(ctx, rc); err != nil {
				return err
			}
		}
		return nil
	}))

	loc := New(store, defaults)
	h, err := loc.House(ctx)
	require.NoError(t, err)
	require.Equal(t, model.HouseCoordinate{Year: 2025, Number: 8}, h)

	s, err := loc.Senate(ctx)
	require.NoError(t, err)
	require.Equal(t, model.SenateCoordinate{Congress: 119, Session: 1, Number: 18}, s)
}

func TestHouseRequiresYear(t *testing.T) {
	t.Parallel()

	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
		return tx.MergeRollCall(ctx, model.RollCall{Chamber: model.ChamberHouse, Congress: 119, Session: 1, Number: 3})
	}))

	_, err := New(store, defaults).House(ctx)
	require.ErrorContains(t, err, "no year")
}

func TestStoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	loc := New(brokenStore{Store: memory.New()}, defaults)
	_, err := loc.Senate(context.Background())
	require.ErrorContains(t, err, "unavailable")
}

type brokenStore struct {
	*memory.Store
}

func (brokenStore) LatestRollCall(context.Context, model.Chamber) (model.RollCall, error) {
	return model.RollCall{}, errors.New("unavailable")
}
