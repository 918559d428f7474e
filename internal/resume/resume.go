// Package resume derives the next coordinate to crawl from what the graph
// already holds, so an interrupted run picks up after its last committed
// record.
package resume

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/rollcall-crawler/internal/graph"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// Defaults are the starting points used when a chamber has no roll calls yet.
type Defaults struct {
	HouseYear      int
	SenateCongress int
}

// Locator computes resume coordinates.
type Locator struct {
	store    graph.Store
	defaults Defaults
}

// New builds a Locator.
func New(store graph.Store, defaults Defaults) *Locator {
	return &Locator{store: store, defaults: defaults}
}

// House returns the coordinate after the latest stored House roll call, or
// the first roll call of the default year.
func (l *Locator) House(ctx context.Context) (model.HouseCoordinate, error) {
	rc, err := l.store.LatestRollCall(ctx, model.ChamberHouse)
	if errors.Is(err, graph.ErrNotFound) {
		return model.HouseCoordinate{Year: l.defaults.HouseYear, Number: 1}, nil
	}
	if err != nil {
		return model.HouseCoordinate{}, fmt.Errorf("locate house resume point: %w", err)
	}
	year := rc.Year
	if year == 0 {
		year = rc.When.Year()
	}
	if year <= 1 {
		return model.HouseCoordinate{}, fmt.Errorf("locate house resume point: roll call %s has no year", rc.Key())
	}
	return model.HouseCoordinate{Year: year, Number: rc.Number + 1}, nil
}

// Senate returns the coordinate after the latest stored Senate roll call,
// or session 1 vote 1 of the default congress.
func (l *Locator) Senate(ctx context.Context) (model.SenateCoordinate, error) {
	rc, err := l.store.LatestRollCall(ctx, model.ChamberSenate)
	if errors.Is(err, graph.ErrNotFound) {
		return model.SenateCoordinate{Congress: l.defaults.SenateCongress, Session: 1, Number: 1}, nil
	}
	if err != nil {
		return model.SenateCoordinate{}, fmt.Errorf("locate senate resume point: %w", err)
	}
	return model.SenateCoordinate{Congress: rc.Congress, Session: rc.Session, Number: rc.Number + 1}, nil
}
