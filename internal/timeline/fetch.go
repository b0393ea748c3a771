package timeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"babytrack/backend/internal/records"
	"babytrack/backend/internal/store"
)

type Owners struct {
	BabyID      string
	PregnancyID string
}

func (o Owners) idFor(kind records.Kind) string {
	if kind.Source() == records.SourcePregnancy {
		return o.PregnancyID
	}
	return o.BabyID
}

// Fetch loads only the kinds the filters enable and that have an owner.
func Fetch(ctx context.Context, events store.EventStore, owners Owners, filters Filters, rng *store.TimeRange) (Sources, error) {
	collected := make([][]records.Event, len(records.AllKinds))

	g, gctx := errgroup.WithContext(ctx)
	for idx, kind := range records.AllKinds {
		ownerID := owners.idFor(kind)
		if ownerID == "" || !filters.Allows(kind) {
			continue
		}
		g.Go(func() error {
			found, err := events.Query(gctx, ownerID, kind, rng)
			if err != nil {
				return err
			}
			collected[idx] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Sources{}, err
	}

	var sources Sources
	for _, found := range collected {
		sources.Add(found...)
	}
	return sources, nil
}
