package summary

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"babytrack/backend/internal/records"
	"babytrack/backend/internal/store"
)

// DailySummary is derived per (owner, date) and never persisted.
type DailySummary struct {
	FeedCount            int                   `json:"feed_count"`
	NappyCount           int                   `json:"nappy_count"`
	SleepDurationMinutes int                   `json:"sleep_duration_minutes"`
	LastFeedAt           *time.Time            `json:"last_feed_at,omitempty"`
	LastNappyAt          *time.Time            `json:"last_nappy_at,omitempty"`
	CurrentSleepSession  *records.SleepSession `json:"current_sleep_session,omitempty"`
}

type Calculator struct {
	events store.EventStore
	loc    *time.Location
	logger *zap.Logger
}

// NewCalculator binds the calculator to a store and the reference zone that
// defines calendar days. A nil zone means UTC.
func NewCalculator(events store.EventStore, loc *time.Location, logger *zap.Logger) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{events: events, loc: loc, logger: logger}
}

func (c *Calculator) Location() *time.Location {
	return c.loc
}

// DayBounds returns [00:00:00.000, 23:59:59.999] of date's calendar day in loc.
// Only the year, month and day of date are used.
func DayBounds(date time.Time, loc *time.Location) store.TimeRange {
	year, month, day := date.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	end := time.Date(year, month, day+1, 0, 0, 0, 0, loc).Add(-time.Millisecond)
	return store.TimeRange{Start: start, End: end}
}

// ComputeDailySummary issues its six reads concurrently. The first store
// failure fails the whole summary.
func (c *Calculator) ComputeDailySummary(ctx context.Context, ownerID string, date time.Time) (DailySummary, error) {
	bounds := DayBounds(date, c.loc)

	var (
		feeds, nappies, sleeps []records.Event
		lastFeed, lastNappy    []records.Event
		open                   *records.SleepSession
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		feeds, err = c.events.Query(gctx, ownerID, records.KindFeed, &bounds)
		return err
	})
	g.Go(func() error {
		var err error
		nappies, err = c.events.Query(gctx, ownerID, records.KindNappy, &bounds)
		return err
	})
	g.Go(func() error {
		var err error
		sleeps, err = c.events.Query(gctx, ownerID, records.KindSleep, &bounds)
		return err
	})
	g.Go(func() error {
		var err error
		open, err = c.events.OpenSleepSession(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		lastFeed, err = c.events.MostRecent(gctx, ownerID, records.KindFeed, 1)
		return err
	})
	g.Go(func() error {
		var err error
		lastNappy, err = c.events.MostRecent(gctx, ownerID, records.KindNappy, 1)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.Debug("daily summary read failed",
			zap.String("owner_id", ownerID),
			zap.Time("day_start", bounds.Start),
			zap.Error(err),
		)
		return DailySummary{}, err
	}

	result := DailySummary{
		FeedCount:            len(feeds),
		NappyCount:           len(nappies),
		SleepDurationMinutes: sumSleepMinutes(sleeps),
		LastFeedAt:           firstOccurredAt(lastFeed),
		LastNappyAt:          firstOccurredAt(lastNappy),
		CurrentSleepSession:  open,
	}
	return result, nil
}

// Open sessions contribute nothing until they are closed.
func sumSleepMinutes(events []records.Event) int {
	total := 0
	for _, event := range events {
		session, ok := event.(records.SleepSession)
		if !ok || session.DurationMinutes == nil {
			continue
		}
		total += *session.DurationMinutes
	}
	return total
}

func firstOccurredAt(events []records.Event) *time.Time {
	if len(events) == 0 {
		return nil
	}
	ts := events[0].OccurredAt()
	return &ts
}
