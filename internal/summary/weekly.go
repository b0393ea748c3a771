package summary

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	weekLength        = 7
	weeklyConcurrency = 3
)

type WeeklyEntry struct {
	Date                 string `json:"date"`
	FeedCount            int    `json:"feed_count"`
	NappyCount           int    `json:"nappy_count"`
	SleepDurationMinutes int    `json:"sleep_duration_minutes"`
}

// WeeklySeries always holds seven entries in ascending date order.
type WeeklySeries []WeeklyEntry

type WeeklyTotals struct {
	Days                      int     `json:"days"`
	FeedCount                 int     `json:"feed_count"`
	NappyCount                int     `json:"nappy_count"`
	SleepDurationMinutes      int     `json:"sleep_duration_minutes"`
	AverageFeedsPerDay        float64 `json:"average_feeds_per_day"`
	AverageNappiesPerDay      float64 `json:"average_nappies_per_day"`
	AverageSleepMinutesPerDay float64 `json:"average_sleep_minutes_per_day"`
}

func (s WeeklySeries) Totals() WeeklyTotals {
	totals := WeeklyTotals{Days: len(s)}
	for _, entry := range s {
		totals.FeedCount += entry.FeedCount
		totals.NappyCount += entry.NappyCount
		totals.SleepDurationMinutes += entry.SleepDurationMinutes
	}
	if totals.Days > 0 {
		days := float64(totals.Days)
		totals.AverageFeedsPerDay = float64(totals.FeedCount) / days
		totals.AverageNappiesPerDay = float64(totals.NappyCount) / days
		totals.AverageSleepMinutesPerDay = float64(totals.SleepDurationMinutes) / days
	}
	return totals
}

// ComputeWeeklyStats computes seven daily summaries starting at startDate.
// Days with no records are zero-filled, never omitted.
func (c *Calculator) ComputeWeeklyStats(ctx context.Context, ownerID string, startDate time.Time) (WeeklySeries, error) {
	year, month, day := startDate.Date()
	series := make(WeeklySeries, weekLength)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(weeklyConcurrency)
	for i := 0; i < weekLength; i++ {
		date := time.Date(year, month, day+i, 0, 0, 0, 0, c.loc)
		g.Go(func() error {
			daily, err := c.ComputeDailySummary(gctx, ownerID, date)
			if err != nil {
				return err
			}
			series[i] = WeeklyEntry{
				Date:                 date.Format("2006-01-02"),
				FeedCount:            daily.FeedCount,
				NappyCount:           daily.NappyCount,
				SleepDurationMinutes: daily.SleepDurationMinutes,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return series, nil
}
