package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"babytrack/backend/internal/records"
	"babytrack/backend/internal/store"
	"babytrack/backend/internal/summary"
)

type captureExporter struct {
	exported map[string]summary.WeeklySeries
	failFor  string
}

func (c *captureExporter) ExportWeek(_ context.Context, baby records.Baby, series summary.WeeklySeries) error {
	if baby.ID == c.failFor {
		return errors.New("sheet unavailable")
	}
	c.exported[baby.ID] = series
	return nil
}

func TestLastWeekStart(t *testing.T) {
	// Wednesday 2024-01-10 -> Monday 2024-01-01.
	got := LastWeekStart(time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC), time.UTC)
	if !got.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", got)
	}
	// Monday morning still refers to the week that just ended.
	got = LastWeekStart(time.Date(2024, 1, 8, 6, 0, 0, 0, time.UTC), time.UTC)
	if !got.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start on monday %v", got)
	}
	// Sunday belongs to the current week.
	got = LastWeekStart(time.Date(2024, 1, 14, 22, 0, 0, 0, time.UTC), time.UTC)
	if !got.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start on sunday %v", got)
	}
}

func TestRunOnceExportsEveryBaby(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	first, _ := mem.CreateBaby(ctx, records.Baby{ID: "b1", UserID: "u1", Name: "Ada"})
	second, _ := mem.CreateBaby(ctx, records.Baby{ID: "b2", UserID: "u1", Name: "Bo"})
	amount := 100.0
	if err := mem.Insert(ctx, records.Feed{ID: "f1", BabyID: first.ID, Type: records.FeedBottle, AmountML: &amount, Timestamp: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("insert feed: %v", err)
	}

	exporter := &captureExporter{exported: map[string]summary.WeeklySeries{}, failFor: second.ID}
	s := New("0 6 * * 1", time.Minute, mem, summary.NewCalculator(mem, time.UTC, nil), exporter, nil)
	s.now = func() time.Time { return time.Date(2024, 1, 8, 6, 0, 0, 0, time.UTC) }

	err := s.RunOnce(ctx)
	if err == nil {
		t.Fatalf("expected joined error for failing baby")
	}
	series, ok := exporter.exported[first.ID]
	if !ok {
		t.Fatalf("expected first baby exported despite second failing")
	}
	if len(series) != 7 || series[0].Date != "2024-01-01" || series[2].FeedCount != 1 {
		t.Fatalf("unexpected series %+v", series)
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	mem := store.NewMemory()
	s := New("not a cron", time.Minute, mem, summary.NewCalculator(mem, time.UTC, nil), &captureExporter{}, nil)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatalf("expected invalid schedule to fail")
	}
}
