package gestation

import (
	"testing"
	"time"
)

func TestTrimesterBoundaries(t *testing.T) {
	cases := []struct {
		weeks int
		want  int
	}{
		{weeks: 0, want: 1},
		{weeks: 13, want: 1},
		{weeks: 14, want: 2},
		{weeks: 26, want: 2},
		{weeks: 27, want: 3},
		{weeks: 42, want: 3},
		{weeks: -1, want: 1},
	}
	for _, tc := range cases {
		if got := Trimester(tc.weeks); got != tc.want {
			t.Fatalf("weeks=%d: expected trimester %d, got %d", tc.weeks, tc.want, got)
		}
	}
}

func TestComputeWeeksAndDays(t *testing.T) {
	lmp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	due := lmp.AddDate(0, 0, 280)
	asOf := lmp.AddDate(0, 0, 14*7+3).Add(5 * time.Hour)

	got := Compute(lmp, due, asOf)
	if got.GestationalAge.Weeks != 14 || got.GestationalAge.Days != 3 || got.GestationalAge.TotalDays != 101 {
		t.Fatalf("unexpected age %+v", got.GestationalAge)
	}
	if got.Trimester != 2 {
		t.Fatalf("expected trimester 2, got %d", got.Trimester)
	}
	// 280 - 101 days and 5 hours leaves 178 whole days.
	if got.DaysUntilDueDate != 178 {
		t.Fatalf("expected 178 days until due, got %d", got.DaysUntilDueDate)
	}
}

func TestComputeSignedOverdue(t *testing.T) {
	lmp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	due := lmp.AddDate(0, 0, 280)
	got := Compute(lmp, due, due.AddDate(0, 0, 5))
	if got.DaysUntilDueDate != -5 {
		t.Fatalf("expected -5, got %d", got.DaysUntilDueDate)
	}
	if got.Trimester != 3 {
		t.Fatalf("expected trimester 3, got %d", got.Trimester)
	}
}

func TestComputeDoesNotClampNegativeAge(t *testing.T) {
	lmp := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got := Compute(lmp, lmp.AddDate(0, 0, 280), asOf)
	if got.GestationalAge.TotalDays != -9 {
		t.Fatalf("expected -9 total days, got %d", got.GestationalAge.TotalDays)
	}
	if got.GestationalAge.Weeks != -1 || got.GestationalAge.Days != -2 {
		t.Fatalf("expected truncated division -1w -2d, got %+v", got.GestationalAge)
	}
}

func TestComputeFloorsPartialDays(t *testing.T) {
	lmp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	asOf := time.Date(2024, 1, 2, 11, 59, 0, 0, time.UTC)
	got := Compute(lmp, lmp, asOf)
	if got.GestationalAge.TotalDays != 0 {
		t.Fatalf("expected 0 whole days, got %d", got.GestationalAge.TotalDays)
	}
	// due date is 23h59m in the past, which floors to -1.
	if got.DaysUntilDueDate != -1 {
		t.Fatalf("expected -1, got %d", got.DaysUntilDueDate)
	}
}

func TestComputeCountsCalendarDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	lmp := time.Date(2024, 1, 1, 0, 0, 0, 0, loc)
	due := time.Date(2024, 10, 7, 0, 0, 0, 0, loc)
	// 2024-03-10 springs forward, so this span is one hour short of 91 x 24h.
	asOf := time.Date(2024, 4, 1, 0, 0, 0, 0, loc)

	got := Compute(lmp, due, asOf)
	if got.GestationalAge.TotalDays != 91 {
		t.Fatalf("expected 91 calendar days, got %d", got.GestationalAge.TotalDays)
	}
	if got.GestationalAge.Weeks != 13 || got.GestationalAge.Days != 0 {
		t.Fatalf("expected 13w0d, got %+v", got.GestationalAge)
	}
	// 2024-11-03 falls back after the due date, so no DST change in this span.
	if got.DaysUntilDueDate != 189 {
		t.Fatalf("expected 189 days until due, got %d", got.DaysUntilDueDate)
	}

	// a UTC asOf is read on the last period's calendar
	if got := Compute(lmp, due, asOf.UTC()); got.GestationalAge.TotalDays != 91 {
		t.Fatalf("expected 91 days for UTC asOf, got %d", got.GestationalAge.TotalDays)
	}
}

func TestComputeAcrossFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	lmp := time.Date(2024, 11, 1, 0, 0, 0, 0, loc)
	// 2024-11-03 falls back, so this span exceeds 7 x 24h while Nov 8 has not begun.
	asOf := time.Date(2024, 11, 7, 23, 30, 0, 0, loc)

	if got := Compute(lmp, lmp.AddDate(0, 0, 280), asOf); got.GestationalAge.TotalDays != 6 {
		t.Fatalf("expected 6 whole days, got %d", got.GestationalAge.TotalDays)
	}
}
