package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babytrack/backend/internal/records"
)

func amount(v float64) *float64 { return &v }

func TestMemoryQueryRespectsInclusiveRange(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endOfDay := day.Add(24*time.Hour - time.Millisecond)

	for idx, ts := range []time.Time{day, endOfDay, endOfDay.Add(time.Millisecond), day.Add(-time.Millisecond)} {
		require.NoError(t, mem.Insert(ctx, records.Feed{
			ID:        string(rune('a' + idx)),
			BabyID:    "b1",
			Type:      records.FeedBottle,
			AmountML:  amount(100),
			Timestamp: ts,
		}))
	}
	require.NoError(t, mem.Insert(ctx, records.Feed{ID: "other", BabyID: "b2", Type: records.FeedBottle, AmountML: amount(80), Timestamp: day.Add(time.Hour)}))

	got, err := mem.Query(ctx, "b1", records.KindFeed, &TimeRange{Start: day, End: endOfDay})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	all, err := mem.Query(ctx, "b1", records.KindFeed, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMemoryMostRecentReturnsNewestFirst(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, mem.Insert(ctx, records.Nappy{ID: "n1", BabyID: "b1", Type: records.NappyWet, Timestamp: base}))
	require.NoError(t, mem.Insert(ctx, records.Nappy{ID: "n2", BabyID: "b1", Type: records.NappySoiled, Timestamp: base.Add(3 * time.Hour)}))
	require.NoError(t, mem.Insert(ctx, records.Nappy{ID: "n3", BabyID: "b1", Type: records.NappyBoth, Timestamp: base.Add(time.Hour)}))

	latest, err := mem.MostRecent(ctx, "b1", records.KindNappy, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "n2", latest[0].EventID())

	none, err := mem.MostRecent(ctx, "missing", records.KindNappy, 1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryAllowsOnlyOneOpenSleepSession(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	start := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)

	require.NoError(t, mem.Insert(ctx, records.SleepSession{ID: "s1", BabyID: "b1", Type: records.SleepNap, StartTime: start}))
	err := mem.Insert(ctx, records.SleepSession{ID: "s2", BabyID: "b1", Type: records.SleepNap, StartTime: start.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrSleepInProgress)

	open, err := mem.OpenSleepSession(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, "s1", open.ID)

	closed, err := mem.CloseSleepSession(ctx, "b1", "s1", start.Add(45*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, closed.DurationMinutes)
	assert.Equal(t, 45, *closed.DurationMinutes)

	open, err = mem.OpenSleepSession(ctx, "b1")
	require.NoError(t, err)
	assert.Nil(t, open)

	require.NoError(t, mem.Insert(ctx, records.SleepSession{ID: "s2", BabyID: "b1", Type: records.SleepNap, StartTime: start.Add(time.Hour)}))
}

func TestMemoryCloseUnknownRecords(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	end := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)

	_, err := mem.CloseSleepSession(ctx, "b1", "missing", end)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = mem.CloseContraction(ctx, "p1", "missing", end)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCloseContraction(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, mem.Insert(ctx, records.Contraction{ID: "c1", PregnancyID: "p1", StartTime: start}))
	closed, err := mem.CloseContraction(ctx, "p1", "c1", start.Add(70*time.Second))
	require.NoError(t, err)
	require.NotNil(t, closed.DurationSeconds)
	assert.Equal(t, 70, *closed.DurationSeconds)

	_, err = mem.CloseContraction(ctx, "other", "c1", start.Add(time.Minute))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryIsolatesStoredRecordsFromCallers(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	details := map[string]any{"severity": 4.0, "tags": []any{"nausea"}}
	require.NoError(t, mem.Insert(ctx, records.MaternalHealthReading{
		ID: "m1", PregnancyID: "p1", Type: records.ReadingSymptom, Value: "nausea", Details: details, Timestamp: start,
	}))
	details["severity"] = 9.0
	details["tags"].([]any)[0] = "edited"

	got, err := mem.Query(ctx, "p1", records.KindMaternalHealth, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	reading := got[0].(records.MaternalHealthReading)
	assert.Equal(t, 4.0, reading.Details["severity"])
	assert.Equal(t, []any{"nausea"}, reading.Details["tags"])
	reading.Details["severity"] = 1.0

	require.NoError(t, mem.Insert(ctx, records.SleepSession{ID: "s1", BabyID: "b1", Type: records.SleepNap, StartTime: start}))
	closed, err := mem.CloseSleepSession(ctx, "b1", "s1", start.Add(45*time.Minute))
	require.NoError(t, err)
	*closed.EndTime = start.Add(5 * time.Hour)
	*closed.DurationMinutes = 300

	again, err := mem.Query(ctx, "p1", records.KindMaternalHealth, nil)
	require.NoError(t, err)
	assert.Equal(t, 4.0, again[0].(records.MaternalHealthReading).Details["severity"])

	sessions, err := mem.MostRecent(ctx, "b1", records.KindSleep, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	stored := sessions[0].(records.SleepSession)
	assert.Equal(t, start.Add(45*time.Minute), *stored.EndTime)
	assert.Equal(t, 45, *stored.DurationMinutes)
}

func TestMemoryRejectsUnknownEventTypes(t *testing.T) {
	mem := NewMemory()
	err := mem.Insert(context.Background(), &records.Feed{ID: "f1"})
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestMemoryOwners(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	first, err := mem.CreateBaby(ctx, records.Baby{UserID: "u1", Name: "Ada", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	second, err := mem.CreateBaby(ctx, records.Baby{UserID: "u1", Name: "Bo", CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	babies, err := mem.ListBabies(ctx)
	require.NoError(t, err)
	require.Len(t, babies, 2)
	assert.Equal(t, second.ID, babies[0].ID)

	_, err = mem.GetBaby(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	pregnancy, err := mem.CreatePregnancy(ctx, records.Pregnancy{UserID: "u1", IsActive: true})
	require.NoError(t, err)
	got, err := mem.GetPregnancy(ctx, pregnancy.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestMemoryQueryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().Query(ctx, "b1", records.KindFeed, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
