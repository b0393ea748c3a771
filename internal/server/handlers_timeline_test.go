package server

import (
	"net/http"
	"testing"
	"time"

	"babytrack/backend/internal/records"
	"babytrack/backend/internal/timeline"
)

func TestTimelineMergesBabyAndPregnancyEvents(t *testing.T) {
	env := newTestEnv(t)
	userID := testID()
	token := signToken(t, userID, nil)
	baby := seedBaby(t, env.store, userID, "Ada")
	pregnancy := seedPregnancy(t, env.store, userID, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC))
	day := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)

	seedEvents(t, env.store,
		records.Feed{ID: "f1", BabyID: baby.ID, Type: records.FeedBottle, AmountML: floatPtr(120), Timestamp: day.Add(8 * time.Hour)},
		records.Nappy{ID: "n1", BabyID: baby.ID, Type: records.NappySoiled, Timestamp: day.AddDate(0, 0, -1).Add(20 * time.Hour)},
		records.FetalMovement{ID: "m1", PregnancyID: pregnancy.ID, Stimulus: "music", Timestamp: day.Add(9 * time.Hour)},
	)

	path := "/api/v1/timeline?baby_id=" + baby.ID + "&pregnancy_id=" + pregnancy.ID
	rec := performRequest(t, env.router, http.MethodGet, path, token, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var body timeline.Timeline
	decodeInto(t, rec, &body)
	if len(body.Groups) != 2 {
		t.Fatalf("expected two day groups, got %+v", body.Groups)
	}
	if body.Groups[0].Date != "2024-01-09" || len(body.Groups[0].Items) != 2 {
		t.Fatalf("unexpected first group: %+v", body.Groups[0])
	}
	first := body.Groups[0].Items[0]
	if first.ID != "movement_m1" || first.SourceType != records.SourcePregnancy || first.SecondaryText != "Response to: music" {
		t.Fatalf("expected movement first, got %+v", first)
	}
	if body.Groups[0].Items[1].PrimaryText != "Bottle Feed" {
		t.Fatalf("expected bottle feed second, got %+v", body.Groups[0].Items[1])
	}
	if body.Groups[1].Items[0].PrimaryText != "Soiled Nappy" {
		t.Fatalf("expected soiled nappy on previous day, got %+v", body.Groups[1].Items[0])
	}

	rec = performRequest(t, env.router, http.MethodGet, path+"&show_pregnancy=false&types=movement,feed", token, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	decodeInto(t, rec, &body)
	if body.Len() != 1 || body.Groups[0].Items[0].ID != "feed_f1" {
		t.Fatalf("expected only the feed to survive filters, got %+v", body.Groups)
	}

	rec = performRequest(t, env.router, http.MethodGet, path+"&from=2024-01-09&to=2024-01-09", token, nil, nil)
	decodeInto(t, rec, &body)
	if body.Len() != 2 {
		t.Fatalf("expected range to drop the earlier nappy, got %d items", body.Len())
	}
}

func TestTimelineRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	userID := testID()
	token := signToken(t, userID, nil)
	baby := seedBaby(t, env.store, userID, "Ada")

	cases := []struct {
		path   string
		status int
		detail string
	}{
		{"/api/v1/timeline", http.StatusBadRequest, "baby_id or pregnancy_id is required"},
		{"/api/v1/timeline?baby_id=" + baby.ID + "&types=feed,poo", http.StatusBadRequest, "unknown event type: poo"},
		{"/api/v1/timeline?baby_id=" + baby.ID + "&show_baby=perhaps", http.StatusBadRequest, "show_baby must be a boolean"},
		{"/api/v1/timeline?baby_id=" + baby.ID + "&from=2024/01/01", http.StatusBadRequest, "from must be YYYY-MM-DD"},
		{"/api/v1/timeline?pregnancy_id=" + testID(), http.StatusNotFound, "Pregnancy not found"},
	}
	for _, tc := range cases {
		rec := performRequest(t, env.router, http.MethodGet, tc.path, token, nil, nil)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d body=%s", tc.path, tc.status, rec.Code, rec.Body.String())
		}
		if detail := responseDetail(t, rec); detail != tc.detail {
			t.Fatalf("%s: expected %q, got %q", tc.path, tc.detail, detail)
		}
	}

	foreign := signToken(t, testID(), nil)
	rec := performRequest(t, env.router, http.MethodGet, "/api/v1/timeline?baby_id="+baby.ID, foreign, nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign baby, got %d", rec.Code)
	}
}

func TestTimelineReportsSkippedReadings(t *testing.T) {
	env := newTestEnv(t)
	userID := testID()
	token := signToken(t, userID, nil)
	pregnancy := seedPregnancy(t, env.store, userID, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC))
	day := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)

	seedEvents(t, env.store,
		records.MaternalHealthReading{ID: "bp-ok", PregnancyID: pregnancy.ID, Type: records.ReadingBloodPressure, Value: "118/76", Timestamp: day.Add(8 * time.Hour)},
		records.MaternalHealthReading{ID: "bp-bad", PregnancyID: pregnancy.ID, Type: records.ReadingBloodPressure, Value: "high", Timestamp: day.Add(9 * time.Hour)},
	)

	rec := performRequest(t, env.router, http.MethodGet, "/api/v1/timeline?pregnancy_id="+pregnancy.ID, token, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var body timeline.Timeline
	decodeInto(t, rec, &body)
	if body.Len() != 1 || body.Groups[0].Items[0].SecondaryText != "118/76" {
		t.Fatalf("expected one rendered blood pressure reading, got %+v", body.Groups)
	}
	if len(body.Skipped) != 1 || body.Skipped[0].ID != "maternal_health_bp-bad" {
		t.Fatalf("expected malformed reading to be skipped, got %+v", body.Skipped)
	}
}
