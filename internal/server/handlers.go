package server

import (
	"strconv"
	"strings"
	"time"

	"babytrack/backend/internal/records"
)

type createBabyRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	Gender    string `json:"gender"`
}

type createPregnancyRequest struct {
	LastPeriodDate   string  `json:"last_period_date"`
	EstimatedDueDate string  `json:"estimated_due_date"`
	Notes            string  `json:"notes"`
	BabyID           *string `json:"baby_id"`
}

type feedRequest struct {
	Type            string     `json:"type"`
	AmountML        *float64   `json:"amount_ml"`
	DurationMinutes *int       `json:"duration_minutes"`
	Timestamp       *time.Time `json:"timestamp"`
	Notes           string     `json:"notes"`
}

type nappyRequest struct {
	Type      string     `json:"type"`
	Timestamp *time.Time `json:"timestamp"`
	Notes     string     `json:"notes"`
}

type sleepRequest struct {
	Type      string     `json:"type"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Location  string     `json:"location"`
	Notes     string     `json:"notes"`
}

type healthRequest struct {
	Type      string         `json:"type"`
	Value     string         `json:"value"`
	Details   map[string]any `json:"details"`
	Timestamp *time.Time     `json:"timestamp"`
	Notes     string         `json:"notes"`
}

type growthRequest struct {
	WeightKg            *float64   `json:"weight_kg"`
	HeightCm            *float64   `json:"height_cm"`
	HeadCircumferenceCm *float64   `json:"head_circumference_cm"`
	Timestamp           *time.Time `json:"timestamp"`
	Notes               string     `json:"notes"`
}

type contractionRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Intensity *int       `json:"intensity"`
	Notes     string     `json:"notes"`
}

type movementRequest struct {
	Timestamp       *time.Time `json:"timestamp"`
	DurationSeconds *int       `json:"duration_seconds"`
	Stimulus        string     `json:"stimulus"`
	Notes           string     `json:"notes"`
}

type maternalHealthRequest struct {
	Type      string         `json:"type"`
	Value     string         `json:"value"`
	Details   map[string]any `json:"details"`
	Timestamp *time.Time     `json:"timestamp"`
	Notes     string         `json:"notes"`
}

type endRecordRequest struct {
	EndTime *time.Time `json:"end_time"`
}

// Pregnancies default to the standard 280-day term when no due date is sent.
const fullTermDays = 280

// parseKindList reads a comma separated list such as "feed,sleep".
func parseKindList(raw string) (map[records.Kind]bool, string, bool) {
	result := make(map[records.Kind]bool)
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		kind, ok := records.ParseKind(trimmed)
		if !ok {
			return nil, trimmed, false
		}
		result[kind] = true
	}
	return result, "", true
}

func parseOptionalBool(raw string, fallback bool) (bool, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	return strconv.ParseBool(trimmed)
}
