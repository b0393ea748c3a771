package records

import (
	"strconv"
	"strings"
	"time"
)

type Baby struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	BirthDate time.Time `json:"birth_date"`
	Gender    string    `json:"gender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Pregnancy struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	LastPeriodDate   time.Time `json:"last_period_date"`
	EstimatedDueDate time.Time `json:"estimated_due_date"`
	Notes            string    `json:"notes,omitempty"`
	IsActive         bool      `json:"is_active"`
	BabyID           *string   `json:"baby_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (p Pregnancy) Validate() error {
	if p.LastPeriodDate.IsZero() || p.EstimatedDueDate.IsZero() {
		return invalidf("last_period_date and estimated_due_date are required")
	}
	return nil
}

type Contraction struct {
	ID              string     `json:"id"`
	PregnancyID     string     `json:"pregnancy_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	Intensity       *int       `json:"intensity,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

func (c Contraction) EventID() string       { return c.ID }
func (c Contraction) EventOwnerID() string  { return c.PregnancyID }
func (c Contraction) EventKind() Kind       { return KindContraction }
func (c Contraction) OccurredAt() time.Time { return c.StartTime }
func (Contraction) isEvent()                {}

func (c Contraction) IsOpen() bool {
	return c.EndTime == nil
}

func (c Contraction) Close(end time.Time) (Contraction, error) {
	if err := checkEnd(c.StartTime, &end); err != nil {
		return Contraction{}, err
	}
	endUTC := end.UTC()
	seconds := int(endUTC.Sub(c.StartTime) / time.Second)
	c.EndTime = &endUTC
	c.DurationSeconds = &seconds
	return c, nil
}

func (c Contraction) Validate() error {
	if c.Intensity != nil && (*c.Intensity < 1 || *c.Intensity > 10) {
		return invalidf("intensity must be between 1 and 10")
	}
	return checkEnd(c.StartTime, c.EndTime)
}

type FetalMovement struct {
	ID              string    `json:"id"`
	PregnancyID     string    `json:"pregnancy_id"`
	Timestamp       time.Time `json:"timestamp"`
	DurationSeconds *int      `json:"duration_seconds,omitempty"`
	Stimulus        string    `json:"stimulus,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

func (m FetalMovement) EventID() string       { return m.ID }
func (m FetalMovement) EventOwnerID() string  { return m.PregnancyID }
func (m FetalMovement) EventKind() Kind       { return KindMovement }
func (m FetalMovement) OccurredAt() time.Time { return m.Timestamp }
func (FetalMovement) isEvent()                {}

func (m FetalMovement) Validate() error {
	if m.Timestamp.IsZero() {
		return invalidf("timestamp is required")
	}
	if m.DurationSeconds != nil && *m.DurationSeconds < 0 {
		return invalidf("duration_seconds must not be negative")
	}
	return nil
}

type MaternalReadingType string

const (
	ReadingWeight        MaternalReadingType = "weight"
	ReadingBloodPressure MaternalReadingType = "blood_pressure"
	ReadingSymptom       MaternalReadingType = "symptom"
	ReadingMood          MaternalReadingType = "mood"
)

type MaternalHealthReading struct {
	ID          string              `json:"id"`
	PregnancyID string              `json:"pregnancy_id"`
	Type        MaternalReadingType `json:"type"`
	Timestamp   time.Time           `json:"timestamp"`
	Value       string              `json:"value"`
	Details     map[string]any      `json:"details,omitempty"`
	Notes       string              `json:"notes,omitempty"`
}

func (r MaternalHealthReading) EventID() string       { return r.ID }
func (r MaternalHealthReading) EventOwnerID() string  { return r.PregnancyID }
func (r MaternalHealthReading) EventKind() Kind       { return KindMaternalHealth }
func (r MaternalHealthReading) OccurredAt() time.Time { return r.Timestamp }
func (MaternalHealthReading) isEvent()                {}

// Validate checks the reading shape. Blood pressure values are accepted as
// stored text; they are only parsed when rendered.
func (r MaternalHealthReading) Validate() error {
	if r.Timestamp.IsZero() {
		return invalidf("timestamp is required")
	}
	switch r.Type {
	case ReadingWeight, ReadingBloodPressure, ReadingSymptom, ReadingMood:
		return nil
	}
	return invalidf("reading type must be one of: weight, blood_pressure, symptom, mood")
}

// ParseBloodPressure splits a "systolic/diastolic" reading.
func ParseBloodPressure(value string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 2 {
		return 0, 0, invalidf("blood pressure %q is not systolic/diastolic", value)
	}
	systolic, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || systolic <= 0 {
		return 0, 0, invalidf("blood pressure %q has invalid systolic value", value)
	}
	diastolic, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || diastolic <= 0 {
		return 0, 0, invalidf("blood pressure %q has invalid diastolic value", value)
	}
	return systolic, diastolic, nil
}

// SymptomSeverity reads details.severity, which clients send as a number or a string.
func (r MaternalHealthReading) SymptomSeverity() (string, bool) {
	if r.Details == nil {
		return "", false
	}
	switch v := r.Details["severity"].(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), v != 0
	case int:
		return strconv.Itoa(v), v != 0
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed, trimmed != ""
	}
	return "", false
}
