package records

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalid = errors.New("invalid record")

type Kind string

const (
	KindFeed           Kind = "feed"
	KindNappy          Kind = "nappy"
	KindSleep          Kind = "sleep"
	KindHealth         Kind = "health"
	KindGrowth         Kind = "growth"
	KindContraction    Kind = "contraction"
	KindMovement       Kind = "movement"
	KindMaternalHealth Kind = "maternal_health"
)

type Source string

const (
	SourceBaby      Source = "baby"
	SourcePregnancy Source = "pregnancy"
)

// AllKinds lists every kind in timeline merge order.
var AllKinds = []Kind{
	KindContraction,
	KindMovement,
	KindMaternalHealth,
	KindFeed,
	KindNappy,
	KindSleep,
	KindHealth,
	KindGrowth,
}

func ParseKind(input string) (Kind, bool) {
	for _, kind := range AllKinds {
		if string(kind) == input {
			return kind, true
		}
	}
	return "", false
}

func (k Kind) Source() Source {
	switch k {
	case KindContraction, KindMovement, KindMaternalHealth:
		return SourcePregnancy
	default:
		return SourceBaby
	}
}

// Event is implemented only by the concrete record types in this package.
type Event interface {
	EventID() string
	EventOwnerID() string
	EventKind() Kind
	OccurredAt() time.Time
	isEvent()
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func checkEnd(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return invalidf("start_time is required")
	}
	if end != nil && end.Before(start) {
		return invalidf("end_time must not be before start_time")
	}
	return nil
}

type FeedType string

const (
	FeedBottle      FeedType = "bottle"
	FeedBreastLeft  FeedType = "breast_left"
	FeedBreastRight FeedType = "breast_right"
	FeedBreastBoth  FeedType = "breast_both"
)

func (t FeedType) IsBreast() bool {
	return t == FeedBreastLeft || t == FeedBreastRight || t == FeedBreastBoth
}

type Feed struct {
	ID              string    `json:"id"`
	BabyID          string    `json:"baby_id"`
	Type            FeedType  `json:"type"`
	AmountML        *float64  `json:"amount_ml,omitempty"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	Notes           string    `json:"notes,omitempty"`
}

func (f Feed) EventID() string       { return f.ID }
func (f Feed) EventOwnerID() string  { return f.BabyID }
func (f Feed) EventKind() Kind       { return KindFeed }
func (f Feed) OccurredAt() time.Time { return f.Timestamp }
func (Feed) isEvent()                {}

func (f Feed) Validate() error {
	if f.Timestamp.IsZero() {
		return invalidf("timestamp is required")
	}
	switch {
	case f.Type == FeedBottle:
		if f.AmountML == nil || *f.AmountML <= 0 {
			return invalidf("amount_ml is required for bottle feeds")
		}
		if f.DurationMinutes != nil {
			return invalidf("duration_minutes is only valid for breast feeds")
		}
	case f.Type.IsBreast():
		if f.DurationMinutes == nil || *f.DurationMinutes < 0 {
			return invalidf("duration_minutes is required for breast feeds")
		}
		if f.AmountML != nil {
			return invalidf("amount_ml is only valid for bottle feeds")
		}
	default:
		return invalidf("feed type must be one of: bottle, breast_left, breast_right, breast_both")
	}
	return nil
}

type NappyType string

const (
	NappyWet    NappyType = "wet"
	NappySoiled NappyType = "soiled"
	NappyBoth   NappyType = "both"
)

type Nappy struct {
	ID        string    `json:"id"`
	BabyID    string    `json:"baby_id"`
	Type      NappyType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

func (n Nappy) EventID() string       { return n.ID }
func (n Nappy) EventOwnerID() string  { return n.BabyID }
func (n Nappy) EventKind() Kind       { return KindNappy }
func (n Nappy) OccurredAt() time.Time { return n.Timestamp }
func (Nappy) isEvent()                {}

func (n Nappy) Validate() error {
	if n.Timestamp.IsZero() {
		return invalidf("timestamp is required")
	}
	switch n.Type {
	case NappyWet, NappySoiled, NappyBoth:
		return nil
	}
	return invalidf("nappy type must be one of: wet, soiled, both")
}

type SleepType string

const (
	SleepNap   SleepType = "nap"
	SleepNight SleepType = "night"
)

type SleepSession struct {
	ID              string     `json:"id"`
	BabyID          string     `json:"baby_id"`
	Type            SleepType  `json:"type"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Location        string     `json:"location,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

func (s SleepSession) EventID() string       { return s.ID }
func (s SleepSession) EventOwnerID() string  { return s.BabyID }
func (s SleepSession) EventKind() Kind       { return KindSleep }
func (s SleepSession) OccurredAt() time.Time { return s.StartTime }
func (SleepSession) isEvent()                {}

func (s SleepSession) IsOpen() bool {
	return s.EndTime == nil
}

// Close sets the end time and the duration rounded to whole minutes.
func (s SleepSession) Close(end time.Time) (SleepSession, error) {
	if err := checkEnd(s.StartTime, &end); err != nil {
		return SleepSession{}, err
	}
	endUTC := end.UTC()
	minutes := int(math.Round(endUTC.Sub(s.StartTime).Minutes()))
	s.EndTime = &endUTC
	s.DurationMinutes = &minutes
	return s, nil
}

func (s SleepSession) Validate() error {
	if s.Type != SleepNap && s.Type != SleepNight {
		return invalidf("sleep type must be one of: nap, night")
	}
	return checkEnd(s.StartTime, s.EndTime)
}

type HealthRecord struct {
	ID        string         `json:"id"`
	BabyID    string         `json:"baby_id"`
	Type      string         `json:"type"`
	Value     string         `json:"value,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Notes     string         `json:"notes,omitempty"`
}

func (h HealthRecord) EventID() string       { return h.ID }
func (h HealthRecord) EventOwnerID() string  { return h.BabyID }
func (h HealthRecord) EventKind() Kind       { return KindHealth }
func (h HealthRecord) OccurredAt() time.Time { return h.Timestamp }
func (HealthRecord) isEvent()                {}

func (h HealthRecord) Validate() error {
	if h.Type == "" {
		return invalidf("health type is required")
	}
	if h.Timestamp.IsZero() {
		return invalidf("timestamp is required")
	}
	return nil
}

type GrowthRecord struct {
	ID                  string    `json:"id"`
	BabyID              string    `json:"baby_id"`
	WeightKg            *float64  `json:"weight_kg,omitempty"`
	HeightCm            *float64  `json:"height_cm,omitempty"`
	HeadCircumferenceCm *float64  `json:"head_circumference_cm,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
	Notes               string    `json:"notes,omitempty"`
}

func (g GrowthRecord) EventID() string       { return g.ID }
func (g GrowthRecord) EventOwnerID() string  { return g.BabyID }
func (g GrowthRecord) EventKind() Kind       { return KindGrowth }
func (g GrowthRecord) OccurredAt() time.Time { return g.Timestamp }
func (GrowthRecord) isEvent()                {}

func (g GrowthRecord) Validate() error {
	if g.Timestamp.IsZero() {
		return invalidf("timestamp is required")
	}
	if g.WeightKg == nil && g.HeightCm == nil && g.HeadCircumferenceCm == nil {
		return invalidf("at least one measurement is required")
	}
	return nil
}
