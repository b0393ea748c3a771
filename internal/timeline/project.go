package timeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"babytrack/backend/internal/records"
)

var ErrUnknownEvent = errors.New("unknown event type")

const detailSeparator = " • "

// Item is a display projection of one event. It is never persisted.
type Item struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	SourceType    records.Source `json:"source_type"`
	EventType     records.Kind   `json:"event_type"`
	PrimaryText   string         `json:"primary_text"`
	SecondaryText string         `json:"secondary_text,omitempty"`
	DetailText    string         `json:"detail_text,omitempty"`
}

func newItem(event records.Event) Item {
	kind := event.EventKind()
	return Item{
		ID:         string(kind) + "_" + event.EventID(),
		Timestamp:  event.OccurredAt(),
		SourceType: kind.Source(),
		EventType:  kind,
	}
}

// Project renders a single event. Only a malformed blood pressure reading or
// a type outside the records package makes it fail.
func Project(event records.Event) (Item, error) {
	switch e := event.(type) {
	case records.Contraction:
		item := newItem(e)
		item.PrimaryText = "Contraction"
		item.SecondaryText = "In progress"
		if seconds, ok := contractionSeconds(e); ok {
			item.SecondaryText = fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
		}
		parts := make([]string, 0, 2)
		if e.Intensity != nil {
			parts = append(parts, fmt.Sprintf("Intensity: %d/10", *e.Intensity))
		}
		if e.Notes != "" {
			parts = append(parts, e.Notes)
		}
		item.DetailText = strings.Join(parts, detailSeparator)
		return item, nil

	case records.FetalMovement:
		item := newItem(e)
		item.PrimaryText = "Fetal Movement"
		if e.Stimulus != "" {
			item.SecondaryText = "Response to: " + e.Stimulus
		}
		item.DetailText = e.Notes
		return item, nil

	case records.MaternalHealthReading:
		return projectMaternal(e)

	case records.Feed:
		item := newItem(e)
		item.PrimaryText = "Breast Feed"
		if e.Type == records.FeedBottle {
			item.PrimaryText = "Bottle Feed"
		}
		switch {
		case e.AmountML != nil:
			item.SecondaryText = formatNumber(*e.AmountML) + "ml"
		case e.DurationMinutes != nil:
			item.SecondaryText = strconv.Itoa(*e.DurationMinutes) + " min"
		default:
			item.SecondaryText = "0 min"
		}
		item.DetailText = e.Notes
		return item, nil

	case records.Nappy:
		item := newItem(e)
		item.PrimaryText = capitalize(string(e.Type)) + " Nappy"
		item.DetailText = e.Notes
		return item, nil

	case records.SleepSession:
		item := newItem(e)
		item.PrimaryText = "Night Sleep"
		if e.Type == records.SleepNap {
			item.PrimaryText = "Nap"
		}
		item.SecondaryText = "In progress"
		if minutes, ok := sleepMinutes(e); ok {
			item.SecondaryText = fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
		}
		item.DetailText = e.Notes
		return item, nil

	case records.HealthRecord:
		item := newItem(e)
		item.PrimaryText = "Health: " + e.Type
		item.SecondaryText = e.Value
		item.DetailText = e.Notes
		return item, nil

	case records.GrowthRecord:
		item := newItem(e)
		item.PrimaryText = "Growth Measurement"
		parts := make([]string, 0, 3)
		if e.WeightKg != nil {
			parts = append(parts, "Weight: "+formatNumber(*e.WeightKg)+" kg")
		}
		if e.HeightCm != nil {
			parts = append(parts, "Height: "+formatNumber(*e.HeightCm)+" cm")
		}
		if e.HeadCircumferenceCm != nil {
			parts = append(parts, "Head: "+formatNumber(*e.HeadCircumferenceCm)+" cm")
		}
		item.SecondaryText = strings.Join(parts, detailSeparator)
		item.DetailText = e.Notes
		return item, nil
	}
	return Item{}, fmt.Errorf("%w: %T", ErrUnknownEvent, event)
}

func projectMaternal(e records.MaternalHealthReading) (Item, error) {
	item := newItem(e)
	item.PrimaryText = "Health Record"
	item.SecondaryText = e.Value
	item.DetailText = e.Notes

	switch e.Type {
	case records.ReadingWeight:
		item.PrimaryText = "Weight"
		item.SecondaryText = e.Value + " kg"
	case records.ReadingBloodPressure:
		if _, _, err := records.ParseBloodPressure(e.Value); err != nil {
			return Item{}, err
		}
		item.PrimaryText = "Blood Pressure"
	case records.ReadingSymptom:
		item.PrimaryText = "Symptom: " + e.Value
		if severity, ok := e.SymptomSeverity(); ok {
			item.SecondaryText = "Severity: " + severity + "/10"
		}
	case records.ReadingMood:
		item.PrimaryText = "Mood: " + e.Value
	}
	return item, nil
}

func contractionSeconds(c records.Contraction) (int, bool) {
	if c.EndTime == nil {
		return 0, false
	}
	if c.DurationSeconds != nil {
		return *c.DurationSeconds, true
	}
	return int(c.EndTime.Sub(c.StartTime) / time.Second), true
}

func sleepMinutes(s records.SleepSession) (int, bool) {
	if s.EndTime == nil {
		return 0, false
	}
	if s.DurationMinutes != nil {
		return *s.DurationMinutes, true
	}
	closed, err := s.Close(*s.EndTime)
	if err != nil || closed.DurationMinutes == nil {
		return 0, true
	}
	return *closed.DurationMinutes, true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func capitalize(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
