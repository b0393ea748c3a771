package timeline

import (
	"sort"
	"time"

	"babytrack/backend/internal/records"
)

const dateKeyLayout = "2006-01-02"

type Filters struct {
	ShowPregnancy bool
	ShowBaby      bool
	// EventTypes gates each kind; a kind missing from the map is disabled.
	EventTypes map[records.Kind]bool
}

func DefaultFilters() Filters {
	types := make(map[records.Kind]bool, len(records.AllKinds))
	for _, kind := range records.AllKinds {
		types[kind] = true
	}
	return Filters{ShowPregnancy: true, ShowBaby: true, EventTypes: types}
}

func (f Filters) Allows(kind records.Kind) bool {
	switch kind.Source() {
	case records.SourcePregnancy:
		if !f.ShowPregnancy {
			return false
		}
	default:
		if !f.ShowBaby {
			return false
		}
	}
	return f.EventTypes[kind]
}

// Sources holds already-fetched collections, one slice per kind.
type Sources struct {
	Contractions   []records.Contraction
	Movements      []records.FetalMovement
	MaternalHealth []records.MaternalHealthReading
	Feeds          []records.Feed
	Nappies        []records.Nappy
	Sleep          []records.SleepSession
	Health         []records.HealthRecord
	Growth         []records.GrowthRecord
}

// Add files each event under its kind. Unknown types are ignored.
func (s *Sources) Add(events ...records.Event) {
	for _, event := range events {
		switch e := event.(type) {
		case records.Contraction:
			s.Contractions = append(s.Contractions, e)
		case records.FetalMovement:
			s.Movements = append(s.Movements, e)
		case records.MaternalHealthReading:
			s.MaternalHealth = append(s.MaternalHealth, e)
		case records.Feed:
			s.Feeds = append(s.Feeds, e)
		case records.Nappy:
			s.Nappies = append(s.Nappies, e)
		case records.SleepSession:
			s.Sleep = append(s.Sleep, e)
		case records.HealthRecord:
			s.Health = append(s.Health, e)
		case records.GrowthRecord:
			s.Growth = append(s.Growth, e)
		}
	}
}

func (s Sources) events(kind records.Kind) []records.Event {
	switch kind {
	case records.KindContraction:
		return asEvents(s.Contractions)
	case records.KindMovement:
		return asEvents(s.Movements)
	case records.KindMaternalHealth:
		return asEvents(s.MaternalHealth)
	case records.KindFeed:
		return asEvents(s.Feeds)
	case records.KindNappy:
		return asEvents(s.Nappies)
	case records.KindSleep:
		return asEvents(s.Sleep)
	case records.KindHealth:
		return asEvents(s.Health)
	case records.KindGrowth:
		return asEvents(s.Growth)
	}
	return nil
}

func asEvents[T records.Event](items []T) []records.Event {
	result := make([]records.Event, 0, len(items))
	for _, item := range items {
		result = append(result, item)
	}
	return result
}

type DayGroup struct {
	Date  string `json:"date"`
	Items []Item `json:"items"`
}

// Skipped reports an event whose projection failed.
type Skipped struct {
	ID        string       `json:"id"`
	EventType records.Kind `json:"event_type"`
	Reason    string       `json:"reason"`
}

type Timeline struct {
	Groups  []DayGroup `json:"groups"`
	Skipped []Skipped  `json:"skipped,omitempty"`
}

// Len counts the projected items across all groups.
func (t Timeline) Len() int {
	total := 0
	for _, group := range t.Groups {
		total += len(group.Items)
	}
	return total
}

// Build filters, projects, merges and groups the sources. Disabled kinds are
// never projected. Items sharing a timestamp keep their merge order.
func Build(sources Sources, filters Filters, loc *time.Location) Timeline {
	if loc == nil {
		loc = time.UTC
	}

	result := Timeline{Groups: make([]DayGroup, 0)}
	items := make([]Item, 0)
	for _, kind := range records.AllKinds {
		if !filters.Allows(kind) {
			continue
		}
		for _, event := range sources.events(kind) {
			item, err := Project(event)
			if err != nil {
				result.Skipped = append(result.Skipped, Skipped{
					ID:        string(kind) + "_" + event.EventID(),
					EventType: kind,
					Reason:    err.Error(),
				})
				continue
			}
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	for _, item := range items {
		key := item.Timestamp.In(loc).Format(dateKeyLayout)
		last := len(result.Groups) - 1
		if last < 0 || result.Groups[last].Date != key {
			result.Groups = append(result.Groups, DayGroup{Date: key})
			last++
		}
		result.Groups[last].Items = append(result.Groups[last].Items, item)
	}
	return result
}
