package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"babytrack/backend/internal/records"
)

// Memory is an in-process Store used by tests and STORE_DRIVER=memory.
// Records are deep-copied on the way in and out, so callers never share
// pointers or detail maps with the stored state.
type Memory struct {
	mu          sync.RWMutex
	babies      map[string]records.Baby
	pregnancies map[string]records.Pregnancy
	events      map[records.Kind][]records.Event
}

func NewMemory() *Memory {
	return &Memory{
		babies:      make(map[string]records.Baby),
		pregnancies: make(map[string]records.Pregnancy),
		events:      make(map[records.Kind][]records.Event),
	}
}

func (m *Memory) Close() {}

func (m *Memory) CreateBaby(ctx context.Context, baby records.Baby) (records.Baby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if baby.ID == "" {
		baby.ID = uuid.NewString()
	}
	if baby.CreatedAt.IsZero() {
		baby.CreatedAt = time.Now().UTC()
	}
	m.babies[baby.ID] = baby
	return baby, nil
}

func (m *Memory) GetBaby(ctx context.Context, id string) (records.Baby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	baby, ok := m.babies[id]
	if !ok {
		return records.Baby{}, ErrNotFound
	}
	return baby, nil
}

func (m *Memory) ListBabies(ctx context.Context) ([]records.Baby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	babies := make([]records.Baby, 0, len(m.babies))
	for _, baby := range m.babies {
		babies = append(babies, baby)
	}
	sort.Slice(babies, func(i, j int) bool {
		return babies[i].CreatedAt.After(babies[j].CreatedAt)
	})
	return babies, nil
}

func (m *Memory) CreatePregnancy(ctx context.Context, pregnancy records.Pregnancy) (records.Pregnancy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pregnancy.ID == "" {
		pregnancy.ID = uuid.NewString()
	}
	if pregnancy.CreatedAt.IsZero() {
		pregnancy.CreatedAt = time.Now().UTC()
	}
	pregnancy.BabyID = clonePtr(pregnancy.BabyID)
	m.pregnancies[pregnancy.ID] = pregnancy
	return clonePregnancy(pregnancy), nil
}

func (m *Memory) GetPregnancy(ctx context.Context, id string) (records.Pregnancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pregnancy, ok := m.pregnancies[id]
	if !ok {
		return records.Pregnancy{}, ErrNotFound
	}
	return clonePregnancy(pregnancy), nil
}

func (m *Memory) Insert(ctx context.Context, event records.Event) error {
	switch event.(type) {
	case records.Feed, records.Nappy, records.SleepSession, records.HealthRecord, records.GrowthRecord,
		records.Contraction, records.FetalMovement, records.MaternalHealthReading:
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedKind, event)
	}
	if event.EventID() == "" {
		return fmt.Errorf("insert %s: record id is required", event.EventKind())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := event.(records.SleepSession); ok && session.IsOpen() {
		if open := m.openSleepLocked(session.BabyID); open != nil {
			return ErrSleepInProgress
		}
	}
	kind := event.EventKind()
	m.events[kind] = append(m.events[kind], cloneEvent(event))
	return nil
}

func (m *Memory) Query(ctx context.Context, ownerID string, kind records.Kind, rng *TimeRange) ([]records.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]records.Event, 0)
	for _, event := range m.events[kind] {
		if event.EventOwnerID() != ownerID || !rng.Contains(event.OccurredAt()) {
			continue
		}
		result = append(result, cloneEvent(event))
	}
	return result, nil
}

func (m *Memory) MostRecent(ctx context.Context, ownerID string, kind records.Kind, n int) ([]records.Event, error) {
	all, err := m.Query(ctx, ownerID, kind, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].OccurredAt().After(all[j].OccurredAt())
	})
	if n >= 0 && n < len(all) {
		all = all[:n]
	}
	return all, nil
}

func (m *Memory) OpenSleepSession(ctx context.Context, ownerID string) (*records.SleepSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.openSleepLocked(ownerID), nil
}

// openSleepLocked returns the latest-started open session, matching the SQL ordering.
func (m *Memory) openSleepLocked(ownerID string) *records.SleepSession {
	var latest *records.SleepSession
	for _, event := range m.events[records.KindSleep] {
		session := event.(records.SleepSession)
		if session.BabyID != ownerID || !session.IsOpen() {
			continue
		}
		if latest == nil || session.StartTime.After(latest.StartTime) {
			found := cloneEvent(session).(records.SleepSession)
			latest = &found
		}
	}
	return latest
}

func (m *Memory) CloseSleepSession(ctx context.Context, babyID, sessionID string, end time.Time) (records.SleepSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for idx, event := range m.events[records.KindSleep] {
		session := event.(records.SleepSession)
		if session.ID != sessionID || session.BabyID != babyID {
			continue
		}
		closed, err := session.Close(end)
		if err != nil {
			return records.SleepSession{}, err
		}
		m.events[records.KindSleep][idx] = closed
		return cloneEvent(closed).(records.SleepSession), nil
	}
	return records.SleepSession{}, ErrNotFound
}

func (m *Memory) CloseContraction(ctx context.Context, pregnancyID, contractionID string, end time.Time) (records.Contraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for idx, event := range m.events[records.KindContraction] {
		contraction := event.(records.Contraction)
		if contraction.ID != contractionID || contraction.PregnancyID != pregnancyID {
			continue
		}
		closed, err := contraction.Close(end)
		if err != nil {
			return records.Contraction{}, err
		}
		m.events[records.KindContraction][idx] = closed
		return cloneEvent(closed).(records.Contraction), nil
	}
	return records.Contraction{}, ErrNotFound
}

func clonePregnancy(p records.Pregnancy) records.Pregnancy {
	p.BabyID = clonePtr(p.BabyID)
	return p
}

func cloneEvent(event records.Event) records.Event {
	switch e := event.(type) {
	case records.Feed:
		e.AmountML = clonePtr(e.AmountML)
		e.DurationMinutes = clonePtr(e.DurationMinutes)
		return e
	case records.SleepSession:
		e.EndTime = clonePtr(e.EndTime)
		e.DurationMinutes = clonePtr(e.DurationMinutes)
		return e
	case records.HealthRecord:
		e.Details = cloneDetails(e.Details)
		return e
	case records.GrowthRecord:
		e.WeightKg = clonePtr(e.WeightKg)
		e.HeightCm = clonePtr(e.HeightCm)
		e.HeadCircumferenceCm = clonePtr(e.HeadCircumferenceCm)
		return e
	case records.Contraction:
		e.EndTime = clonePtr(e.EndTime)
		e.DurationSeconds = clonePtr(e.DurationSeconds)
		e.Intensity = clonePtr(e.Intensity)
		return e
	case records.FetalMovement:
		e.DurationSeconds = clonePtr(e.DurationSeconds)
		return e
	case records.MaternalHealthReading:
		e.Details = cloneDetails(e.Details)
		return e
	}
	return event
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for key, value := range details {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneDetails(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	}
	return value
}
