package store

import (
	"context"
	"errors"
	"time"

	"babytrack/backend/internal/records"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrSleepInProgress = errors.New("a sleep session is already in progress")
	ErrUnsupportedKind = errors.New("unsupported record kind")
)

// TimeRange bounds are both inclusive.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (r *TimeRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// EventStore is the read side consumed by the summary and timeline packages.
// Query results are ordered arbitrarily; MostRecent returns newest first.
type EventStore interface {
	Query(ctx context.Context, ownerID string, kind records.Kind, rng *TimeRange) ([]records.Event, error)
	MostRecent(ctx context.Context, ownerID string, kind records.Kind, n int) ([]records.Event, error)
	OpenSleepSession(ctx context.Context, ownerID string) (*records.SleepSession, error)
}

type OwnerStore interface {
	CreateBaby(ctx context.Context, baby records.Baby) (records.Baby, error)
	GetBaby(ctx context.Context, id string) (records.Baby, error)
	ListBabies(ctx context.Context) ([]records.Baby, error)
	CreatePregnancy(ctx context.Context, pregnancy records.Pregnancy) (records.Pregnancy, error)
	GetPregnancy(ctx context.Context, id string) (records.Pregnancy, error)
}

type RecordWriter interface {
	Insert(ctx context.Context, event records.Event) error
	CloseSleepSession(ctx context.Context, babyID, sessionID string, end time.Time) (records.SleepSession, error)
	CloseContraction(ctx context.Context, pregnancyID, contractionID string, end time.Time) (records.Contraction, error)
}

type Store interface {
	EventStore
	OwnerStore
	RecordWriter
	Close()
}
