package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"babytrack/backend/internal/records"
	"babytrack/backend/internal/store"
	"babytrack/backend/internal/summary"
)

// WeekExporter receives one baby's previous week.
type WeekExporter interface {
	ExportWeek(ctx context.Context, baby records.Baby, series summary.WeeklySeries) error
}

// Scheduler runs the weekly export job.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	owners   store.OwnerStore
	calc     *summary.Calculator
	exporter WeekExporter
	logger   *zap.Logger
	now      func() time.Time
}

func New(schedule string, timeout time.Duration, owners store.OwnerStore, calc *summary.Calculator, exporter WeekExporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(calc.Location())),
		schedule: schedule,
		timeout:  timeout,
		owners:   owners,
		calc:     calc,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("weekly_export", s.schedule))
	if _, err := s.cron.AddFunc(s.schedule, s.exportLastWeek); err != nil {
		return fmt.Errorf("schedule weekly export %q: %w", s.schedule, err)
	}
	s.cron.Start()
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) exportLastWeek() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("weekly export finished with errors", zap.Error(err))
		return
	}
	s.logger.Info("weekly export completed")
}

// RunOnce exports the previous Monday-to-Sunday week for every baby. A failure
// for one baby does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	babies, err := s.owners.ListBabies(ctx)
	if err != nil {
		return fmt.Errorf("list babies: %w", err)
	}

	start := LastWeekStart(s.now(), s.calc.Location())
	var errs []error
	for _, baby := range babies {
		series, err := s.calc.ComputeWeeklyStats(ctx, baby.ID, start)
		if err != nil {
			errs = append(errs, fmt.Errorf("weekly stats for %s: %w", baby.ID, err))
			continue
		}
		if err := s.exporter.ExportWeek(ctx, baby, series); err != nil {
			errs = append(errs, fmt.Errorf("export week for %s: %w", baby.ID, err))
			continue
		}
		s.logger.Debug("weekly series exported",
			zap.String("baby_id", baby.ID),
			zap.String("start_date", start.Format("2006-01-02")),
		)
	}
	return errors.Join(errs...)
}

// LastWeekStart returns midnight of the Monday before the current week in loc.
func LastWeekStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	sinceMonday := (int(local.Weekday()) + 6) % 7
	year, month, day := local.Date()
	return time.Date(year, month, day-sinceMonday-7, 0, 0, 0, 0, loc)
}
