package refresh

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"stagehub/pkg/models"
)

// DefaultTimes are the daily refresh times.
var DefaultTimes = []string{"00:00", "12:00"}

// Refresher is the part of Service the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context, mode Mode) (*models.Snapshot, error)
}

// TimeOfDay is a wall-clock time in the scheduler's location.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

type SchedulerConfig struct {
	Times      []string
	Location   *time.Location
	RunOnStart bool
	Mode       Mode
}

// Scheduler runs a refresh at fixed times every day. It implements
// suture.Service.
type Scheduler struct {
	refresher  Refresher
	times      []TimeOfDay
	loc        *time.Location
	runOnStart bool
	mode       Mode
	logger     zerolog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func NewScheduler(r Refresher, cfg SchedulerConfig, logger zerolog.Logger) (*Scheduler, error) {
	if len(cfg.Times) == 0 {
		cfg.Times = DefaultTimes
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeScheduled
	}
	times := make([]TimeOfDay, 0, len(cfg.Times))
	for _, s := range cfg.Times {
		t, err := ParseTimeOfDay(s)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool {
		if times[i].Hour != times[j].Hour {
			return times[i].Hour < times[j].Hour
		}
		return times[i].Minute < times[j].Minute
	})
	return &Scheduler{
		refresher:  r,
		times:      times,
		loc:        cfg.Location,
		runOnStart: cfg.RunOnStart,
		mode:       cfg.Mode,
		logger:     logger.With().Str("component", "scheduler").Logger(),
		now:        time.Now,
		after:      time.After,
	}, nil
}

// NextRun is the first scheduled time strictly after t.
func (s *Scheduler) NextRun(t time.Time) time.Time {
	local := t.In(s.loc)
	y, m, d := local.Date()
	for day := 0; day <= 1; day++ {
		for _, tod := range s.times {
			c := time.Date(y, m, d+day, tod.Hour, tod.Minute, 0, 0, s.loc)
			if c.After(local) {
				return c
			}
		}
	}
	// Unreachable with at least one time configured.
	return time.Date(y, m, d+1, 0, 0, 0, 0, s.loc)
}

// Serve blocks until ctx is done. Cycle errors are logged, never returned.
func (s *Scheduler) Serve(ctx context.Context) error {
	if s.runOnStart {
		s.runOnce(ctx)
	}
	for {
		next := s.NextRun(s.now())
		wait := next.Sub(s.now())
		s.logger.Debug().Time("next_run", next).Dur("in", wait).Msg("waiting for next refresh")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.after(wait):
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.refresher.Refresh(ctx, s.mode); err != nil && ctx.Err() == nil {
		s.logger.Warn().Err(err).Msg("scheduled refresh did not publish")
	}
}

func (s *Scheduler) String() string { return "refresh-scheduler" }
