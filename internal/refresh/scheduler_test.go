package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stagehub/pkg/models"
)

func TestNextRun(t *testing.T) {
	s, err := NewScheduler(nil, SchedulerConfig{Times: []string{"12:00", "00:00"}, Location: kst}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"morning", time.Date(2026, 10, 17, 10, 0, 0, 0, kst), time.Date(2026, 10, 17, 12, 0, 0, 0, kst)},
		{"exactly noon", time.Date(2026, 10, 17, 12, 0, 0, 0, kst), time.Date(2026, 10, 18, 0, 0, 0, 0, kst)},
		{"before midnight", time.Date(2026, 10, 17, 23, 59, 0, 0, kst), time.Date(2026, 10, 18, 0, 0, 0, 0, kst)},
		{"exactly midnight", time.Date(2026, 10, 18, 0, 0, 0, 0, kst), time.Date(2026, 10, 18, 12, 0, 0, 0, kst)},
		{"month end", time.Date(2026, 10, 31, 13, 0, 0, 0, kst), time.Date(2026, 11, 1, 0, 0, 0, 0, kst)},
		{"utc input", time.Date(2026, 10, 17, 14, 30, 0, 0, time.UTC), time.Date(2026, 10, 18, 0, 0, 0, 0, kst)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.NextRun(tt.at); !got.Equal(tt.want) {
				t.Errorf("NextRun(%s) = %s, want %s", tt.at, got, tt.want)
			}
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "00:00", want: "00:00"},
		{in: "9:05", want: "09:05"},
		{in: "23:59", want: "23:59"},
		{in: "24:00", wantErr: true},
		{in: "noon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := NewScheduler(nil, SchedulerConfig{Times: []string{"12:00", "25:00"}}, zerolog.Nop()); err == nil {
		t.Error("NewScheduler accepted an invalid time")
	}
}

type countingRefresher struct {
	calls chan Mode
	err   error
}

func (r *countingRefresher) Refresh(_ context.Context, mode Mode) (*models.Snapshot, error) {
	r.calls <- mode
	return nil, r.err
}

func TestSchedulerServe(t *testing.T) {
	r := &countingRefresher{calls: make(chan Mode, 4), err: errors.New("upstream down")}
	s, err := NewScheduler(r, SchedulerConfig{Location: kst, RunOnStart: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	now := time.Date(2026, 10, 17, 10, 0, 0, 0, kst)
	waits := make(chan time.Duration, 4)
	fire := make(chan time.Time)
	s.now = func() time.Time { return now }
	s.after = func(d time.Duration) <-chan time.Time {
		waits <- d
		return fire
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	if mode := <-r.calls; mode != ModeScheduled {
		t.Errorf("startup refresh mode = %s", mode)
	}
	if d := <-waits; d != 2*time.Hour {
		t.Errorf("wait = %s, want 2h", d)
	}
	fire <- now
	if mode := <-r.calls; mode != ModeScheduled {
		t.Errorf("timed refresh mode = %s", mode)
	}
	<-waits

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if s.String() != "refresh-scheduler" {
		t.Errorf("String() = %q", s.String())
	}
}
