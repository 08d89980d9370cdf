package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stagehub/pkg/models"
)

func sampleSnapshot(cycle string, at time.Time) *models.Snapshot {
	dday := 3
	return &models.Snapshot{
		CycleID: cycle,
		Mode:    "scheduled",
		Performances: []models.UnifiedPerformance{{
			Fingerprint:    "abc",
			Name:           "아이유 콘서트",
			StartDate:      "2026.12.20",
			Part:           models.PartConcert,
			Region:         models.RegionSeoul,
			SubCategory:    "발라드",
			TicketOpen:     &models.TicketOpen{Date: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), Estimated: true},
			DDay:           &dday,
			AvailableSites: []models.Site{{Name: "인터파크", Link: "https://tickets.interpark.com/goods/1", Color: "#ff6464"}},
		}},
		ComputedAt:   at,
		SourceCounts: map[string]int{"KOPIS": 0, "인터파크": 1},
	}
}

func checkRoundTrip(t *testing.T, got *models.Snapshot, want *models.Snapshot) {
	t.Helper()
	if got.CycleID != want.CycleID || got.Mode != want.Mode {
		t.Errorf("ids = %s/%s", got.CycleID, got.Mode)
	}
	if !got.ComputedAt.Equal(want.ComputedAt) {
		t.Errorf("ComputedAt = %s, want %s", got.ComputedAt, want.ComputedAt)
	}
	if len(got.Performances) != 1 {
		t.Fatalf("performances = %d", len(got.Performances))
	}
	p := got.Performances[0]
	if p.Name != "아이유 콘서트" || p.TicketOpen == nil || p.TicketOpen.String() != "2026.10.20 (추정)" || *p.DDay != 3 {
		t.Errorf("performance = %+v", p)
	}
	if got.SourceCounts["인터파크"] != 1 {
		t.Errorf("counts = %v", got.SourceCounts)
	}
	if c, ok := got.SourceCounts["KOPIS"]; !ok || c != 0 {
		t.Errorf("zero count lost: %v", got.SourceCounts)
	}
	if _, ok := got.SourceCounts["total"]; ok {
		t.Errorf("total leaked into source counts")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data.db"), 3, time.UTC)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	if _, err := s.Latest(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("empty Latest err = %v", err)
	}

	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	want := sampleSnapshot("c1", at)
	runs := []SourceRun{
		{Source: "KOPIS", Error: "timeout", Elapsed: 10 * time.Second, StartedAt: at},
		{Source: "인터파크", Records: 1, Elapsed: 800 * time.Millisecond, StartedAt: at},
	}
	if err := s.Save(ctx, Record{Snapshot: want, Runs: runs}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	checkRoundTrip(t, got, want)

	gotRuns, err := s.Runs(ctx, "c1")
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(gotRuns) != 2 || gotRuns[0].Error != "timeout" || gotRuns[1].Elapsed != 800*time.Millisecond {
		t.Fatalf("runs = %+v", gotRuns)
	}
}

func TestSQLiteRetention(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data.db"), 2, time.UTC)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	at := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 4; i++ {
		rec := Record{
			Snapshot: sampleSnapshot(fmt.Sprintf("c%d", i), at.Add(time.Duration(i)*time.Hour)),
			Runs:     []SourceRun{{Source: "KOPIS", StartedAt: at}},
		}
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil || n != 2 {
		t.Fatalf("snapshots kept = %d (%v), want 2", n, err)
	}
	if runs, _ := s.Runs(ctx, "c1"); len(runs) != 0 {
		t.Fatalf("runs of pruned cycle kept: %+v", runs)
	}
	latest, err := s.Latest(ctx)
	if err != nil || latest.CycleID != "c4" {
		t.Fatalf("Latest = %v, %v", latest, err)
	}
}

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("STAGEHUB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("STAGEHUB_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	prefix := fmt.Sprintf("test:%d:", time.Now().UnixNano())

	r, err := OpenRedis(ctx, url, prefix, time.Minute, time.UTC)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer r.Close()
	defer r.client.Del(ctx, r.key(redisSnapshotKey), r.key(redisRunsKey))

	if _, err := r.Latest(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("empty Latest err = %v", err)
	}

	want := sampleSnapshot("c1", time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	if err := r.Save(ctx, Record{Snapshot: want, Runs: []SourceRun{{Source: "KOPIS", Records: 1}}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := r.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	checkRoundTrip(t, got, want)

	runs, err := r.Runs(ctx)
	if err != nil || len(runs) != 1 {
		t.Fatalf("Runs = %+v, %v", runs, err)
	}
}

func TestOpenRedisBadURL(t *testing.T) {
	if _, err := OpenRedis(context.Background(), "not-a-url", "", 0, nil); err == nil {
		t.Fatal("expected parse error")
	}
	var _ SnapshotStore = (*Redis)(nil)
	var _ SnapshotStore = (*SQLite)(nil)
}
