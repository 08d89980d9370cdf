package cache

import (
	"sync"
	"testing"
	"time"

	"stagehub/pkg/models"
)

func TestEmptyCache(t *testing.T) {
	c := New()
	if _, ok := c.Snapshot(); ok {
		t.Fatal("new cache reports a snapshot")
	}
	if _, ok := c.Age(); ok {
		t.Fatal("new cache reports an age")
	}
	if _, ok := c.Fresh(time.Hour); ok {
		t.Fatal("new cache reports fresh")
	}
}

func TestFreshnessBoundary(t *testing.T) {
	computed := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	now := computed
	c := NewWithClock(func() time.Time { return now })
	c.Publish(&models.Snapshot{ComputedAt: computed})

	tests := []struct {
		age  time.Duration
		want bool
	}{
		{11*time.Hour + 59*time.Minute, true},
		{12*time.Hour - time.Nanosecond, true},
		{12 * time.Hour, false},
		{12*time.Hour + time.Second, false},
	}
	for _, tt := range tests {
		now = computed.Add(tt.age)
		if _, ok := c.Fresh(12 * time.Hour); ok != tt.want {
			t.Errorf("age %s: fresh = %v, want %v", tt.age, ok, tt.want)
		}
	}

	now = computed.Add(90 * time.Minute)
	if age, ok := c.Age(); !ok || age != 90*time.Minute {
		t.Errorf("Age = %s, %v", age, ok)
	}
}

func TestPublishReplacesWhole(t *testing.T) {
	c := New()
	first := &models.Snapshot{CycleID: "1", Performances: []models.UnifiedPerformance{{Name: "a"}}}
	c.Publish(first)
	held, _ := c.Snapshot()

	c.Publish(&models.Snapshot{CycleID: "2"})
	c.Publish(nil)

	got, _ := c.Snapshot()
	if got.CycleID != "2" {
		t.Fatalf("CycleID = %s", got.CycleID)
	}
	if held.CycleID != "1" || len(held.Performances) != 1 {
		t.Fatal("reader's snapshot changed under it")
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Publish(&models.Snapshot{ComputedAt: time.Now()})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if s, ok := c.Snapshot(); ok && s == nil {
					t.Error("ok with nil snapshot")
				}
				c.Fresh(time.Hour)
			}
		}()
	}
	wg.Wait()
}

func TestCurrentPairsSnapshotWithItsAge(t *testing.T) {
	base := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(func() time.Time { return base })

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for j := 0; j < 500; j++ {
			c.Publish(&models.Snapshot{ComputedAt: base.Add(-time.Duration(j%7) * time.Hour)})
		}
	}()
	go func() {
		defer wg.Done()
		for j := 0; j < 500; j++ {
			s, age, ok := c.Current()
			if ok && age != base.Sub(s.ComputedAt) {
				t.Errorf("age %s does not belong to snapshot computed at %s", age, s.ComputedAt)
				return
			}
		}
	}()
	wg.Wait()
}
