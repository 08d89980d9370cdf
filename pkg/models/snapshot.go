package models

import (
	"fmt"
	"time"
)

// TimestampLayout is the wall-clock format used in API payloads and persisted documents.
const TimestampLayout = "2006-01-02 15:04:05"

// Snapshot is one published result of a refresh cycle.
// Once handed to the cache it is treated as immutable.
type Snapshot struct {
	CycleID      string
	Mode         string
	Performances []UnifiedPerformance
	ComputedAt   time.Time
	SourceCounts map[string]int
}

// Total is the number of performances after filtering.
func (s *Snapshot) Total() int {
	if s == nil {
		return 0
	}
	return len(s.Performances)
}

// Stats flattens per-source counts plus the total, as listed in API responses.
func (s *Snapshot) Stats() map[string]int {
	out := make(map[string]int, len(s.SourceCounts)+1)
	for k, v := range s.SourceCounts {
		out[k] = v
	}
	out["total"] = s.Total()
	return out
}

// SnapshotDocument is the persisted / wire shape of a snapshot.
type SnapshotDocument struct {
	CycleID   string               `json:"cycle_id,omitempty"`
	Mode      string               `json:"mode,omitempty"`
	Data      []UnifiedPerformance `json:"data"`
	Timestamp string               `json:"timestamp"`
	Stats     map[string]int       `json:"stats"`
}

// Document converts a snapshot into its persisted shape.
func (s *Snapshot) Document() SnapshotDocument {
	data := s.Performances
	if data == nil {
		data = []UnifiedPerformance{}
	}
	return SnapshotDocument{
		CycleID:   s.CycleID,
		Mode:      s.Mode,
		Data:      data,
		Timestamp: s.ComputedAt.Format(TimestampLayout),
		Stats:     s.Stats(),
	}
}

// Snapshot rebuilds a snapshot from a persisted document. The "total" stat is derived, not stored.
func (d SnapshotDocument) Snapshot(loc *time.Location) (*Snapshot, error) {
	if loc == nil {
		loc = time.Local
	}
	at, err := time.ParseInLocation(TimestampLayout, d.Timestamp, loc)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot timestamp %q: %w", d.Timestamp, err)
	}
	counts := make(map[string]int, len(d.Stats))
	for k, v := range d.Stats {
		if k == "total" {
			continue
		}
		counts[k] = v
	}
	return &Snapshot{
		CycleID:      d.CycleID,
		Mode:         d.Mode,
		Performances: d.Data,
		ComputedAt:   at,
		SourceCounts: counts,
	}, nil
}
