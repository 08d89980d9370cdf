package sync

import (
	"time"

	"stagehub/pkg/models"
)

// EventSnapshotPublished is sent to every subscriber when a refresh cycle publishes.
const EventSnapshotPublished = "snapshot.published"

type SnapshotEvent struct {
	Type       string         `json:"type"`
	CycleID    string         `json:"cycle_id"`
	Mode       string         `json:"mode"`
	Total      int            `json:"total"`
	Stats      map[string]int `json:"stats"`
	ComputedAt string         `json:"computed_at"`
	At         time.Time      `json:"at"`
}

func NewSnapshotEvent(s *models.Snapshot) SnapshotEvent {
	return SnapshotEvent{
		Type:       EventSnapshotPublished,
		CycleID:    s.CycleID,
		Mode:       s.Mode,
		Total:      s.Total(),
		Stats:      s.Stats(),
		ComputedAt: s.ComputedAt.Format(models.TimestampLayout),
		At:         time.Now().UTC(),
	}
}
