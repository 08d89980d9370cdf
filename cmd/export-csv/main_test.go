package main

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"stagehub/pkg/models"
)

func TestWriteCSV(t *testing.T) {
	dday := 3
	perfs := []models.UnifiedPerformance{
		{
			ID:          "PF1",
			Name:        "아이유 콘서트, 앵콜",
			Part:        models.PartConcert,
			SubCategory: "발라드",
			Region:      models.RegionSeoul,
			Venue:       "KSPO DOME",
			StartDate:   "2026.11.01",
			EndDate:     "2026.11.02",
			TicketOpen:  &models.TicketOpen{Date: time.Date(2026, 10, 20, 20, 0, 0, 0, time.UTC)},
			DDay:        &dday,
			AvailableSites: []models.Site{
				{Name: "KOPIS"},
				{Name: "인터파크"},
			},
		},
		{Name: "뮤지컬 시카고", Part: models.PartTheater},
	}

	var buf bytes.Buffer
	if err := writeCSV(&buf, perfs); err != nil {
		t.Fatalf("writeCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	first := rows[1]
	if first[0] != "아이유 콘서트, 앵콜" || first[8] != "3" || first[9] != "PF1" || first[10] != "KOPIS|인터파크" {
		t.Errorf("row = %q", first)
	}
	if first[7] == "" {
		t.Error("ticket open missing")
	}
	if rows[2][7] != "" || rows[2][8] != "" {
		t.Errorf("empty optional columns = %q", rows[2])
	}
}
