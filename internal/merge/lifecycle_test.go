package merge

import (
	"testing"
	"time"

	"stagehub/pkg/models"
)

func intp(v int) *int { return &v }

func names(list []models.UnifiedPerformance) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.Name)
	}
	return out
}

func TestFilterBoundary(t *testing.T) {
	list := []models.UnifiedPerformance{
		{Name: "ends today", EndDate: "2026.10.17"},
		{Name: "ended yesterday", EndDate: "2026.10.16"},
		{Name: "unparseable", EndDate: "오픈런"},
		{Name: "start only, past", StartDate: "20261001"},
		{Name: "period only, future", Period: "2026.11.1 ~ 2026.11.3"},
		{Name: "no dates"},
	}
	got := names(FilterAndSort(list, today))

	want := map[string]bool{"ends today": true, "unparseable": true, "period only, future": true, "no dates": true}
	if len(got) != len(want) {
		t.Fatalf("kept %v", got)
	}
	for _, n := range got {
		if !want[n] {
			t.Errorf("unexpected %q kept", n)
		}
	}
}

func TestEndedUsesLocalDay(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	// 23:30 UTC on the 16th is already the 17th in Seoul.
	now := time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC).In(seoul)
	if !Ended(models.UnifiedPerformance{EndDate: "2026.10.16"}, now) {
		t.Error("run ending on the 16th should be over on the 17th in Seoul")
	}
	if Ended(models.UnifiedPerformance{EndDate: "2026.10.17"}, now) {
		t.Error("run ending today should not be over")
	}
}

func TestSortTiers(t *testing.T) {
	inputs := [][]models.UnifiedPerformance{
		{
			{Name: "no dday", StartDate: "2026.10.18"},
			{Name: "d10", DDay: intp(10), StartDate: "2026.12.01"},
			{Name: "d2", DDay: intp(2), StartDate: "2026.12.05"},
		},
		{
			{Name: "d2", DDay: intp(2), StartDate: "2026.12.05"},
			{Name: "no dday", StartDate: "2026.10.18"},
			{Name: "d10", DDay: intp(10), StartDate: "2026.12.01"},
		},
	}
	for _, in := range inputs {
		Sort(in, time.UTC)
		got := names(in)
		if got[0] != "d2" || got[1] != "d10" || got[2] != "no dday" {
			t.Fatalf("order = %v", got)
		}
	}
}

func TestSortNegativeDDayFallsToStartTier(t *testing.T) {
	list := []models.UnifiedPerformance{
		{Name: "undated"},
		{Name: "opened already", DDay: intp(-3), StartDate: "2026.10.30"},
		{Name: "starts sooner", StartDate: "2026.10.20"},
		{Name: "opens today", DDay: intp(0)},
	}
	Sort(list, time.UTC)
	got := names(list)
	want := []string{"opens today", "starts sooner", "opened already", "undated"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSortIsStableWithinTier(t *testing.T) {
	list := []models.UnifiedPerformance{
		{Name: "a", DDay: intp(5)},
		{Name: "b", DDay: intp(5)},
		{Name: "x"},
		{Name: "c", DDay: intp(5)},
		{Name: "y", StartDate: "bad"},
	}
	Sort(list, time.UTC)
	got := names(list)
	want := []string{"a", "b", "c", "x", "y"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestFilterAndSortRecomputesDDay(t *testing.T) {
	open := &models.TicketOpen{Date: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)}
	list := []models.UnifiedPerformance{{Name: "x", TicketOpen: open, DDay: intp(5)}}

	got := FilterAndSort(list, today)
	if *got[0].DDay != 3 {
		t.Fatalf("dday = %d, want 3", *got[0].DDay)
	}
	if *list[0].DDay != 5 {
		t.Fatal("input was mutated")
	}
}

func TestSelect(t *testing.T) {
	list := []models.UnifiedPerformance{
		{Name: "a", Part: models.PartConcert, Region: models.RegionSeoul},
		{Name: "b", Part: models.PartTheater, Region: models.RegionSeoul},
		{Name: "c", Part: models.PartConcert, Region: models.RegionGyeongsang},
	}
	tests := []struct {
		c    Criteria
		want int
	}{
		{Criteria{}, 3},
		{Criteria{Part: "all", Region: "all"}, 3},
		{Criteria{Part: "concert"}, 2},
		{Criteria{Region: "서울"}, 2},
		{Criteria{Part: "concert", Region: "경상"}, 1},
		{Criteria{Part: "theater", Region: "경상"}, 0},
	}
	for _, tt := range tests {
		if got := Select(list, tt.c); len(got) != tt.want {
			t.Errorf("Select(%+v) = %d entries, want %d", tt.c, len(got), tt.want)
		}
	}
}
