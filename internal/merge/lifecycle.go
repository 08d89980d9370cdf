package merge

import (
	"sort"
	"time"

	"stagehub/pkg/models"
	"stagehub/pkg/utils"
)

// EffectiveEnd picks the date a run is considered over: the end date, else
// the start date, else the free-text period. ok is false when none parse.
func EffectiveEnd(p models.UnifiedPerformance, loc *time.Location) (time.Time, bool) {
	s := p.EndDate
	if s == "" {
		s = p.StartDate
	}
	if s == "" {
		s = p.Period
	}
	if s == "" {
		return time.Time{}, false
	}
	t, err := utils.ParseDate(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Ended reports whether the run finished before today. Unparseable dates count as running.
func Ended(p models.UnifiedPerformance, today time.Time) bool {
	end, ok := EffectiveEnd(p, today.Location())
	if !ok {
		return false
	}
	return end.Before(utils.StartOfDay(today))
}

// FilterAndSort drops ended runs and orders the rest by urgency:
//
//  1. a non-negative D-day, ascending
//  2. a parseable start date, ascending
//  3. everything else
//
// Ties keep their input order. The result holds copies; D-days are
// recomputed against today for entries that have a ticket-open date.
func FilterAndSort(list []models.UnifiedPerformance, today time.Time) []models.UnifiedPerformance {
	out := make([]models.UnifiedPerformance, 0, len(list))
	for _, p := range list {
		if Ended(p, today) {
			continue
		}
		p = p.Clone()
		if p.TicketOpen != nil {
			d := utils.DDay(p.TicketOpen.Date, today)
			p.DDay = &d
		}
		out = append(out, p)
	}
	Sort(out, today.Location())
	return out
}

type sortKey struct {
	tier  int
	dday  int
	start time.Time
}

func keyOf(p models.UnifiedPerformance, loc *time.Location) sortKey {
	if p.DDay != nil && *p.DDay >= 0 {
		return sortKey{tier: 0, dday: *p.DDay}
	}
	if p.StartDate != "" {
		if t, err := utils.ParseDate(p.StartDate, loc); err == nil {
			return sortKey{tier: 1, start: t}
		}
	}
	return sortKey{tier: 2}
}

// Sort orders list in place using the three urgency tiers. It is stable.
func Sort(list []models.UnifiedPerformance, loc *time.Location) {
	keys := make([]sortKey, len(list))
	for i := range list {
		keys[i] = keyOf(list[i], loc)
	}
	idx := make([]int, len(list))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.tier != kb.tier {
			return ka.tier < kb.tier
		}
		switch ka.tier {
		case 0:
			return ka.dday < kb.dday
		case 1:
			return ka.start.Before(kb.start)
		}
		return false
	})
	sorted := make([]models.UnifiedPerformance, len(list))
	for i, j := range idx {
		sorted[i] = list[j]
	}
	copy(list, sorted)
}

// Criteria narrows a served list. Empty fields and "all" match everything.
type Criteria struct {
	Part   string
	Region string
}

// Select returns the entries matching c, preserving order.
func Select(list []models.UnifiedPerformance, c Criteria) []models.UnifiedPerformance {
	if (c.Part == "" || c.Part == "all") && (c.Region == "" || c.Region == "all") {
		return list
	}
	out := make([]models.UnifiedPerformance, 0, len(list))
	for _, p := range list {
		if c.Part != "" && c.Part != "all" && string(p.Part) != c.Part {
			continue
		}
		if c.Region != "" && c.Region != "all" && string(p.Region) != c.Region {
			continue
		}
		out = append(out, p)
	}
	return out
}
