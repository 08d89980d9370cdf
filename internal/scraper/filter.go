package scraper

import (
	"strings"
	"time"

	"stagehub/pkg/models"
	"stagehub/pkg/utils"
)

// Denylist drops advertising and promotion tiles that ticketing sites mix into their listings.
type Denylist []string

var (
	// InterparkDenylist matches Interpark membership and promotion banners.
	InterparkDenylist = Denylist{"골드클래스", "프로모션", "우수회원", "혜택", "쿠폰", "VIP", "NOL"}
	// CrawlerDenylist matches promotion tiles on the Melon and YES24 pages.
	CrawlerDenylist = Denylist{"프로모션", "혜택", "이벤트"}
)

// Blocks reports whether name contains any denylisted keyword.
func (d Denylist) Blocks(name string) bool {
	for _, kw := range d {
		if kw != "" && strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Filter returns the records whose names pass the denylist. The input is not modified.
func (d Denylist) Filter(records []models.RawRecord) []models.RawRecord {
	out := make([]models.RawRecord, 0, len(records))
	for _, r := range records {
		if d.Blocks(r.Name) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// EstimateLeadDays is how many days before the first show tickets are assumed to go on sale.
const EstimateLeadDays = 14

// resolveTicketOpen uses the explicit open date when it parses; otherwise it
// estimates start-14d, but only when that estimate is still after today.
func resolveTicketOpen(explicit, start string, today time.Time, loc *time.Location) *models.TicketOpen {
	if explicit != "" {
		if d, err := utils.ParseDate(explicit, loc); err == nil {
			return &models.TicketOpen{Date: d}
		}
	}
	if start == "" {
		return nil
	}
	s, err := utils.ParseDate(start, loc)
	if err != nil {
		return nil
	}
	est := s.AddDate(0, 0, -EstimateLeadDays)
	if !est.After(utils.StartOfDay(today.In(loc))) {
		return nil
	}
	return &models.TicketOpen{Date: est, Estimated: true}
}

func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
