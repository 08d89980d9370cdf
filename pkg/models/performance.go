package models

import (
	"strings"
	"time"
)

// Part is the top-level split used by the UI tabs.
type Part string

const (
	PartConcert Part = "concert"
	PartTheater Part = "theater"
)

// Region is one of the seven administrative zones, or RegionUnclassified.
type Region string

const (
	RegionSeoul        Region = "서울"
	RegionGyeonggi     Region = "경기·인천"
	RegionGangwon      Region = "강원"
	RegionChungcheong  Region = "충청"
	RegionJeolla       Region = "전라"
	RegionGyeongsang   Region = "경상"
	RegionJeju         Region = "제주"
	RegionUnclassified Region = "미분류"
)

// Regions lists the classified zones in matching priority order.
var Regions = []Region{
	RegionSeoul, RegionGyeonggi, RegionGangwon, RegionChungcheong,
	RegionJeolla, RegionGyeongsang, RegionJeju,
}

// TicketOpen is the date a performance goes on sale.
// Estimated is set when the source gave no date and it was derived from the start date.
type TicketOpen struct {
	Date      time.Time
	Estimated bool
}

const dateLayout = "2006.01.02"

// String renders the date the way listings display it, e.g. "2026.10.20 (추정)".
func (t TicketOpen) String() string {
	s := t.Date.Format(dateLayout)
	if t.Estimated {
		s += " (추정)"
	}
	return s
}

func (t TicketOpen) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TicketOpen) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	est := strings.HasSuffix(s, "(추정)")
	s = strings.TrimSpace(strings.TrimSuffix(s, "(추정)"))
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return err
	}
	t.Date = d
	t.Estimated = est
	return nil
}

// RawRecord is one listing as produced by a source adapter, before merging.
// Dates are kept as the source formatted them; they are normalized downstream.
type RawRecord struct {
	SourceID   string      // KOPIS mt20id; other sources have no detail lookup and leave it empty
	Name       string      // display title
	Venue      string      // facility name
	Area       string      // authoritative region text when the source has one (KOPIS)
	Genre      string      // source genre label
	StartDate  string      // usually YYYY.MM.DD
	EndDate    string      // usually YYYY.MM.DD
	Period     string      // free-text date range when start/end are not split
	PosterURL  string      // absolute poster URL
	State      string      // run state label (공연중, 공연예정, ...)
	TicketOpen *TicketOpen // nil when unknown
	PartHint   Part        // set when the source already knows the part (KOPIS musical/play codes)

	SourceName  string
	SourceLink  string
	SourceColor string
}

// SourceBatch is everything one source contributed to a cycle, in fetch order.
type SourceBatch struct {
	Name    string
	Color   string
	Records []RawRecord
}

// Site is one place a performance can be booked.
type Site struct {
	Name  string `json:"name"`
	Link  string `json:"link"`
	Color string `json:"color"`
}

// UnifiedPerformance is the merged entity for one real-world performance.
type UnifiedPerformance struct {
	Fingerprint    string      `json:"hash"`
	ID             string      `json:"id,omitempty"` // KOPIS id, when any source carried one
	Name           string      `json:"name"`
	Venue          string      `json:"venue"`
	StartDate      string      `json:"start_date"`
	EndDate        string      `json:"end_date"`
	Period         string      `json:"date,omitempty"`
	PosterURL      string      `json:"poster"`
	Genre          string      `json:"genre,omitempty"`
	SubCategory    string      `json:"category"`
	Part           Part        `json:"part"`
	Region         Region      `json:"region"`
	State          string      `json:"state,omitempty"`
	TicketOpen     *TicketOpen `json:"ticket_open,omitempty"`
	DDay           *int        `json:"dday,omitempty"`
	AvailableSites []Site      `json:"available_sites"`
}

// HasSite reports whether a site with the given source name is already listed.
func (p *UnifiedPerformance) HasSite(name string) bool {
	for _, s := range p.AvailableSites {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can filter or annotate without touching shared data.
func (p UnifiedPerformance) Clone() UnifiedPerformance {
	out := p
	if p.TicketOpen != nil {
		to := *p.TicketOpen
		out.TicketOpen = &to
	}
	if p.DDay != nil {
		d := *p.DDay
		out.DDay = &d
	}
	out.AvailableSites = append([]Site(nil), p.AvailableSites...)
	return out
}
