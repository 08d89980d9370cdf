package models

// BookingLink is a ticket vendor listed on a KOPIS detail page.
type BookingLink struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Color string `json:"color"`
}

// PerformanceDetail is the extended KOPIS record for a single performance.
type PerformanceDetail struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date"`
	Venue        string        `json:"venue"`
	PosterURL    string        `json:"poster"`
	Genre        string        `json:"genre"`
	State        string        `json:"state"`
	Cast         string        `json:"cast"`
	Price        string        `json:"price"`
	Runtime      string        `json:"runtime"`
	Story        string        `json:"story"`
	Schedule     string        `json:"schedule"`
	BookingLinks []BookingLink `json:"booking_sites"`
	PosterImages []string      `json:"poster_images"`
}
