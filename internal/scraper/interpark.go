package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"stagehub/pkg/models"
	"stagehub/pkg/utils"
)

const (
	InterparkName  = "인터파크"
	InterparkColor = "#ff6464"

	interparkDefaultURL = "https://tickets.interpark.com/contents/genre/concert"
	interparkGoodsURL   = "https://tickets.interpark.com/goods/"
	browserUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// goodsPattern pulls listing objects out of the JSON the genre page embeds for hydration.
var goodsPattern = regexp.MustCompile(`\{"goodsCode":"(\d+)","goodsName":"([^"]+)"[^}]*"placeName":"([^"]*)"[^}]*"posterImageUrl":"([^"]*)"[^}]*"playStartDate":"(\d+)"[^}]*"playEndDate":"(\d+)"(?:[^}]*"ticketOpenDate":"(\d*)")?`)

type InterparkConfig struct {
	URL      string
	Timeout  time.Duration
	Location *time.Location
}

// Interpark scrapes the concert genre page of Interpark Ticket.
type Interpark struct {
	cfg    InterparkConfig
	client *http.Client
	now    func() time.Time
	logger zerolog.Logger
}

func NewInterpark(cfg InterparkConfig, logger zerolog.Logger) *Interpark {
	if cfg.URL == "" {
		cfg.URL = interparkDefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Interpark{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
		logger: logger.With().Str("component", "interpark").Logger(),
	}
}

func (s *Interpark) Name() string  { return InterparkName }
func (s *Interpark) Color() string { return InterparkColor }

// FetchAll ignores the window: the genre page only lists what is currently on sale.
func (s *Interpark) FetchAll(ctx context.Context, _ Window) ([]models.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("interpark: build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("interpark: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("interpark: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("interpark: status %d", resp.StatusCode)
	}

	return s.parse(body), nil
}

func (s *Interpark) parse(html []byte) []models.RawRecord {
	today := s.now().In(s.cfg.Location)
	seen := make(map[string]bool)
	var out []models.RawRecord

	for _, m := range goodsPattern.FindAllSubmatch(html, -1) {
		code, name, place, poster := string(m[1]), string(m[2]), string(m[3]), string(m[4])
		start, end, open := string(m[5]), string(m[6]), string(m[7])

		if InterparkDenylist.Blocks(name) || seen[code] {
			continue
		}
		seen[code] = true

		startFmt := utils.FormatCompact(start)
		endFmt := utils.FormatCompact(end)
		period := startFmt
		if start != end && endFmt != "" {
			period = startFmt + " - " + endFmt
		}

		out = append(out, models.RawRecord{
			Name:        name,
			Venue:       place,
			StartDate:   startFmt,
			EndDate:     endFmt,
			Period:      period,
			PosterURL:   absoluteURL(poster),
			TicketOpen:  resolveTicketOpen(open, startFmt, today, s.cfg.Location),
			SourceName:  InterparkName,
			SourceLink:  interparkGoodsURL + code,
			SourceColor: InterparkColor,
		})
	}
	s.logger.Debug().Int("records", len(out)).Msg("interpark page parsed")
	return out
}
