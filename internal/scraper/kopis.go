package scraper

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"stagehub/pkg/models"
)

const (
	KOPISName  = "KOPIS"
	KOPISColor = "#00d4ff"

	kopisDefaultBase = "http://www.kopis.or.kr/openApi/restful"
	kopisQueryLayout = "20060102"
	kopisSearchDays  = 90
)

// KOPISGenre is one shcate code and the part it implies. An empty Part means
// the listing mixes both and must be classified by name.
type KOPISGenre struct {
	Code string
	Part models.Part
}

// DefaultKOPISGenres are fetched in this order and concatenated, so the
// merge sees a stable record order regardless of which request returns first.
var DefaultKOPISGenres = []KOPISGenre{
	{Code: "CCCD"},                           // 대중음악
	{Code: "GGGA", Part: models.PartTheater}, // 뮤지컬
	{Code: "AAAA", Part: models.PartTheater}, // 연극
}

type KOPISConfig struct {
	APIKey  string
	BaseURL string
	Rows    int
	Timeout time.Duration
	Genres  []KOPISGenre
	Breaker BreakerSettings
}

// KOPIS reads the public performance database of the Korea Performing Arts Box Office.
// Each genre listing has its own breaker, and so do on-demand lookups.
type KOPIS struct {
	cfg    KOPISConfig
	client *http.Client
	genres map[string]*gobreaker.CircuitBreaker[[]byte]
	lookup *gobreaker.CircuitBreaker[[]byte]
	logger zerolog.Logger
}

func NewKOPIS(cfg KOPISConfig, logger zerolog.Logger) *KOPIS {
	if cfg.BaseURL == "" {
		cfg.BaseURL = kopisDefaultBase
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Rows <= 0 {
		cfg.Rows = 50
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if len(cfg.Genres) == 0 {
		cfg.Genres = DefaultKOPISGenres
	}
	logger = logger.With().Str("component", "kopis").Logger()
	genres := make(map[string]*gobreaker.CircuitBreaker[[]byte], len(cfg.Genres))
	for _, g := range cfg.Genres {
		genres[g.Code] = newBreaker[[]byte](KOPISName+"/"+g.Code, cfg.Breaker, logger)
	}
	return &KOPIS{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		genres: genres,
		lookup: newBreaker[[]byte](KOPISName+"/lookup", cfg.Breaker, logger),
		logger: logger,
	}
}

func (k *KOPIS) Name() string  { return KOPISName }
func (k *KOPIS) Color() string { return KOPISColor }

type kopisList struct {
	Items []kopisItem `xml:"db"`
}

type kopisItem struct {
	ID     string `xml:"mt20id"`
	Name   string `xml:"prfnm"`
	From   string `xml:"prfpdfrom"`
	To     string `xml:"prfpdto"`
	Venue  string `xml:"fcltynm"`
	Poster string `xml:"poster"`
	Genre  string `xml:"genrenm"`
	State  string `xml:"prfstate"`
	Area   string `xml:"area"`
}

type kopisDetailDoc struct {
	Items []kopisDetail `xml:"db"`
}

type kopisDetail struct {
	kopisItem
	Cast     string `xml:"prfcast"`
	Price    string `xml:"pcseguidance"`
	Runtime  string `xml:"prfruntime"`
	Story    string `xml:"sty"`
	Schedule string `xml:"dtguidance"`
	Relates  []struct {
		Name string `xml:"relatenm"`
		URL  string `xml:"relateurl"`
	} `xml:"relates>relate"`
	Images []string `xml:"styurls>styurl"`
}

// FetchAll queries every configured genre concurrently. A failed genre is
// logged and skipped; an error is returned only when all of them fail.
func (k *KOPIS) FetchAll(ctx context.Context, w Window) ([]models.RawRecord, error) {
	if k.cfg.APIKey == "" {
		return nil, fmt.Errorf("kopis: %w: missing api key", ErrNotConfigured)
	}

	parts := make([][]models.RawRecord, len(k.cfg.Genres))
	errs := make([]error, len(k.cfg.Genres))

	var wg sync.WaitGroup
	for i, g := range k.cfg.Genres {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parts[i], errs[i] = k.fetchGenre(ctx, w, g)
			if errs[i] != nil {
				k.logger.Warn().Err(errs[i]).Str("genre", g.Code).Msg("kopis genre fetch failed")
			}
		}()
	}
	wg.Wait()

	var all []models.RawRecord
	failed := 0
	for i := range parts {
		if errs[i] != nil {
			failed++
			continue
		}
		all = append(all, parts[i]...)
	}
	if failed == len(parts) {
		return nil, errors.Join(errs...)
	}
	return all, nil
}

func (k *KOPIS) fetchGenre(ctx context.Context, w Window, g KOPISGenre) ([]models.RawRecord, error) {
	params := url.Values{}
	params.Set("stdate", w.From.Format(kopisQueryLayout))
	params.Set("eddate", w.To.Format(kopisQueryLayout))
	params.Set("cpage", "1")
	params.Set("rows", strconv.Itoa(k.cfg.Rows))
	params.Set("shcate", g.Code)

	var doc kopisList
	if err := k.get(ctx, k.genres[g.Code], "/pblprfr", params, &doc); err != nil {
		return nil, fmt.Errorf("kopis %s: %w", g.Code, err)
	}

	out := make([]models.RawRecord, 0, len(doc.Items))
	for _, it := range doc.Items {
		rec := it.record()
		rec.PartHint = g.Part
		out = append(out, rec)
	}
	return out, nil
}

// Search looks up performances by title over the next 90 days.
func (k *KOPIS) Search(ctx context.Context, keyword string, today time.Time) ([]models.RawRecord, error) {
	if k.cfg.APIKey == "" {
		return nil, fmt.Errorf("kopis: %w: missing api key", ErrNotConfigured)
	}
	params := url.Values{}
	params.Set("stdate", today.Format(kopisQueryLayout))
	params.Set("eddate", today.AddDate(0, 0, kopisSearchDays).Format(kopisQueryLayout))
	params.Set("cpage", "1")
	params.Set("rows", strconv.Itoa(k.cfg.Rows))
	params.Set("shprfnm", keyword)

	var doc kopisList
	if err := k.get(ctx, k.lookup, "/pblprfr", params, &doc); err != nil {
		return nil, fmt.Errorf("kopis search: %w", err)
	}
	out := make([]models.RawRecord, 0, len(doc.Items))
	for _, it := range doc.Items {
		out = append(out, it.record())
	}
	return out, nil
}

// ErrDetailNotFound is returned when KOPIS has no record for an id.
var ErrDetailNotFound = errors.New("kopis: performance not found")

// Detail fetches the extended record for one performance id.
func (k *KOPIS) Detail(ctx context.Context, id string) (*models.PerformanceDetail, error) {
	if k.cfg.APIKey == "" {
		return nil, fmt.Errorf("kopis: %w: missing api key", ErrNotConfigured)
	}
	if id == "" || strings.ContainsAny(id, "/?#") {
		return nil, ErrDetailNotFound
	}

	var doc kopisDetailDoc
	if err := k.get(ctx, k.lookup, "/pblprfr/"+url.PathEscape(id), url.Values{}, &doc); err != nil {
		return nil, fmt.Errorf("kopis detail %s: %w", id, err)
	}
	if len(doc.Items) == 0 {
		return nil, ErrDetailNotFound
	}

	d := doc.Items[0]
	out := &models.PerformanceDetail{
		ID:           id,
		Name:         d.Name,
		StartDate:    d.From,
		EndDate:      d.To,
		Venue:        d.Venue,
		PosterURL:    d.Poster,
		Genre:        d.Genre,
		State:        d.State,
		Cast:         d.Cast,
		Price:        d.Price,
		Runtime:      d.Runtime,
		Story:        d.Story,
		Schedule:     d.Schedule,
		BookingLinks: []models.BookingLink{},
		PosterImages: []string{},
	}
	for _, r := range d.Relates {
		if r.Name == "" || r.URL == "" {
			continue
		}
		out.BookingLinks = append(out.BookingLinks, models.BookingLink{Name: r.Name, URL: r.URL, Color: BookingColor(r.Name)})
	}
	for _, img := range d.Images {
		if img = strings.TrimSpace(img); img != "" {
			out.PosterImages = append(out.PosterImages, img)
		}
	}
	return out, nil
}

// BookingColor picks the brand color for a vendor named on a KOPIS detail page.
func BookingColor(vendor string) string {
	switch {
	case strings.Contains(vendor, "인터파크"):
		return InterparkColor
	case strings.Contains(vendor, "멜론"):
		return MelonColor
	case strings.Contains(vendor, "YES24"), strings.Contains(vendor, "예스24"):
		return YES24Color
	case strings.Contains(vendor, "티켓링크"):
		return "#0066cc"
	default:
		return "#888"
	}
}

func (it kopisItem) record() models.RawRecord {
	return models.RawRecord{
		SourceID:    it.ID,
		Name:        strings.TrimSpace(it.Name),
		Venue:       strings.TrimSpace(it.Venue),
		Area:        strings.TrimSpace(it.Area),
		Genre:       it.Genre,
		StartDate:   it.From,
		EndDate:     it.To,
		PosterURL:   absoluteURL(it.Poster),
		State:       it.State,
		SourceName:  KOPISName,
		SourceColor: KOPISColor,
	}
}

func (k *KOPIS) get(ctx context.Context, cb *gobreaker.CircuitBreaker[[]byte], path string, params url.Values, into any) error {
	params.Set("service", k.cfg.APIKey)
	u := k.cfg.BaseURL + path + "?" + params.Encode()

	body, err := execute(cb, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := k.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request: %w", err)
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		return b, nil
	})
	if err != nil {
		return err
	}

	if err := xml.Unmarshal(body, into); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
