package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"stagehub/pkg/models"
	"stagehub/pkg/utils"
)

const (
	MelonName  = "멜론티켓"
	MelonColor = "#00cd3c"
	YES24Name  = "YES24"
	YES24Color = "#ffc800"
)

// CommandConfig describes an external crawler. The process must print one JSON
// document on stdout: {"success": true, "data": [...], "error": ""}.
type CommandConfig struct {
	Name     string
	Color    string
	Command  string
	Args     []string
	Dir      string
	Timeout  time.Duration
	Location *time.Location
}

// Command runs a browser-automation crawler as a subprocess. The crawler
// itself is opaque; only its stdout contract matters here.
type Command struct {
	cfg    CommandConfig
	now    func() time.Time
	logger zerolog.Logger
}

func NewCommand(cfg CommandConfig, logger zerolog.Logger) *Command {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Command{
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With().Str("component", "crawler").Str("source", cfg.Name).Logger(),
	}
}

func (c *Command) Name() string  { return c.cfg.Name }
func (c *Command) Color() string { return c.cfg.Color }

type crawlerOutput struct {
	Success bool            `json:"success"`
	Data    []crawlerRecord `json:"data"`
	Error   string          `json:"error"`
}

type crawlerRecord struct {
	Name       string `json:"name"`
	Date       string `json:"date"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Venue      string `json:"venue"`
	Poster     string `json:"poster"`
	Link       string `json:"link"`
	TicketOpen string `json:"ticket_open"`
	Genre      string `json:"genre"`
}

func (c *Command) FetchAll(ctx context.Context, _ Window) ([]models.RawRecord, error) {
	if c.cfg.Command == "" {
		return nil, fmt.Errorf("%s: %w: no crawler command", c.cfg.Name, ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.cfg.Command, c.cfg.Args...)
	cmd.Dir = c.cfg.Dir
	// Browser children can keep the pipes open after the crawler is killed.
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: crawler timed out after %s", c.cfg.Name, c.cfg.Timeout)
		}
		return nil, fmt.Errorf("%s: crawler: %w: %s", c.cfg.Name, err, tail(stderr.String(), 300))
	}

	return c.decode(stdout.Bytes())
}

func (c *Command) decode(out []byte) ([]models.RawRecord, error) {
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, fmt.Errorf("%s: crawler printed nothing", c.cfg.Name)
	}
	var doc crawlerOutput
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("%s: decode crawler output: %w", c.cfg.Name, err)
	}
	if !doc.Success {
		msg := doc.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("%s: crawler reported failure: %s", c.cfg.Name, msg)
	}

	today := c.now().In(c.cfg.Location)
	records := make([]models.RawRecord, 0, len(doc.Data))
	for _, d := range doc.Data {
		name := strings.TrimSpace(d.Name)
		if CrawlerDenylist.Blocks(name) {
			continue
		}
		start, end := d.StartDate, d.EndDate
		if start == "" && d.Date != "" {
			start, end = splitPeriod(d.Date)
		}
		records = append(records, models.RawRecord{
			Name:        name,
			Venue:       strings.TrimSpace(d.Venue),
			Genre:       d.Genre,
			StartDate:   start,
			EndDate:     end,
			Period:      d.Date,
			PosterURL:   absoluteURL(d.Poster),
			TicketOpen:  resolveTicketOpen(d.TicketOpen, start, today, c.cfg.Location),
			SourceName:  c.cfg.Name,
			SourceLink:  d.Link,
			SourceColor: c.cfg.Color,
		})
	}
	c.logger.Debug().Int("received", len(doc.Data)).Int("kept", len(records)).Msg("crawler output decoded")
	return records, nil
}

// splitPeriod turns "2026.10.20 - 2026.10.25" or "2026.10.20~2026.10.25" into its
// normalized endpoints. Unparseable halves come back empty.
func splitPeriod(period string) (string, string) {
	sep := "~"
	if !strings.Contains(period, sep) {
		sep = " - "
	}
	parts := strings.SplitN(period, sep, 2)
	norm := func(s string) string {
		t, err := utils.ParseDate(strings.TrimSpace(s), time.UTC)
		if err != nil {
			return ""
		}
		return utils.FormatDate(t)
	}
	start := norm(parts[0])
	end := start
	if len(parts) == 2 {
		if e := norm(parts[1]); e != "" {
			end = e
		}
	}
	return start, end
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
