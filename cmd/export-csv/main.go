package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stagehub/internal/app"
	"stagehub/internal/logging"
	"stagehub/internal/store"
	"stagehub/pkg/models"
	"stagehub/pkg/utils"
)

var header = []string{
	"name", "part", "category", "region", "venue", "start_date", "end_date",
	"ticket_open", "dday", "kopis_id", "sites", "poster",
}

func main() {
	out := flag.String("out", "data/performances.csv", "output CSV path")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := utils.LoadConfig()
	if err != nil {
		boot := logging.New(logging.Config{})
		boot.Fatal().Err(err).Msg("config load failed")
	}
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: "console"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("bad timezone")
	}
	st, err := app.OpenStore(ctx, cfg, loc)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store failed")
	}
	if st == nil {
		logger.Fatal().Msg("store backend is none, nothing to export")
	}
	defer st.Close()

	snap, err := st.Latest(ctx)
	if errors.Is(err, store.ErrNoSnapshot) {
		logger.Fatal().Msg("no snapshot persisted yet, run the scraper first")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("load snapshot failed")
	}

	if err := exportFile(*out, snap.Performances); err != nil {
		logger.Fatal().Err(err).Msg("export failed")
	}
	logger.Info().
		Str("path", *out).
		Str("cycle", snap.CycleID).
		Int("rows", snap.Total()).
		Msg("exported performances")
}

func exportFile(path string, perfs []models.UnifiedPerformance) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeCSV(f, perfs)
}

func writeCSV(out io.Writer, perfs []models.UnifiedPerformance) error {
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range perfs {
		ticket, dday := "", ""
		if p.TicketOpen != nil {
			ticket = p.TicketOpen.String()
		}
		if p.DDay != nil {
			dday = strconv.Itoa(*p.DDay)
		}
		sites := make([]string, 0, len(p.AvailableSites))
		for _, s := range p.AvailableSites {
			sites = append(sites, s.Name)
		}
		if err := w.Write([]string{
			p.Name,
			string(p.Part),
			p.SubCategory,
			string(p.Region),
			p.Venue,
			p.StartDate,
			p.EndDate,
			ticket,
			dday,
			p.ID,
			strings.Join(sites, "|"),
			p.PosterURL,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
