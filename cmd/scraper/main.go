package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"stagehub/internal/app"
	"stagehub/internal/logging"
	"stagehub/internal/refresh"
	"stagehub/pkg/models"
	"stagehub/pkg/utils"
)

// scraper runs a single refresh cycle, persists it and prints the stats.
func main() {
	mode := flag.String("mode", string(refresh.ModeFull), "cycle mode: full or scheduled")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := utils.LoadConfig()
	if err != nil {
		boot := logging.New(logging.Config{})
		boot.Fatal().Err(err).Msg("config load failed")
	}
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: "console"})

	m := refresh.Mode(*mode)
	if m != refresh.ModeFull && m != refresh.ModeScheduled {
		logger.Fatal().Str("mode", *mode).Msg("mode must be full or scheduled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	a, err := app.Build(ctx, cfg, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	snap, err := a.Service.Refresh(ctx, m)
	if err != nil {
		logger.Error().Err(err).Msg("refresh failed")
		a.Close()
		os.Exit(1)
	}

	printStats(snap)
	if a.Store != nil {
		logger.Info().Str("store", cfg.Store.Backend).Str("cycle", snap.CycleID).Msg("snapshot saved")
	}
}

func printStats(s *models.Snapshot) {
	fmt.Printf("cycle %s (%s) at %s\n", s.CycleID, s.Mode, s.ComputedAt.Format(models.TimestampLayout))
	names := make([]string, 0, len(s.SourceCounts))
	for name := range s.SourceCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-10s %4d\n", name, s.SourceCounts[name])
	}
	fmt.Printf("  %-10s %4d\n", "total", s.Total())
}
