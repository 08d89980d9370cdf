// Package app assembles the refresh stack from configuration. The API server
// and the one-shot scraper share it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stagehub/internal/cache"
	"stagehub/internal/classify"
	"stagehub/internal/refresh"
	"stagehub/internal/scraper"
	"stagehub/internal/store"
	"stagehub/pkg/models"
	"stagehub/pkg/utils"
)

type App struct {
	Config   *utils.Config
	Location *time.Location
	Taxonomy *classify.Taxonomy
	KOPIS    *scraper.KOPIS // nil without an API key
	Sources  *scraper.Aggregator
	Store    store.SnapshotStore // nil when store.backend is none
	Pipeline *refresh.Pipeline
	Service  *refresh.Service
}

// Build wires sources, store, pipeline and service. notifier may be nil.
// The caller owns Close.
func Build(ctx context.Context, cfg *utils.Config, notifier refresh.Notifier, logger zerolog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	tax, err := Taxonomy(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("taxonomy", tax.Version()).Msg("classification table loaded")

	kopis, agg := Sources(cfg, loc, logger)

	st, err := OpenStore(ctx, cfg, loc)
	if err != nil {
		return nil, err
	}

	p := refresh.NewPipeline(agg, refresh.PipelineConfig{
		Taxonomy:       tax,
		RegionFallback: models.Region(cfg.Refresh.RegionFallback),
		HorizonDays:    cfg.Refresh.HorizonDays,
		Location:       loc,
	}, logger)

	svc := refresh.NewService(p, cache.New(), st, notifier, refresh.ServiceConfig{
		FreshWindow:     cfg.Refresh.FreshWindow,
		PublishOnDemand: cfg.Refresh.PublishOnDemand,
	}, logger)

	return &App{
		Config:   cfg,
		Location: loc,
		Taxonomy: tax,
		KOPIS:    kopis,
		Sources:  agg,
		Store:    st,
		Pipeline: p,
		Service:  svc,
	}, nil
}

func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// Taxonomy is the built-in table unless classify.taxonomy_file names an override.
func Taxonomy(cfg *utils.Config) (*classify.Taxonomy, error) {
	if cfg.Classify.TaxonomyFile == "" {
		return classify.Default, nil
	}
	return classify.LoadFile(cfg.Classify.TaxonomyFile)
}

// Sources registers the adapters in merge priority order: KOPIS, Interpark,
// Melon, YES24. The crawler sources are slow and join only full cycles.
func Sources(cfg *utils.Config, loc *time.Location, logger zerolog.Logger) (*scraper.KOPIS, *scraper.Aggregator) {
	breaker := scraper.BreakerSettings{
		ConsecutiveFailures: cfg.Refresh.BreakerFailures,
		OpenTimeout:         cfg.Refresh.BreakerTimeout,
	}

	var (
		entries []scraper.Entry
		kopis   *scraper.KOPIS
	)

	if cfg.KOPIS.APIKey != "" {
		kopis = scraper.NewKOPIS(scraper.KOPISConfig{
			APIKey:  cfg.KOPIS.APIKey,
			BaseURL: cfg.KOPIS.BaseURL,
			Rows:    cfg.KOPIS.Rows,
			Timeout: cfg.KOPIS.Timeout,
			Breaker: breaker,
		}, logger)
		entries = append(entries, scraper.Entry{Source: kopis})
	} else {
		logger.Warn().Msg("KOPIS_API_KEY not set, KOPIS source disabled")
	}

	if cfg.Interpark.Enabled {
		ip := scraper.NewInterpark(scraper.InterparkConfig{
			URL:      cfg.Interpark.URL,
			Timeout:  cfg.Interpark.Timeout,
			Location: loc,
		}, logger)
		entries = append(entries, scraper.Entry{Source: scraper.WithBreaker(ip, breaker, logger)})
	}

	crawlers := []struct {
		name, color string
		cc          utils.CrawlerConfig
	}{
		{scraper.MelonName, scraper.MelonColor, cfg.Crawlers.Melon},
		{scraper.YES24Name, scraper.YES24Color, cfg.Crawlers.YES24},
	}
	for _, c := range crawlers {
		if c.cc.Command == "" {
			logger.Info().Str("source", c.name).Msg("no crawler command configured, source disabled")
			continue
		}
		cmd := scraper.NewCommand(scraper.CommandConfig{
			Name:     c.name,
			Color:    c.color,
			Command:  c.cc.Command,
			Args:     c.cc.Args,
			Dir:      c.cc.Dir,
			Timeout:  c.cc.Timeout,
			Location: loc,
		}, logger)
		entries = append(entries, scraper.Entry{
			Source: scraper.WithBreaker(cmd, breaker, logger),
			Slow:   true,
		})
	}

	return kopis, scraper.NewAggregator(logger, cfg.Refresh.Concurrency, entries...)
}

// OpenStore returns a nil store for backend "none".
func OpenStore(ctx context.Context, cfg *utils.Config, loc *time.Location) (store.SnapshotStore, error) {
	switch cfg.Store.Backend {
	case "sqlite", "":
		st, err := store.OpenSQLite(cfg.Database.Path, cfg.Store.Retain, loc)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	case "redis":
		st, err := store.OpenRedis(ctx, cfg.Store.RedisURL, cfg.Store.RedisPrefix, cfg.Store.RedisTTL, loc)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return st, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
