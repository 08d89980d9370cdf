// Package refresh runs refresh cycles, publishes their snapshots and
// decides when a request may be answered from the cache.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stagehub/internal/classify"
	"stagehub/internal/merge"
	"stagehub/internal/scraper"
	"stagehub/internal/store"
	"stagehub/pkg/models"
	"stagehub/pkg/utils"
)

// Mode selects which sources a cycle uses.
type Mode string

const (
	// ModeScheduled skips sources registered as slow.
	ModeScheduled Mode = "scheduled"
	// ModeFull runs every source.
	ModeFull Mode = "full"
)

// DefaultHorizonDays is how far ahead sources are asked for listings.
const DefaultHorizonDays = 60

type PipelineConfig struct {
	Taxonomy       *classify.Taxonomy
	RegionFallback models.Region
	HorizonDays    int
	Location       *time.Location
	Now            func() time.Time
}

// Pipeline runs one fetch, merge, filter and sort pass.
type Pipeline struct {
	agg      *scraper.Aggregator
	taxonomy *classify.Taxonomy
	fallback models.Region
	horizon  int
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

func NewPipeline(agg *scraper.Aggregator, cfg PipelineConfig, logger zerolog.Logger) *Pipeline {
	if cfg.Taxonomy == nil {
		cfg.Taxonomy = classify.Default
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = DefaultHorizonDays
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		agg:      agg,
		taxonomy: cfg.Taxonomy,
		fallback: cfg.RegionFallback,
		horizon:  cfg.HorizonDays,
		loc:      cfg.Location,
		now:      cfg.Now,
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
}

// Location is the zone dates are interpreted in.
func (p *Pipeline) Location() *time.Location { return p.loc }

// Now is the pipeline clock in its location.
func (p *Pipeline) Now() time.Time { return p.now().In(p.loc) }

// Cycle is the outcome of one successful run.
type Cycle struct {
	Snapshot   *models.Snapshot
	Runs       []store.SourceRun
	Collisions int
	EmptyNames int
}

// Run fetches from the sources selected by mode and builds a snapshot.
// Source failures only reduce what the snapshot contains; an error is
// returned when the cycle itself cannot complete.
func (p *Pipeline) Run(ctx context.Context, mode Mode) (*Cycle, error) {
	cycleID := uuid.NewString()
	now := p.Now()
	today := utils.StartOfDay(now)
	logger := p.logger.With().Str("cycle", cycleID).Str("mode", string(mode)).Logger()

	results := p.agg.FetchAll(ctx, scraper.Window{
		From: today,
		To:   today.AddDate(0, 0, p.horizon),
	}, mode == ModeFull)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cycle %s: %w", cycleID, err)
	}

	batches := make([]models.SourceBatch, 0, len(results))
	runs := make([]store.SourceRun, 0, len(results))
	for _, r := range results {
		batches = append(batches, r.SourceBatch)
		run := store.SourceRun{
			Source:    r.Name,
			Records:   len(r.Records),
			Elapsed:   r.Elapsed,
			StartedAt: now,
		}
		if r.Err != nil {
			run.Error = r.Err.Error()
		}
		runs = append(runs, run)
	}

	merged, err := merge.Merge(batches, merge.Options{
		Taxonomy:       p.taxonomy,
		RegionFallback: p.fallback,
		Today:          now,
		OnCollision: func(existing models.UnifiedPerformance, incoming models.RawRecord) {
			logger.Debug().
				Str("hash", existing.Fingerprint).
				Str("name", incoming.Name).
				Str("source", incoming.SourceName).
				Msg("merged duplicate listing")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cycle %s: %w", cycleID, err)
	}

	counts := make(map[string]int, len(p.agg.Names()))
	for _, name := range p.agg.Names() {
		counts[name] = 0
	}
	for name, n := range merged.Counts() {
		counts[name] = n
	}

	perfs := merge.FilterAndSort(merged.List(), now)
	snap := &models.Snapshot{
		CycleID:      cycleID,
		Mode:         string(mode),
		Performances: perfs,
		ComputedAt:   p.Now(),
		SourceCounts: counts,
	}
	if merged.EmptyNames() > 0 {
		logger.Warn().Int("records", merged.EmptyNames()).Msg("records with empty names merged under one key")
	}
	return &Cycle{
		Snapshot:   snap,
		Runs:       runs,
		Collisions: merged.Collisions(),
		EmptyNames: merged.EmptyNames(),
	}, nil
}

// failedSources lists the sources of a cycle that reported an error.
func failedSources(runs []store.SourceRun) []string {
	var out []string
	for _, r := range runs {
		if r.Error != "" {
			out = append(out, r.Source)
		}
	}
	return out
}
