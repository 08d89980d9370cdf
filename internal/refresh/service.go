package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stagehub/internal/cache"
	"stagehub/internal/metrics"
	"stagehub/internal/store"
	"stagehub/pkg/models"
)

// ErrNoSnapshot is returned by Serve when a recompute failed and nothing was ever published.
var ErrNoSnapshot = errors.New("no snapshot available")

// DefaultFreshWindow is how long a published snapshot may answer fast requests.
const DefaultFreshWindow = 12 * time.Hour

// Notifier hears about every snapshot the service publishes.
type Notifier interface {
	SnapshotPublished(s *models.Snapshot)
}

// Origin says how a Serve call was answered.
type Origin string

const (
	OriginCache    Origin = "fresh"
	OriginComputed Origin = "recomputed"
	OriginFallback Origin = "stale_fallback"
)

type ServiceConfig struct {
	FreshWindow time.Duration
	// PublishOnDemand makes request-triggered recomputes replace the shared snapshot.
	PublishOnDemand bool
}

// Service owns the cache and everything that writes to it.
type Service struct {
	pipeline *Pipeline
	cache    *cache.Cache
	store    store.SnapshotStore
	notifier Notifier
	cfg      ServiceConfig
	logger   zerolog.Logger
}

// NewService wires a pipeline to a cache. st and notifier may be nil.
func NewService(p *Pipeline, c *cache.Cache, st store.SnapshotStore, notifier Notifier, cfg ServiceConfig, logger zerolog.Logger) *Service {
	if cfg.FreshWindow <= 0 {
		cfg.FreshWindow = DefaultFreshWindow
	}
	return &Service{
		pipeline: p,
		cache:    c,
		store:    st,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With().Str("component", "refresh").Logger(),
	}
}

func (s *Service) Cache() *cache.Cache { return s.cache }

// Current is the published snapshot, whatever its age.
func (s *Service) Current() (*models.Snapshot, bool) { return s.cache.Snapshot() }

// Sources lists the configured source names in merge priority order.
func (s *Service) Sources() []string { return s.pipeline.agg.Names() }

// Refresh runs a cycle and publishes its snapshot. On error the cache keeps
// its previous contents.
func (s *Service) Refresh(ctx context.Context, mode Mode) (*models.Snapshot, error) {
	cycle, err := s.run(ctx, mode)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, cycle)
	return cycle.Snapshot, nil
}

func (s *Service) run(ctx context.Context, mode Mode) (*Cycle, error) {
	start := time.Now()
	cycle, err := s.pipeline.Run(ctx, mode)
	metrics.RefreshDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RefreshCycles.WithLabelValues(string(mode), "failed").Inc()
		s.logger.Error().Err(err).Str("mode", string(mode)).Msg("refresh cycle failed")
		return nil, err
	}
	metrics.MergeCollisions.Add(float64(cycle.Collisions))
	metrics.MergeEmptyNames.Add(float64(cycle.EmptyNames))

	ev := s.logger.Info().
		Str("cycle", cycle.Snapshot.CycleID).
		Str("mode", string(mode)).
		Int("total", cycle.Snapshot.Total()).
		Dur("elapsed", time.Since(start))
	for name, n := range cycle.Snapshot.SourceCounts {
		ev = ev.Int(name, n)
	}
	if failed := failedSources(cycle.Runs); len(failed) > 0 {
		ev = ev.Strs("failed_sources", failed)
	}
	ev.Msg("refresh cycle complete")
	return cycle, nil
}

func (s *Service) publish(ctx context.Context, cycle *Cycle) {
	snap := cycle.Snapshot
	s.cache.Publish(snap)
	metrics.RefreshCycles.WithLabelValues(snap.Mode, "published").Inc()

	if s.store != nil {
		if err := s.store.Save(ctx, store.Record{Snapshot: snap, Runs: cycle.Runs}); err != nil {
			s.logger.Error().Err(err).Str("cycle", snap.CycleID).Msg("failed to persist snapshot")
		}
	}
	if s.notifier != nil {
		s.notifier.SnapshotPublished(snap)
	}
}

// Serve answers a list request. With fast set, a snapshot younger than the
// fresh window is returned as is, and a stale one is recomputed from the fast
// sources only. Otherwise a full cycle runs. If the recompute fails the last
// published snapshot is returned instead.
func (s *Service) Serve(ctx context.Context, fast bool) (*models.Snapshot, Origin, error) {
	mode := ModeFull
	if fast {
		if snap, ok := s.cache.Fresh(s.cfg.FreshWindow); ok {
			metrics.CacheServes.WithLabelValues(string(OriginCache)).Inc()
			return snap, OriginCache, nil
		}
		mode = ModeScheduled
	}

	cycle, err := s.run(ctx, mode)
	if err != nil {
		if snap, ok := s.cache.Snapshot(); ok {
			metrics.CacheServes.WithLabelValues(string(OriginFallback)).Inc()
			s.logger.Warn().Err(err).Str("cycle", snap.CycleID).Msg("serving last published snapshot")
			return snap, OriginFallback, nil
		}
		return nil, "", fmt.Errorf("%w: %w", ErrNoSnapshot, err)
	}

	if s.cfg.PublishOnDemand {
		s.publish(ctx, cycle)
	} else {
		metrics.RefreshCycles.WithLabelValues(string(mode), "unpublished").Inc()
	}
	metrics.CacheServes.WithLabelValues(string(OriginComputed)).Inc()
	return cycle.Snapshot, OriginComputed, nil
}

// LoadLatest seeds the cache from the store so a restart keeps serving the
// last-known-good list. A missing snapshot is not an error.
func (s *Service) LoadLatest(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snap, err := s.store.Latest(ctx)
	if errors.Is(err, store.ErrNoSnapshot) {
		s.logger.Info().Msg("no persisted snapshot")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load latest snapshot: %w", err)
	}
	s.cache.Publish(snap)
	s.logger.Info().
		Str("cycle", snap.CycleID).
		Time("computed_at", snap.ComputedAt).
		Int("total", snap.Total()).
		Msg("restored persisted snapshot")
	return nil
}

// Status describes the published snapshot.
type Status struct {
	HasCache   bool
	LastUpdate time.Time
	DataCount  int
	Age        time.Duration
	Stats      map[string]int
}

func (s *Service) Status() Status {
	snap, age, ok := s.cache.Current()
	if !ok {
		return Status{}
	}
	return Status{
		HasCache:   true,
		LastUpdate: snap.ComputedAt,
		DataCount:  snap.Total(),
		Age:        age,
		Stats:      snap.Stats(),
	}
}
