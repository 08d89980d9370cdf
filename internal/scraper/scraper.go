package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"stagehub/internal/metrics"
	"stagehub/pkg/models"
)

// ErrNotConfigured is returned by a source that is missing credentials or a command.
var ErrNotConfigured = errors.New("source not configured")

// Window is the date range a fetch covers.
type Window struct {
	From time.Time
	To   time.Time
}

// Source is implemented by each external data source (API / HTML / crawler).
// Each source maps its own format into RawRecords and tags them with its name and color.
type Source interface {
	Name() string
	Color() string
	FetchAll(ctx context.Context, w Window) ([]models.RawRecord, error)
}

// Entry registers a source with the aggregator.
type Entry struct {
	Source  Source
	Timeout time.Duration // per-fetch deadline; zero means none beyond ctx
	Slow    bool          // excluded from scheduled cycles
}

// Result is one source's contribution to a cycle. Err is informational:
// a failed source still yields a well-formed, empty batch.
type Result struct {
	models.SourceBatch
	Err     error
	Elapsed time.Duration
}

// Aggregator fetches from every registered source concurrently and returns
// their batches in registration order, which is the merge priority order.
type Aggregator struct {
	entries []Entry
	limit   int
	logger  zerolog.Logger
}

// NewAggregator creates an Aggregator. limit bounds concurrent fetches; zero means one per source.
func NewAggregator(logger zerolog.Logger, limit int, entries ...Entry) *Aggregator {
	return &Aggregator{
		entries: entries,
		limit:   limit,
		logger:  logger.With().Str("component", "aggregator").Logger(),
	}
}

// Entries returns the registered sources in priority order.
func (a *Aggregator) Entries() []Entry {
	return append([]Entry(nil), a.entries...)
}

// Names returns every registered source name in priority order.
func (a *Aggregator) Names() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Source.Name())
	}
	return out
}

// FetchAll runs every selected source and never fails: an adapter error,
// timeout or panic becomes an empty batch with Err set.
func (a *Aggregator) FetchAll(ctx context.Context, w Window, includeSlow bool) []Result {
	selected := make([]Entry, 0, len(a.entries))
	for _, e := range a.entries {
		if e.Slow && !includeSlow {
			continue
		}
		selected = append(selected, e)
	}

	results := make([]Result, len(selected))
	var g errgroup.Group
	if a.limit > 0 {
		g.SetLimit(a.limit)
	}
	for i, e := range selected {
		g.Go(func() error {
			results[i] = a.fetchOne(ctx, e, w)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *Aggregator) fetchOne(ctx context.Context, e Entry, w Window) (res Result) {
	name := e.Source.Name()
	res.Name = name
	res.Color = e.Source.Color()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Records = nil
			res.Err = fmt.Errorf("%s: panic: %v", name, r)
		}
		res.Elapsed = time.Since(start)
		metrics.SourceFetchDuration.WithLabelValues(name).Observe(res.Elapsed.Seconds())
		metrics.SourceRecords.WithLabelValues(name).Set(float64(len(res.Records)))
		if res.Err != nil {
			metrics.SourceFailures.WithLabelValues(name).Inc()
			a.logger.Warn().Err(res.Err).Str("source", name).Dur("elapsed", res.Elapsed).Msg("source unavailable")
			return
		}
		a.logger.Debug().Str("source", name).Int("records", len(res.Records)).Dur("elapsed", res.Elapsed).Msg("source fetched")
	}()

	fctx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	records, err := e.Source.FetchAll(fctx, w)
	if err != nil {
		res.Err = err
		return res
	}
	for i := range records {
		if records[i].SourceName == "" {
			records[i].SourceName = name
		}
		if records[i].SourceColor == "" {
			records[i].SourceColor = res.Color
		}
	}
	res.Records = records
	return res
}
