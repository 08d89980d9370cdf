package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"stagehub/internal/metrics"
	"stagehub/pkg/models"
)

// BreakerSettings tunes the per-source circuit breakers.
type BreakerSettings struct {
	ConsecutiveFailures uint32        // trips after this many failures in a row
	OpenTimeout         time.Duration // how long the breaker stays open before probing
}

// DefaultBreakerSettings suits sources polled a few times a day.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 3, OpenTimeout: 10 * time.Minute}
}

func newBreaker[T any](name string, s BreakerSettings, logger zerolog.Logger) *gobreaker.CircuitBreaker[T] {
	if s.ConsecutiveFailures == 0 {
		s = DefaultBreakerSettings()
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		// A cancelled cycle says nothing about the remote side.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

func execute[T any](cb *gobreaker.CircuitBreaker[T], fn func() (T, error)) (T, error) {
	v, err := cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(cb.Name(), "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(cb.Name(), "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(cb.Name(), "failure").Inc()
	}
	return v, err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

type breakerSource struct {
	Source
	cb *gobreaker.CircuitBreaker[[]models.RawRecord]
}

// WithBreaker wraps a source so repeated failures short-circuit instead of
// waiting out the full timeout every cycle.
func WithBreaker(src Source, s BreakerSettings, logger zerolog.Logger) Source {
	return &breakerSource{
		Source: src,
		cb:     newBreaker[[]models.RawRecord](src.Name(), s, logger),
	}
}

func (b *breakerSource) FetchAll(ctx context.Context, w Window) ([]models.RawRecord, error) {
	return execute(b.cb, func() ([]models.RawRecord, error) {
		return b.Source.FetchAll(ctx, w)
	})
}
