// internal/common/breaker/breaker.go
package breaker

import (
	"context"
	"errors"
	"time"

	"mentor-match-workers/internal/common/config"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/common/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Breaker guards calls to one external dependency.
type Breaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

// New builds a breaker that opens once FailureRatio of at least MinRequests
// calls inside Interval have failed. Calls ended by the caller's own
// cancellation or deadline are not counted.
func New[T any](name string, cfg config.BreakerConfig, log logger.Logger) *Breaker[T] {
	metrics.SourceBreakerState.WithLabelValues(name).Set(0)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		IsExcluded: IsCallerAbort,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SourceBreakerState.WithLabelValues(name).Set(stateValue(to))
			if log != nil {
				log.Warn("circuit breaker state change", map[string]interface{}{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				})
			}
		},
	}

	return &Breaker[T]{name: name, cb: gobreaker.NewCircuitBreaker[T](settings)}
}

func (b *Breaker[T]) Name() string { return b.name }

func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	return b.cb.Execute(fn)
}

func (b *Breaker[T]) State() gobreaker.State {
	return b.cb.State()
}

// IsRejection reports whether err came from the breaker itself rather than
// the wrapped call.
func IsRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// IsCallerAbort reports whether err only says the caller gave up.
func IsCallerAbort(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
