package layout

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
)

// BreakerSettings configures [NewBreaker]. Zero fields take defaults.
type BreakerSettings struct {
	MaxRequests      uint32        // probes allowed while half-open (default 1)
	Interval         time.Duration // closed-state counter reset period (default 30s)
	Timeout          time.Duration // open duration before probing (default 30s)
	FailureThreshold float64       // failure ratio that trips (default 0.6)
	MinRequests      uint32        // requests needed before tripping (default 3)
	Logger           *log.Logger
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Interval == 0 {
		s.Interval = 30 * time.Second
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 0.6
	}
	if s.MinRequests == 0 {
		s.MinRequests = 3
	}
	if s.Logger == nil {
		s.Logger = log.Default()
	}
	return s
}

// Breaker stops calling a layouter that keeps failing. While open, Layout
// returns LAYOUT_UNAVAILABLE at once. Canceled calls do not count as
// failures.
type Breaker struct {
	inner Layouter
	cb    *gobreaker.CircuitBreaker
}

// NewBreaker wraps inner in a circuit breaker.
func NewBreaker(inner Layouter, s BreakerSettings) *Breaker {
	s = s.withDefaults()
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "layout-" + inner.Name(),
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.Logger.Warn("layout circuit breaker", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
		},
	})
	return &Breaker{inner: inner, cb: cb}
}

// Name implements Layouter.
func (b *Breaker) Name() string { return b.inner.Name() }

// State reports the breaker state ("closed", "half-open" or "open").
func (b *Breaker) State() string { return b.cb.State().String() }

// Layout implements Layouter.
func (b *Breaker) Layout(ctx context.Context, v graph.View) (map[graph.NodeID]graph.Position, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.inner.Layout(ctx, v)
	})
	switch {
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, errors.Wrap(errors.ErrCodeLayoutUnavailable, err, "%s layout suspended", b.inner.Name())
	case err != nil:
		return nil, unavailable(b.inner.Name(), err)
	}
	positions, _ := res.(map[graph.NodeID]graph.Position)
	return positions, nil
}
