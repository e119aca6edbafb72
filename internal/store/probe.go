package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/keshavgujrathi/scholariq/internal/health"
)

// NewBreaker returns a circuit breaker configured to trip after 3
// consecutive failures and reset after 30 seconds in the open state.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// Prober wraps a Store with a circuit breaker for health probes.
type Prober struct {
	store *Store
	cb    *gobreaker.CircuitBreaker
}

// NewProber builds the database health prober.
func NewProber(s *Store, cb *gobreaker.CircuitBreaker) *Prober {
	return &Prober{store: s, cb: cb}
}

// Probe pings the database and verifies the schema exists. The check is
// wrapped in the circuit breaker so persistent failures trip the breaker
// after three consecutive errors.
func (p *Prober) Probe(ctx context.Context) health.ProbeResult {
	start := time.Now()

	_, err := p.cb.Execute(func() (any, error) {
		if err := p.store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
		ready, err := p.store.SchemaReady(ctx)
		if err != nil {
			return nil, fmt.Errorf("schema check: %w", err)
		}
		if !ready {
			return nil, errors.New("schema not initialized (run: scholariq db init)")
		}
		return nil, nil
	})

	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return health.ProbeResult{
			Name:      "database",
			OK:        false,
			LatencyMs: latency,
			Error:     errMsg,
		}
	}

	return health.ProbeResult{
		Name:      "database",
		OK:        true,
		LatencyMs: latency,
	}
}
