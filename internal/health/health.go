// Package health defines dependency probe types shared by the HTTP API and
// the verify command.
package health

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ProbeResult is the outcome of probing a single backing dependency.
type ProbeResult struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// Prober is implemented by the store and the result cache.
type Prober interface {
	Probe(ctx context.Context) ProbeResult
}

// Deep probes all given dependencies concurrently and returns a map keyed by
// dependency name. A probe failure does not cancel sibling probes.
func Deep(ctx context.Context, probers map[string]Prober) map[string]ProbeResult {
	results := make(map[string]ProbeResult, len(probers))
	var mu sync.Mutex
	var g errgroup.Group

	for name, p := range probers {
		name, p := name, p
		g.Go(func() error {
			probe := p.Probe(ctx)
			mu.Lock()
			results[name] = probe
			mu.Unlock()
			return nil
		})
	}

	// Never returns an error because all goroutines return nil.
	_ = g.Wait()
	return results
}

// AllOK reports whether every probe in the map succeeded.
func AllOK(results map[string]ProbeResult) bool {
	for _, p := range results {
		if !p.OK {
			return false
		}
	}
	return true
}
