// Package finder sweeps candidate addresses with HTTP probes through a
// bounded worker pool and stops at the first page carrying the marker.
package finder

import (
	"context"
	"errors"
	"fmt"

	"github.com/projectdiscovery/lanfinder/pkg/types"
	syncutil "github.com/projectdiscovery/utils/sync"
)

// DefaultWorkers is the number of probes kept in flight
const DefaultWorkers = 50

// ErrNotFound is returned when no candidate matched
var ErrNotFound = errors.New("device not found")

// Prober probes a single address
type Prober interface {
	Probe(ctx context.Context, ip string) types.ProbeResult
}

// Options controls a Find run
type Options struct {
	Workers int
	// OnResult, when set, is called for every result observed before the
	// match, and for the match itself. Calls are serialized.
	OnResult func(types.ProbeResult)
}

// Find probes ips concurrently and returns the first matching result in
// completion order. Once a match is observed dispatch stops and the probes
// still in flight are cancelled; their results are not consumed.
func Find(ctx context.Context, prober Prober, ips []string, options Options) (*types.ProbeResult, error) {
	workers := options.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	awg, err := syncutil.New(syncutil.WithSize(workers))
	if err != nil {
		return nil, fmt.Errorf("failed to create adaptive waitgroup: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// buffered so that abandoned workers never block after a match
	results := make(chan types.ProbeResult, len(ips))

	go func() {
		defer close(results)
		for _, ip := range ips {
			if ctx.Err() != nil {
				break
			}
			awg.Add()
			go func(ip string) {
				defer awg.Done()
				results <- prober.Probe(ctx, ip)
			}(ip)
		}
		awg.Wait()
	}()

	for result := range results {
		if options.OnResult != nil {
			options.OnResult(result)
		}
		if result.IsMatch() {
			found := result
			return &found, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}
