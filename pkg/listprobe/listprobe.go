// Package listprobe checks a fixed list of addresses one after the other.
package listprobe

import (
	"context"

	"github.com/projectdiscovery/lanfinder/pkg/types"
)

// DefaultAddresses are the hosts seen answering on the greenhouse LAN
var DefaultAddresses = []string{
	"192.168.38.1",
	"192.168.38.127",
	"192.168.38.157",
	"192.168.38.184",
	"192.168.38.202",
	"192.168.38.229",
	"192.168.38.237",
}

// Prober probes a single address
type Prober interface {
	Probe(ctx context.Context, ip string) types.ProbeResult
}

// Run probes every address in order, exactly once, whatever the individual
// outcomes. onResult, if not nil, sees each result as soon as it is known.
// Only cancellation of ctx ends the run early.
func Run(ctx context.Context, prober Prober, ips []string, onResult func(types.ProbeResult)) ([]types.ProbeResult, error) {
	results := make([]types.ProbeResult, 0, len(ips))

	for _, ip := range ips {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := prober.Probe(ctx, ip)
		results = append(results, result)
		if onResult != nil {
			onResult(result)
		}
	}
	return results, nil
}

// Matches returns the results that carried the marker
func Matches(results []types.ProbeResult) []types.ProbeResult {
	var matched []types.ProbeResult
	for _, result := range results {
		if result.IsMatch() {
			matched = append(matched, result)
		}
	}
	return matched
}
