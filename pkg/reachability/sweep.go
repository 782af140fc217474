package reachability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/projectdiscovery/lanfinder/pkg/types"
	mapsutil "github.com/projectdiscovery/utils/maps"
	syncutil "github.com/projectdiscovery/utils/sync"
)

// Pinger sends a single echo request and waits for its reply
type Pinger interface {
	Ping(ctx context.Context, ip net.IP, timeout time.Duration) (time.Duration, error)
}

// Options controls a sweep
type Options struct {
	Workers       int
	Timeout       time.Duration
	LookupTimeout time.Duration
	// Placeholder names reached hosts whose reverse lookup failed
	Placeholder string
	// NoResolve skips reverse lookups entirely
	NoResolve bool
}

// DefaultOptions pings with a 100ms budget, 64 at a time
var DefaultOptions = Options{
	Workers:       64,
	Timeout:       100 * time.Millisecond,
	LookupTimeout: 2 * time.Second,
	Placeholder:   "unknown device",
}

// Sweeper checks reachability of many addresses
type Sweeper struct {
	pinger   Pinger
	resolver Resolver
	options  Options
}

// New creates a sweeper. A nil resolver uses net.DefaultResolver.
func New(pinger Pinger, resolver Resolver, options Options) *Sweeper {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if options.Workers <= 0 {
		options.Workers = DefaultOptions.Workers
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultOptions.Timeout
	}
	if options.LookupTimeout <= 0 {
		options.LookupTimeout = DefaultOptions.LookupTimeout
	}
	if options.Placeholder == "" {
		options.Placeholder = DefaultOptions.Placeholder
	}
	return &Sweeper{pinger: pinger, resolver: resolver, options: options}
}

// Sweep checks every address once and returns all results in input order.
// onResult, if not nil, is called as each check finishes; calls are
// serialized. Sweep returns only after every check has finished, including
// when ctx is cancelled.
func (s *Sweeper) Sweep(ctx context.Context, ips []string, onResult func(types.ReachResult)) ([]types.ReachResult, error) {
	awg, err := syncutil.New(syncutil.WithSize(s.options.Workers))
	if err != nil {
		return nil, fmt.Errorf("failed to create adaptive waitgroup: %w", err)
	}

	collected := mapsutil.NewSyncLockMap[string, types.ReachResult]()
	var reportMu sync.Mutex

	for _, ip := range ips {
		if ctx.Err() != nil {
			break
		}

		awg.Add()
		go func(ip string) {
			defer awg.Done()

			result := s.Check(ctx, ip)
			_ = collected.Set(ip, result)
			if onResult != nil {
				reportMu.Lock()
				onResult(result)
				reportMu.Unlock()
			}
		}(ip)
	}
	awg.Wait()

	results := make([]types.ReachResult, 0, len(ips))
	for _, ip := range ips {
		if result, ok := collected.Get(ip); ok {
			results = append(results, result)
		}
	}
	return results, ctx.Err()
}

// Check pings a single address and names it when it answers
func (s *Sweeper) Check(ctx context.Context, ip string) types.ReachResult {
	result := types.ReachResult{IP: ip}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		result.Outcome = types.Unreachable
		result.Error = fmt.Sprintf("invalid address: %s", ip)
		return result
	}

	rtt, err := s.pinger.Ping(ctx, parsed, s.options.Timeout)
	if err != nil {
		result.SetError(err)
		switch {
		case errors.Is(err, ErrTimeout):
			result.Outcome = types.Timeout
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			result.Outcome = types.Canceled
		default:
			result.Outcome = types.Unreachable
		}
		return result
	}
	result.RTT = rtt
	result.Outcome = types.Reached

	if s.options.NoResolve {
		return result
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.options.LookupTimeout)
	defer cancel()

	name, err := lookupName(lookupCtx, s.resolver, ip)
	if err != nil {
		result.Outcome = types.ResolutionFailed
		result.Hostname = s.options.Placeholder
		result.SetError(err)
		return result
	}
	result.Hostname = name
	return result
}
