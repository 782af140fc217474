package runner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/lanfinder/pkg/finder"
	"github.com/projectdiscovery/lanfinder/pkg/httpprobe"
	"github.com/projectdiscovery/lanfinder/pkg/listprobe"
	"github.com/projectdiscovery/lanfinder/pkg/marker"
	"github.com/projectdiscovery/lanfinder/pkg/reachability"
	"github.com/projectdiscovery/lanfinder/pkg/targets"
	"github.com/projectdiscovery/lanfinder/pkg/types"
	errorutil "github.com/projectdiscovery/utils/errors"
	"github.com/rs/xid"
)

// Runner contains the internal logic of the program
type Runner struct {
	options *Options
	scanID  string
	output  *OutputWriter
	prober  *httpprobe.Prober
	// pinger overrides the ICMP pinger opened by lansweep
	pinger reachability.Pinger
}

// NewRunner instance
func NewRunner(options *Options) (*Runner, error) {
	r := &Runner{
		options: options,
		scanID:  xid.New().String(),
	}
	r.output = NewOutputWriter(r.scanID, options.JSON, options.NoColor)

	if options.Mode == ModeSweep {
		return r, nil
	}

	matcher, err := marker.New(options.Markers, marker.Options{
		Strict:     options.StrictMarker,
		IgnoreCase: options.MarkerIgnoreCase,
	})
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("Could not create marker matcher")
	}
	maxBodySize, err := options.bodySize()
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("Could not parse max body size")
	}

	r.prober = httpprobe.New(nil, matcher, httpprobe.Options{
		Port:          options.Port,
		Path:          options.Path,
		Timeout:       options.Timeout,
		MaxBodySize:   maxBodySize,
		PreviewLength: options.PreviewLength,
	})
	gologger.Verbose().Msgf("Reading at most %s per page\n", humanize.Bytes(uint64(maxBodySize)))
	return r, nil
}

// Run the instance
func (r *Runner) Run(ctx context.Context) error {
	ips, err := r.options.Candidates()
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("Could not build target list")
	}
	if len(ips) == 0 {
		return errors.New("no targets to scan")
	}
	gologger.Verbose().Msgf("Scan %s: %d candidate addresses\n", r.scanID, len(ips))

	switch r.options.Mode {
	case ModeList:
		err = r.runList(ctx, ips)
	case ModeSweep:
		err = r.runSweep(ctx, ips)
	default:
		err = r.runFind(ctx, ips)
	}

	if errors.Is(err, context.Canceled) {
		gologger.Warning().Msgf("Scan interrupted\n")
		return nil
	}
	return err
}

// Candidates returns the addresses a run will check, in probe order
func (options *Options) Candidates() ([]string, error) {
	var (
		ips []string
		err error
	)

	switch {
	case len(options.Targets) > 0:
		ips, err = targets.Expand(options.Targets)
	case options.AutoDetect:
		networks, netErr := targets.LocalNetworks24()
		if netErr != nil {
			return nil, netErr
		}
		if len(networks) == 0 {
			return nil, errors.New("no private IPv4 network found on local interfaces")
		}
		ips, err = targets.ExpandNetworks(networks)
	case options.Mode == ModeList:
		ips = append(ips, listprobe.DefaultAddresses...)
	default:
		ips, err = targets.HostRange(options.Subnet, options.First, options.Last)
	}
	if err != nil {
		return nil, err
	}

	if options.Prioritize {
		ips = targets.Prioritize(ips)
	}
	return ips, nil
}

func (r *Runner) runFind(ctx context.Context, ips []string) error {
	gologger.Info().Msgf("Scanning %d addresses for %s\n", len(ips), r.markers())

	start := time.Now()
	found, err := finder.Find(ctx, r.prober, ips, finder.Options{
		Workers: r.options.Workers,
		OnResult: func(result types.ProbeResult) {
			if result.IsMatch() {
				return
			}
			if r.options.JSON || r.options.Verbose {
				r.output.Probe(result)
			}
		},
	})
	if errors.Is(err, finder.ErrNotFound) {
		gologger.Warning().Msgf("Could not find device. Is it powered on and connected to WiFi?\n")
		return nil
	}
	if err != nil {
		return err
	}

	r.output.Found(*found)
	gologger.Info().Msgf("Device found in %s\n", time.Since(start).Round(time.Millisecond))

	if r.options.NoStatus {
		return nil
	}
	status, err := r.prober.Status(ctx, found.IP)
	if err != nil {
		gologger.Verbose().Msgf("No status document on %s: %s\n", found.IP, err)
		return nil
	}
	r.output.Status(found.IP, status)
	return nil
}

func (r *Runner) runList(ctx context.Context, ips []string) error {
	gologger.Info().Msgf("Checking %d addresses for %s\n", len(ips), r.markers())

	results, err := listprobe.Run(ctx, r.prober, ips, r.output.ListResult)
	if err != nil {
		return err
	}

	if matches := listprobe.Matches(results); len(matches) == 0 {
		gologger.Warning().Msgf("None of the %d addresses carried the marker\n", len(results))
	} else {
		gologger.Info().Msgf("%d of %d addresses carried the marker\n", len(matches), len(results))
	}
	return nil
}

func (r *Runner) runSweep(ctx context.Context, ips []string) error {
	pinger := r.pinger
	if pinger == nil {
		icmpPinger, err := reachability.NewICMPPinger()
		if err != nil {
			return errorutil.NewWithErr(err).Msgf("Could not open ICMP socket")
		}
		defer func() {
			_ = icmpPinger.Close()
		}()
		if !icmpPinger.Privileged() {
			gologger.Verbose().Msgf("Raw sockets unavailable, using unprivileged ICMP\n")
		}
		pinger = icmpPinger
	}

	var resolver reachability.Resolver
	if r.options.Resolver != "" {
		resolver = reachability.NewDNSResolver(r.options.Resolver, r.options.LookupTimeout)
		gologger.Verbose().Msgf("Resolving names through %s\n", r.options.Resolver)
	}

	sweeper := reachability.New(pinger, resolver, reachability.Options{
		Workers:       r.options.Workers,
		Timeout:       r.options.Timeout,
		LookupTimeout: r.options.LookupTimeout,
		Placeholder:   r.options.Placeholder,
		NoResolve:     r.options.NoResolve,
	})

	gologger.Info().Msgf("Scanning %s to %s\n", ips[0], ips[len(ips)-1])
	start := time.Now()
	results, err := sweeper.Sweep(ctx, ips, func(result types.ReachResult) {
		if result.Outcome.Alive() || r.options.JSON || r.options.Verbose {
			r.output.Reach(result)
		}
	})
	if err != nil {
		return err
	}

	reached := 0
	for _, result := range results {
		if result.Outcome.Alive() {
			reached++
		}
	}
	r.output.SweepDone(reached, len(results), time.Since(start))
	return nil
}

func (r *Runner) markers() string {
	return "'" + strings.Join(r.options.Markers, "' or '") + "'"
}

// Close the runner instance
func (r *Runner) Close() {}
