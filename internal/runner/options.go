package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/projectdiscovery/lanfinder/pkg/finder"
	"github.com/projectdiscovery/lanfinder/pkg/httpprobe"
	"github.com/projectdiscovery/lanfinder/pkg/marker"
	"github.com/projectdiscovery/lanfinder/pkg/reachability"
	"github.com/projectdiscovery/lanfinder/pkg/version"
	envutil "github.com/projectdiscovery/utils/env"
)

var (
	SubnetEnv   = envutil.GetEnvOrDefault("LANFINDER_SUBNET", "192.168.38")
	ResolverEnv = envutil.GetEnvOrDefault("LANFINDER_RESOLVER", "")
	WorkersEnv  = envutil.GetEnvOrDefault("LANFINDER_WORKERS", "")
)

// Mode selects which tool the runner drives
type Mode int

const (
	// ModeFind probes a subnet in parallel and stops at the first match
	ModeFind Mode = iota
	// ModeList probes a fixed list of addresses one by one
	ModeList
	// ModeSweep pings a subnet and names the hosts that answer
	ModeSweep
)

func (m Mode) String() string {
	switch m {
	case ModeFind:
		return "lanfinder"
	case ModeList:
		return "lanprobe"
	case ModeSweep:
		return "lansweep"
	default:
		return "unknown"
	}
}

func (m Mode) description() string {
	switch m {
	case ModeFind:
		return `lanfinder sweeps a subnet over HTTP and reports the first device whose page carries the marker`
	case ModeList:
		return `lanprobe checks a fixed list of addresses over HTTP and flags pages carrying the marker`
	default:
		return `lansweep pings every address of a subnet and names the hosts that answer`
	}
}

// Options contains the configuration options for a scan
type Options struct {
	Mode Mode

	Targets    goflags.StringSlice
	Subnet     string
	First      int
	Last       int
	AutoDetect bool
	Prioritize bool

	Markers          goflags.StringSlice
	StrictMarker     bool
	MarkerIgnoreCase bool

	Port          int
	Path          string
	Timeout       time.Duration
	Workers       int
	MaxBodySize   string
	PreviewLength int
	NoStatus      bool

	Resolver      string
	NoResolve     bool
	Placeholder   string
	LookupTimeout time.Duration

	ConfigFile string
	JSON       bool
	Verbose    bool
	Silent     bool
	NoColor    bool
	Version    bool
}

// NewOptions returns the defaults of a tool, as used when it runs without flags
func NewOptions(mode Mode) *Options {
	options := &Options{
		Mode:          mode,
		Subnet:        SubnetEnv,
		First:         1,
		Last:          254,
		Markers:       append(goflags.StringSlice{}, marker.DefaultMarkers...),
		Port:          httpprobe.DefaultOptions.Port,
		Path:          httpprobe.DefaultOptions.Path,
		Timeout:       httpprobe.DefaultOptions.Timeout,
		Workers:       finder.DefaultWorkers,
		MaxBodySize:   "1MB",
		PreviewLength: httpprobe.DefaultOptions.PreviewLength,
		Resolver:      ResolverEnv,
		Placeholder:   reachability.DefaultOptions.Placeholder,
		LookupTimeout: reachability.DefaultOptions.LookupTimeout,
	}

	switch mode {
	case ModeList:
		options.Timeout = 2 * time.Second
		options.Workers = 1
	case ModeSweep:
		options.Timeout = reachability.DefaultOptions.Timeout
		options.Workers = reachability.DefaultOptions.Workers
	}

	if val, err := strconv.Atoi(WorkersEnv); err == nil && val > 0 && mode != ModeList {
		options.Workers = val
	}
	return options
}

// ParseOptions parses the command line flags provided by a user
func ParseOptions(mode Mode) *Options {
	options := NewOptions(mode)
	defaults := *options

	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(mode.description())

	input := []*goflags.FlagData{
		flagSet.StringSliceVarP(&options.Targets, "target", "t", nil, "target IPs or CIDRs to scan (comma separated, file)", goflags.FileCommaSeparatedStringSliceOptions),
	}
	if mode != ModeList {
		input = append(input,
			flagSet.StringVarP(&options.Subnet, "subnet", "s", defaults.Subnet, "subnet prefix to scan when no target is given (e.g. 192.168.38)"),
			flagSet.IntVar(&options.First, "first", defaults.First, "first host index of the subnet"),
			flagSet.IntVar(&options.Last, "last", defaults.Last, "last host index of the subnet"),
			flagSet.BoolVarP(&options.AutoDetect, "auto", "a", false, "scan the /24 networks of the local interfaces"),
		)
	}
	input = append(input, flagSet.BoolVarP(&options.Prioritize, "prioritize", "pr", false, "probe likely-populated addresses (gateways, early dhcp) first"))
	flagSet.CreateGroup("input", "Input", input...)

	if mode != ModeSweep {
		flagSet.CreateGroup("matcher", "Matcher",
			flagSet.StringSliceVarP(&options.Markers, "marker", "m", defaults.Markers, "marker strings identifying the device page", goflags.CommaSeparatedStringSliceOptions),
			flagSet.BoolVarP(&options.StrictMarker, "strict-marker", "sm", false, "match markers byte for byte (no unicode folding)"),
			flagSet.BoolVarP(&options.MarkerIgnoreCase, "marker-ignore-case", "mic", false, "match markers case-insensitively"),
		)
	}

	probe := []*goflags.FlagData{
		flagSet.DurationVarP(&options.Timeout, "timeout", "to", defaults.Timeout, "timeout per address"),
	}
	if mode != ModeList {
		probe = append(probe, flagSet.IntVarP(&options.Workers, "workers", "c", defaults.Workers, "number of addresses probed concurrently"))
	}
	if mode != ModeSweep {
		probe = append(probe,
			flagSet.IntVarP(&options.Port, "port", "p", defaults.Port, "http port to probe"),
			flagSet.StringVar(&options.Path, "path", defaults.Path, "http path to probe"),
			flagSet.StringVarP(&options.MaxBodySize, "max-body-size", "mbs", defaults.MaxBodySize, "maximum response body size to read"),
			flagSet.IntVarP(&options.PreviewLength, "preview-length", "pl", defaults.PreviewLength, "number of characters of the page to preview"),
		)
	}
	if mode == ModeFind {
		probe = append(probe, flagSet.BoolVarP(&options.NoStatus, "no-status", "ns", false, "do not fetch the device status after a match"))
	}
	if mode == ModeSweep {
		probe = append(probe,
			flagSet.StringVarP(&options.Resolver, "resolver", "r", defaults.Resolver, "dns server for reverse lookups (default system resolver)"),
			flagSet.BoolVarP(&options.NoResolve, "no-resolve", "nr", false, "do not resolve names of reached hosts"),
			flagSet.StringVar(&options.Placeholder, "placeholder", defaults.Placeholder, "name shown for reached hosts without reverse dns"),
			flagSet.DurationVarP(&options.LookupTimeout, "lookup-timeout", "lt", defaults.LookupTimeout, "timeout per reverse lookup"),
		)
	}
	flagSet.CreateGroup("probe", "Probe", probe...)

	flagSet.CreateGroup("output", "Output",
		flagSet.BoolVarP(&options.JSON, "json", "j", false, "write results as json lines"),
		flagSet.BoolVar(&options.Silent, "silent", false, "show only results in output"),
		flagSet.BoolVarP(&options.NoColor, "no-color", "nc", false, "disable output content coloring (ANSI escape codes)"),
	)

	flagSet.CreateGroup("config", "Config",
		flagSet.StringVar(&options.ConfigFile, "config", "", "flag configuration file (yaml)"),
	)

	flagSet.CreateGroup("debug", "Debug",
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output"),
		flagSet.BoolVar(&options.Version, "version", false, "show version of the project"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}

	if options.ConfigFile != "" {
		if err := flagSet.MergeConfigFile(options.ConfigFile); err != nil {
			gologger.Fatal().Msgf("Could not read config file %s: %s\n", options.ConfigFile, err)
		}
	}

	options.configureOutput()

	if !options.Silent && !options.JSON {
		showBanner(mode)
	}

	if options.Version {
		gologger.Info().Msgf("Current Version: %s\n", version.GetVersion())
		os.Exit(0)
	}

	if err := options.Validate(); err != nil {
		gologger.Fatal().Msgf("Program exiting: %s\n", err)
	}

	return options
}

// configureOutput configures the output on the screen
func (options *Options) configureOutput() {
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if options.NoColor {
		gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
	}
	if options.Silent || options.JSON {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
}

// Validate checks the options for consistency
func (options *Options) Validate() error {
	if options.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if options.Mode != ModeList && options.Workers <= 0 {
		return errors.New("workers must be at least 1")
	}
	if options.Mode != ModeSweep {
		if options.Port <= 0 || options.Port > 65535 {
			return fmt.Errorf("invalid port %d", options.Port)
		}
		if len(options.Markers) == 0 {
			return errors.New("at least one marker is required")
		}
		if _, err := options.bodySize(); err != nil {
			return err
		}
	}
	if len(options.Targets) == 0 && !options.AutoDetect && options.Mode != ModeList {
		if options.First < 0 || options.Last > 255 || options.First > options.Last {
			return fmt.Errorf("invalid host range %d-%d", options.First, options.Last)
		}
	}
	if options.Verbose && options.Silent {
		return errors.New("both verbose and silent mode specified")
	}
	return nil
}

func (options *Options) bodySize() (int64, error) {
	size, err := humanize.ParseBytes(options.MaxBodySize)
	if err != nil {
		return 0, fmt.Errorf("invalid max body size %q: %w", options.MaxBodySize, err)
	}
	if size == 0 {
		return 0, fmt.Errorf("max body size must be positive")
	}
	return int64(size), nil
}
