package runner

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/phishingrod/internal/scanner"
	"github.com/projectdiscovery/phishingrod/internal/snapshot"
	errorutil "github.com/projectdiscovery/utils/errors"
)

type Options struct {
	Directory        string // zone file directory
	Output           string // output file for matched candidates
	Watchlist        string // brand names and trademarks, one per line
	Accuracy         int
	ReservedCPU      int
	Verbose          bool
	NoIncremental    bool
	ExtendedVariants bool
	VariantConfig    string
	Granularity      string
	KeepSuffixes     bool
	UpdateSnapshots  bool
	DiffOnly         bool
	UnzipOnly        bool
	DiffKey          string
	SplitTLDs        goflags.StringSlice
	SplitLines       int
	LogFile          string
	Config           string
	// internal/unexported fields
	logFile   io.Closer
	configErr error
}

func ParseFlags() *Options {
	opts := &Options{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`Find typo-squatted look-alikes of your brands in DNS zone files.`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.Directory, "directory", "d", "./zonefiles", "directory holding the zone files"),
		flagSet.StringVarP(&opts.Watchlist, "domainfile", "i", "./domainsandtrademarks.txt", "watchlist of domains and trademarks, one per line"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&opts.Output, "output", "o", "./baddomains.txt", "output file to write matched domains"),
		flagSet.StringVarP(&opts.LogFile, "logfile", "l", "./log", "log file, appended to on every run"),
		flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "mirror every log message to the console"),
		flagSet.CallbackVar(printVersion, "version", "display phishingrod version"),
	)

	flagSet.CreateGroup("scan", "Scan",
		flagSet.IntVarP(&opts.Accuracy, "accuracy", "a", 90, "similarity a domain must exceed to be reported (1-99)"),
		flagSet.IntVarP(&opts.ReservedCPU, "reserved-cpu", "c", 2, "number of cores left free while scanning"),
		flagSet.BoolVarP(&opts.NoIncremental, "no-incremental", "ni", false, "scan current snapshots instead of incremental listings"),
		flagSet.BoolVarP(&opts.ExtendedVariants, "extended-variants", "ev", false, "add substitution, deletion and affix variants"),
		flagSet.StringVarP(&opts.Granularity, "granularity", "g", string(scanner.PerFile), "unit of work per worker (file, pair)"),
		flagSet.BoolVarP(&opts.KeepSuffixes, "keep-public-suffixes", "kps", false, "also scan delegations that are public suffixes themselves (ex: co.uk)"),
	)

	flagSet.CreateGroup("snapshot", "Snapshot",
		flagSet.BoolVarP(&opts.UpdateSnapshots, "update-snapshots", "us", false, "unzip archives, diff and split snapshots, then exit"),
		flagSet.BoolVarP(&opts.DiffOnly, "diff-only", "do", false, "diff and split snapshots, then exit"),
		flagSet.BoolVarP(&opts.UnzipOnly, "unzip-only", "uo", false, "unzip archives and split snapshots, then exit"),
		flagSet.StringVarP(&opts.DiffKey, "diff-key", "dk", string(snapshot.KeyOwner), "key records are diffed on (owner, record)"),
		flagSet.StringSliceVarP(&opts.SplitTLDs, "split-tlds", "st", goflags.StringSlice(snapshot.DefaultShardedNames), "registries whose listings are split into shards (comma-separated)", goflags.NormalizedStringSliceOptions),
		flagSet.IntVarP(&opts.SplitLines, "split-lines", "sl", snapshot.DefaultShardLines, "lines per shard"),
	)

	flagSet.CreateGroup("config", "Config",
		flagSet.StringVar(&opts.Config, "config", "", `phishingrod cli config file (default '$HOME/.config/phishingrod/config.yaml')`),
		flagSet.StringVarP(&opts.VariantConfig, "variant-config", "vc", "", fmt.Sprintf(`variant technique config file (default '$HOME/.config/phishingrod/variants_%v.yaml')`, version)),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("Could not read flags: %s\n", err)
	}

	if opts.Config != "" {
		opts.configErr = flagSet.MergeConfigFile(opts.Config)
	}

	// the log file is opened first so that option errors are persisted too
	logFile, err := setupLogging(opts.LogFile, opts.Verbose)
	if err != nil {
		gologger.Fatal().Msgf("Could not open log file: %s\n", err)
	}
	opts.logFile = logFile
	if opts.configErr != nil {
		gologger.Error().Msgf("failed to read config file got %v", opts.configErr)
	}
	if err := opts.Validate(); err != nil {
		gologger.Fatal().Msgf("Invalid options: %v\n", err)
	}
	loadDefaultVariantConfig()
	return opts
}

// Validate checks the options and that at most one maintenance mode is set
func (o *Options) Validate() error {
	if o.Accuracy < 1 || o.Accuracy > 99 {
		return errorutil.New("accuracy must be between 1 and 99, got %d", o.Accuracy)
	}
	if o.ReservedCPU < 0 {
		return errorutil.New("reserved-cpu cannot be negative")
	}
	switch scanner.Granularity(o.Granularity) {
	case scanner.PerFile, scanner.PerPair:
	default:
		return errorutil.New("granularity must be %q or %q, got %q", scanner.PerFile, scanner.PerPair, o.Granularity)
	}
	switch snapshot.Key(o.DiffKey) {
	case snapshot.KeyOwner, snapshot.KeyRecord:
	default:
		return errorutil.New("diff-key must be %q or %q, got %q", snapshot.KeyOwner, snapshot.KeyRecord, o.DiffKey)
	}
	if o.SplitLines <= 0 {
		return errorutil.New("split-lines must be positive")
	}
	if strings.TrimSpace(o.LogFile) == "" {
		return errorutil.New("logfile cannot be empty")
	}
	_, err := o.Mode()
	return err
}

// Mode returns the run mode selected by the flags
func (o *Options) Mode() (Mode, error) {
	var selected []string
	mode := ModeScan
	if o.UpdateSnapshots {
		selected = append(selected, "-update-snapshots")
		mode = ModeUpdateSnapshots
	}
	if o.DiffOnly {
		selected = append(selected, "-diff-only")
		mode = ModeDiffOnly
	}
	if o.UnzipOnly {
		selected = append(selected, "-unzip-only")
		mode = ModeUnzipOnly
	}
	if len(selected) > 1 {
		return ModeScan, errorutil.New("%v cannot be combined", strings.Join(selected, " and "))
	}
	return mode, nil
}

func printVersion() {
	gologger.Info().Msgf("Current version: %s", version)
	os.Exit(0)
}
