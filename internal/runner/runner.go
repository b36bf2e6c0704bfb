package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/phishingrod"
	"github.com/projectdiscovery/phishingrod/internal/scanner"
	"github.com/projectdiscovery/phishingrod/internal/snapshot"
	errorutil "github.com/projectdiscovery/utils/errors"
	fileutil "github.com/projectdiscovery/utils/file"
)

// Mode is what a run does. Every mode ends the run.
type Mode int

const (
	// ModeScan matches zone files against the watchlist
	ModeScan Mode = iota
	// ModeUpdateSnapshots unzips archives, then diffs and splits snapshots
	ModeUpdateSnapshots
	// ModeDiffOnly diffs and splits already unzipped snapshots
	ModeDiffOnly
	// ModeUnzipOnly unzips archives and splits the snapshots
	ModeUnzipOnly
)

func (m Mode) String() string {
	switch m {
	case ModeScan:
		return "scan"
	case ModeUpdateSnapshots:
		return "update-snapshots"
	case ModeDiffOnly:
		return "diff-only"
	case ModeUnzipOnly:
		return "unzip-only"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Runner executes one run of phishingrod
type Runner struct {
	options *Options
	mode    Mode
	logFile io.Closer
}

// New validates options and installs the file logger unless ParseFlags
// already did. Invalid options are logged before being returned.
func New(options *Options) (*Runner, error) {
	logFile := options.logFile
	if logFile == nil {
		if strings.TrimSpace(options.LogFile) == "" {
			return nil, errorutil.New("logfile cannot be empty")
		}
		var err error
		if logFile, err = setupLogging(options.LogFile, options.Verbose); err != nil {
			return nil, err
		}
	}
	mode, err := options.Mode()
	if err == nil {
		err = options.Validate()
	}
	if err != nil {
		gologger.Error().Msgf("Invalid options: %v", err)
		_ = logFile.Close()
		return nil, err
	}
	return &Runner{options: options, mode: mode, logFile: logFile}, nil
}

// Close releases the log file
func (r *Runner) Close() error {
	if r.logFile == nil {
		return nil
	}
	return r.logFile.Close()
}

// Run executes the selected mode
func (r *Runner) Run(ctx context.Context) error {
	showBanner()
	start := time.Now()
	gologger.Info().Msgf("Run started (%v)", r.mode)

	var err error
	switch r.mode {
	case ModeUpdateSnapshots:
		err = r.maintain(ctx, true, true)
	case ModeDiffOnly:
		err = r.maintain(ctx, false, true)
	case ModeUnzipOnly:
		err = r.maintain(ctx, true, false)
	default:
		err = r.scan(ctx)
	}
	if err != nil {
		gologger.Error().Msgf("Run failed after %v: %v", time.Since(start).Round(time.Millisecond), err)
		return err
	}
	gologger.Info().Msgf("Run finished in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

func (r *Runner) scan(ctx context.Context) error {
	phrases, err := phishingrod.LoadWatchlist(r.options.Watchlist)
	if err != nil {
		return err
	}
	gologger.Info().Msgf("Loaded %d watchlist entries from %v", len(phrases), r.options.Watchlist)

	genOpts := &phishingrod.Options{Preset: phishingrod.ParsePreset(r.options.ExtendedVariants)}
	if r.options.VariantConfig != "" {
		cfg, err := phishingrod.NewConfig(r.options.VariantConfig)
		if err != nil {
			return err
		}
		genOpts.Config = cfg
	}
	gen, err := phishingrod.NewGenerator(genOpts)
	if err != nil {
		return err
	}
	variants := gen.Generate(phrases)
	gologger.Info().Msgf("Generated %v variants with %v", humanize.Comma(int64(len(variants))), gen.Techniques())

	files, err := scanner.SelectFiles(r.options.Directory, !r.options.NoIncremental, r.options.SplitTLDs)
	if err != nil {
		return err
	}
	gologger.Info().Msgf("Scanning %d zone files (%v) in %v", len(files), humanize.Bytes(totalSize(files)), r.options.Directory)

	s, err := scanner.New(&scanner.Options{
		Files:              files,
		Variants:           variants,
		Accuracy:           r.options.Accuracy,
		Workers:            scanner.WorkerCount(r.options.ReservedCPU),
		Granularity:        scanner.Granularity(r.options.Granularity),
		KeepPublicSuffixes: r.options.KeepSuffixes,
		OnMatch: func(m scanner.Match) {
			gologger.Verbose().Msgf("%v looks like %v (score %d, distance %d) in %v", m.Candidate, m.Variant, m.Score, m.Distance, m.File)
		},
	})
	if err != nil {
		return err
	}
	res, err := s.Run(ctx)
	if err != nil {
		return err
	}

	written, err := phishingrod.WriteResults(r.options.Output, res.Candidates)
	if err != nil {
		return err
	}
	if written == 0 {
		gologger.Info().Msgf("found no matches")
	}
	if res.Stats.FailedFiles > 0 {
		gologger.Warning().Msgf("%d of %d zone files could not be scanned", res.Stats.FailedFiles, len(files))
	}
	if res.Stats.Skipped > 0 {
		gologger.Warning().Msgf("skipped %v malformed rows", humanize.Comma(res.Stats.Skipped))
	}
	gologger.Print().Msgf("processed %v rows and found %v unique matches in %v",
		humanize.Comma(res.Stats.Rows), humanize.Comma(int64(written)), res.Stats.Elapsed.Round(time.Millisecond))
	return nil
}

// maintain runs the snapshot maintenance steps. Splitting always runs.
func (r *Runner) maintain(ctx context.Context, unzip, diff bool) error {
	if !fileutil.FolderExists(r.options.Directory) {
		return fmt.Errorf("%w: directory %v does not exist", scanner.ErrNoZoneFiles, r.options.Directory)
	}
	names, err := snapshot.ListDir(r.options.Directory)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: directory %v is empty", scanner.ErrNoZoneFiles, r.options.Directory)
	}
	differ, err := snapshot.NewDiffer(snapshot.Key(r.options.DiffKey))
	if err != nil {
		return err
	}
	m, err := snapshot.NewMaintainer(&snapshot.Options{
		Directory:    r.options.Directory,
		Workers:      scanner.WorkerCount(r.options.ReservedCPU),
		ShardedNames: r.options.SplitTLDs,
		ShardLines:   r.options.SplitLines,
		Differ:       differ,
	})
	if err != nil {
		return err
	}

	type step struct {
		name string
		run  func(context.Context) (snapshot.Report, error)
	}
	var steps []step
	if unzip {
		steps = append(steps, step{"unzip", m.Unzip})
	}
	if diff {
		steps = append(steps, step{"diff", m.Diff})
	}
	steps = append(steps, step{"split", m.Split})

	for _, s := range steps {
		report, err := s.run(ctx)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			gologger.Warning().Msgf("%v: %d files processed, %d failed", s.name, report.Processed, report.Failed)
		} else {
			gologger.Info().Msgf("%v: %d files processed", s.name, report.Processed)
		}
	}

	current, incremental, err := m.Counts()
	if err != nil {
		return err
	}
	gologger.Print().Msgf("%d current and %d incremental listings available", current, incremental)
	return nil
}

func totalSize(files []string) uint64 {
	var total uint64
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			total += uint64(info.Size())
		}
	}
	return total
}
