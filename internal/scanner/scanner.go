package scanner

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/phishingrod/internal/similarity"
	"github.com/projectdiscovery/phishingrod/internal/zone"
	errorutil "github.com/projectdiscovery/utils/errors"
	"golang.org/x/sync/errgroup"
)

// Granularity controls how work is split between workers
type Granularity string

const (
	// PerFile gives every worker one file and the full variant set
	PerFile Granularity = "file"
	// PerPair gives every worker one (file, variant) pair
	PerPair Granularity = "pair"
)

// Options of the scanner. Everything here is read-only once Run starts.
type Options struct {
	// Files to scan
	Files []string
	// Variants to compare every candidate against
	Variants []string
	// Accuracy is the exclusive score threshold (1-99)
	Accuracy int
	// Workers is the pool size, see WorkerCount
	Workers int
	// Granularity of the jobs, defaults to PerFile
	Granularity Granularity
	// KeepPublicSuffixes also scans delegations whose owner name is itself
	// a public suffix (ex: co.uk)
	KeepPublicSuffixes bool
	// OnMatch is called for every match as it is found (optional).
	// It may be called from several goroutines at once, and for matches of
	// a file that fails later on.
	OnMatch func(Match)
}

// Match is a candidate that resembles a variant
type Match struct {
	Candidate string
	Variant   string
	Score     int
	// Distance is the edit distance between the variant and the
	// candidate without its public suffix
	Distance int
	File     string
}

// Stats are the aggregated counters of a run
type Stats struct {
	Rows        int64
	Skipped     int64
	Candidates  int64
	Matches     int
	Files       int
	FailedFiles int
	Elapsed     time.Duration
}

// Result of a run
type Result struct {
	// Matches holds every match found, possibly repeated across files
	Matches []Match
	// Candidates are the unique matched candidates in ascending order
	Candidates []string
	Stats      Stats
}

// Scanner fans zone files out over a worker pool
type Scanner struct {
	opts *Options
	// scanFile streams one zone file, replaced in tests
	scanFile func(ctx context.Context, p *zone.Parser, fn func(candidate string)) error
}

// WorkerCount returns the number of cores minus reserved, at least 1
func WorkerCount(reserved int) int {
	n := runtime.NumCPU() - reserved
	if n < 1 {
		return 1
	}
	return n
}

// New validates opts and returns a scanner
func New(opts *Options) (*Scanner, error) {
	if len(opts.Files) == 0 {
		return nil, ErrNoZoneFiles
	}
	if len(opts.Variants) == 0 {
		return nil, errorutil.NewWithTag("scanner", "no variants to scan for")
	}
	if opts.Accuracy < 1 || opts.Accuracy > 99 {
		return nil, errorutil.NewWithTag("scanner", "accuracy %d out of range (1-99)", opts.Accuracy)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	switch opts.Granularity {
	case "":
		opts.Granularity = PerFile
	case PerFile, PerPair:
	default:
		return nil, errorutil.NewWithTag("scanner", "unknown granularity %q (must be %q or %q)", opts.Granularity, PerFile, PerPair)
	}
	return &Scanner{opts: opts, scanFile: zone.ScanFile}, nil
}

// job is one unit of work: a file and the variants to score it against
type job struct {
	file      string
	variants  []string
	countRows bool
}

func (s *Scanner) jobs() []job {
	var jobs []job
	for _, file := range s.opts.Files {
		if s.opts.Granularity == PerFile {
			jobs = append(jobs, job{file: file, variants: s.opts.Variants, countRows: true})
			continue
		}
		for i := range s.opts.Variants {
			// the file is read once per variant, its rows are counted once
			jobs = append(jobs, job{file: file, variants: s.opts.Variants[i : i+1], countRows: i == 0})
		}
	}
	return jobs
}

// Run scans all files and waits for every worker before aggregating.
// A file with any failed job contributes neither rows nor matches.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	results := &fileResults{files: map[string]*fileResult{}}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, j := range s.jobs() {
		j := j
		g.Go(func() error {
			local, p, err := s.scan(gctx, j)
			if err != nil {
				results.fail(j.file)
				gologger.Error().Msgf("failed to scan %v: %v", j.file, err)
				return nil
			}
			results.add(j, local, p)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, file := range s.opts.Files {
		r := results.files[file]
		if r == nil {
			continue
		}
		if r.failed {
			res.Stats.FailedFiles++
			continue
		}
		res.Matches = append(res.Matches, r.matches...)
		res.Stats.Rows += r.rows
		res.Stats.Skipped += r.skipped
		res.Stats.Candidates += r.candidates
		res.Stats.Files++
	}
	sort.Slice(res.Matches, func(i, j int) bool {
		a, b := res.Matches[i], res.Matches[j]
		if a.Candidate != b.Candidate {
			return a.Candidate < b.Candidate
		}
		if a.Variant != b.Variant {
			return a.Variant < b.Variant
		}
		return a.File < b.File
	})
	res.Candidates = uniqueCandidates(res.Matches)
	res.Stats.Matches = len(res.Candidates)
	res.Stats.Elapsed = time.Since(start)
	return res, nil
}

// scan streams one file and returns its matches and the parser holding its
// counters. On error the partial results are discarded by the caller.
func (s *Scanner) scan(ctx context.Context, j job) ([]Match, *zone.Parser, error) {
	gologger.Verbose().Msgf("Reading %v", j.file)
	var found []Match
	p := zone.NewParser(j.file)
	p.KeepPublicSuffixes = s.opts.KeepPublicSuffixes
	err := s.scanFile(ctx, p, func(candidate string) {
		for _, variant := range j.variants {
			score := similarity.PartialRatio(variant, candidate)
			if !similarity.Matches(score, s.opts.Accuracy) {
				continue
			}
			m := Match{
				Candidate: candidate,
				Variant:   variant,
				Score:     score,
				Distance:  similarity.Distance(variant, zone.Registrable(candidate)),
				File:      j.file,
			}
			found = append(found, m)
			if s.opts.OnMatch != nil {
				s.opts.OnMatch(m)
			}
			// one match is enough to report the candidate
			break
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return found, p, nil
}

func uniqueCandidates(sorted []Match) []string {
	var out []string
	for i, m := range sorted {
		if i > 0 && sorted[i-1].Candidate == m.Candidate {
			continue
		}
		out = append(out, m.Candidate)
	}
	return out
}

// fileResult gathers the jobs of one file
type fileResult struct {
	matches    []Match
	rows       int64
	skipped    int64
	candidates int64
	failed     bool
}

type fileResults struct {
	mu    sync.Mutex
	files map[string]*fileResult
}

func (f *fileResults) get(file string) *fileResult {
	r, ok := f.files[file]
	if !ok {
		r = &fileResult{}
		f.files[file] = r
	}
	return r
}

func (f *fileResults) add(j job, matches []Match, p *zone.Parser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.get(j.file)
	r.matches = append(r.matches, matches...)
	if j.countRows {
		r.rows += p.Rows()
		r.skipped += p.Skipped()
		r.candidates += p.Accepted()
	}
}

func (f *fileResults) fail(file string) {
	f.mu.Lock()
	f.get(file).failed = true
	f.mu.Unlock()
}
