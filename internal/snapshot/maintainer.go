package snapshot

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"
	fileutil "github.com/projectdiscovery/utils/file"
	"golang.org/x/sync/errgroup"
)

// Options of the snapshot maintainer
type Options struct {
	// Directory holding archives and snapshots
	Directory string
	// Workers bounds the number of files processed at once
	Workers int
	// ShardedNames are registries whose listings are split into shards
	ShardedNames []string
	// ShardLines is the shard size in lines
	ShardLines int

	Decompressor Decompressor
	Differ       SetDiffer
	Splitter     Splitter
}

// Maintainer runs the rotate, diff and split steps over a zone directory
type Maintainer struct {
	opts *Options
}

// Report summarizes a maintenance step
type Report struct {
	Processed int64
	Failed    int64
}

// NewMaintainer validates opts and fills in the native collaborators
func NewMaintainer(opts *Options) (*Maintainer, error) {
	if !fileutil.FolderExists(opts.Directory) {
		return nil, errorutil.NewWithTag("snapshot", "zone directory %v does not exist", opts.Directory)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ShardLines <= 0 {
		opts.ShardLines = DefaultShardLines
	}
	if opts.ShardedNames == nil {
		opts.ShardedNames = DefaultShardedNames
	}
	if opts.Decompressor == nil {
		opts.Decompressor = &GzipDecompressor{}
	}
	if opts.Differ == nil {
		opts.Differ = &Differ{Key: KeyOwner}
	}
	if opts.Splitter == nil {
		opts.Splitter = LineSplitter{}
	}
	return &Maintainer{opts: opts}, nil
}

// Unzip rotates and decompresses every archive in the directory
func (m *Maintainer) Unzip(ctx context.Context) (Report, error) {
	archives, err := m.selectFiles(func(name string) bool {
		return strings.HasSuffix(name, ArchiveExt)
	})
	if err != nil {
		return Report{}, err
	}
	return m.each(ctx, archives, func(ctx context.Context, archive string) error {
		gologger.Info().Msgf("Unzipping %v", archive)
		_, err := Rotate(ctx, m.opts.Decompressor, archive)
		return err
	})
}

// Diff writes the incremental listing of every current snapshot
func (m *Maintainer) Diff(ctx context.Context) (Report, error) {
	currents, err := m.selectFiles(func(name string) bool {
		return strings.HasSuffix(name, CurrentExt)
	})
	if err != nil {
		return Report{}, err
	}
	return m.each(ctx, currents, func(ctx context.Context, current string) error {
		previous := PreviousPath(current)
		if fileutil.FileExists(previous) {
			gologger.Info().Msgf("Diffing %v against %v", current, previous)
		} else {
			gologger.Info().Msgf("No previous snapshot of %v, treating every record as new", current)
		}
		n, err := DiffFiles(ctx, m.opts.Differ, previous, current, IncrementalPath(current))
		if err != nil {
			return err
		}
		gologger.Verbose().Msgf("%v: %d new records", IncrementalPath(current), n)
		return nil
	})
}

// Split shards the current and incremental listings of large registries
func (m *Maintainer) Split(ctx context.Context) (Report, error) {
	sharded := map[string]struct{}{}
	for _, name := range m.opts.ShardedNames {
		sharded[name] = struct{}{}
	}
	targets, err := m.selectFiles(func(name string) bool {
		if !strings.HasSuffix(name, CurrentExt) && !strings.HasSuffix(name, IncrementalExt) {
			return false
		}
		_, ok := sharded[Registry(name)]
		return ok
	})
	if err != nil {
		return Report{}, err
	}
	return m.each(ctx, targets, func(ctx context.Context, src string) error {
		gologger.Info().Msgf("Splitting %v", src)
		shards, err := m.opts.Splitter.Split(ctx, src, m.opts.ShardLines)
		if err != nil {
			return err
		}
		gologger.Verbose().Msgf("%v: %d shards", src, len(shards))
		return nil
	})
}

// Counts returns the number of current and incremental listings
func (m *Maintainer) Counts() (current, incremental int, err error) {
	names, err := ListDir(m.opts.Directory)
	if err != nil {
		return 0, 0, err
	}
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, CurrentExt):
			current++
		case strings.HasSuffix(name, IncrementalExt):
			incremental++
		}
	}
	return current, incremental, nil
}

func (m *Maintainer) selectFiles(match func(name string) bool) ([]string, error) {
	names, err := ListDir(m.opts.Directory)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, name := range names {
		if match(name) {
			paths = append(paths, filepath.Join(m.opts.Directory, name))
		}
	}
	return paths, nil
}

// each runs fn for every path on a bounded pool. A failing file is logged
// and counted, it never stops the others.
func (m *Maintainer) each(ctx context.Context, paths []string, fn func(context.Context, string) error) (Report, error) {
	var processed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := fn(gctx, path); err != nil {
				failed.Add(1)
				gologger.Error().Msgf("%v: %v", path, err)
				return nil
			}
			processed.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return Report{Processed: processed.Load(), Failed: failed.Load()}, ctx.Err()
}
