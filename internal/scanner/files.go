package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/phishingrod/internal/snapshot"
	"github.com/projectdiscovery/utils/errkit"
	fileutil "github.com/projectdiscovery/utils/file"
)

var ErrNoZoneFiles = errkit.New("no zone files found")

// SelectFiles returns the listings of dir to scan, sorted by name.
//
// In incremental mode incremental listings (.diff) are used, falling back to
// the current snapshot when a registry has none. Registries in shardedNames
// that have been split are scanned through their shards only.
func SelectFiles(dir string, incremental bool, shardedNames []string) ([]string, error) {
	if !fileutil.FolderExists(dir) {
		return nil, fmt.Errorf("%w: directory %v does not exist", ErrNoZoneFiles, dir)
	}
	names, err := snapshot.ListDir(dir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: directory %v is empty", ErrNoZoneFiles, dir)
	}

	present := map[string]struct{}{}
	for _, name := range names {
		present[name] = struct{}{}
	}
	sharded := map[string]struct{}{}
	for _, name := range shardedNames {
		sharded[name] = struct{}{}
	}

	// listing returns the unsplit listing name to scan for a current snapshot
	listing := func(current string) string {
		if !incremental {
			return current
		}
		diff := strings.TrimSuffix(current, snapshot.CurrentExt) + snapshot.IncrementalExt
		if _, ok := present[diff]; ok {
			return diff
		}
		gologger.Warning().Msgf("no incremental listing for %v, scanning it in full", current)
		return current
	}

	var selected []string
	for _, name := range names {
		if !strings.HasSuffix(name, snapshot.CurrentExt) {
			continue
		}
		target := listing(name)
		if _, ok := sharded[snapshot.Registry(target)]; ok {
			shards, err := snapshot.Shards(filepath.Join(dir, target))
			if err != nil {
				return nil, err
			}
			if len(shards) > 0 {
				gologger.Verbose().Msgf("%v is split into %d shards, skipping the unsplit listing", target, len(shards))
				selected = append(selected, shards...)
				continue
			}
		}
		selected = append(selected, filepath.Join(dir, target))
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no %v listings in %v", ErrNoZoneFiles, snapshot.CurrentExt, dir)
	}
	return selected, nil
}
