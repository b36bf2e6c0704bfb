package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File name conventions of a zone directory. For a registry `com`:
//
//	com.txt.gz        downloaded archive
//	com.txt           current snapshot
//	com.txt.old       previous snapshot
//	com.diff          incremental listing (current - previous)
//	com.txt.splitaaaa shards of a large listing (also com.diff.splitaaaa)
const (
	CurrentExt     = ".txt"
	ArchiveExt     = ".txt.gz"
	PreviousExt    = ".txt.old"
	IncrementalExt = ".diff"
	ShardInfix     = ".split"
	// ShardSuffixLen is the length of the alphabetic shard suffix
	ShardSuffixLen = 4
)

// DefaultShardedNames are registries large enough to be split into shards
var DefaultShardedNames = []string{
	"app", "biz", "club", "com", "dev", "icu", "info", "link", "live", "net", "online",
	"org", "page", "shop", "site", "store", "top", "vip", "wang", "work", "xyz",
}

// DefaultShardLines is the number of lines per shard
const DefaultShardLines = 100000

// Registry returns the registry name of a zone artefact, ex: com.txt.old -> com
func Registry(name string) string {
	base := filepath.Base(name)
	if i := strings.Index(base, ShardInfix); i > 0 {
		base = base[:i]
	}
	for _, ext := range []string{ArchiveExt, PreviousExt, CurrentExt, IncrementalExt} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// PreviousPath returns the previous snapshot path of a current snapshot
func PreviousPath(current string) string {
	return strings.TrimSuffix(current, CurrentExt) + PreviousExt
}

// IncrementalPath returns the incremental listing path of a current snapshot
func IncrementalPath(current string) string {
	return strings.TrimSuffix(current, CurrentExt) + IncrementalExt
}

// CurrentPath returns the current snapshot path of an archive
func CurrentPath(archive string) string {
	return strings.TrimSuffix(archive, ArchiveExt) + CurrentExt
}

// ShardName returns the name of the n-th shard of src (splitaaaa, splitaaab, ...)
func ShardName(src string, n int) (string, error) {
	suffix := make([]byte, ShardSuffixLen)
	for i := ShardSuffixLen - 1; i >= 0; i-- {
		suffix[i] = byte('a' + n%26)
		n /= 26
	}
	if n > 0 {
		return "", fmt.Errorf("too many shards for %v", src)
	}
	return src + ShardInfix + string(suffix), nil
}

// Shards returns the existing shards of src in order
func Shards(src string) ([]string, error) {
	matches, err := filepath.Glob(globEscape(src) + ShardInfix + strings.Repeat("[a-z]", ShardSuffixLen))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// ListDir returns the sorted names of the regular files in dir
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func globEscape(path string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(path)
}
