package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/projectdiscovery/phishingrod/internal/zone"
	"github.com/stretchr/testify/require"
)

func writeZone(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func run(t *testing.T, opts *Options) *Result {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestScanReportsCandidateOnce(t *testing.T) {
	dir := t.TempDir()
	file := writeZone(t, dir, "com.txt",
		"examplesite.com. 3600 IN NS ns1.example.com.",
		"examplesite.com. 3600 IN NS ns2.example.com.",
		"unrelated.com. 3600 IN NS ns1.unrelated.com.",
	)

	var mu sync.Mutex
	var seen []Match
	res := run(t, &Options{
		Files:    []string{file},
		Variants: []string{"3x4mp13", "example", "wwwexample"},
		Accuracy: 90,
		Workers:  2,
		OnMatch: func(m Match) {
			mu.Lock()
			seen = append(seen, m)
			mu.Unlock()
		},
	})

	require.Equal(t, []string{"examplesite.com"}, res.Candidates)
	require.Len(t, res.Matches, 1)
	require.Equal(t, "example", res.Matches[0].Variant)
	require.Equal(t, 100, res.Matches[0].Score)
	require.Equal(t, 4, res.Matches[0].Distance, "example -> examplesite")
	require.Equal(t, file, res.Matches[0].File)
	require.Equal(t, res.Matches, seen)

	require.EqualValues(t, 3, res.Stats.Rows)
	require.EqualValues(t, 2, res.Stats.Candidates)
	require.Equal(t, 1, res.Stats.Matches)
	require.Equal(t, 1, res.Stats.Files)
	require.Zero(t, res.Stats.FailedFiles)
}

func TestScanThresholdIsExclusive(t *testing.T) {
	file := writeZone(t, t.TempDir(), "com.txt", "abxd.com. 3600 in ns ns1.abxd.com.")

	res := run(t, &Options{Files: []string{file}, Variants: []string{"abcd"}, Accuracy: 75})
	require.Empty(t, res.Candidates, "a score equal to the accuracy is not a match")

	res = run(t, &Options{Files: []string{file}, Variants: []string{"abcd"}, Accuracy: 74})
	require.Equal(t, []string{"abxd.com"}, res.Candidates)
	require.Equal(t, 75, res.Matches[0].Score)
}

func TestScanGranularityAgrees(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeZone(t, dir, "com.txt",
			"examplesite.com. 3600 in ns ns1.example.com.",
			"m4il.com. 3600 in ns ns1.m4il.com.",
			"zzz.com. 3600 in ns ns1.zzz.com.",
		),
		writeZone(t, dir, "net.txt",
			"mailbox.net. 3600 in ns ns1.mailbox.net.",
			"wwwexample.net. 3600 in ns ns1.wwwexample.net.",
		),
	}
	variants := []string{"3x4mp13", "example", "m4i1", "mail", "mall", "wwwexample", "wwwmail"}

	perFile := run(t, &Options{Files: files, Variants: variants, Accuracy: 80, Workers: 3, Granularity: PerFile})
	perPair := run(t, &Options{Files: files, Variants: variants, Accuracy: 80, Workers: 3, Granularity: PerPair})

	require.NotEmpty(t, perFile.Candidates)
	require.Equal(t, perFile.Candidates, perPair.Candidates)
	require.Equal(t, perFile.Stats.Rows, perPair.Stats.Rows)
	require.Equal(t, perFile.Stats.Candidates, perPair.Stats.Candidates)
	require.EqualValues(t, 5, perPair.Stats.Rows)
	require.Contains(t, perFile.Candidates, "examplesite.com")
	require.Contains(t, perFile.Candidates, "mailbox.net")
	require.NotContains(t, perFile.Candidates, "zzz.com")
}

func TestScanIsolatesFailedFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeZone(t, dir, "com.txt", "examplesite.com. 3600 in ns ns1.example.com.")
	missing := filepath.Join(dir, "gone.txt")

	res := run(t, &Options{Files: []string{missing, good}, Variants: []string{"example"}, Accuracy: 90, Workers: 2})
	require.Equal(t, []string{"examplesite.com"}, res.Candidates)
	require.Equal(t, 1, res.Stats.FailedFiles)
	require.Equal(t, 1, res.Stats.Files)
	require.EqualValues(t, 1, res.Stats.Rows)
}

func TestScanDropsFileWhenAnyPairFails(t *testing.T) {
	dir := t.TempDir()
	file := writeZone(t, dir, "com.txt", "examplesite.com. 3600 in ns ns1.example.com.")
	other := writeZone(t, dir, "net.txt", "example.net. 3600 in ns ns1.example.net.")

	s, err := New(&Options{
		Files:       []string{file, other},
		Variants:    []string{"example", "examplesite"},
		Accuracy:    90,
		Workers:     1,
		Granularity: PerPair,
	})
	require.NoError(t, err)

	// the second job of com.txt fails after the first one succeeded
	var mu sync.Mutex
	calls := map[string]int{}
	s.scanFile = func(ctx context.Context, p *zone.Parser, fn func(string)) error {
		mu.Lock()
		calls[p.Source]++
		n := calls[p.Source]
		mu.Unlock()
		if p.Source == file && n == 2 {
			return errors.New("read error")
		}
		return zone.ScanFile(ctx, p, fn)
	}

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"example.net"}, res.Candidates)
	require.Equal(t, 1, res.Stats.FailedFiles)
	require.Equal(t, 1, res.Stats.Files)
	require.EqualValues(t, 1, res.Stats.Rows, "rows of the failed file are dropped")
	for _, m := range res.Matches {
		require.Equal(t, other, m.File)
	}
}

func TestScanKeepPublicSuffixes(t *testing.T) {
	file := writeZone(t, t.TempDir(), "uk.txt",
		"co.uk. 3600 in ns ns1.nic.uk.",
		"broken",
	)

	res := run(t, &Options{Files: []string{file}, Variants: []string{"co.uk"}, Accuracy: 90})
	require.Empty(t, res.Candidates)
	require.EqualValues(t, 2, res.Stats.Rows)
	require.EqualValues(t, 1, res.Stats.Skipped)

	res = run(t, &Options{Files: []string{file}, Variants: []string{"co.uk"}, Accuracy: 90, KeepPublicSuffixes: true})
	require.Equal(t, []string{"co.uk"}, res.Candidates)
}

func TestScanCancelled(t *testing.T) {
	file := writeZone(t, t.TempDir(), "com.txt", "examplesite.com. 3600 in ns ns1.example.com.")
	s, err := New(&Options{Files: []string{file}, Variants: []string{"example"}, Accuracy: 90})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewValidation(t *testing.T) {
	_, err := New(&Options{Variants: []string{"a"}, Accuracy: 90})
	require.True(t, errors.Is(err, ErrNoZoneFiles))

	_, err = New(&Options{Files: []string{"x"}, Accuracy: 90})
	require.Error(t, err)

	for _, accuracy := range []int{0, 100} {
		_, err = New(&Options{Files: []string{"x"}, Variants: []string{"a"}, Accuracy: accuracy})
		require.Error(t, err, accuracy)
	}

	_, err = New(&Options{Files: []string{"x"}, Variants: []string{"a"}, Accuracy: 90, Granularity: "row"})
	require.Error(t, err)

	opts := &Options{Files: []string{"x"}, Variants: []string{"a"}, Accuracy: 90}
	_, err = New(opts)
	require.NoError(t, err)
	require.Equal(t, PerFile, opts.Granularity)
	require.Equal(t, 1, opts.Workers)
}

func TestWorkerCount(t *testing.T) {
	require.GreaterOrEqual(t, WorkerCount(0), 1)
	require.Equal(t, 1, WorkerCount(1<<20))
}

func TestSelectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"com.txt", "com.diff", "com.txt.gz", "com.txt.old", "net.txt", "xyz.txt", "xyz.diff"} {
		writeZone(t, dir, name, "a.b. 1 in ns c.")
	}
	// com is split, xyz is not even though it is in the sharded list
	writeZone(t, dir, "com.txt.splitaaaa", "a.b. 1 in ns c.")
	writeZone(t, dir, "com.txt.splitaaab", "a.b. 1 in ns c.")
	writeZone(t, dir, "com.diff.splitaaaa", "a.b. 1 in ns c.")
	sharded := []string{"com", "xyz"}

	t.Run("full", func(t *testing.T) {
		files, err := SelectFiles(dir, false, sharded)
		require.NoError(t, err)
		require.Equal(t, []string{
			filepath.Join(dir, "com.txt.splitaaaa"),
			filepath.Join(dir, "com.txt.splitaaab"),
			filepath.Join(dir, "net.txt"),
			filepath.Join(dir, "xyz.txt"),
		}, files)
	})

	t.Run("incremental", func(t *testing.T) {
		files, err := SelectFiles(dir, true, sharded)
		require.NoError(t, err)
		require.Equal(t, []string{
			filepath.Join(dir, "com.diff.splitaaaa"),
			filepath.Join(dir, "net.txt"),
			filepath.Join(dir, "xyz.diff"),
		}, files)
	})

	t.Run("no sharding", func(t *testing.T) {
		files, err := SelectFiles(dir, false, nil)
		require.NoError(t, err)
		require.Equal(t, []string{
			filepath.Join(dir, "com.txt"),
			filepath.Join(dir, "net.txt"),
			filepath.Join(dir, "xyz.txt"),
		}, files)
	})
}

func TestSelectFilesNoZones(t *testing.T) {
	_, err := SelectFiles(filepath.Join(t.TempDir(), "missing"), false, nil)
	require.ErrorIs(t, err, ErrNoZoneFiles)

	empty := t.TempDir()
	_, err = SelectFiles(empty, false, nil)
	require.ErrorIs(t, err, ErrNoZoneFiles)

	writeZone(t, empty, "com.txt.gz", "not unzipped yet")
	_, err = SelectFiles(empty, false, nil)
	require.ErrorIs(t, err, ErrNoZoneFiles)
}
