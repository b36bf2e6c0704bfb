package snapshot

import (
	"bufio"
	"context"
	"os"

	errorutil "github.com/projectdiscovery/utils/errors"
)

// Splitter chunks a listing into shards of at most lines lines
type Splitter interface {
	Split(ctx context.Context, src string, lines int) ([]string, error)
}

// LineSplitter writes shards next to src as src.splitaaaa, src.splitaaab, ...
// Shards left over from a previous split are removed first.
type LineSplitter struct{}

// Split implements Splitter
func (LineSplitter) Split(ctx context.Context, src string, lines int) ([]string, error) {
	if lines <= 0 {
		return nil, errorutil.NewWithTag("snapshot", "invalid shard size %d", lines)
	}
	stale, err := Shards(src)
	if err != nil {
		return nil, err
	}
	for _, s := range stale {
		if err := os.Remove(s); err != nil {
			return nil, errorutil.NewWithErr(err).Msgf("failed to remove stale shard %v", s)
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("failed to open %v", src)
	}
	defer in.Close()

	var (
		shards []string
		out    *os.File
		bw     *bufio.Writer
		count  int
	)
	closeShard := func() error {
		if out == nil {
			return nil
		}
		err := bw.Flush()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		out = nil
		return err
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if out == nil || count == lines {
			if err := closeShard(); err != nil {
				return shards, err
			}
			if err := ctx.Err(); err != nil {
				return shards, err
			}
			name, err := ShardName(src, len(shards))
			if err != nil {
				return shards, err
			}
			out, err = os.Create(name)
			if err != nil {
				return shards, err
			}
			bw = bufio.NewWriter(out)
			shards = append(shards, name)
			count = 0
		}
		if _, err := bw.WriteString(scanner.Text() + "\n"); err != nil {
			_ = closeShard()
			return shards, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		_ = closeShard()
		return shards, err
	}
	return shards, closeShard()
}
