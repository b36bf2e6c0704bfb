package phishingrod

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"
)

// SortedWriter buffers newline separated values and, on Close, writes them
// to the underlying writer deduplicated and sorted, one per line.
// It is not safe for concurrent use.
type SortedWriter struct {
	writer io.Writer
	dedupe *Dedupe
	buffer []byte
	closed bool
	count  int
}

// NewSortedWriter creates a SortedWriter, byteLen is the expected input
// size and selects the dedupe backend
func NewSortedWriter(w io.Writer, byteLen int) (*SortedWriter, error) {
	if w == nil {
		return nil, errorutil.NewWithTag("sink", "writer destination cannot be nil")
	}
	d, err := NewDedupe(byteLen)
	if err != nil {
		return nil, err
	}
	return &SortedWriter{writer: w, dedupe: d}, nil
}

// Write implements io.Writer interface
func (sw *SortedWriter) Write(p []byte) (int, error) {
	if sw.closed {
		return 0, io.ErrClosedPipe
	}
	sw.buffer = append(sw.buffer, p...)
	for {
		idx := bytes.IndexByte(sw.buffer, '\n')
		if idx == -1 {
			break
		}
		if err := sw.add(string(sw.buffer[:idx])); err != nil {
			return 0, err
		}
		sw.buffer = sw.buffer[idx+1:]
	}
	return len(p), nil
}

// WriteString adds a single value
func (sw *SortedWriter) WriteString(value string) error {
	if sw.closed {
		return io.ErrClosedPipe
	}
	return sw.add(value)
}

func (sw *SortedWriter) add(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return sw.dedupe.Add(value)
}

// Close flushes buffered data and writes the sorted unique values
func (sw *SortedWriter) Close() error {
	if sw.closed {
		return nil
	}
	if len(sw.buffer) > 0 {
		if err := sw.add(string(sw.buffer)); err != nil {
			return err
		}
		sw.buffer = nil
	}
	sw.closed = true

	values, err := sw.dedupe.Sorted()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(sw.writer)
	for _, v := range values {
		if _, err := bw.WriteString(v + "\n"); err != nil {
			return err
		}
	}
	sw.count = len(values)
	return bw.Flush()
}

// Count returns the number of unique values written, valid after Close
func (sw *SortedWriter) Count() int {
	return sw.count
}

// WriteResults overwrites path with the unique candidates in ascending
// order, one per line. It returns the number of lines written.
func WriteResults(path string, candidates []string) (int, error) {
	byteLen := 0
	for _, c := range candidates {
		byteLen += len(c) + 1
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, errorutil.NewWithErr(err).Msgf("failed to open output file %v", path)
	}
	defer f.Close()

	sw, err := NewSortedWriter(f, byteLen)
	if err != nil {
		return 0, err
	}
	for _, c := range candidates {
		if err := sw.WriteString(c); err != nil {
			return 0, err
		}
	}
	if err := sw.Close(); err != nil {
		return 0, errorutil.NewWithErr(err).Msgf("failed to write output file %v", path)
	}
	if err := f.Sync(); err != nil {
		gologger.Warning().Msgf("failed to sync %v: %v", path, err)
	}
	return sw.Count(), nil
}
