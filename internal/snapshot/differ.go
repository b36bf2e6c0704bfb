package snapshot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/projectdiscovery/utils/errkit"
	errorutil "github.com/projectdiscovery/utils/errors"
	fileutil "github.com/projectdiscovery/utils/file"
)

var ErrUnsorted = errkit.New("snapshot is not sorted")

// Key selects what two records are compared on
type Key string

const (
	// KeyOwner compares the owner name (first field) only, a delegation
	// is new when its owner name was absent from the previous snapshot
	KeyOwner Key = "owner"
	// KeyRecord compares whole lines, any changed record is new
	KeyRecord Key = "record"
)

// SetDiffer writes the lines of current that are absent from previous.
// A nil previous means there is no previous snapshot.
type SetDiffer interface {
	Diff(ctx context.Context, previous, current io.Reader, w io.Writer) (int64, error)
}

// Differ is a merge based sorted set difference.
// Both inputs must be sorted in byte order (LC_ALL=C sort).
type Differ struct {
	Key Key
}

// NewDiffer returns a differ comparing on key
func NewDiffer(key Key) (*Differ, error) {
	switch key {
	case "":
		key = KeyOwner
	case KeyOwner, KeyRecord:
	default:
		return nil, errorutil.NewWithTag("snapshot", "unknown diff key %q (must be %q or %q)", key, KeyOwner, KeyRecord)
	}
	return &Differ{Key: key}, nil
}

func (d *Differ) key(line string) string {
	if d.Key == KeyRecord {
		return line
	}
	line = strings.TrimLeft(line, " \t")
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i]
	}
	return line
}

// Diff implements SetDiffer
func (d *Differ) Diff(ctx context.Context, previous, current io.Reader, w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cur := newLineReader(ctx, current)

	var written int64
	emit := func(line string) error {
		written++
		_, err := bw.WriteString(line + "\n")
		return err
	}

	if previous == nil {
		for cur.next() {
			if err := emit(cur.line); err != nil {
				return written, err
			}
		}
		if err := cur.err(); err != nil {
			return written, err
		}
		return written, bw.Flush()
	}

	prev := newLineReader(ctx, previous)
	var prevKey, lastPrevKey, lastCurKey string
	prevOK := false
	advance := func() error {
		prevOK = prev.next()
		if !prevOK {
			return prev.err()
		}
		prevKey = d.key(prev.line)
		if prevKey < lastPrevKey {
			return fmt.Errorf("%w: previous line %d %q", ErrUnsorted, prev.n, prev.line)
		}
		lastPrevKey = prevKey
		return nil
	}
	if err := advance(); err != nil {
		return written, err
	}

	for cur.next() {
		key := d.key(cur.line)
		if key < lastCurKey {
			return written, fmt.Errorf("%w: current line %d %q", ErrUnsorted, cur.n, cur.line)
		}
		lastCurKey = key
		for prevOK && prevKey < key {
			if err := advance(); err != nil {
				return written, err
			}
		}
		if prevOK && prevKey == key {
			continue
		}
		if err := emit(cur.line); err != nil {
			return written, err
		}
	}
	if err := cur.err(); err != nil {
		return written, err
	}
	return written, bw.Flush()
}

// DiffFiles writes current - previous into out. A missing previous file
// makes out a full copy of current (first run treats everything as new).
func DiffFiles(ctx context.Context, differ SetDiffer, previous, current, out string) (int64, error) {
	cf, err := os.Open(current)
	if err != nil {
		return 0, errorutil.NewWithErr(err).Msgf("failed to open current snapshot %v", current)
	}
	defer cf.Close()

	var prev io.Reader
	if fileutil.FileExists(previous) {
		pf, err := os.Open(previous)
		if err != nil {
			return 0, errorutil.NewWithErr(err).Msgf("failed to open previous snapshot %v", previous)
		}
		defer pf.Close()
		prev = pf
	}

	tmp := out + ".tmp"
	of, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	n, err := differ.Diff(ctx, prev, cf, of)
	if cerr := of.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return n, err
	}
	return n, os.Rename(tmp, out)
}

// lineReader wraps bufio.Scanner, skips blank lines and polls ctx
type lineReader struct {
	ctx     context.Context
	scanner *bufio.Scanner
	line    string
	n       int
	ctxErr  error
}

func newLineReader(ctx context.Context, r io.Reader) *lineReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &lineReader{ctx: ctx, scanner: s}
}

func (l *lineReader) next() bool {
	for l.scanner.Scan() {
		l.n++
		if l.n%4096 == 0 {
			if err := l.ctx.Err(); err != nil {
				l.ctxErr = err
				return false
			}
		}
		line := strings.TrimRight(l.scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		l.line = line
		return true
	}
	return false
}

func (l *lineReader) err() error {
	if l.ctxErr != nil {
		return l.ctxErr
	}
	return l.scanner.Err()
}
