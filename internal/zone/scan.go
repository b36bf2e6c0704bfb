package zone

import (
	"bufio"
	"context"
	"io"
	"os"

	errorutil "github.com/projectdiscovery/utils/errors"
)

// MaxLineSize bounds a single zone record line
var MaxLineSize = 1024 * 1024

// context is polled every ctxPollRows lines
const ctxPollRows = 4096

// Scan streams r line by line through p and calls fn for every candidate.
// It stops early when ctx is cancelled and returns ctx.Err().
func Scan(ctx context.Context, r io.Reader, p *Parser, fn func(candidate string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	var n int
	for scanner.Scan() {
		n++
		if n%ctxPollRows == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if candidate, ok := p.Parse(scanner.Text()); ok {
			fn(candidate)
		}
	}
	if err := scanner.Err(); err != nil {
		return errorutil.NewWithErr(err).Msgf("failed to read %v", p.Source)
	}
	return ctx.Err()
}

// ScanFile opens p.Source and streams it through p, which then holds the
// row counters of the file
func ScanFile(ctx context.Context, p *Parser, fn func(candidate string)) error {
	f, err := os.Open(p.Source)
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("failed to open zone file %v", p.Source)
	}
	defer f.Close()
	return Scan(ctx, f, p, fn)
}
