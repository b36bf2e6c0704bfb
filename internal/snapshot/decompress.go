package snapshot

import (
	"context"
	"io"
	"os"

	"github.com/klauspost/pgzip"
	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"
	fileutil "github.com/projectdiscovery/utils/file"
)

// Decompressor produces a plain text listing from a compressed archive
type Decompressor interface {
	Decompress(ctx context.Context, src, dst string) error
}

// GzipDecompressor inflates gzip archives with pgzip read-ahead
type GzipDecompressor struct {
	// BlockSize and Blocks tune pgzip read-ahead, zero uses pgzip defaults
	BlockSize int
	Blocks    int
}

// Decompress implements Decompressor. dst is replaced atomically.
func (g *GzipDecompressor) Decompress(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("failed to open archive %v", src)
	}
	defer in.Close()

	var zr *pgzip.Reader
	if g.BlockSize > 0 && g.Blocks > 0 {
		zr, err = pgzip.NewReaderN(in, g.BlockSize, g.Blocks)
	} else {
		zr, err = pgzip.NewReader(in)
	}
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("invalid gzip archive %v", src)
	}
	defer zr.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, &ctxReader{ctx: ctx, r: zr})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return errorutil.NewWithErr(err).Msgf("failed to decompress %v", src)
	}
	return os.Rename(tmp, dst)
}

// Rotate decompresses archive over its current snapshot after moving the
// existing current snapshot to previous. Archives that are not newer than
// their current snapshot were already applied and are skipped.
// It reports whether a rotation happened.
func Rotate(ctx context.Context, d Decompressor, archive string) (bool, error) {
	current := CurrentPath(archive)
	if fileutil.FileExists(current) {
		ai, err := os.Stat(archive)
		if err != nil {
			return false, err
		}
		ci, err := os.Stat(current)
		if err != nil {
			return false, err
		}
		if !ai.ModTime().After(ci.ModTime()) {
			gologger.Verbose().Msgf("%v is not newer than %v, skipping", archive, current)
			return false, nil
		}
		if err := os.Rename(current, PreviousPath(current)); err != nil {
			return false, errorutil.NewWithErr(err).Msgf("failed to rotate %v", current)
		}
	}
	if err := d.Decompress(ctx, archive, current); err != nil {
		return false, err
	}
	return true, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
