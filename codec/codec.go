/*
Package codec implements the "codec bridge" from spec §1/§6: it wraps an
input path or byte stream, detects compression by filename suffix, and
produces a plain byte stream for the XML tokenizer. Compression codec
handling is specified only as an external collaborator; this package is
the concrete, idiomatic choice for that collaborator.
*/
package codec

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Open opens path and transparently decompresses it if the filename ends
// in .gz, .bz2, or .xz; otherwise it is opened raw, per spec §6. The
// returned io.ReadCloser's Close releases the underlying file (and any
// decompressor that owns resources of its own).
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	rc, err := Wrap(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if rc == io.ReadCloser(f) {
		return f, nil
	}
	return &layeredCloser{ReadCloser: rc, under: f}, nil
}

// layeredCloser closes a decompressor and the file it reads from, in
// that order, so neither's Close is skipped when Wrap's own return
// value (a *gzip.Reader, or a NopCloser for bzip2/xz) doesn't reach
// down to the file it was built on.
type layeredCloser struct {
	io.ReadCloser
	under io.Closer
}

func (c *layeredCloser) Close() error {
	err := c.ReadCloser.Close()
	if uerr := c.under.Close(); err == nil {
		err = uerr
	}
	return err
}

// Wrap decorates r with the decompressor matching name's suffix. name is
// used only to detect the suffix; r supplies the bytes. Pass the original
// path (or a filename-shaped hint) even when r is not itself a file.
func Wrap(name string, r io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, nil
	case strings.HasSuffix(name, ".bz2"):
		return io.NopCloser(bzip2.NewReader(r)), nil
	case strings.HasSuffix(name, ".xz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return io.NopCloser(xr), nil
	default:
		if rc, ok := r.(io.ReadCloser); ok {
			return rc, nil
		}
		return io.NopCloser(r), nil
	}
}
