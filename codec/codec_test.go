package codec_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osmdigest/osmdigest/codec"
)

func TestWrapPlain(t *testing.T) {
	rc, err := codec.Wrap("file.osm", strings.NewReader("hello"))
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))
}

func TestWrapGzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte("compressed osm data"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	rc, err := codec.Wrap("file.osm.gz", &buf)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "compressed osm data", string(b))
}
