package extract

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osmdigest/osmdigest"
	"github.com/osmdigest/osmdigest/store"
	"github.com/osmdigest/osmdigest/validator"
)

const regionXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="osmdigest-test">
  <node id="1" lat="10.0" lon="10.0" version="1"/>
  <node id="2" lat="10.0" lon="10.1" version="1"/>
  <node id="3" lat="50.0" lon="50.0" version="1"/>
  <way id="10" version="1">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="residential"/>
  </way>
  <way id="20" version="1">
    <nd ref="3"/>
  </way>
  <relation id="100" version="1">
    <member type="way" ref="10" role="outer"/>
  </relation>
  <relation id="200" version="1">
    <member type="way" ref="20" role="outer"/>
  </relation>
</osm>`

func TestExtractBoundingBox(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.osmdigest")
	for _, err := range store.Convert(context.Background(), srcPath, validator.Records(strings.NewReader(regionXML))) {
		require.NoError(t, err)
	}

	src, err := store.Open(srcPath)
	require.NoError(t, err)
	defer src.Close()

	dstPath := filepath.Join(dir, "extract.osmdigest")
	for _, err := range Extract(context.Background(), src, dstPath, 9.5, 10.5, 9.5, 10.5) {
		require.NoError(t, err)
	}

	dst, err := store.Open(dstPath)
	require.NoError(t, err)
	defer dst.Close()

	hdr, err := dst.Osm()
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(hdr.Generator, " / extract"))

	_, err = dst.Node(1)
	require.NoError(t, err)
	_, err = dst.Node(2)
	require.NoError(t, err)
	_, err = dst.Node(3)
	require.Error(t, err)

	_, err = dst.Way(10)
	require.NoError(t, err)
	_, err = dst.Way(20)
	require.Error(t, err)

	_, err = dst.Relation(100)
	require.NoError(t, err)
	_, err = dst.Relation(200)
	require.Error(t, err)
}
