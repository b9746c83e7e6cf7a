package store

import (
	"context"
	"iter"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osmdigest/osmdigest"
	"github.com/osmdigest/osmdigest/validator"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="osmdigest-test">
  <bounds minlat="51.0" minlon="-1.0" maxlat="52.0" maxlon="0.5"/>
  <node id="1" lat="51.5" lon="-0.1" version="1">
    <tag k="amenity" v="cafe"/>
    <tag k="name" v="Roast"/>
  </node>
  <node id="2" lat="51.6" lon="-0.2" version="1">
    <tag k="amenity" v="bench"/>
  </node>
  <way id="10" version="1">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="residential"/>
  </way>
  <relation id="100" version="1">
    <member type="way" ref="10" role="outer"/>
    <member type="node" ref="1" role="label"/>
    <tag k="type" v="multipolygon"/>
  </relation>
</osm>`

func convertSample(t *testing.T, dst string) osmdigest.Progress {
	t.Helper()
	var final osmdigest.Progress
	for p, err := range Convert(context.Background(), dst, validator.Records(strings.NewReader(sampleXML))) {
		require.NoError(t, err)
		final = p
	}
	return final
}

func TestConvertAndQuery(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "sample.osmdigest")
	progress := convertSample(t, dst)
	require.NotEmpty(t, progress.RunID)

	st, err := Open(dst)
	require.NoError(t, err)
	defer st.Close()

	osmHdr, err := st.Osm()
	require.NoError(t, err)
	require.Equal(t, "0.6", osmHdr.Version)
	require.Equal(t, "osmdigest-test", osmHdr.Generator)

	bounds, ok, err := st.Bounds()
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 51.0, bounds.MinLat, 1e-6)
	require.InDelta(t, 0.5, bounds.MaxLon, 1e-6)

	n, err := st.Node(1)
	require.NoError(t, err)
	require.Equal(t, "cafe", n.Tags["amenity"])
	require.InDelta(t, 51.5, n.Lat, 1e-6)

	w, err := st.Way(10)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, w.Nodes)
	require.Equal(t, "residential", w.Tags["highway"])

	r, err := st.Relation(100)
	require.NoError(t, err)
	require.Len(t, r.Members, 2)
	require.Equal(t, osmdigest.MemberWay, r.Members[0].Type)

	_, err = st.Node(999)
	require.Error(t, err)
	var nf *osmdigest.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestScenarioD_IterationAndClose(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "sample.osmdigest")
	convertSample(t, dst)

	st, err := Open(dst)
	require.NoError(t, err)

	var seen []int64
	next, stop := iter.Pull2(st.Nodes())
	defer stop()
	for {
		n, err, ok := next()
		if !ok {
			break
		}
		require.NoError(t, err)
		seen = append(seen, n.ID)
		if len(seen) == 1 {
			// The iterator is suspended mid-sequence, so it is still open.
			require.ErrorIs(t, st.Close(), ErrStoreBusy)
		}
	}
	require.ElementsMatch(t, []int64{1, 2}, seen)

	stop()
	require.NoError(t, st.Close())
}

func TestScenarioF_SearchTags(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "sample.osmdigest")
	convertSample(t, dst)

	st, err := Open(dst)
	require.NoError(t, err)
	defer st.Close()

	nodes, err := st.SearchNodeTags(map[string]string{"amenity": "cafe"})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, int64(1), nodes[0].ID)

	_, err = st.SearchNodeTags(nil)
	require.ErrorIs(t, err, osmdigest.ErrEmptyPredicate)

	ways, err := st.SearchWayTags(map[string]string{"highway": "residential"})
	require.NoError(t, err)
	require.Len(t, ways, 1)
}

func TestNodesInBox(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "sample.osmdigest")
	convertSample(t, dst)

	st, err := Open(dst)
	require.NoError(t, err)
	defer st.Close()

	var ids []int64
	for n, err := range st.NodesInBox(-0.15, -0.05, 51.4, 51.55) {
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	require.Equal(t, []int64{1}, ids)
}
