package richobj

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osmdigest/osmdigest"
)

type fakeStore struct {
	nodes     map[int64]osmdigest.Node
	ways      map[int64]osmdigest.Way
	relations map[int64]osmdigest.Relation
}

func (f fakeStore) Node(id int64) (osmdigest.Node, error) {
	n, ok := f.nodes[id]
	if !ok {
		return n, &osmdigest.NotFoundError{Kind: "node", ID: id}
	}
	return n, nil
}

func (f fakeStore) Way(id int64) (osmdigest.Way, error) {
	w, ok := f.ways[id]
	if !ok {
		return w, &osmdigest.NotFoundError{Kind: "way", ID: id}
	}
	return w, nil
}

func (f fakeStore) Relation(id int64) (osmdigest.Relation, error) {
	r, ok := f.relations[id]
	if !ok {
		return r, &osmdigest.NotFoundError{Kind: "relation", ID: id}
	}
	return r, nil
}

func TestResolveWay(t *testing.T) {
	s := fakeStore{nodes: map[int64]osmdigest.Node{
		1: {ID: 1, Lon: 0, Lat: 0},
		2: {ID: 2, Lon: 2, Lat: 0},
	}}
	way := osmdigest.Way{ID: 10, Nodes: []int64{1, 2}}

	rw, err := ResolveWay(s, way)
	require.NoError(t, err)
	require.Len(t, rw.Nodes, 2)

	lon, lat, err := rw.Centroid()
	require.NoError(t, err)
	require.Equal(t, 1.0, lon)
	require.Equal(t, 0.0, lat)
}

func TestResolveWayMissingNode(t *testing.T) {
	s := fakeStore{nodes: map[int64]osmdigest.Node{1: {ID: 1}}}
	_, err := ResolveWay(s, osmdigest.Way{ID: 10, Nodes: []int64{1, 2}})
	require.Error(t, err)
	var nf *osmdigest.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestResolveRelationCycleDetected(t *testing.T) {
	s := fakeStore{relations: map[int64]osmdigest.Relation{
		1: {ID: 1, Members: []osmdigest.Member{{Type: osmdigest.MemberRelation, Ref: 2}}},
		2: {ID: 2, Members: []osmdigest.Member{{Type: osmdigest.MemberRelation, Ref: 1}}},
	}}
	_, err := ResolveRelation(s, s.relations[1], nil)
	require.Error(t, err)
	var cyc *osmdigest.CyclicRelationError
	require.ErrorAs(t, err, &cyc)
}

func TestResolveRelationCentroid(t *testing.T) {
	s := fakeStore{
		nodes: map[int64]osmdigest.Node{
			1: {ID: 1, Lon: 0, Lat: 0},
			2: {ID: 2, Lon: 4, Lat: 0},
		},
		relations: map[int64]osmdigest.Relation{
			1: {ID: 1, Members: []osmdigest.Member{
				{Type: osmdigest.MemberNode, Ref: 1},
				{Type: osmdigest.MemberNode, Ref: 2},
			}},
		},
	}
	rr, err := ResolveRelation(s, s.relations[1], nil)
	require.NoError(t, err)

	lon, _, err := rr.Centroid()
	require.NoError(t, err)
	require.Equal(t, 2.0, lon)
}

func TestCentroidUndefinedOnEmpty(t *testing.T) {
	rw := RichWay{}
	_, _, err := rw.Centroid()
	require.ErrorIs(t, err, osmdigest.ErrUndefinedCentroid)

	rr := RichRelation{}
	_, _, err = rr.Centroid()
	require.ErrorIs(t, err, osmdigest.ErrUndefinedCentroid)
}
