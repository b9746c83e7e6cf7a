package validator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osmdigest/osmdigest"
	"github.com/osmdigest/osmdigest/validator"
)

func collect(t *testing.T, doc string, opt ...validator.Option) ([]osmdigest.Element, error) {
	t.Helper()
	var out []osmdigest.Element
	for rec, err := range validator.Records(strings.NewReader(doc), opt...) {
		if err != nil {
			return out, err
		}
		out = append(out, rec.Element)
	}
	return out, nil
}

// Scenario A from spec §8: single node with one tag.
func TestScenarioA_SingleNode(t *testing.T) {
	const doc = `<osm version="0.6" generator="t">
  <bounds minlat="0" minlon="0" maxlat="1" maxlon="1"/>
  <node id="1" lat="54.0901746" lon="12.2482632"
        version="1" changeset="1" timestamp="2008-09-21T21:37:45Z">
    <tag k="name" v="bob"/>
  </node>
</osm>`
	elems, err := collect(t, doc)
	require.NoError(t, err)
	require.Len(t, elems, 3)

	osm, ok := elems[0].(osmdigest.Osm)
	require.True(t, ok)
	require.Equal(t, "0.6", osm.Version)

	b, ok := elems[1].(osmdigest.Bounds)
	require.True(t, ok)
	require.Equal(t, 1.0, b.MaxLat)

	n, ok := elems[2].(osmdigest.Node)
	require.True(t, ok)
	require.Equal(t, int64(1), n.ID)
	require.InDelta(t, 54.0901746, n.Lat, 1e-9)
	require.InDelta(t, 12.2482632, n.Lon, 1e-9)
	require.Equal(t, "bob", n.Tags["name"])
	require.Equal(t, int32(1), n.Meta.Version)
	require.Equal(t, int64(1), n.Meta.Changeset)
}

// Scenario B from spec §8: way with three nodes.
func TestScenarioB_Way(t *testing.T) {
	const doc = `<osm version="0.6"><way id="26659127">
<nd ref="292403538"/><nd ref="298884289"/><nd ref="261728686"/>
<tag k="highway" v="unclassified"/>
<tag k="name" v="Pastower Stra&#223;e"/></way></osm>`
	elems, err := collect(t, doc)
	require.NoError(t, err)
	require.Len(t, elems, 2)

	w := elems[1].(osmdigest.Way)
	require.Equal(t, []int64{292403538, 298884289, 261728686}, w.Nodes)
	require.Equal(t, "unclassified", w.Tags["highway"])
}

// Scenario C from spec §8: relation with mixed members.
func TestScenarioC_Relation(t *testing.T) {
	const doc = `<osm version="0.6"><relation id="56688">
<member type="node" ref="294942404" role=""/>
<member type="way" ref="4579143" role=""/>
<tag k="route" v="bus"/></relation></osm>`
	elems, err := collect(t, doc)
	require.NoError(t, err)
	rel := elems[1].(osmdigest.Relation)
	require.Len(t, rel.Members, 2)
	require.Equal(t, osmdigest.MemberNode, rel.Members[0].Type)
	require.Equal(t, osmdigest.MemberWay, rel.Members[1].Type)
	require.Equal(t, "bus", rel.Tags["route"])
}

func TestTopLevelExpected(t *testing.T) {
	_, err := collect(t, `<node id="1" lat="0" lon="0"/>`)
	require.ErrorIs(t, err, osmdigest.ErrTopLevelExpected)
}

func TestUnexpectedChild(t *testing.T) {
	_, err := collect(t, `<osm><node id="1" lat="0" lon="0"><nd ref="1"/></node></osm>`)
	var uc *osmdigest.UnexpectedChildError
	require.ErrorAs(t, err, &uc)
	require.Equal(t, "node", uc.Parent)
	require.Equal(t, "nd", uc.Name)
}

func TestUnknownAttribute(t *testing.T) {
	_, err := collect(t, `<osm><node id="1" lat="0" lon="0" bogus="x"/></osm>`)
	var ua *osmdigest.UnknownAttributeError
	require.ErrorAs(t, err, &ua)
	require.Equal(t, "bogus", ua.Name)
}

func TestBadAttribute(t *testing.T) {
	_, err := collect(t, `<osm><node id="notanumber" lat="0" lon="0"/></osm>`)
	var ba *osmdigest.BadAttributeError
	require.ErrorAs(t, err, &ba)
	require.Equal(t, "id", ba.Name)
}

func TestUnexpectedText(t *testing.T) {
	_, err := collect(t, `<osm>stray text<node id="1" lat="0" lon="0"/></osm>`)
	require.ErrorIs(t, err, osmdigest.ErrUnexpectedText)
}

func TestNonVisibleStrictRejects(t *testing.T) {
	_, err := collect(t, `<osm><node id="1" lat="0" lon="0" visible="false"/></osm>`)
	require.ErrorIs(t, err, osmdigest.ErrNonVisibleElement)
}

func TestNonVisibleLenientFiltered(t *testing.T) {
	elems, err := collect(t, `<osm><node id="1" lat="0" lon="0" visible="false"/><node id="2" lat="1" lon="1"/></osm>`,
		validator.WithLenientVisibility())
	require.NoError(t, err)
	require.Len(t, elems, 2) // osm header + the one visible node
	n := elems[1].(osmdigest.Node)
	require.Equal(t, int64(2), n.ID)
}

func TestDuplicateNodeRefsPreservedVerbatim(t *testing.T) {
	elems, err := collect(t, `<osm><way id="1"><nd ref="5"/><nd ref="5"/><nd ref="5"/></way></osm>`)
	require.NoError(t, err)
	w := elems[1].(osmdigest.Way)
	require.Equal(t, []int64{5, 5, 5}, w.Nodes)
}

// Walk (callback) surface must produce identical records to Records.
type collector struct {
	elems []osmdigest.Element
	ended bool
}

func (c *collector) Start(o osmdigest.Osm) error           { c.elems = append(c.elems, o); return nil }
func (c *collector) Bounds(b osmdigest.Bounds) error        { c.elems = append(c.elems, b); return nil }
func (c *collector) Node(n osmdigest.Node) error            { c.elems = append(c.elems, n); return nil }
func (c *collector) Way(w osmdigest.Way) error              { c.elems = append(c.elems, w); return nil }
func (c *collector) Relation(r osmdigest.Relation) error    { c.elems = append(c.elems, r); return nil }
func (c *collector) End() error                             { c.ended = true; return nil }

func TestWalkMatchesRecords(t *testing.T) {
	const doc = `<osm version="0.6"><node id="1" lat="1" lon="2"/><way id="2"><nd ref="1"/></way></osm>`
	want, err := collect(t, doc)
	require.NoError(t, err)

	var c collector
	require.NoError(t, validator.Walk(strings.NewReader(doc), &c))
	require.True(t, c.ended)
	require.Equal(t, want, c.elems)
}
