/*
Package explain renders a short human-readable summary of a primitive's
tags, the way cotlib's cotexplainer decodes a dash-delimited CoT type
string into labelled segments: a handful of well-known keys are mapped
to readable labels, and anything else is listed verbatim.
*/
package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/osmdigest/osmdigest"
)

// wellKnownKeys orders the tag keys this package knows how to label,
// checked before falling back to listing whatever tags remain.
var wellKnownKeys = []string{"amenity", "highway", "building", "natural", "landuse", "shop", "leisure", "name"}

var keyLabels = map[string]string{
	"amenity":  "Amenity",
	"highway":  "Road",
	"building": "Building",
	"natural":  "Natural feature",
	"landuse":  "Land use",
	"shop":     "Shop",
	"leisure":  "Leisure",
	"name":     "Name",
}

// Tags renders a one-line summary of a tag map: one segment per
// well-known key present, in wellKnownKeys order, followed by the
// count of any remaining tags. Returns "(untagged)" for an empty map.
func Tags(tags osmdigest.Tags) string {
	if len(tags) == 0 {
		return "(untagged)"
	}

	var segments []string
	seen := map[string]bool{}
	for _, k := range wellKnownKeys {
		v, ok := tags[k]
		if !ok {
			continue
		}
		seen[k] = true
		segments = append(segments, fmt.Sprintf("%s=%s", keyLabels[k], v))
	}

	var rest []string
	for k := range tags {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	if len(rest) > 0 {
		sort.Strings(rest)
		segments = append(segments, fmt.Sprintf("+%d more (%s)", len(rest), strings.Join(rest, ", ")))
	}
	return strings.Join(segments, ", ")
}

// Node renders a one-line summary of a node: its id, coordinates, and
// tag summary.
func Node(n osmdigest.Node) string {
	return fmt.Sprintf("node %d @ (%.7f, %.7f): %s", n.ID, n.Lon, n.Lat, Tags(n.Tags))
}

// Way renders a one-line summary of a way: its id, node count, and tag
// summary.
func Way(w osmdigest.Way) string {
	return fmt.Sprintf("way %d (%d nodes): %s", w.ID, len(w.Nodes), Tags(w.Tags))
}

// Relation renders a one-line summary of a relation: its id, member
// count, and tag summary.
func Relation(r osmdigest.Relation) string {
	return fmt.Sprintf("relation %d (%d members): %s", r.ID, len(r.Members), Tags(r.Tags))
}

// Element dispatches to the right summary function for e's concrete
// kind.
func Element(e osmdigest.Element) string {
	switch v := e.(type) {
	case osmdigest.Node:
		return Node(v)
	case osmdigest.Way:
		return Way(v)
	case osmdigest.Relation:
		return Relation(v)
	case osmdigest.Bounds:
		return fmt.Sprintf("bounds [%.4f,%.4f] x [%.4f,%.4f]", v.MinLon, v.MaxLon, v.MinLat, v.MaxLat)
	case osmdigest.Osm:
		return fmt.Sprintf("osm version=%s generator=%q", v.Version, v.Generator)
	default:
		return "(unknown element)"
	}
}
