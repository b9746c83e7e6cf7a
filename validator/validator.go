/*
Package validator consumes the xmlstream event sequence and enforces the
fixed OSM nesting grammar from spec §4.2:

	osm → (bounds? (node | way | relation)*)
	node → tag*
	way → (nd | tag)*
	relation → (member | tag)*

It coerces typed attributes (ids, versions, timestamps, coordinates) and
emits one typed Record per top-level element: node, way and relation
records when the element closes, the osm header and bounds as soon as
their start tag is read, so they precede the primitives. Two equivalent surfaces are exposed over the same internal
machine, so they can never diverge: Records, a lazy pull sequence, and
Walk, a push callback interface for consumers that prefer it.
*/
package validator

import (
	"io"
	"iter"

	"github.com/osmdigest/osmdigest"
)

// Handler receives one call per record kind, in document order, matching
// the Records sequence one-for-one (spec §6).
type Handler interface {
	Start(osmdigest.Osm) error
	Bounds(osmdigest.Bounds) error
	Node(osmdigest.Node) error
	Way(osmdigest.Way) error
	Relation(osmdigest.Relation) error
	End() error
}

// Records returns a lazy, finite sequence of typed records read from r.
// Iteration stops, with the second yielded value set, on the first
// grammar or coercion error; the sequence never buffers more than one
// element's worth of accumulated state at a time.
func Records(r io.Reader, opt ...Option) iter.Seq2[osmdigest.Record, error] {
	var o options
	for _, f := range opt {
		f(&o)
	}
	return func(yield func(osmdigest.Record, error) bool) {
		m := newMachine(r, o)
		for {
			rec, err, done := m.step()
			if done {
				if err != nil {
					yield(osmdigest.Record{}, err)
				}
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Walk drives h from the records read off r, using the exact same
// machine as Records. Returns the first error encountered; h.End is
// called only after every record has been delivered successfully.
func Walk(r io.Reader, h Handler, opt ...Option) error {
	for rec, err := range Records(r, opt...) {
		if err != nil {
			return err
		}
		switch e := rec.Element.(type) {
		case osmdigest.Osm:
			if err := h.Start(e); err != nil {
				return err
			}
		case osmdigest.Bounds:
			if err := h.Bounds(e); err != nil {
				return err
			}
		case osmdigest.Node:
			if err := h.Node(e); err != nil {
				return err
			}
		case osmdigest.Way:
			if err := h.Way(e); err != nil {
				return err
			}
		case osmdigest.Relation:
			if err := h.Relation(e); err != nil {
				return err
			}
		}
	}
	return h.End()
}
