/*
Package extract implements the sub-region extractor from spec §4.6: it
carves a bounding-box subset out of an existing store and pipes it
through a fresh convert operation, reusing package store's chunked id
lookups to stay under SQLite's bound-parameter limit.
*/
package extract

import (
	"context"
	"iter"

	"github.com/osmdigest/osmdigest"
	"github.com/osmdigest/osmdigest/store"
)

// Extract reads src, computes the transitive closure of the box
// described by minLon/maxLon/minLat/maxLat (spec §4.6 steps 1-3), and
// writes the resulting subset to dst via a fresh store.Convert. It
// returns the same lazy progress sequence Convert does.
func Extract(ctx context.Context, src *store.Store, dst string, minLon, maxLon, minLat, maxLat float64) iter.Seq2[osmdigest.Progress, error] {
	return store.Convert(ctx, dst, records(src, minLon, maxLon, minLat, maxLat))
}

// records computes N0, W, N per spec §4.6 and yields the header, every
// node in N, every way in W, and every relation mentioning any id in N
// or W through a node- or way-typed member.
func records(src *store.Store, minLon, maxLon, minLat, maxLat float64) iter.Seq2[osmdigest.Record, error] {
	return func(yield func(osmdigest.Record, error) bool) {
		n0 := map[int64]bool{}
		for n, err := range src.NodesInBox(minLon, maxLon, minLat, maxLat) {
			if err != nil {
				yield(osmdigest.Record{}, err)
				return
			}
			n0[n.ID] = true
		}

		ways, err := src.WaysTouchingNodes(n0)
		if err != nil {
			yield(osmdigest.Record{}, err)
			return
		}

		n := map[int64]bool{}
		for id := range n0 {
			n[id] = true
		}
		wayIDs := make([]int64, 0, len(ways))
		for _, w := range ways {
			wayIDs = append(wayIDs, w.ID)
			for _, ref := range w.Nodes {
				n[ref] = true
			}
		}
		wset := map[int64]bool{}
		for _, id := range wayIDs {
			wset[id] = true
		}

		relations, err := src.RelationsReferencing(n, wset)
		if err != nil {
			yield(osmdigest.Record{}, err)
			return
		}

		hdr, err := src.Osm()
		if err != nil {
			yield(osmdigest.Record{}, err)
			return
		}
		hdr.Generator = hdr.Generator + " / extract"
		if !yield(osmdigest.Record{Element: hdr}, nil) {
			return
		}
		if !yield(osmdigest.Record{Element: osmdigest.Bounds{
			MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon,
		}}, nil) {
			return
		}

		for id := range n {
			node, err := src.Node(id)
			if !yieldElement(yield, node, err) {
				return
			}
		}
		for _, w := range ways {
			if !yieldElement(yield, w, nil) {
				return
			}
		}
		for _, r := range relations {
			if !yieldElement(yield, r, nil) {
				return
			}
		}
	}
}

func yieldElement(yield func(osmdigest.Record, error) bool, e osmdigest.Element, err error) bool {
	if err != nil {
		return yield(osmdigest.Record{}, err)
	}
	return yield(osmdigest.Record{Element: e}, nil)
}

