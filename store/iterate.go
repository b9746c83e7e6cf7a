package store

import (
	"fmt"
	"iter"

	"github.com/osmdigest/osmdigest"
)

// trackIter bumps the open-iterator count for the lifetime of the
// returned release func, so Close can refuse while an iterator is still
// live (spec §5).
func (s *Store) trackIter() (release func()) {
	s.iters.Add(1)
	return func() { s.iters.Add(-1) }
}

// Nodes returns every node in the store. Order is unspecified but stable
// within one iteration, per spec §5.
func (s *Store) Nodes() iter.Seq2[osmdigest.Node, error] {
	return func(yield func(osmdigest.Node, error) bool) {
		release := s.trackIter()
		defer release()

		rows, err := s.db.Query(`SELECT osm_id, lon, lat FROM nodes`)
		if err != nil {
			yield(osmdigest.Node{}, &osmdigest.IoError{Op: "iterate nodes", Err: err})
			return
		}
		defer rows.Close()
		for rows.Next() {
			var n osmdigest.Node
			var lon, lat int32
			if err := rows.Scan(&n.ID, &lon, &lat); err != nil {
				yield(osmdigest.Node{}, &osmdigest.IoError{Op: "scan node", Err: err})
				return
			}
			n.Lon, n.Lat = osmdigest.DecodeCoord(lon), osmdigest.DecodeCoord(lat)
			tags, terr := s.tagsFor("node_tags", n.ID)
			if terr != nil {
				yield(osmdigest.Node{}, terr)
				return
			}
			n.Tags = tags
			if !yield(n, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(osmdigest.Node{}, &osmdigest.IoError{Op: "iterate nodes", Err: err})
		}
	}
}

// Ways returns every way in the store, ordered by primary id ascending
// (spec §5).
func (s *Store) Ways() iter.Seq2[osmdigest.Way, error] {
	return func(yield func(osmdigest.Way, error) bool) {
		release := s.trackIter()
		defer release()

		// A way with no noderefs but tags, or vice versa, still needs an
		// id; union both source tables.
		ids, err := s.distinctIDsFallback("ways", "way_tags")
		if err != nil {
			yield(osmdigest.Way{}, err)
			return
		}
		for _, id := range ids {
			w, werr := s.Way(id)
			if werr != nil {
				yield(osmdigest.Way{}, werr)
				return
			}
			if !yield(w, nil) {
				return
			}
		}
	}
}

// Relations returns every relation in the store, ordered by primary id
// ascending (spec §5).
func (s *Store) Relations() iter.Seq2[osmdigest.Relation, error] {
	return func(yield func(osmdigest.Relation, error) bool) {
		release := s.trackIter()
		defer release()

		ids, err := s.distinctIDsFallback("relations", "relation_tags")
		if err != nil {
			yield(osmdigest.Relation{}, err)
			return
		}
		for _, id := range ids {
			r, rerr := s.Relation(id)
			if rerr != nil {
				yield(osmdigest.Relation{}, rerr)
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

// distinctIDsFallback unions the distinct ids from a primary table
// (which may include untagged primitives) with its tags table, so ways
// and relations with no tags at all are still enumerated.
func (s *Store) distinctIDsFallback(primary, tags string) ([]int64, error) {
	q := fmt.Sprintf(`
		SELECT osm_id FROM %s
		UNION
		SELECT osm_id FROM %s
		ORDER BY osm_id ASC`, primary, tags)
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, &osmdigest.IoError{Op: "list ids", Err: err}
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &osmdigest.IoError{Op: "scan id", Err: err}
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// NodesInBox returns every node whose coordinates fall within the given
// box. Order is unspecified (spec §4.4/§5).
func (s *Store) NodesInBox(minLon, maxLon, minLat, maxLat float64) iter.Seq2[osmdigest.Node, error] {
	return func(yield func(osmdigest.Node, error) bool) {
		release := s.trackIter()
		defer release()

		rows, err := s.db.Query(
			`SELECT osm_id, lon, lat FROM nodes WHERE lon BETWEEN ? AND ? AND lat BETWEEN ? AND ?`,
			osmdigest.EncodeCoord(minLon), osmdigest.EncodeCoord(maxLon),
			osmdigest.EncodeCoord(minLat), osmdigest.EncodeCoord(maxLat),
		)
		if err != nil {
			yield(osmdigest.Node{}, &osmdigest.IoError{Op: "nodes in box", Err: err})
			return
		}
		defer rows.Close()
		for rows.Next() {
			var n osmdigest.Node
			var lon, lat int32
			if err := rows.Scan(&n.ID, &lon, &lat); err != nil {
				yield(osmdigest.Node{}, &osmdigest.IoError{Op: "scan node", Err: err})
				return
			}
			n.Lon, n.Lat = osmdigest.DecodeCoord(lon), osmdigest.DecodeCoord(lat)
			tags, terr := s.tagsFor("node_tags", n.ID)
			if terr != nil {
				yield(osmdigest.Node{}, terr)
				return
			}
			n.Tags = tags
			if !yield(n, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(osmdigest.Node{}, &osmdigest.IoError{Op: "nodes in box", Err: err})
		}
	}
}
