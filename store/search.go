package store

import (
	"fmt"
	"iter"
	"sort"

	"github.com/osmdigest/osmdigest"
)

// MaxChunkIDs is the largest number of ids placed in a single
// "IN (...)" query, to avoid SQLite's bound-parameter limit, per spec
// §4.6.
const MaxChunkIDs = 10_240

// ChunkIDs splits ids into slices of at most MaxChunkIDs, for callers
// (package extract) that need to run chunked set queries themselves.
func ChunkIDs(ids []int64) [][]int64 {
	if len(ids) == 0 {
		return nil
	}
	var chunks [][]int64
	for len(ids) > 0 {
		n := MaxChunkIDs
		if n > len(ids) {
			n = len(ids)
		}
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}

// searchTags implements the conjunctive predicate search shared by
// search_{node,way,relation}_tags: seed a candidate id set from one
// (key, value) pair, then re-filter each candidate against the
// remaining predicates, per spec §4.4.
func (s *Store) searchTags(table string, predicate map[string]string) ([]int64, error) {
	if len(predicate) == 0 {
		return nil, osmdigest.ErrEmptyPredicate
	}

	keys := make([]string, 0, len(predicate))
	for k := range predicate {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic seed choice; no cardinality stats available

	seedKey := keys[0]
	rows, err := s.db.Query(fmt.Sprintf(`SELECT DISTINCT osm_id FROM %s WHERE key = ? AND value = ?`, table),
		seedKey, predicate[seedKey])
	if err != nil {
		return nil, &osmdigest.IoError{Op: "search tags seed", Err: err}
	}
	var candidates []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, &osmdigest.IoError{Op: "scan candidate", Err: err}
		}
		candidates = append(candidates, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &osmdigest.IoError{Op: "search tags seed", Err: err}
	}

	rest := keys[1:]
	if len(rest) == 0 {
		return candidates, nil
	}

	var matched []int64
	for _, id := range candidates {
		ok, err := s.matchesAll(table, id, rest, predicate)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

func (s *Store) matchesAll(table string, id int64, keys []string, predicate map[string]string) (bool, error) {
	for _, k := range keys {
		var exists int
		err := s.db.QueryRow(fmt.Sprintf(`SELECT 1 FROM %s WHERE osm_id = ? AND key = ? AND value = ? LIMIT 1`, table),
			id, k, predicate[k]).Scan(&exists)
		if err != nil {
			return false, nil //nolint:nilerr // sql.ErrNoRows means "no match"; any other db error would have surfaced from the seed query already
		}
	}
	return true, nil
}

// searchTagKeys implements search_{…}_tag_keys: a primitive matches iff
// every key in keys appears in its tag map, regardless of value.
func (s *Store) searchTagKeys(table string, keys []string) ([]int64, error) {
	if len(keys) == 0 {
		return nil, osmdigest.ErrEmptyPredicate
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	rows, err := s.db.Query(fmt.Sprintf(`SELECT DISTINCT osm_id FROM %s WHERE key = ?`, table), sorted[0])
	if err != nil {
		return nil, &osmdigest.IoError{Op: "search tag keys seed", Err: err}
	}
	var candidates []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, &osmdigest.IoError{Op: "scan candidate", Err: err}
		}
		candidates = append(candidates, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &osmdigest.IoError{Op: "search tag keys seed", Err: err}
	}

	rest := sorted[1:]
	if len(rest) == 0 {
		return candidates, nil
	}
	var matched []int64
	for _, id := range candidates {
		allPresent := true
		for _, k := range rest {
			var exists int
			err := s.db.QueryRow(fmt.Sprintf(`SELECT 1 FROM %s WHERE osm_id = ? AND key = ? LIMIT 1`, table), id, k).Scan(&exists)
			if err != nil {
				allPresent = false
				break
			}
		}
		if allPresent {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// SearchNodeTags returns every node whose tag map contains every (key,
// value) pair in predicate (spec §4.4, scenario F in spec §8).
func (s *Store) SearchNodeTags(predicate map[string]string) ([]osmdigest.Node, error) {
	ids, err := s.searchTags("node_tags", predicate)
	if err != nil {
		return nil, err
	}
	out := make([]osmdigest.Node, 0, len(ids))
	for _, id := range ids {
		n, err := s.Node(id)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// SearchWayTags returns every way whose tag map contains every (key,
// value) pair in predicate.
func (s *Store) SearchWayTags(predicate map[string]string) ([]osmdigest.Way, error) {
	ids, err := s.searchTags("way_tags", predicate)
	if err != nil {
		return nil, err
	}
	out := make([]osmdigest.Way, 0, len(ids))
	for _, id := range ids {
		w, err := s.Way(id)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// SearchRelationTags returns every relation whose tag map contains every
// (key, value) pair in predicate.
func (s *Store) SearchRelationTags(predicate map[string]string) ([]osmdigest.Relation, error) {
	ids, err := s.searchTags("relation_tags", predicate)
	if err != nil {
		return nil, err
	}
	out := make([]osmdigest.Relation, 0, len(ids))
	for _, id := range ids {
		r, err := s.Relation(id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// SearchNodeTagKeys returns a lazy sequence of every node that carries
// every key in keys, any value.
func (s *Store) SearchNodeTagKeys(keys []string) iter.Seq2[osmdigest.Node, error] {
	return func(yield func(osmdigest.Node, error) bool) {
		release := s.trackIter()
		defer release()

		ids, err := s.searchTagKeys("node_tags", keys)
		if err != nil {
			yield(osmdigest.Node{}, err)
			return
		}
		for _, id := range ids {
			n, err := s.Node(id)
			if !yield(n, err) || err != nil {
				return
			}
		}
	}
}

// SearchWayTagKeys returns a lazy sequence of every way that carries
// every key in keys, any value.
func (s *Store) SearchWayTagKeys(keys []string) iter.Seq2[osmdigest.Way, error] {
	return func(yield func(osmdigest.Way, error) bool) {
		release := s.trackIter()
		defer release()

		ids, err := s.searchTagKeys("way_tags", keys)
		if err != nil {
			yield(osmdigest.Way{}, err)
			return
		}
		for _, id := range ids {
			w, err := s.Way(id)
			if !yield(w, err) || err != nil {
				return
			}
		}
	}
}

// SearchRelationTagKeys returns a lazy sequence of every relation that
// carries every key in keys, any value.
func (s *Store) SearchRelationTagKeys(keys []string) iter.Seq2[osmdigest.Relation, error] {
	return func(yield func(osmdigest.Relation, error) bool) {
		release := s.trackIter()
		defer release()

		ids, err := s.searchTagKeys("relation_tags", keys)
		if err != nil {
			yield(osmdigest.Relation{}, err)
			return
		}
		for _, id := range ids {
			r, err := s.Relation(id)
			if !yield(r, err) || err != nil {
				return
			}
		}
	}
}

