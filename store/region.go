package store

import (
	"fmt"
	"strings"

	"github.com/osmdigest/osmdigest"
)

func inPlaceholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?,", n), ",") + ")"
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// WaysTouchingNodes returns every way with at least one node reference
// in nodeIDs, queried in chunks of at most MaxChunkIDs ids, per spec
// §4.6 step 2.
func (s *Store) WaysTouchingNodes(nodeIDs map[int64]bool) ([]osmdigest.Way, error) {
	ids := make([]int64, 0, len(nodeIDs))
	for id := range nodeIDs {
		ids = append(ids, id)
	}

	seen := map[int64]bool{}
	var wayIDs []int64
	for _, chunk := range ChunkIDs(ids) {
		q := fmt.Sprintf(`SELECT DISTINCT osm_id FROM ways WHERE noderef IN %s`, inPlaceholders(len(chunk)))
		rows, err := s.db.Query(q, idArgs(chunk)...)
		if err != nil {
			return nil, &osmdigest.IoError{Op: "query ways touching nodes", Err: err}
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, &osmdigest.IoError{Op: "scan way id", Err: err}
			}
			if !seen[id] {
				seen[id] = true
				wayIDs = append(wayIDs, id)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, &osmdigest.IoError{Op: "query ways touching nodes", Err: err}
		}
	}

	out := make([]osmdigest.Way, 0, len(wayIDs))
	for _, id := range wayIDs {
		w, err := s.Way(id)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// RelationsReferencing returns every relation with at least one member
// whose type/ref pair names a node in nodeIDs or a way in wayIDs, per
// spec §4.6 step 5.
func (s *Store) RelationsReferencing(nodeIDs, wayIDs map[int64]bool) ([]osmdigest.Relation, error) {
	matched := map[int64]bool{}

	match := func(member string, ids map[int64]bool) error {
		idList := make([]int64, 0, len(ids))
		for id := range ids {
			idList = append(idList, id)
		}
		for _, chunk := range ChunkIDs(idList) {
			q := fmt.Sprintf(`SELECT DISTINCT osm_id FROM relations WHERE member = ? AND memberref IN %s`, inPlaceholders(len(chunk)))
			args := append([]any{member}, idArgs(chunk)...)
			rows, err := s.db.Query(q, args...)
			if err != nil {
				return &osmdigest.IoError{Op: "query relations referencing", Err: err}
			}
			for rows.Next() {
				var id int64
				if err := rows.Scan(&id); err != nil {
					rows.Close()
					return &osmdigest.IoError{Op: "scan relation id", Err: err}
				}
				matched[id] = true
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return &osmdigest.IoError{Op: "query relations referencing", Err: err}
			}
		}
		return nil
	}

	if err := match(string(osmdigest.MemberNode), nodeIDs); err != nil {
		return nil, err
	}
	if err := match(string(osmdigest.MemberWay), wayIDs); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
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
