/*
Package richobj resolves the reference graph a store holds by id into
inlined views, per spec §4.5: a RichWay carries its nodes in full, a
RichRelation carries each member resolved recursively. The store is
always passed explicitly, never held as a field, matching the
teacher's preference for stateless resolver functions over resolver
objects.
*/
package richobj

import (
	"github.com/osmdigest/osmdigest"
)

// Store is the subset of *store.Store the resolver needs, kept narrow
// so tests can supply a fake without pulling in database/sql.
type Store interface {
	Node(id int64) (osmdigest.Node, error)
	Way(id int64) (osmdigest.Way, error)
	Relation(id int64) (osmdigest.Relation, error)
}

// RichWay is a way with every referenced node resolved in order.
type RichWay struct {
	Way   osmdigest.Way
	Nodes []osmdigest.Node
}

// LonLats returns the way's resolved nodes as (lon, lat) pairs, in
// order, for callers that want coordinates without the rest of the
// node record.
func (w RichWay) LonLats() [][2]float64 {
	out := make([][2]float64, len(w.Nodes))
	for i, n := range w.Nodes {
		out[i] = [2]float64{n.Lon, n.Lat}
	}
	return out
}

// Centroid returns the arithmetic mean of the way's resolved node
// coordinates, per spec §4.5.
func (w RichWay) Centroid() (lon, lat float64, err error) {
	if len(w.Nodes) == 0 {
		return 0, 0, osmdigest.ErrUndefinedCentroid
	}
	for _, n := range w.Nodes {
		lon += n.Lon
		lat += n.Lat
	}
	n := float64(len(w.Nodes))
	return lon / n, lat / n, nil
}

// RichMember is a single resolved relation member: exactly one of
// Node, Way, or Relation is set, matching the member's declared type.
type RichMember struct {
	Type     osmdigest.MemberType
	Role     string
	Node     *osmdigest.Node
	Way      *RichWay
	Relation *RichRelation
}

// RichRelation is a relation with every member resolved recursively.
type RichRelation struct {
	Relation osmdigest.Relation
	Members  []RichMember
}

// Centroid returns the mean of the centroids of the relation's
// members: a node member contributes its own coordinates directly; a
// way or relation member contributes its own centroid, per spec §4.5.
func (r RichRelation) Centroid() (lon, lat float64, err error) {
	var n float64
	for _, m := range r.Members {
		switch {
		case m.Node != nil:
			lon += m.Node.Lon
			lat += m.Node.Lat
			n++
		case m.Way != nil:
			wlon, wlat, werr := m.Way.Centroid()
			if werr != nil {
				continue // an empty-node way contributes nothing
			}
			lon += wlon
			lat += wlat
			n++
		case m.Relation != nil:
			rlon, rlat, rerr := m.Relation.Centroid()
			if rerr != nil {
				continue
			}
			lon += rlon
			lat += rlat
			n++
		}
	}
	if n == 0 {
		return 0, 0, osmdigest.ErrUndefinedCentroid
	}
	return lon / n, lat / n, nil
}

// ResolveWay builds a RichWay from way, looking up each referenced node
// in store. A lookup miss returns the store's error unchanged (a
// NotFoundError from *store.Store); an id mismatch raises
// InconsistentReferenceError.
func ResolveWay(s Store, way osmdigest.Way) (RichWay, error) {
	nodes := make([]osmdigest.Node, 0, len(way.Nodes))
	for _, ref := range way.Nodes {
		n, err := s.Node(ref)
		if err != nil {
			return RichWay{}, err
		}
		if n.ID != ref {
			return RichWay{}, &osmdigest.InconsistentReferenceError{
				Kind: "way", WantID: ref, GotID: n.ID,
				WantType: osmdigest.MemberNode, GotType: osmdigest.MemberNode,
			}
		}
		nodes = append(nodes, n)
	}
	return RichWay{Way: way, Nodes: nodes}, nil
}

// ResolveRelation builds a RichRelation from relation, resolving each
// member recursively. active carries the set of relation ids currently
// being resolved up the call stack, so a relation that transitively
// contains itself is caught as CyclicRelationError instead of
// recursing forever (spec §4.5's cycle policy). Pass a nil or empty map
// on the initial call.
func ResolveRelation(s Store, relation osmdigest.Relation, active map[int64]bool) (RichRelation, error) {
	if active == nil {
		active = map[int64]bool{}
	}
	if active[relation.ID] {
		return RichRelation{}, &osmdigest.CyclicRelationError{ID: relation.ID}
	}
	active[relation.ID] = true
	defer delete(active, relation.ID)

	members := make([]RichMember, 0, len(relation.Members))
	for _, m := range relation.Members {
		rm := RichMember{Type: m.Type, Role: m.Role}
		switch m.Type {
		case osmdigest.MemberNode:
			n, err := s.Node(m.Ref)
			if err != nil {
				return RichRelation{}, err
			}
			if n.ID != m.Ref {
				return RichRelation{}, &osmdigest.InconsistentReferenceError{
					Kind: "relation", WantID: m.Ref, GotID: n.ID,
					WantType: osmdigest.MemberNode, GotType: osmdigest.MemberNode,
				}
			}
			rm.Node = &n
		case osmdigest.MemberWay:
			w, err := s.Way(m.Ref)
			if err != nil {
				return RichRelation{}, err
			}
			if w.ID != m.Ref {
				return RichRelation{}, &osmdigest.InconsistentReferenceError{
					Kind: "relation", WantID: m.Ref, GotID: w.ID,
					WantType: osmdigest.MemberWay, GotType: osmdigest.MemberWay,
				}
			}
			rw, err := ResolveWay(s, w)
			if err != nil {
				return RichRelation{}, err
			}
			rm.Way = &rw
		case osmdigest.MemberRelation:
			r, err := s.Relation(m.Ref)
			if err != nil {
				return RichRelation{}, err
			}
			if r.ID != m.Ref {
				return RichRelation{}, &osmdigest.InconsistentReferenceError{
					Kind: "relation", WantID: m.Ref, GotID: r.ID,
					WantType: osmdigest.MemberRelation, GotType: osmdigest.MemberRelation,
				}
			}
			rr, err := ResolveRelation(s, r, active)
			if err != nil {
				return RichRelation{}, err
			}
			rm.Relation = &rr
		}
		members = append(members, rm)
	}
	return RichRelation{Relation: relation, Members: members}, nil
}
