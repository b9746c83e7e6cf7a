/*
Package index builds the optional in-memory aggregate accelerators from
spec §4.7: a packed sorted node index for O(log n) bisection lookup, a
tag inverted index, and a tag by-id index derived from it. All three
serialize to a gzip-compressed gob blob, the way the teacher's
background-grid snapshots do — and just as explicitly, that blob is not
portable across implementations: it is a cache artifact, not an
interchange format.
*/
package index

import (
	"bytes"
	"encoding/gob"
	"iter"
	"sort"

	"github.com/klauspost/compress/gzip"

	"github.com/osmdigest/osmdigest"
)

// PackedNodes is a sorted-by-id columnar node index: ids[i], lons[i],
// lats[i] describe the same node, at roughly 16 bytes per entry.
type PackedNodes struct {
	IDs  []int64
	Lons []int32
	Lats []int32
}

// BuildPackedNodes scans nodes once and returns them sorted by id.
func BuildPackedNodes(nodes iter.Seq2[osmdigest.Node, error]) (PackedNodes, error) {
	type pair struct {
		id       int64
		lon, lat int32
	}
	var pairs []pair
	for n, err := range nodes {
		if err != nil {
			return PackedNodes{}, err
		}
		pairs = append(pairs, pair{n.ID, osmdigest.EncodeCoord(n.Lon), osmdigest.EncodeCoord(n.Lat)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	pn := PackedNodes{
		IDs:  make([]int64, len(pairs)),
		Lons: make([]int32, len(pairs)),
		Lats: make([]int32, len(pairs)),
	}
	for i, p := range pairs {
		pn.IDs[i] = p.id
		pn.Lons[i] = p.lon
		pn.Lats[i] = p.lat
	}
	return pn, nil
}

// Lookup finds a node by id via binary search over the sorted id array,
// O(log n). ok is false if id is absent.
func (p PackedNodes) Lookup(id int64) (lon, lat float64, ok bool) {
	i := sort.Search(len(p.IDs), func(i int) bool { return p.IDs[i] >= id })
	if i >= len(p.IDs) || p.IDs[i] != id {
		return 0, 0, false
	}
	return osmdigest.DecodeCoord(p.Lons[i]), osmdigest.DecodeCoord(p.Lats[i]), true
}

// Len reports the number of packed nodes.
func (p PackedNodes) Len() int { return len(p.IDs) }

// TagKey identifies one (key, value) pair for the inverted index.
type TagKey struct {
	Key, Value string
}

// TagInverted maps (key, value) to the ids of every primitive of one
// kind carrying that pair.
type TagInverted struct {
	Nodes     map[TagKey][]int64
	Ways      map[TagKey][]int64
	Relations map[TagKey][]int64
}

// BuildTagInverted constructs the three inverted maps in one pass each
// over nodes, ways, and relations.
func BuildTagInverted(nodes iter.Seq2[osmdigest.Node, error], ways iter.Seq2[osmdigest.Way, error], relations iter.Seq2[osmdigest.Relation, error]) (TagInverted, error) {
	ti := TagInverted{
		Nodes:     map[TagKey][]int64{},
		Ways:      map[TagKey][]int64{},
		Relations: map[TagKey][]int64{},
	}
	for n, err := range nodes {
		if err != nil {
			return TagInverted{}, err
		}
		for k, v := range n.Tags {
			tk := TagKey{k, v}
			ti.Nodes[tk] = append(ti.Nodes[tk], n.ID)
		}
	}
	for w, err := range ways {
		if err != nil {
			return TagInverted{}, err
		}
		for k, v := range w.Tags {
			tk := TagKey{k, v}
			ti.Ways[tk] = append(ti.Ways[tk], w.ID)
		}
	}
	for r, err := range relations {
		if err != nil {
			return TagInverted{}, err
		}
		for k, v := range r.Tags {
			tk := TagKey{k, v}
			ti.Relations[tk] = append(ti.Relations[tk], r.ID)
		}
	}
	return ti, nil
}

// TagByID answers "tags of primitive x" in one lookup, derived from a
// TagInverted by inversion.
type TagByID struct {
	Nodes     map[int64]osmdigest.Tags
	Ways      map[int64]osmdigest.Tags
	Relations map[int64]osmdigest.Tags
}

// BuildTagByID inverts ti into a per-id tag map for each primitive kind.
func BuildTagByID(ti TagInverted) TagByID {
	by := TagByID{
		Nodes:     map[int64]osmdigest.Tags{},
		Ways:      map[int64]osmdigest.Tags{},
		Relations: map[int64]osmdigest.Tags{},
	}
	invert := func(src map[TagKey][]int64, dst map[int64]osmdigest.Tags) {
		for tk, ids := range src {
			for _, id := range ids {
				tags, ok := dst[id]
				if !ok {
					tags = osmdigest.Tags{}
					dst[id] = tags
				}
				tags[tk.Key] = tk.Value
			}
		}
	}
	invert(ti.Nodes, by.Nodes)
	invert(ti.Ways, by.Ways)
	invert(ti.Relations, by.Relations)
	return by
}

// snapshot is the on-disk shape for gob encoding; unexported so callers
// can only reach it through Save/Load, never construct a partial one.
type snapshot struct {
	Nodes     PackedNodes
	Inverted  TagInverted
	Generator string
}

// Save serializes nodes and inverted into a gzip-compressed gob blob.
// The format is an internal cache artifact, not meant to be read by any
// other implementation (spec §9).
func Save(w *bytes.Buffer, nodes PackedNodes, inverted TagInverted) error {
	gz := gzip.NewWriter(w)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(snapshot{Nodes: nodes, Inverted: inverted, Generator: "osmdigest"}); err != nil {
		gz.Close()
		return &osmdigest.IoError{Op: "encode index snapshot", Err: err}
	}
	if err := gz.Close(); err != nil {
		return &osmdigest.IoError{Op: "flush index snapshot", Err: err}
	}
	return nil
}

// Load decodes a blob written by Save.
func Load(r *bytes.Reader) (PackedNodes, TagInverted, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return PackedNodes{}, TagInverted{}, &osmdigest.IoError{Op: "open index snapshot", Err: err}
	}
	defer gz.Close()
	var snap snapshot
	if err := gob.NewDecoder(gz).Decode(&snap); err != nil {
		return PackedNodes{}, TagInverted{}, &osmdigest.IoError{Op: "decode index snapshot", Err: err}
	}
	return snap.Nodes, snap.Inverted, nil
}
