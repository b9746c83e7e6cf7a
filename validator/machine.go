package validator

import (
	"errors"
	"io"

	"github.com/osmdigest/osmdigest"
	"github.com/osmdigest/osmdigest/xmlstream"
)

var errOutOfRange = errors.New("value out of range")

// options configures a single validation run.
type options struct {
	lenientVisibility bool
}

// Option configures Records/Walk.
type Option func(*options)

// WithLenientVisibility makes non-visible primitives (visible="false")
// silently skipped instead of raising ErrNonVisibleElement, matching the
// persistence path's behavior described in spec §4.2/§7 ("the
// persistence path filters these silently"). The default is strict.
func WithLenientVisibility() Option {
	return func(o *options) { o.lenientVisibility = true }
}

// frame accumulates state for one open element while its children are
// read off the stream.
type frame struct {
	name  string
	attrs map[string]string

	tags    osmdigest.Tags
	nodeIDs []int64
	members []osmdigest.Member
}

// machine drives the grammar stack described in spec §4.2. It is the one
// internal implementation shared by both the lazy-sequence (Records) and
// callback (Walk) surfaces, so the two can never diverge.
type machine struct {
	stream *xmlstream.Stream
	opts   options
	stack  []frame
	done   bool
}

func newMachine(r io.Reader, opts options) *machine {
	return &machine{stream: xmlstream.New(r), opts: opts}
}

// allowedChildren enumerates the fixed OSM nesting grammar from spec §4.2.
func allowedChildren(parent string) map[string]bool {
	switch parent {
	case "osm":
		return map[string]bool{"bounds": true, "node": true, "way": true, "relation": true}
	case "node":
		return map[string]bool{"tag": true}
	case "way":
		return map[string]bool{"nd": true, "tag": true}
	case "relation":
		return map[string]bool{"member": true, "tag": true}
	default:
		return nil // bounds, tag, nd, member never have children
	}
}

// knownAttrs enumerates attributes the schema fragment defines for each
// element; anything else is UnknownAttributeError.
func knownAttrs(name string) map[string]bool {
	switch name {
	case "osm":
		return map[string]bool{"version": true, "generator": true, "timestamp": true}
	case "bounds":
		return map[string]bool{"minlat": true, "maxlat": true, "minlon": true, "maxlon": true}
	case "node":
		return map[string]bool{
			"id": true, "lat": true, "lon": true, "version": true, "changeset": true,
			"timestamp": true, "uid": true, "user": true, "visible": true, "action": true,
		}
	case "way", "relation":
		return map[string]bool{
			"id": true, "version": true, "changeset": true, "timestamp": true,
			"uid": true, "user": true, "visible": true, "action": true,
		}
	case "tag":
		return map[string]bool{"k": true, "v": true}
	case "nd":
		return map[string]bool{"ref": true}
	case "member":
		return map[string]bool{"type": true, "ref": true, "role": true}
	default:
		return nil
	}
}

// step advances the machine until it has a complete top-level record to
// emit, the stream ends, or an error occurs. done=true with err=nil means
// the document ended cleanly with no further records.
func (m *machine) step() (rec osmdigest.Record, err error, done bool) {
	if m.done {
		return osmdigest.Record{}, nil, true
	}
	for {
		ev, serr := m.stream.Next()
		if serr != nil {
			m.done = true
			return osmdigest.Record{}, serr, true
		}

		switch ev.Kind {
		case xmlstream.StartDocument:
			continue
		case xmlstream.EndDocument:
			m.done = true
			return osmdigest.Record{}, nil, true

		case xmlstream.StartElement:
			rec, emit, err := m.openElement(ev.Name, ev.Attrs)
			if err != nil {
				m.done = true
				return osmdigest.Record{}, err, true
			}
			if emit {
				return rec, nil, false
			}
			continue

		case xmlstream.Characters:
			if isBlank(ev.Text) {
				continue
			}
			m.done = true
			return osmdigest.Record{}, osmdigest.ErrUnexpectedText, true

		case xmlstream.EndElement:
			rec, emit, err := m.closeElement(ev.Name)
			if err != nil {
				m.done = true
				return osmdigest.Record{}, err, true
			}
			if emit {
				return rec, nil, false
			}
			continue
		}
	}
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return false
		}
	}
	return true
}

// openElement validates and pushes the new frame. For osm and bounds,
// whose records are complete as soon as their attributes are known (they
// carry no data collected from their own children), it also builds and
// emits the record here rather than on close — spec §3 invariant 5 and
// §4.2 require the Osm header (and, for the same reason, Bounds) to
// precede the primitive records it describes, which only holds if they
// are emitted on the start tag rather than the end tag.
func (m *machine) openElement(name string, attrs map[string]string) (osmdigest.Record, bool, error) {
	if len(m.stack) == 0 {
		if name != "osm" {
			return osmdigest.Record{}, false, osmdigest.ErrTopLevelExpected
		}
	} else {
		parent := m.stack[len(m.stack)-1]
		allowed := allowedChildren(parent.name)
		if !allowed[name] {
			return osmdigest.Record{}, false, &osmdigest.UnexpectedChildError{Parent: parent.name, Name: name}
		}
	}

	known := knownAttrs(name)
	for k := range attrs {
		if known != nil && !known[k] {
			return osmdigest.Record{}, false, &osmdigest.UnknownAttributeError{Element: name, Name: k}
		}
	}

	f := frame{name: name, attrs: attrs}
	switch name {
	case "node", "way", "relation":
		f.tags = osmdigest.Tags{}
	}
	m.stack = append(m.stack, f)

	switch name {
	case "osm":
		o, err := buildOsm(attrs)
		if err != nil {
			return osmdigest.Record{}, false, err
		}
		return osmdigest.Record{Element: o}, true, nil
	case "bounds":
		b, err := buildBounds(attrs)
		if err != nil {
			return osmdigest.Record{}, false, err
		}
		return osmdigest.Record{Element: b}, true, nil
	}
	return osmdigest.Record{}, false, nil
}

// closeElement pops the stack; for tag/nd/member it folds into the
// parent frame and emits nothing; for node/way/relation it builds the
// corresponding typed record; for bounds/osm it emits nothing, since
// openElement already emitted their records.
func (m *machine) closeElement(name string) (osmdigest.Record, bool, error) {
	n := len(m.stack)
	f := m.stack[n-1]
	m.stack = m.stack[:n-1]

	switch name {
	case "tag":
		k, v := f.attrs["k"], f.attrs["v"]
		if n >= 2 {
			parent := &m.stack[n-2]
			if parent.tags == nil {
				parent.tags = osmdigest.Tags{}
			}
			parent.tags[k] = v
		}
		return osmdigest.Record{}, false, nil

	case "nd":
		ref, err := parseInt64("ref", f.attrs["ref"])
		if err != nil {
			return osmdigest.Record{}, false, err
		}
		if n >= 2 {
			parent := &m.stack[n-2]
			parent.nodeIDs = append(parent.nodeIDs, ref)
		}
		return osmdigest.Record{}, false, nil

	case "member":
		ref, err := parseInt64("ref", f.attrs["ref"])
		if err != nil {
			return osmdigest.Record{}, false, err
		}
		mt := osmdigest.MemberType(f.attrs["type"])
		if n >= 2 {
			parent := &m.stack[n-2]
			parent.members = append(parent.members, osmdigest.Member{Type: mt, Ref: ref, Role: f.attrs["role"]})
		}
		return osmdigest.Record{}, false, nil

	case "bounds", "osm":
		// already emitted on the start tag, in openElement.
		return osmdigest.Record{}, false, nil

	case "node":
		present, verr := checkVisible(f.attrs)
		if verr != nil {
			if m.opts.lenientVisibility && present {
				return osmdigest.Record{}, false, nil
			}
			return osmdigest.Record{}, false, verr
		}
		nd, err := buildNode(f)
		if err != nil {
			return osmdigest.Record{}, false, err
		}
		return osmdigest.Record{Element: nd}, true, nil

	case "way":
		present, verr := checkVisible(f.attrs)
		if verr != nil {
			if m.opts.lenientVisibility && present {
				return osmdigest.Record{}, false, nil
			}
			return osmdigest.Record{}, false, verr
		}
		w, err := buildWay(f)
		if err != nil {
			return osmdigest.Record{}, false, err
		}
		return osmdigest.Record{Element: w}, true, nil

	case "relation":
		present, verr := checkVisible(f.attrs)
		if verr != nil {
			if m.opts.lenientVisibility && present {
				return osmdigest.Record{}, false, nil
			}
			return osmdigest.Record{}, false, verr
		}
		rel, err := buildRelation(f)
		if err != nil {
			return osmdigest.Record{}, false, err
		}
		return osmdigest.Record{Element: rel}, true, nil
	}

	return osmdigest.Record{}, false, nil
}

func buildMetadata(attrs map[string]string) (osmdigest.Metadata, error) {
	var meta osmdigest.Metadata
	if v, ok := attrs["version"]; ok {
		n, err := parseVersion(v)
		if err != nil {
			return meta, err
		}
		meta.Version = n
	}
	if v, ok := attrs["changeset"]; ok {
		n, err := parseInt64("changeset", v)
		if err != nil {
			return meta, err
		}
		meta.Changeset = n
	}
	if v, ok := attrs["uid"]; ok {
		n, err := parseInt64("uid", v)
		if err != nil {
			return meta, err
		}
		meta.UID = n
	}
	if v, ok := attrs["timestamp"]; ok {
		ts, err := parseTimestamp(v)
		if err != nil {
			return meta, err
		}
		meta.Timestamp = ts
	}
	meta.User = attrs["user"]
	return meta, nil
}

func buildBounds(attrs map[string]string) (osmdigest.Bounds, error) {
	var b osmdigest.Bounds
	var err error
	if b.MinLat, err = parseFloat("minlat", attrs["minlat"]); err != nil {
		return b, err
	}
	if b.MaxLat, err = parseFloat("maxlat", attrs["maxlat"]); err != nil {
		return b, err
	}
	if b.MinLon, err = parseFloat("minlon", attrs["minlon"]); err != nil {
		return b, err
	}
	if b.MaxLon, err = parseFloat("maxlon", attrs["maxlon"]); err != nil {
		return b, err
	}
	return b, nil
}

func buildOsm(attrs map[string]string) (osmdigest.Osm, error) {
	ts, err := parseTimestamp(attrs["timestamp"])
	if err != nil {
		return osmdigest.Osm{}, err
	}
	return osmdigest.Osm{
		Version:   attrs["version"],
		Generator: attrs["generator"],
		Timestamp: ts,
	}, nil
}

func buildNode(f frame) (osmdigest.Node, error) {
	var n osmdigest.Node
	var err error
	if v, ok := f.attrs["id"]; ok {
		if n.ID, err = parseInt64("id", v); err != nil {
			return n, err
		}
	}
	if n.Lat, err = parseFloat("lat", f.attrs["lat"]); err != nil {
		return n, err
	}
	if n.Lon, err = parseFloat("lon", f.attrs["lon"]); err != nil {
		return n, err
	}
	if n.Lat < -90 || n.Lat > 90 {
		return n, &osmdigest.BadAttributeError{Name: "lat", Value: f.attrs["lat"], Err: errOutOfRange}
	}
	if n.Lon < -180 || n.Lon > 180 {
		return n, &osmdigest.BadAttributeError{Name: "lon", Value: f.attrs["lon"], Err: errOutOfRange}
	}
	n.Tags = f.tags
	if n.Meta, err = buildMetadata(f.attrs); err != nil {
		return n, err
	}
	return n, nil
}

func buildWay(f frame) (osmdigest.Way, error) {
	var w osmdigest.Way
	var err error
	if v, ok := f.attrs["id"]; ok {
		if w.ID, err = parseInt64("id", v); err != nil {
			return w, err
		}
	}
	w.Nodes = f.nodeIDs
	w.Tags = f.tags
	if w.Meta, err = buildMetadata(f.attrs); err != nil {
		return w, err
	}
	return w, nil
}

func buildRelation(f frame) (osmdigest.Relation, error) {
	var r osmdigest.Relation
	var err error
	if v, ok := f.attrs["id"]; ok {
		if r.ID, err = parseInt64("id", v); err != nil {
			return r, err
		}
	}
	r.Members = f.members
	r.Tags = f.tags
	if r.Meta, err = buildMetadata(f.attrs); err != nil {
		return r, err
	}
	return r, nil
}
