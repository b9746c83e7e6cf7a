/*
Package store implements the normalized relational persistence layer
from spec §4.4: a single embedded SQLite file keyed by OSM id, with
integer-coded (microdegree*10) coordinates, conjunctive tag search,
bounding-box scans, and a transactional one-shot ingestion path.

Backed by modernc.org/sqlite through database/sql directly rather than an
ORM: the dynamic conjunctive predicates and chunked IN (...) queries this
package and package extract need benefit from raw SQL control.
*/
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/osmdigest/osmdigest"
)

// Store owns a single SQLite connection handle exclusively and closes it
// on Close, per spec §3's ownership rule. A Store handle is single-owner;
// concurrent reads are not part of the contract (spec §5).
type Store struct {
	db       *sql.DB
	readOnly bool
	iters    atomic.Int32 // open iterators; Close refuses while > 0
}

// ErrStoreBusy is returned by Close when an iterator obtained from this
// store is still open, per spec §5 ("a store handle in use by an active
// iterator must not be closed").
var ErrStoreBusy = fmt.Errorf("store: close called while an iterator is still open")

// Open opens an existing store file for querying, read-only, per spec
// §4.4/§6 ("Existing files are opened read-only by the query API").
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &osmdigest.IoError{Op: "open store", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &osmdigest.IoError{Op: "open store", Err: err}
	}
	return &Store{db: db, readOnly: true}, nil
}

// create opens (or creates) path for writing and installs the schema.
// Used internally by Convert; not part of the public query API, since
// the convert operation alone creates and writes destination stores
// (spec §5: "the ingestion path opens, writes, and closes its
// destination exclusively").
func create(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &osmdigest.IoError{Op: "create store", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &osmdigest.IoError{Op: "create store", Err: err}
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection. Fails with ErrStoreBusy if
// any iterator obtained from Nodes/Ways/Relations/NodesInBox/tag-key
// searches is still open.
func (s *Store) Close() error {
	if s.iters.Load() > 0 {
		return ErrStoreBusy
	}
	if err := s.db.Close(); err != nil {
		return &osmdigest.IoError{Op: "close store", Err: err}
	}
	return nil
}

// toGentime translates an ISO-8601 timestamp's T/Z delimiters to a space
// for storage, or "None" for an absent timestamp, per spec §6.
func toGentime(ts string) string {
	if ts == "" {
		return "None"
	}
	ts = strings.Replace(ts, "T", " ", 1)
	ts = strings.TrimSuffix(ts, "Z")
	return ts
}

// fromGentime is the inverse of toGentime.
func fromGentime(s string) string {
	if s == "" || s == "None" {
		return ""
	}
	if len(s) == 19 && s[10] == ' ' {
		return s[:10] + "T" + s[11:] + "Z"
	}
	return s
}

// Osm returns the single header row written by Convert.
func (s *Store) Osm() (osmdigest.Osm, error) {
	var o osmdigest.Osm
	var gentime string
	err := s.db.QueryRow(`SELECT version, generator, gentime FROM osm LIMIT 1`).Scan(&o.Version, &o.Generator, &gentime)
	if err != nil {
		return o, &osmdigest.IoError{Op: "read osm header", Err: err}
	}
	o.Timestamp = fromGentime(gentime)
	return o, nil
}

// Bounds returns the single bounds row, if one was written, and whether
// it is present.
func (s *Store) Bounds() (osmdigest.Bounds, bool, error) {
	var b struct{ minLat, maxLat, minLon, maxLon int32 }
	row := s.db.QueryRow(`SELECT min_lat, max_lat, min_lon, max_lon FROM bounds LIMIT 1`)
	if err := row.Scan(&b.minLat, &b.maxLat, &b.minLon, &b.maxLon); err != nil {
		if err == sql.ErrNoRows {
			return osmdigest.Bounds{}, false, nil
		}
		return osmdigest.Bounds{}, false, &osmdigest.IoError{Op: "read bounds", Err: err}
	}
	return osmdigest.Bounds{
		MinLat: osmdigest.DecodeCoord(b.minLat),
		MaxLat: osmdigest.DecodeCoord(b.maxLat),
		MinLon: osmdigest.DecodeCoord(b.minLon),
		MaxLon: osmdigest.DecodeCoord(b.maxLon),
	}, true, nil
}

// Node looks up a single node by id, including its tags.
func (s *Store) Node(id int64) (osmdigest.Node, error) {
	var n osmdigest.Node
	var lon, lat int32
	err := s.db.QueryRow(`SELECT osm_id, lon, lat FROM nodes WHERE osm_id = ?`, id).Scan(&n.ID, &lon, &lat)
	if err == sql.ErrNoRows {
		return n, &osmdigest.NotFoundError{Kind: "node", ID: id}
	}
	if err != nil {
		return n, &osmdigest.IoError{Op: "read node", Err: err}
	}
	n.Lon, n.Lat = osmdigest.DecodeCoord(lon), osmdigest.DecodeCoord(lat)
	tags, err := s.tagsFor("node_tags", id)
	if err != nil {
		return n, err
	}
	n.Tags = tags
	return n, nil
}

// Way looks up a single way by id, with its ordered node-ref list and tags.
func (s *Store) Way(id int64) (osmdigest.Way, error) {
	var w osmdigest.Way
	w.ID = id

	rows, err := s.db.Query(`SELECT noderef FROM ways WHERE osm_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return w, &osmdigest.IoError{Op: "read way nodes", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var ref int64
		if err := rows.Scan(&ref); err != nil {
			return w, &osmdigest.IoError{Op: "scan way node", Err: err}
		}
		w.Nodes = append(w.Nodes, ref)
	}
	if err := rows.Err(); err != nil {
		return w, &osmdigest.IoError{Op: "read way nodes", Err: err}
	}
	if w.Nodes == nil {
		// Distinguish "way has no nodes" from "way does not exist" via
		// the tags/membership probe below.
		exists, err := s.wayExists(id)
		if err != nil {
			return w, err
		}
		if !exists {
			return w, &osmdigest.NotFoundError{Kind: "way", ID: id}
		}
	}
	tags, err := s.tagsFor("way_tags", id)
	if err != nil {
		return w, err
	}
	w.Tags = tags
	return w, nil
}

func (s *Store) wayExists(id int64) (bool, error) {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM way_tags WHERE osm_id = ? LIMIT 1`, id).Scan(&exists)
	if err == nil {
		return true, nil
	}
	if err != sql.ErrNoRows {
		return false, &osmdigest.IoError{Op: "probe way", Err: err}
	}
	return false, nil
}

// Relation looks up a single relation by id, with its ordered member
// list and tags.
func (s *Store) Relation(id int64) (osmdigest.Relation, error) {
	var r osmdigest.Relation
	r.ID = id

	rows, err := s.db.Query(`SELECT member, memberref, role FROM relations WHERE osm_id = ?`, id)
	if err != nil {
		return r, &osmdigest.IoError{Op: "read relation members", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var member, role string
		var ref int64
		if err := rows.Scan(&member, &ref, &role); err != nil {
			return r, &osmdigest.IoError{Op: "scan relation member", Err: err}
		}
		r.Members = append(r.Members, osmdigest.Member{Type: osmdigest.MemberType(member), Ref: ref, Role: role})
	}
	if err := rows.Err(); err != nil {
		return r, &osmdigest.IoError{Op: "read relation members", Err: err}
	}

	tags, err := s.tagsFor("relation_tags", id)
	if err != nil {
		return r, err
	}
	r.Tags = tags

	if r.Members == nil && len(tags) == 0 {
		return r, &osmdigest.NotFoundError{Kind: "relation", ID: id}
	}
	return r, nil
}

func (s *Store) tagsFor(table string, id int64) (osmdigest.Tags, error) {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT key, value FROM %s WHERE osm_id = ?`, table), id)
	if err != nil {
		return nil, &osmdigest.IoError{Op: "read tags", Err: err}
	}
	defer rows.Close()
	tags := osmdigest.Tags{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, &osmdigest.IoError{Op: "scan tag", Err: err}
		}
		tags[k] = v
	}
	return tags, rows.Err()
}
