/*
Package osmdigest provides data structures and utilities for streaming,
persisting, and re-materializing OpenStreetMap (OSM) XML data.

The package covers the core primitive types (Node, Way, Relation, Bounds,
the Osm file header), the coordinate codec that bridges decimal-degree
floats to the fixed-point integers used on disk, and the shared error
taxonomy raised by the validator, store, and rich-resolver subpackages.

Related subpackages:
  - xmlstream: lazy pull-style XML tokenizer with resource limits
  - validator: OSM grammar validation and typed-record construction
  - codec: compression-aware input byte stream detection
  - store: the embedded relational persistence layer (SQLite)
  - richobj: resolves a Way/Relation into a fully inlined object graph
  - extract: bounding-box sub-region extraction between two stores
  - index: compact in-memory aggregate indexes
  - explain: human-readable summaries of primitives, for logging/CLI use

Key goals:
  - High cohesion: each subpackage owns exactly one stage of the pipeline.
  - Low coupling: the rich resolver takes a store as a parameter, never a
    field, so resolved objects outlive the store they were built from.
  - Composition over inheritance: primitive metadata is a shared struct
    embedded by value, not a base class.
  - Streaming first: nothing in the ingestion path retains the full input.
*/
package osmdigest

import (
	"io"
	"log/slog"
)

// Logger is the package-level logger that can be injected by callers.
var Logger *slog.Logger

func init() {
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetLogger allows injection of a configured logger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		Logger = l
	}
}
