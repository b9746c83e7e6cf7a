package xmlstream

import (
	"encoding/xml"
	"errors"
	"sync/atomic"
)

// Resource limits enforced while tokenizing, mirroring the package-level
// tunables used by the teacher's decoder. Defaults are generous for real
// OSM extracts (which nest at most a handful of levels: osm > node > tag)
// while still bounding pathological input.
var (
	maxElementDepth atomic.Int64
	maxElementCount atomic.Int64
	maxTokenLen     atomic.Int64
	maxValueLen     atomic.Int64
)

func init() {
	maxElementDepth.Store(32)
	maxElementCount.Store(1 << 30) // effectively unbounded for bulk extracts
	maxTokenLen.Store(1 << 20)
	maxValueLen.Store(1 << 20)
}

// SetMaxElementDepth caps how deeply elements may nest before decoding
// aborts with ErrLimitExceeded.
func SetMaxElementDepth(n int) { maxElementDepth.Store(int64(n)) }

// SetMaxElementCount caps the total number of start-elements a single
// Stream will tokenize.
func SetMaxElementCount(n int) { maxElementCount.Store(int64(n)) }

// SetMaxTokenLen caps the raw byte length of any single token.
func SetMaxTokenLen(n int) { maxTokenLen.Store(int64(n)) }

// SetMaxValueLen caps the length of any attribute value or character
// data run.
func SetMaxValueLen(n int) { maxValueLen.Store(int64(n)) }

// ErrLimitExceeded is returned (wrapped) when any of the above limits is
// exceeded while tokenizing.
var errLimitExceeded = errors.New("xml resource limit exceeded")

// ErrLimitExceeded is the exported form of the same sentinel, for callers
// using errors.Is.
var ErrLimitExceeded = errLimitExceeded

// limitTokenReader wraps an xml.Decoder and enforces resource limits
// while streaming raw tokens, exactly as the teacher's limitTokenReader
// does for CoT events: depth, element count, attribute/chardata length,
// and per-token length are all checked as each token is pulled.
type limitTokenReader struct {
	dec   *xml.Decoder
	depth int
	count int
}

func (l *limitTokenReader) Token() (xml.Token, error) {
	off := l.dec.InputOffset()
	tok, err := l.dec.RawToken()
	if err != nil {
		return tok, err
	}
	if l.dec.InputOffset()-off > maxTokenLen.Load() {
		return nil, errLimitExceeded
	}
	switch t := tok.(type) {
	case xml.StartElement:
		l.depth++
		l.count++
		if int64(l.depth) > maxElementDepth.Load() || int64(l.count) > maxElementCount.Load() {
			return nil, errLimitExceeded
		}
		for _, a := range t.Attr {
			if int64(len(a.Value)) > maxValueLen.Load() {
				return nil, errLimitExceeded
			}
		}
	case xml.EndElement:
		if l.depth > 0 {
			l.depth--
		}
	case xml.CharData:
		if int64(len(t)) > maxValueLen.Load() {
			return nil, errLimitExceeded
		}
	}
	return tok, nil
}
