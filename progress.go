package osmdigest

import (
	"github.com/dustin/go-humanize"
)

// ProgressInterval is how often (in primitives processed) a Progress
// report is emitted during a convert or extract run, per spec §4.4.
const ProgressInterval = 100_000

// Progress carries the two monotonically non-decreasing counters the
// spec requires: primitives processed and tags processed.
type Progress struct {
	RunID      string
	Primitives int64
	Tags       int64
}

// String renders a human-readable progress line, e.g.
// "1,200,000 primitives, 4,815,162 tags". Kept separate from
// the struct's zero-alloc hot path: only called when actually logged.
func (p Progress) String() string {
	return humanize.Comma(p.Primitives) + " primitives, " + humanize.Comma(p.Tags) + " tags"
}

// shouldReport returns true every ProgressInterval primitives, matching
// the "emitted every 100 000 primitives" cadence in spec §4.4/§6.
func shouldReport(primitives int64) bool {
	return primitives > 0 && primitives%ProgressInterval == 0
}
