package validator

import (
	"errors"
	"strconv"
	"time"

	"github.com/osmdigest/osmdigest"
)

// parseInt64 coerces a required 64-bit signed integer attribute
// (id, changeset, uid, ref), per spec §4.2.
func parseInt64(name, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &osmdigest.BadAttributeError{Name: name, Value: value, Err: err}
	}
	return n, nil
}

// parseVersion coerces the 32-bit non-negative "version" attribute on a
// primitive (not the free-form osm-header version).
func parseVersion(value string) (int32, error) {
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil || n < 0 {
		if err == nil {
			err = errNegativeVersion
		}
		return 0, &osmdigest.BadAttributeError{Name: "version", Value: value, Err: err}
	}
	return int32(n), nil
}

var errNegativeVersion = errors.New("version must be non-negative")

// parseFloat coerces lat/lon decimal attributes.
func parseFloat(name, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &osmdigest.BadAttributeError{Name: name, Value: value, Err: err}
	}
	return f, nil
}

// timestampLayout is the ISO-8601 basic form used by OSM: YYYY-MM-DDTHH:MM:SSZ.
const timestampLayout = "2006-01-02T15:04:05Z"

// parseTimestamp validates (but does not convert) a timestamp attribute;
// the typed record stores the original string, per the on-disk
// gentime round-trip rule in spec §6.
func parseTimestamp(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if _, err := time.Parse(timestampLayout, value); err != nil {
		return "", &osmdigest.BadAttributeError{Name: "timestamp", Value: value, Err: err}
	}
	return value, nil
}

// checkVisible enforces the strict validator's visible="true" rule.
// Returns present=false when the attribute is absent (nothing to check).
func checkVisible(attrs map[string]string) (present bool, err error) {
	v, ok := attrs["visible"]
	if !ok {
		return false, nil
	}
	if v != "true" {
		return true, osmdigest.ErrNonVisibleElement
	}
	return true, nil
}
