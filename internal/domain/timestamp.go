package domain

import (
	"strings"
	"time"
)

// wib is the zone BMKG publishes zone-less timestamps in (UTC+7).
// A fixed zone avoids depending on the host tzdata.
var wib = time.FixedZone("WIB", 7*60*60)

// timestampLayouts are the formats BMKG has used across feed iterations,
// tried in order. Zone-less layouts are interpreted as WIB.
var timestampLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339, true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"02 Jan 2006 15:04:05 MST", true},
	{"2006-01-02", false}, // analysis dates occasionally appear bare
}

// NormalizeTimestamp parses a provider timestamp into a zone-qualified time.
// Empty input and unparsable input both return ok=false; the caller skips the
// record rather than guessing.
func NormalizeTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, l := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, raw)
		} else {
			t, err = time.ParseInLocation(l.layout, raw, wib)
		}
		if err == nil {
			return t, true
		}
	}

	// Last resort: some felt-event feeds append " WIB" to an otherwise
	// parseable local timestamp.
	if trimmed, found := strings.CutSuffix(raw, " WIB"); found {
		return NormalizeTimestamp(trimmed)
	}

	return time.Time{}, false
}
