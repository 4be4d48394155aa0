package domain

import "time"

// IsFresh reports whether a canonical timestamp is recent enough to alert on.
// Age is compared fractionally, not in whole hours: an item exactly maxAge
// old is still fresh, one a minute older is stale.
//
// Only items that are both newly stored and fresh reach notification, so a
// first run against a deep provider history does not spam every channel.
func IsFresh(ts time.Time, maxAge time.Duration) bool {
	if ts.IsZero() {
		return false
	}
	return clock.Now().Sub(ts) <= maxAge
}
