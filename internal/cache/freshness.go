package cache

import "time"

// FreshnessWindow is the maximum age at which a cached data set is served
// without a mandatory network fetch.
const FreshnessWindow = 24 * time.Hour

// IsFresh reports whether the entry is still within the freshness window.
// An entry without a timestamp is never fresh.
func IsFresh(e Entry, now time.Time) bool {
	if e.Timestamp == 0 {
		return false
	}
	return e.Age(now) <= FreshnessWindow
}
