package cache

import "time"

// State is the freshness of a cache read.
type State int

const (
	// Miss means no usable entry: absent, expired, or corrupt.
	Miss State = iota
	// Stale means the entry is usable but past half its TTL.
	Stale
	// Fresh means the entry is within the first half of its TTL.
	Fresh
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

// ShouldRefresh reports whether the caller should fetch new data.
func (s State) ShouldRefresh() bool {
	return s != Fresh
}

// Usable reports whether the read produced a value.
func (s State) Usable() bool {
	return s != Miss
}

// classify ages an entry. Fresh covers age <= ttl/2, stale covers
// ttl/2 < age <= ttl; anything older is expired.
func classify(created time.Time, ttl time.Duration, now time.Time) (State, bool) {
	age := now.Sub(created)
	switch {
	case age > ttl:
		return Miss, true
	case age > ttl/2:
		return Stale, false
	default:
		return Fresh, false
	}
}
