package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for document timestamps. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// JST is the publisher's time zone, a fixed UTC+9 offset.
var JST = time.FixedZone("JST", 9*60*60)

// lastUpdateLayout renders document timestamps, e.g. "2020/04/01 09:00".
const lastUpdateLayout = "2006/01/02 15:04"

// Now returns the current time in JST from the package clock.
func Now() time.Time {
	return clock.Now().In(JST)
}
