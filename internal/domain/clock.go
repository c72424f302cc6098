package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps snapshots and anchors synthetic seismic tables. Tests freeze it
// with SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the domain time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// now is the current domain time in UTC.
func now() time.Time {
	return clock.Now().UTC()
}
