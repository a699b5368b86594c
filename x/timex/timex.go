// Package timex provides the clock abstraction shared by drivers and tests.
package timex

import (
	"sync"
	"time"
)

// Clock is the time source used by drivers that enforce settling delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System is the wall clock.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Manual is a clock that only moves when told to. Sleep advances it
// instead of blocking.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual { return &Manual{now: start} }

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *Manual) Sleep(d time.Duration) {
	if d > 0 {
		m.Advance(d)
	}
}
