// Package hostrtc provides core.ClockDriver implementations for running
// the boot clock on a host computer.
package hostrtc

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"bootrtc/core"
)

var (
	_ core.ClockDriver = (*SystemClock)(nil)
	_ core.ClockSetter = (*SystemClock)(nil)
)

// SystemClock serves the host wall clock. It is always present.
// SetTime stores an offset rather than touching the host clock.
type SystemClock struct {
	clock clockwork.Clock

	mu     sync.Mutex
	offset time.Duration
}

// NewSystemClock wraps clock. A nil clock means the real wall clock.
func NewSystemClock(clock clockwork.Clock) *SystemClock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SystemClock{clock: clock}
}

// Detect implements core.ClockDriver
func (s *SystemClock) Detect() bool {
	return true
}

// ReadTime implements core.ClockDriver
func (s *SystemClock) ReadTime() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Now().Add(s.offset).UTC().Truncate(time.Second), nil
}

// SetTime implements core.ClockSetter
func (s *SystemClock) SetTime(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = t.Sub(s.clock.Now())
	return nil
}
