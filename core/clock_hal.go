package core

import (
	"errors"
	"time"
)

// ClockDriver is the abstract real-time-clock interface that core code uses.
type ClockDriver interface {
	// Detect probes for the clock peripheral.
	// Returns false if nothing answers on the bus.
	Detect() bool

	// ReadTime reads the current wall-clock time from the peripheral.
	// The returned time is UTC with whole-second resolution.
	ReadTime() (time.Time, error)
}

// ClockSetter is implemented by drivers whose time can be written.
type ClockSetter interface {
	SetTime(t time.Time) error
}

// ErrClockNotSettable is returned when the driver has no ClockSetter.
var ErrClockNotSettable = errors.New("clock driver does not support setting time")

// ErrClockAbsent is returned by operations that need the peripheral.
var ErrClockAbsent = errors.New("clock hardware not present")
