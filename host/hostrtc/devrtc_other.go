//go:build !linux

package hostrtc

import "time"

// ReadTime implements core.ClockDriver
func (d *DevRTC) ReadTime() (time.Time, error) {
	return time.Time{}, ErrUnsupported
}

// SetTime implements core.ClockSetter
func (d *DevRTC) SetTime(t time.Time) error {
	return ErrUnsupported
}
