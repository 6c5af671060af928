package hostrtc

import (
	"errors"

	"bootrtc/core"
)

// DefaultDevice is the first RTC on Linux hosts
const DefaultDevice = "/dev/rtc0"

// ErrUnsupported is returned where the platform has no RTC ioctls
var ErrUnsupported = errors.New("hardware RTC access not supported on this platform")

var (
	_ core.ClockDriver = (*DevRTC)(nil)
	_ core.ClockSetter = (*DevRTC)(nil)
)

// DevRTC reads a kernel RTC character device. The kernel keeps it in UTC
// on most systems.
type DevRTC struct {
	Path string
}

// NewDevRTC returns a driver for path, or DefaultDevice if path is empty
func NewDevRTC(path string) *DevRTC {
	if path == "" {
		path = DefaultDevice
	}
	return &DevRTC{Path: path}
}

// Detect implements core.ClockDriver by attempting one read
func (d *DevRTC) Detect() bool {
	_, err := d.ReadTime()
	return err == nil
}
