package prefs

import "time"

type stubClock struct {
	epoch int64
}

func (c *stubClock) Detect() bool { return true }

func (c *stubClock) ReadTime() (time.Time, error) {
	return time.Unix(c.epoch, 0).UTC(), nil
}
