//go:build rp2040 || rp2350

package main

import (
	"time"

	"bootrtc/core"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ds3231"
)

// DS3231Clock implements core.ClockDriver and core.ClockSetter for a
// DS3231 on an I2C bus.
type DS3231Clock struct {
	bus    drivers.I2C
	device ds3231.Device
	log    core.DebugWriter
}

// NewDS3231Clock constructs the driver. Nothing is sent on the bus until Detect.
func NewDS3231Clock(bus drivers.I2C, log core.DebugWriter) *DS3231Clock {
	return &DS3231Clock{
		bus:    bus,
		device: ds3231.New(bus),
		log:    log,
	}
}

// Detect probes the status register. A missing chip NACKs the address.
func (c *DS3231Clock) Detect() bool {
	var status [1]byte
	if err := c.bus.Tx(uint16(c.device.Address), []byte{ds3231.REG_STATUS}, status[:]); err != nil {
		return false
	}
	if !c.device.Configure() {
		return false
	}

	// Oscillator Stop Flag: the chip lost power with a flat backup cell
	if !c.device.IsTimeValid() {
		c.log(core.TagRTC + "oscillator stopped, RTC time is not valid until set")
	}
	if !c.device.IsRunning() {
		if err := c.device.SetRunning(true); err != nil {
			c.log(core.TagRTC + "failed to start oscillator: " + err.Error())
		}
	}
	return true
}

// ReadTime implements core.ClockDriver
func (c *DS3231Clock) ReadTime() (time.Time, error) {
	t, err := c.device.ReadTime()
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// SetTime implements core.ClockSetter. Setting the time clears the
// oscillator stop flag.
func (c *DS3231Clock) SetTime(t time.Time) error {
	return c.device.SetTime(t.UTC())
}
