//go:build rp2040 || rp2350

package main

import (
	"machine"
)

// RTC bus wiring. I2C0 default pins: SDA=GP4, SCL=GP5
const (
	rtcI2CFrequency = 400 * machine.KHz
	rtcSDAPin       = machine.GP4
	rtcSCLPin       = machine.GP5
)

// ConfigureRTCBus initializes I2C0 for the clock module.
// Returns nil if the bus could not be configured; the BootClock then
// runs without hardware.
func ConfigureRTCBus() *machine.I2C {
	i2c := machine.I2C0
	err := i2c.Configure(machine.I2CConfig{
		Frequency: rtcI2CFrequency,
		SDA:       rtcSDAPin,
		SCL:       rtcSCLPin,
	})
	if err != nil {
		return nil
	}
	return i2c
}
