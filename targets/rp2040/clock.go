//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"
)

// Timer register offsets, identical on RP2040 and RP2350.
// timerBase differs per chip and lives in timer_<chip>.go
const (
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word (no latching)
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// UptimeMicros reads the 64-bit microsecond timer, which starts at zero
// on reset. Unlike the RTC it does not survive power loss.
func UptimeMicros() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// UptimeSeconds is UptimeMicros in whole seconds
func UptimeSeconds() uint64 {
	return UptimeMicros() / 1000000
}
