//go:build rp2040 || rp2350

package main

import (
	"machine"
	"strconv"
	"time"

	"bootrtc/core"
	"bootrtc/prefs"
)

const (
	// Preferences live at the start of the flash data area, after the program
	prefsFlashOffset = 0

	// Maintenance interval for BootClock.Tick
	tickIntervalMicros = 1000000

	// Grace period for the host to open the CDC port before the boot log
	usbSettleDelay = 1500 * time.Millisecond
)

var (
	bootClock *core.BootClock
	console   *core.Console
	lastTick  uint64
	ticks     uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	time.Sleep(usbSettleDelay)

	store := prefs.NewStore(machine.Flash, prefsFlashOffset)

	var clock core.ClockDriver
	if bus := ConfigureRTCBus(); bus != nil {
		clock = NewDS3231Clock(bus, WriteLine)
	} else {
		WriteLine(core.TagRTC + "I2C bus configuration failed")
	}

	bootClock = core.NewBootClock(clock, store, WriteLine)
	bootClock.Initialize()

	console = core.NewConsole()
	core.InitBootClockCommands(console, bootClock)
	registerTargetCommands(console)

	lastTick = UptimeMicros()

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					WriteLine(core.TagConsole + "recovered from panic")
				}
			}()

			if line, ok := PollLine(); ok {
				if reply := console.Dispatch(line); reply != "" {
					WriteLine(reply)
				}
			}

			now := UptimeMicros()
			if now-lastTick >= tickIntervalMicros {
				lastTick = now
				if bootClock.Tick() {
					ticks++
				}
			}
		}()

		// Yield to other goroutines
		time.Sleep(1 * time.Millisecond)
	}
}

// registerTargetCommands adds commands that need chip-specific state
func registerTargetCommands(c *core.Console) {
	c.Register("uptime", "uptime", func(args []string) string {
		return core.OKReply(
			"seconds", strconv.FormatUint(UptimeSeconds(), 10),
			"ticks", strconv.FormatUint(uint64(ticks), 10),
		)
	})

	c.Register("reboot", "reboot", func(args []string) string {
		WriteLine(core.OKReply())
		// Use watchdog reset instead of ARM SYSRESETREQ
		// This is more reliable on RP2040 and handles USB re-enumeration better
		if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1}); err != nil {
			return core.ErrReply(err.Error())
		}
		if err := machine.Watchdog.Start(); err != nil {
			return core.ErrReply(err.Error())
		}
		for {
			time.Sleep(1 * time.Millisecond)
		}
	})
}
