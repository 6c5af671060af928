package core

import "time"

// Persistent storage layout for the boot marker
const (
	PrefsNamespace = "rtc"
	EpochKey       = "epoch"
)

// placeholderTime is reported whenever the clock cannot be read
var placeholderTime = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// PlaceholderTime returns the fixed time reported without clock hardware.
func PlaceholderTime() time.Time {
	return placeholderTime
}

// BootClock tracks the real-time clock and the time elapsed since the
// previous boot. The previous boot is remembered in Preferences.
//
// BootClock is not safe for concurrent use; the firmware main loop is
// expected to be its only caller.
type BootClock struct {
	clock ClockDriver
	prefs Preferences
	log   DebugWriter

	hardwarePresent   bool
	previousBootEpoch uint64 // 0 when no valid marker was loaded
	bootDelta         Delta
}

// NewBootClock creates a BootClock in the disconnected state.
// Call Initialize to probe the hardware.
func NewBootClock(clock ClockDriver, prefs Preferences, log DebugWriter) *BootClock {
	return &BootClock{
		clock:     clock,
		prefs:     prefs,
		log:       orDiscard(log),
		bootDelta: DeltaUnknown,
	}
}

// Initialize probes the clock, computes the delta against the stored boot
// marker and replaces the marker with the current time.
// Returns false if the clock is absent; the BootClock then stays in
// placeholder mode.
func (b *BootClock) Initialize() bool {
	b.previousBootEpoch = 0
	b.bootDelta = DeltaUnknown

	if b.clock == nil || !b.clock.Detect() {
		b.hardwarePresent = false
		b.log(TagRTC + "RTC not found!")
		return false
	}

	current, err := b.clock.ReadTime()
	if err != nil {
		b.hardwarePresent = false
		b.log(TagRTC + "RTC read failed: " + err.Error())
		return false
	}

	b.hardwarePresent = true
	b.log(TagRTC + "Current RTC Time: " + FormatDateTime(current))

	if b.fetchPrevious() {
		b.bootDelta = deltaBetween(current.Unix(), b.previousBootEpoch)
		b.log(TagRTC + "Last boot delta: " + b.bootDelta.String() + " seconds")
	} else {
		b.log(TagRTC + "No valid previous boot time found.")
	}

	b.savePrevious()

	return true
}

// IsConnected reports whether Initialize found the clock
func (b *BootClock) IsConnected() bool {
	return b.hardwarePresent
}

// Now returns the current clock time, or the 1970-01-01 placeholder when
// the clock is absent or unreadable.
func (b *BootClock) Now() time.Time {
	if !b.hardwarePresent {
		return placeholderTime
	}
	t, err := b.clock.ReadTime()
	if err != nil {
		b.log(TagRTC + "RTC read failed: " + err.Error())
		return placeholderTime
	}
	return t
}

// FormatNow renders Now as "YYYY-MM-DD HH:MM:SS"
func (b *BootClock) FormatNow() string {
	return FormatDateTime(b.Now())
}

// PrintNow writes FormatNow to the diagnostic sink
func (b *BootClock) PrintNow() {
	b.log(b.FormatNow())
}

// BootDelta returns the delta computed by the last Initialize
func (b *BootClock) BootDelta() Delta {
	return b.bootDelta
}

// PreviousBoot returns the boot marker loaded by Initialize, 0 if none
func (b *BootClock) PreviousBoot() uint64 {
	return b.previousBootEpoch
}

// RecomputeDelta measures the time since the previous boot against a
// fresh clock read. Unlike BootDelta it grows while the device runs.
func (b *BootClock) RecomputeDelta() Delta {
	if !b.hardwarePresent {
		return DeltaUnknown
	}
	if b.previousBootEpoch == 0 {
		b.log(TagRTC + "delta - Previous boot time is invalid!")
		return DeltaUnknown
	}
	t, err := b.clock.ReadTime()
	if err != nil {
		b.log(TagRTC + "RTC read failed: " + err.Error())
		return DeltaUnknown
	}
	return deltaBetween(t.Unix(), b.previousBootEpoch)
}

// Tick is the periodic maintenance hook. It does nothing yet beyond
// reporting whether the clock is usable.
func (b *BootClock) Tick() bool {
	return b.hardwarePresent
}

// SetTime writes t to the clock peripheral.
// The stored boot marker is left alone, so the next delta spans the jump.
func (b *BootClock) SetTime(t time.Time) error {
	if !b.hardwarePresent {
		return ErrClockAbsent
	}
	setter, ok := b.clock.(ClockSetter)
	if !ok {
		return ErrClockNotSettable
	}
	if err := setter.SetTime(t.UTC()); err != nil {
		return err
	}
	b.log(TagRTC + "RTC time set to " + FormatDateTime(t.UTC()))
	return nil
}

// fetchPrevious loads the stored boot marker.
// Returns false when the marker is missing or zero.
func (b *BootClock) fetchPrevious() bool {
	if b.prefs == nil {
		return false
	}
	ns, err := b.prefs.Open(PrefsNamespace, false)
	if err != nil {
		b.log(TagRTC + "open preferences failed: " + err.Error())
		return false
	}
	defer b.closeNamespace(ns)

	if !ns.HasKey(EpochKey) {
		return false
	}
	epoch := ns.GetUint(EpochKey, 0)
	if epoch == 0 {
		return false
	}

	b.previousBootEpoch = epoch
	b.log(TagRTC + "Previous Boot Time: " + FormatDateTime(epochToTime(epoch)))
	return true
}

// savePrevious stores the current clock time as the boot marker
func (b *BootClock) savePrevious() {
	if !b.hardwarePresent || b.prefs == nil {
		return
	}

	t, err := b.clock.ReadTime()
	if err != nil {
		b.log(TagRTC + "RTC read failed, boot time not saved: " + err.Error())
		return
	}
	epoch := t.Unix()
	if epoch < 0 {
		b.log(TagRTC + "RTC time before 1970, boot time not saved")
		return
	}

	ns, err := b.prefs.Open(PrefsNamespace, false)
	if err != nil {
		b.log(TagRTC + "open preferences failed: " + err.Error())
		return
	}
	if err := ns.PutUint(EpochKey, uint64(epoch)); err != nil {
		b.closeNamespace(ns)
		b.log(TagRTC + "save boot time failed: " + err.Error())
		return
	}
	if err := ns.Close(); err != nil {
		b.log(TagRTC + "save boot time failed: " + err.Error())
		return
	}
	b.log(TagRTC + "Current boot time saved.")
}

func (b *BootClock) closeNamespace(ns Namespace) {
	if err := ns.Close(); err != nil {
		b.log(TagRTC + "close preferences failed: " + err.Error())
	}
}

func epochToTime(epoch uint64) time.Time {
	return time.Unix(int64(epoch), 0).UTC()
}
