package hostrtc

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootrtc/core"
)

func TestSystemClockReadsFakeClock(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2026, 10, 17, 8, 30, 15, 750*int(time.Millisecond), time.UTC))
	clock := NewSystemClock(fake)

	require.True(t, clock.Detect())

	got, err := clock.ReadTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 17, 8, 30, 15, 0, time.UTC), got)

	fake.Advance(90 * time.Second)
	got, err = clock.ReadTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 17, 8, 31, 45, 0, time.UTC), got)
}

func TestSystemClockSetTimeOffsets(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Unix(1_000_000, 0))
	clock := NewSystemClock(fake)

	require.NoError(t, clock.SetTime(time.Unix(1_700_000_000, 0)))
	got, err := clock.ReadTime()
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000), got.Unix())

	fake.Advance(10 * time.Second)
	got, err = clock.ReadTime()
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_010), got.Unix())
}

func TestSystemClockDrivesBootClock(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	prefs := newMapPrefs()

	bc := core.NewBootClock(NewSystemClock(fake), prefs, nil)
	require.True(t, bc.Initialize())
	assert.False(t, bc.BootDelta().Known())

	fake.Advance(500 * time.Second)
	bc = core.NewBootClock(NewSystemClock(fake), prefs, nil)
	require.True(t, bc.Initialize())
	assert.Equal(t, core.Delta(500), bc.BootDelta())
	assert.Equal(t, "1970-01-01 00:25:00", bc.FormatNow())
}

func TestNewSystemClockDefaultsToRealClock(t *testing.T) {
	clock := NewSystemClock(nil)
	got, err := clock.ReadTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), got, 2*time.Second)
}

func TestDevRTCMissingDevice(t *testing.T) {
	rtc := NewDevRTC("/nonexistent/rtc-bootrtc-test")
	assert.False(t, rtc.Detect())

	_, err := rtc.ReadTime()
	require.Error(t, err)

	bc := core.NewBootClock(rtc, newMapPrefs(), nil)
	assert.False(t, bc.Initialize())
	assert.Equal(t, core.PlaceholderTime(), bc.Now())
}

func TestNewDevRTCDefaultPath(t *testing.T) {
	assert.Equal(t, DefaultDevice, NewDevRTC("").Path)
}
