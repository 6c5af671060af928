//go:build linux

package hostrtc

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ReadTime implements core.ClockDriver using RTC_RD_TIME
func (d *DevRTC) ReadTime() (time.Time, error) {
	fd, err := unix.Open(d.Path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return time.Time{}, fmt.Errorf("open %s: %w", d.Path, err)
	}
	defer unix.Close(fd)

	rt, err := unix.IoctlGetRTCTime(fd)
	if err != nil {
		return time.Time{}, fmt.Errorf("read %s: %w", d.Path, err)
	}
	return rtcToTime(rt), nil
}

// SetTime implements core.ClockSetter using RTC_SET_TIME. Needs CAP_SYS_TIME.
func (d *DevRTC) SetTime(t time.Time) error {
	fd, err := unix.Open(d.Path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", d.Path, err)
	}
	defer unix.Close(fd)

	rt := timeToRTC(t)
	if err := unix.IoctlSetRTCTime(fd, &rt); err != nil {
		return fmt.Errorf("set %s: %w", d.Path, err)
	}
	return nil
}

// struct rtc_time: tm_year counts from 1900, tm_mon from 0
func rtcToTime(rt *unix.RTCTime) time.Time {
	return time.Date(
		int(rt.Year)+1900,
		time.Month(rt.Mon+1),
		int(rt.Mday),
		int(rt.Hour),
		int(rt.Min),
		int(rt.Sec),
		0,
		time.UTC,
	)
}

func timeToRTC(t time.Time) unix.RTCTime {
	t = t.UTC()
	return unix.RTCTime{
		Sec:  int32(t.Second()),
		Min:  int32(t.Minute()),
		Hour: int32(t.Hour()),
		Mday: int32(t.Day()),
		Mon:  int32(t.Month()) - 1,
		Year: int32(t.Year()) - 1900,
		Wday: int32(t.Weekday()),
		Yday: int32(t.YearDay()) - 1,
	}
}
