package core

import "math"

// Delta is a signed count of seconds between two boots.
// A clock set backward yields a negative value.
type Delta int32

// DeltaUnknown marks a delta that could not be determined.
// It matches the INT_MAX marker older firmware reported.
const DeltaUnknown Delta = math.MaxInt32

// Known reports whether d holds a real measurement
func (d Delta) Known() bool {
	return d != DeltaUnknown
}

// Seconds returns the measurement and whether it is known
func (d Delta) Seconds() (int32, bool) {
	if !d.Known() {
		return 0, false
	}
	return int32(d), true
}

// String renders the delta as decimal seconds, or "unknown"
func (d Delta) String() string {
	if !d.Known() {
		return "unknown"
	}
	return itoa(int64(d))
}

// deltaBetween computes current - previous.
// Differences that do not fit a Delta are reported as DeltaUnknown.
func deltaBetween(current int64, previous uint64) Delta {
	if previous > math.MaxInt64 {
		return DeltaUnknown
	}
	diff := current - int64(previous)
	if diff >= int64(DeltaUnknown) || diff < math.MinInt32 {
		return DeltaUnknown
	}
	return Delta(diff)
}
