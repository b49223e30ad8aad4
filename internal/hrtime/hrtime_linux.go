//go:build linux

package hrtime

import "golang.org/x/sys/unix"

var rawEpoch = readRaw()

func readRaw() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return -1
	}
	return ts.Nano()
}

// NowNanos returns nanoseconds from CLOCK_MONOTONIC_RAW relative to package
// init, falling back to the ordinary monotonic wall clock if the syscall
// is unavailable (e.g. a restricted seccomp profile).
func NowNanos() int64 {
	if rawEpoch < 0 {
		return fallbackNanos()
	}
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return fallbackNanos()
	}
	return ts.Nano() - rawEpoch
}
