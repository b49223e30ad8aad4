// Package hrtime supplies the nanosecond source [homa.HRClock] scales to
// cycles. NowNanos prefers CLOCK_MONOTONIC_RAW where the platform build
// provides it (see hrtime_linux.go) since it is immune to NTP slewing,
// and falls back to the standard monotonic wall clock elsewhere.
package hrtime

import "time"

var epoch = time.Now()

// fallbackNanos returns nanoseconds elapsed since package init using the
// ordinary monotonic wall clock.
func fallbackNanos() int64 {
	return time.Since(epoch).Nanoseconds()
}
