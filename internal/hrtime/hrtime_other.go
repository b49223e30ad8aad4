//go:build !linux

package hrtime

// NowNanos returns nanoseconds elapsed since package init using the
// standard monotonic wall clock.
func NowNanos() int64 {
	return fallbackNanos()
}
