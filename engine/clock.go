package engine

import "time"

// Clock is the monotonic timebase shared by the scheduler and the output
// backend. Now returns seconds. Wall-clock time (time.Now as a date) is never
// used for cursor math: system clock adjustments must not shift the cursor.
type Clock interface {
	Now() float64
}

// SystemClock reads the process monotonic clock, in seconds since construction.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock starting at zero
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns seconds elapsed since the clock was created
func (c *SystemClock) Now() float64 {
	return time.Since(c.start).Seconds()
}
