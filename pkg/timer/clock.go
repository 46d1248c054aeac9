package timer

import "time"

// Clock is a monotonic time source. Now returns the time elapsed since an
// arbitrary fixed origin; only differences between readings are meaningful.
type Clock interface {
	Now() time.Duration
}

// MonotonicClock reads the runtime's monotonic clock.
type MonotonicClock struct {
	origin time.Time
}

// NewMonotonicClock returns a MonotonicClock whose origin is the current instant.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{origin: time.Now()}
}

// Now returns the duration since the clock was created.
func (c *MonotonicClock) Now() time.Duration {
	return time.Since(c.origin)
}
