package adapter

import "time"

// Clock defines an interface for time operations to enable testing with a
// fixed time
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the standard time package
type RealClock struct{}

// NewClock creates a new real clock implementation
func NewClock() Clock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// FixedClock is a Clock pinned to a single instant, for tests and
// reproducible runs
type FixedClock struct {
	Time time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.Time
}

func (c *FixedClock) Since(t time.Time) time.Duration {
	return c.Time.Sub(t)
}
