package tracker

import "time"

// Clock provides the current instant. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// RealClock provides actual system time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.T
}

// Set moves the clock.
func (c *FixedClock) Set(t time.Time) {
	c.T = t
}
