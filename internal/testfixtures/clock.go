package testfixtures

import (
	"sync"
	"time"
)

var referenceTime = time.Date(2024, time.June, 6, 9, 0, 0, 0, time.UTC)

// ReferenceTime is the instant fixtures are anchored to.
func ReferenceTime() time.Time {
	return referenceTime
}

// Clock is a manually advanced time source. Pass its Now method wherever a
// func() time.Time is injected; handlers on other goroutines may read it.
type Clock struct {
	mu sync.Mutex
	at time.Time
}

// NewClock starts at start, or at ReferenceTime for the zero value.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = referenceTime
	}
	return &Clock{at: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

// Advance moves the clock by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
	return c.at
}
