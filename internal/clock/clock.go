package clock

import (
	"sync"
	"time"
)

// Clock is the source of "now" for time-dependent components.
type Clock interface {
	Now() time.Time
}

// Real reads the wall clock. Values carry a monotonic reading, so
// durations between two Now calls are not affected by clock steps.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fake is deterministic and test-friendly.
type Fake struct {
	mu sync.Mutex
	t  time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{t: start}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
