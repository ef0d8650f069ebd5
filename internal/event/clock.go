package event

import (
	"sync"
	"time"
)

// Source yields logical timestamps for emitted events.
// Implemented by Clock (production) and FixedClock (tests).
type Source interface {
	Next() int64
}

// Clock is a strictly monotonic logical clock anchored to wall-clock
// milliseconds. If the wall clock has not advanced past the previous
// reading (same-millisecond bursts, clock steps backwards), Next
// returns previous+1 instead, so two events never share a timestamp
// and replay order is always well-defined.
//
// Thread-safety: safe for concurrent use via internal mutex.
type Clock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClock creates a wall-clock-anchored logical clock.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Next returns the next timestamp: wall-clock milliseconds, floored to
// strictly exceed the previous reading.
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UnixMilli()
	if t <= c.last {
		t = c.last + 1
	}
	c.last = t
	return t
}

// FixedClock is a deterministic Source for tests: it counts up from a
// base value, one per call.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedClock struct {
	mu   sync.Mutex
	next int64
}

// NewFixedClock creates a clock whose first reading is base.
func NewFixedClock(base int64) *FixedClock {
	return &FixedClock{next: base}
}

// Next returns the next counter value.
func (c *FixedClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next++
	return t
}
