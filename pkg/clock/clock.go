// Package clock issues entity identifiers from a monotonic millisecond clock.
//
// The clock follows Lamport's receive rule with the wall clock playing the
// part of the incoming message:
//
//	Tick: ts = max(ts+1, now_ms)
//
// so successive ticks are strictly increasing even when several entities
// are created within the same millisecond, and stay close to wall-clock
// time otherwise. An identifier is an entity prefix followed by a tick.
//
// Clock is goroutine-safe.
package clock

import (
	"strconv"
	"sync"
	"time"
)

// Clock is a monotonic millisecond clock. The zero value uses time.Now.
type Clock struct {
	mu  sync.Mutex
	ts  int64
	now func() time.Time
}

// New returns a clock reading time from now. A nil now means time.Now.
func New(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current wall-clock time. Comment timestamps use this so
// tests can pin time through the same hook as identifiers.
func (c *Clock) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Tick advances the clock and returns the new value.
func (c *Clock) Tick() int64 {
	wall := c.Now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ts++
	if wall > c.ts {
		c.ts = wall
	}
	return c.ts
}

// Value returns the last issued tick without advancing the clock.
func (c *Clock) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ts
}

// NextID returns prefix followed by a fresh tick. If taken is non-nil,
// ticks are drawn until taken reports the candidate as free.
func (c *Clock) NextID(prefix string, taken func(id string) bool) string {
	for {
		id := prefix + strconv.FormatInt(c.Tick(), 10)
		if taken == nil || !taken(id) {
			return id
		}
	}
}
