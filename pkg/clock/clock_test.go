package clock

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

func fixedNow(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestTickMonotonicallyIncreases(t *testing.T) {
	c := New(fixedNow(1000))
	prev := c.Value()
	for i := 0; i < 100; i++ {
		ts := c.Tick()
		if ts <= prev {
			t.Fatalf("Tick %d: got %d, want > %d", i, ts, prev)
		}
		prev = ts
	}
}

func TestTickFollowsWallClock(t *testing.T) {
	c := New(fixedNow(5000))
	if ts := c.Tick(); ts != 5000 {
		t.Fatalf("first Tick: got %d, want 5000", ts)
	}
	// Same millisecond: must still advance.
	if ts := c.Tick(); ts != 5001 {
		t.Fatalf("second Tick in same ms: got %d, want 5001", ts)
	}
}

func TestTickJumpsForwardWithWallClock(t *testing.T) {
	ms := int64(100)
	c := New(func() time.Time { return time.UnixMilli(ms) })
	c.Tick()
	ms = 9000
	if ts := c.Tick(); ts != 9000 {
		t.Fatalf("Tick after wall jump: got %d, want 9000", ts)
	}
}

func TestTickIgnoresWallClockGoingBackwards(t *testing.T) {
	ms := int64(9000)
	c := New(func() time.Time { return time.UnixMilli(ms) })
	c.Tick()
	ms = 10
	if ts := c.Tick(); ts != 9001 {
		t.Fatalf("Tick after wall regress: got %d, want 9001", ts)
	}
}

func TestZeroValueUsesSystemTime(t *testing.T) {
	var c Clock
	before := time.Now().UnixMilli()
	ts := c.Tick()
	if ts < before {
		t.Fatalf("zero-value Tick = %d, want >= %d", ts, before)
	}
}

func TestNextID_Prefix(t *testing.T) {
	c := New(fixedNow(1733000000000))
	id := c.NextID("TK", nil)
	if id != "TK1733000000000" {
		t.Fatalf("NextID = %q, want TK1733000000000", id)
	}
}

func TestNextID_SkipsTaken(t *testing.T) {
	c := New(fixedNow(10))
	taken := map[string]bool{"P10": true, "P11": true}
	id := c.NextID("P", func(id string) bool { return taken[id] })
	if id != "P12" {
		t.Fatalf("NextID = %q, want P12", id)
	}
}

func TestNextID_ConcurrentUnique(t *testing.T) {
	c := New(fixedNow(42))
	const n = 200
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- c.NextID("T", nil)
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		if _, err := strconv.ParseInt(strings.TrimPrefix(id, "T"), 10, 64); err != nil {
			t.Fatalf("id %q has non-numeric suffix", id)
		}
	}
	if len(seen) != n {
		t.Fatalf("got %d unique ids, want %d", len(seen), n)
	}
}
