// Package testutil holds deterministic helpers shared by the harness
// and its tests: a logical sequence clock for trace events and stub
// resolver scripts that stand in for the external package manager.
package testutil

import "sync"

// SeqClock is a thread-safe monotonic logical clock.
//
// Trace events are ordered by the sequence numbers it hands out, so a
// scenario rerun with a fresh clock produces an identical trace.
type SeqClock struct {
	mu  sync.Mutex
	seq int64
}

// NewSeqClock returns a clock whose first Next call yields 1.
func NewSeqClock() *SeqClock { return &SeqClock{} }

// Next increments and returns the next sequence number.
func (c *SeqClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the latest handed-out sequence number.
func (c *SeqClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock so the next call to Next returns 1 again.
func (c *SeqClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
