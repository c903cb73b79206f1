package harness

import "sync/atomic"

// Clock stamps invocations with strictly increasing sequence numbers.
// Implementations must be safe for concurrent use; pool workers share one.
type Clock interface {
	Next() int64
}

// SeqClock is the default monotonic logical clock.
type SeqClock struct {
	seq atomic.Int64
}

// NewSeqClock creates a clock whose first Next() returns 1.
func NewSeqClock() *SeqClock {
	return &SeqClock{}
}

// Next returns the next sequence number.
func (c *SeqClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *SeqClock) Current() int64 {
	return c.seq.Load()
}
