package blockio

import "sync/atomic"

// Counter records block reads and block writes.
//
// A Counter is passed by reference to every Reader and Writer that takes
// part in one measured sort. A nil *Counter is valid and counts nothing.
type Counter struct {
	reads  atomic.Uint64
	writes atomic.Uint64
}

// Snapshot is a point-in-time copy of a Counter.
type Snapshot struct {
	Reads  uint64
	Writes uint64
}

// Total returns reads + writes.
func (s Snapshot) Total() uint64 {
	return s.Reads + s.Writes
}

// Sub returns the operations performed between o and s.
func (s Snapshot) Sub(o Snapshot) Snapshot {
	return Snapshot{Reads: s.Reads - o.Reads, Writes: s.Writes - o.Writes}
}

// Reset zeroes both counts.
func (c *Counter) Reset() {
	if c == nil {
		return
	}
	c.reads.Store(0)
	c.writes.Store(0)
}

// Reads returns the number of block reads.
func (c *Counter) Reads() uint64 {
	if c == nil {
		return 0
	}
	return c.reads.Load()
}

// Writes returns the number of block writes.
func (c *Counter) Writes() uint64 {
	if c == nil {
		return 0
	}
	return c.writes.Load()
}

// Total returns reads + writes.
func (c *Counter) Total() uint64 {
	return c.Reads() + c.Writes()
}

// Snapshot returns the current counts.
func (c *Counter) Snapshot() Snapshot {
	return Snapshot{Reads: c.Reads(), Writes: c.Writes()}
}

func (c *Counter) addRead() {
	if c != nil {
		c.reads.Add(1)
	}
}

func (c *Counter) addWrite() {
	if c != nil {
		c.writes.Add(1)
	}
}
