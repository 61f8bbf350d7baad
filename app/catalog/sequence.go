package catalog

import "sync/atomic"

// DefaultSequenceStart is the first synthetic number handed out for records
// that carry no identifier or usable slug.
const DefaultSequenceStart = 1000

type Sequence interface {
	Next() int64
}

// Counter is a monotonically increasing Sequence, safe for concurrent use.
type Counter struct {
	next atomic.Int64
}

func NewCounter(start int64) *Counter {
	c := &Counter{}
	c.next.Store(start)
	return c
}

func (c *Counter) Next() int64 {
	return c.next.Add(1) - 1
}
