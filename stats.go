package gobafang

import (
	"fmt"
	"sync/atomic"
)

// Stats counts the traffic of one adapter
type Stats struct {
	RecvFrames    uint64
	SentFrames    uint64
	Errors        uint64
	DroppedFrames uint64
}

func (st Stats) String() string {
	return fmt.Sprintf("recv: %d sent: %d errors: %d dropped: %d", st.RecvFrames, st.SentFrames, st.Errors, st.DroppedFrames)
}

type counters struct {
	recv, sent, errors, dropped atomic.Uint64
}

// Stats returns a snapshot of the adapter counters
func (base *BaseAdapter) Stats() Stats {
	return Stats{
		RecvFrames:    base.counters.recv.Load(),
		SentFrames:    base.counters.sent.Load(),
		Errors:        base.counters.errors.Load(),
		DroppedFrames: base.counters.dropped.Load(),
	}
}

// sent is called by adapters once a frame left on the wire
func (base *BaseAdapter) sent() {
	base.counters.sent.Add(1)
}

// Stats returns the adapter counters, zero for adapters without them
func (c *Client) Stats() Stats {
	if s, ok := c.adapter.(interface{ Stats() Stats }); ok {
		return s.Stats()
	}
	return Stats{}
}
