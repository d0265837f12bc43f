package trace

import "github.com/hanloveland/ramulator2-sub000/pkg/request"

// idleRewindCycles is how long the trace core waits, once both the trace
// and its outstanding-read set are drained, before rewinding the trace for
// another pass (spec.md §4.5 "Trace core").
const idleRewindCycles = 1000

// Sender is the memory-system hook the trace core issues requests through.
type Sender interface {
	Send(req *request.Request) bool
}

// Core is a single trace-driven request generator: it replays entries in
// timestamp order, bounding its outstanding reads by an MSHR-style table,
// and rewinds for another pass once fully drained and idle.
type Core struct {
	entries []Entry
	idx     int

	mshrSize    int
	outstanding map[int]request.Clock
	nextID      int

	idle      bool
	idleSince request.Clock

	completedReads uint64
	totalLatency   uint64
}

// NewCore creates a trace core replaying entries, admitting at most
// mshrSize outstanding reads at a time.
func NewCore(entries []Entry, mshrSize int) *Core {
	return &Core{entries: entries, mshrSize: mshrSize, outstanding: make(map[int]request.Clock)}
}

// Tick issues as many ready, MSHR-admissible entries as possible this
// cycle, then checks whether the trace should rewind.
func (c *Core) Tick(clk request.Clock, sender Sender) {
	for c.idx < len(c.entries) && len(c.outstanding) < c.mshrSize {
		e := c.entries[c.idx]
		if e.Timestamp > uint64(clk) {
			break
		}

		req := request.New(kindOf(e), e.Addr, request.AddrVec{}, -1, nil)
		if e.HasPayload {
			req.HasPayload = true
			req.Payload = e.Payload
		}
		req.IsTraceCoreReq = true

		if e.IsWrite {
			if !sender.Send(req) {
				break
			}
			c.idx++
			continue
		}

		id := c.nextID
		req.Callback = func(completed *request.Request) {
			issued, ok := c.outstanding[id]
			if !ok {
				return
			}
			c.totalLatency += uint64(completed.DepartClk - issued)
			c.completedReads++
			delete(c.outstanding, id)
		}
		if !sender.Send(req) {
			break
		}
		c.outstanding[id] = clk
		c.nextID++
		c.idx++
	}

	if c.Drained() {
		if !c.idle {
			c.idle = true
			c.idleSince = clk
		} else if clk-c.idleSince >= idleRewindCycles {
			c.idx = 0
			c.idle = false
		}
	} else {
		c.idle = false
	}
}

func kindOf(e Entry) request.Type {
	if e.IsWrite {
		return request.Write
	}
	return request.Read
}

// Drained reports whether every entry has been issued and every issued
// read has completed.
func (c *Core) Drained() bool {
	return c.idx >= len(c.entries) && len(c.outstanding) == 0
}

// AverageReadLatency reports the mean completed-read latency in cycles.
func (c *Core) AverageReadLatency() float64 {
	if c.completedReads == 0 {
		return 0
	}
	return float64(c.totalLatency) / float64(c.completedReads)
}
