package dram

import "github.com/hanloveland/ramulator2-sub000/pkg/request"

// futureAction is one entry of the future-action queue (spec.md §4.1): a
// flat list of {cmd, addr_vec, fire_clk} scanned every tick and applied
// exactly once. Used exclusively for refresh completion.
type futureAction struct {
	cmd     Command
	vec     request.AddrVec
	fireClk request.Clock
}

type futureActionQueue struct {
	pending []futureAction
}

func (q *futureActionQueue) schedule(cmd Command, vec request.AddrVec, fireClk request.Clock) {
	q.pending = append(q.pending, futureAction{cmd: cmd, vec: vec, fireClk: fireClk})
}

// due removes and returns every action whose fireClk equals clk.
func (q *futureActionQueue) due(clk request.Clock) []futureAction {
	if len(q.pending) == 0 {
		return nil
	}
	var fired []futureAction
	kept := q.pending[:0]
	for _, a := range q.pending {
		if a.fireClk == clk {
			fired = append(fired, a)
		} else {
			kept = append(kept, a)
		}
	}
	q.pending = kept
	return fired
}
