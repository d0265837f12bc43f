// Package scheduler implements FR-FCFS (first-ready-first-come-first-served)
// request selection over a request.Buffer: for every candidate request it
// first resolves the command that would make progress on that request (via
// the DRAM device's get_preq_command/get_preq_pre_command), then picks the
// oldest ready candidate, falling back to command-priority look-up tables
// when the caller asks for priority-aware selection.
package scheduler

import (
	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

// Device is the subset of *dram.Device the scheduler consults. A narrow
// interface keeps this package testable without a full device fixture.
type Device interface {
	CheckReady(clk request.Clock, cmd dram.Command, vec request.AddrVec) bool
	GetPreqCommand(final dram.Command, vec request.AddrVec) dram.Command
	GetPreqPreCommand(final dram.Command, vec request.AddrVec) dram.Command
	DBReadPrefetchCount(vec request.AddrVec) int
	DBWritePrefetchCount(vec request.AddrVec) int
}

// NumPriorityLUTs is the fixed number of command-priority lookup tables
// NDPFRFCFS carries (one per dispatch context: host read, NDP-DB read,
// NDP-DB write, NDP-DRAM read, NDP-DRAM write, mixed NDP read, host write).
const NumPriorityLUTs = 7

const (
	LUTHostRead = iota
	LUTNDPDBRead
	LUTNDPDBWrite
	LUTNDPDRAMRead
	LUTNDPDRAMWrite
	LUTNDPMixedRead
	LUTHostWrite
)

// priorityLUTs[i][cmd] is the priority NDPFRFCFS assigns command cmd under
// lookup table i; 0 means "not prioritized under this table".
var priorityLUTs = [NumPriorityLUTs]map[dram.Command]int{
	LUTHostRead:     {dram.RD: 1},
	LUTNDPDBRead:    {dram.NDP_DB_RD: 1},
	LUTNDPDBWrite:   {dram.NDP_DB_WR: 1},
	LUTNDPDRAMRead:  {dram.NDP_DRAM_RD: 2, dram.NDP_DRAM_RDA: 1},
	LUTNDPDRAMWrite: {dram.NDP_DRAM_WR: 2, dram.NDP_DRAM_WRA: 1},
	LUTNDPMixedRead: {dram.NDP_DB_RD: 3, dram.NDP_DRAM_RD: 2, dram.NDP_DRAM_RDA: 1},
	LUTHostWrite:    {dram.WR: 1},
}

// CommandPriority returns cmd's priority under lookup table lutIndex, or 0
// if cmd is not prioritized under it.
func CommandPriority(lutIndex int, cmd dram.Command) int {
	return priorityLUTs[lutIndex][cmd]
}

// Scheduler resolves the best-next request out of a request.Buffer.
type Scheduler struct {
	dev Device
}

// New creates a scheduler consulting dev for readiness and precondition
// resolution.
func New(dev Device) *Scheduler { return &Scheduler{dev: dev} }

// commandFor reads back the command request.Request.Command was most
// recently resolved to, as a dram.Command.
func commandFor(req *request.Request) dram.Command { return dram.Command(req.Command) }

// compare implements the base FR-FCFS tie-break: whichever of req1/req2 is
// ready wins; if both or neither are ready, the older arrival wins.
func (s *Scheduler) compare(clk request.Clock, req1, req2 *request.Request, req1Elig, req2Elig bool) *request.Request {
	ready1 := req1Elig && s.dev.CheckReady(clk, commandFor(req1), req1.AddrVec)
	ready2 := req2Elig && s.dev.CheckReady(clk, commandFor(req2), req2.AddrVec)

	if ready1 != ready2 {
		if ready1 {
			return req1
		}
		return req2
	}
	if req1.ArriveClk <= req2.ArriveClk {
		return req1
	}
	return req2
}

// comparePriority picks between two LUT-eligible candidates: ready first,
// then higher LUT priority, then the older arrival.
func (s *Scheduler) comparePriority(clk request.Clock, lutIndex int, req1, req2 *request.Request) *request.Request {
	ready1 := s.dev.CheckReady(clk, commandFor(req1), req1.AddrVec)
	ready2 := s.dev.CheckReady(clk, commandFor(req2), req2.AddrVec)
	if ready1 != ready2 {
		if ready1 {
			return req1
		}
		return req2
	}

	p1 := CommandPriority(lutIndex, dram.Command(req1.FinalCommand))
	p2 := CommandPriority(lutIndex, dram.Command(req2.FinalCommand))
	if p1 != p2 {
		if p1 > p2 {
			return req1
		}
		return req2
	}
	if req1.ArriveClk <= req2.ArriveClk {
		return req1
	}
	return req2
}

// GetBestRequest resolves every request's command to its host-visible
// precondition and returns the oldest ready one, or the oldest overall when
// none is ready (nil only if the buffer is empty). Used against the active
// and (host) prefetch buffers.
func (s *Scheduler) GetBestRequest(clk request.Clock, buf *request.Buffer) *request.Request {
	items := buf.Items()
	if len(items) == 0 {
		return nil
	}
	for _, req := range items {
		req.Command = int(s.dev.GetPreqCommand(dram.Command(req.FinalCommand), req.AddrVec))
	}
	candidate := items[0]
	for _, next := range items[1:] {
		candidate = s.compare(clk, candidate, next, true, true)
	}
	return candidate
}

// GetBestRequestWithPriority is GetBestRequest restricted to the requests
// whose final command the LUT prioritizes: a candidate whose final command
// maps to priority 0 is ineligible under this table (spec.md §4.2), and
// ties among eligible candidates resolve ready-first, higher-priority,
// older-arrival.
func (s *Scheduler) GetBestRequestWithPriority(clk request.Clock, buf *request.Buffer, lutIndex int) *request.Request {
	var candidate *request.Request
	for _, req := range buf.Items() {
		if CommandPriority(lutIndex, dram.Command(req.FinalCommand)) == 0 {
			continue
		}
		req.Command = int(s.dev.GetPreqCommand(dram.Command(req.FinalCommand), req.AddrVec))
		if candidate == nil {
			candidate = req
			continue
		}
		candidate = s.comparePriority(clk, lutIndex, candidate, req)
	}
	return candidate
}

// dbPrefetchDepth is the per-pseudo-channel read/write fetch-buffer depth
// threshold at or above which get_best_pre_request stops issuing more prefetch
// staging commands, matching NDPFRFCFS's check_db_buf_over_th.
const dbPrefetchDepth = 8

func isPreEligible(req *request.Request) bool {
	final := dram.Command(req.FinalCommand)
	if req.Kind == request.Read {
		return final == dram.RD || final == dram.RDA
	}
	return final == dram.WR || final == dram.WRA
}

// overPrefetchThreshold checks the direction-specific fetch-buffer depth:
// a read candidate is gated on the read-prefetch counter, a write candidate
// on the write-prefetch counter; a backlog in one direction never throttles
// the other.
func (s *Scheduler) overPrefetchThreshold(req *request.Request) bool {
	switch dram.Command(req.FinalCommand) {
	case dram.WR, dram.WRA:
		return s.dev.DBWritePrefetchCount(req.AddrVec) >= dbPrefetchDepth
	case dram.RD, dram.RDA:
		return s.dev.DBReadPrefetchCount(req.AddrVec) >= dbPrefetchDepth
	default:
		return false
	}
}

// GetBestPreRequest resolves every request's command to its DB-prefetch
// precondition and returns the oldest ready, eligible, under-threshold
// candidate. When no such candidate is ready it returns the oldest
// unready one if that is eligible and under threshold, and nil otherwise.
func (s *Scheduler) GetBestPreRequest(clk request.Clock, buf *request.Buffer) *request.Request {
	items := buf.Items()
	if len(items) == 0 {
		return nil
	}
	for _, req := range items {
		req.Command = int(s.dev.GetPreqPreCommand(dram.Command(req.FinalCommand), req.AddrVec))
	}
	candidate := items[0]
	for _, next := range items[1:] {
		c1 := !s.overPrefetchThreshold(candidate) && isPreEligible(candidate)
		c2 := !s.overPrefetchThreshold(next) && isPreEligible(next)
		candidate = s.compare(clk, candidate, next, c1, c2)
	}
	if !s.overPrefetchThreshold(candidate) && isPreEligible(candidate) {
		return candidate
	}
	return nil
}
