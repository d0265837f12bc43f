// Package controller implements the per-channel memory controller: the
// request lifecycle from send() through buffering, FR-FCFS scheduling, and
// command issue, plus the decoupled-mode and adaptive row-policy state a
// pseudo-channel's DDR5 pipeline needs (spec.md §4.4).
package controller

import (
	"fmt"

	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
	"github.com/hanloveland/ramulator2-sub000/pkg/scheduler"
)

// Buffer capacities, chosen to scale with the teacher pack's own constants
// (32-deep read/write queues, a much deeper priority queue reserved for
// maintenance traffic, a small data-buffer staging queue).
const (
	activeBufCap    = 128
	priorityBufCap  = 392
	readWriteBufCap = 32
	prefetchBufCap  = 8
)

// Device is the subset of *dram.Device the controller drives.
type Device interface {
	CheckReady(clk request.Clock, cmd dram.Command, vec request.AddrVec) bool
	GetPreqCommand(final dram.Command, vec request.AddrVec) dram.Command
	GetPreqPreCommand(final dram.Command, vec request.AddrVec) dram.Command
	IssueCommand(clk request.Clock, cmd dram.Command, vec request.AddrVec) error
	AdjustDBReadPrefetch(clk request.Clock, vec request.AddrVec, delta int) error
	AdjustDBWritePrefetch(clk request.Clock, vec request.AddrVec, delta int) error
	CheckRowBufferHit(vec request.AddrVec) bool
	CheckNodeOpen(vec request.AddrVec) bool
	ApplyNDPDBWrite(clk request.Clock, vec request.AddrVec, payload request.Payload) error
	AccountNDPDRAMAccess(vec request.AddrVec, id int)
}

// Scheduler is the subset of *scheduler.Scheduler the controller drives.
type Scheduler interface {
	GetBestRequest(clk request.Clock, buf *request.Buffer) *request.Request
	GetBestPreRequest(clk request.Clock, buf *request.Buffer) *request.Request
	GetBestRequestWithPriority(clk request.Clock, buf *request.Buffer, lutIndex int) *request.Request
}

// RefreshTicker is the refresh manager hook the controller advances each
// tick (spec.md §4.4 tick step 3). The clock is passed through explicitly;
// refresh deadlines are compared against the simulation clock, never a
// manager-local counter.
type RefreshTicker interface {
	Tick(clk request.Clock) error
}

// stagedPost is one synthesized POST_RD/POST_WR in transit from DRAM to the
// data buffer: it surfaces in the corresponding prefetch buffer once its
// transit timer drains (spec.md §4.4 "staging lists ... used to model the
// nBL-cycle transit time").
type stagedPost struct {
	req       *request.Request
	remaining int64
}

// Controller is one channel's memory controller: per-pseudo-channel
// read/write/priority/prefetch buffers feeding a shared active buffer and
// read-completion (pending) queue.
type Controller struct {
	channelID int32
	numPCh    int32
	dev       Device
	sched     Scheduler
	rowPolicy *RowPolicy
	cfg       Config
	refresh   RefreshTicker

	active     *request.Buffer
	priority   []*request.Buffer
	read       []*request.Buffer
	write      []*request.Buffer
	rdPrefetch []*request.Buffer
	wrPrefetch []*request.Buffer

	toRdPrefetch [][]stagedPost
	toWrPrefetch [][]stagedPost

	modes    []*modeState
	counters []*pchCounters

	pending []*request.Request
	clk     request.Clock
	rr      []int32
}

// New creates a controller for channelID with numPCh pseudo-channels.
func New(dev Device, sched Scheduler, channelID, numPCh int32, cfg Config) *Controller {
	c := &Controller{
		channelID: channelID, numPCh: numPCh, dev: dev, sched: sched,
		rowPolicy: NewRowPolicy(), cfg: cfg,
		active: request.NewBuffer(activeBufCap),
	}
	for p := int32(0); p < numPCh; p++ {
		c.priority = append(c.priority, request.NewBuffer(priorityBufCap))
		c.read = append(c.read, request.NewBuffer(readWriteBufCap))
		c.write = append(c.write, request.NewBuffer(readWriteBufCap))
		c.rdPrefetch = append(c.rdPrefetch, request.NewBuffer(prefetchBufCap))
		c.wrPrefetch = append(c.wrPrefetch, request.NewBuffer(prefetchBufCap))
		c.toRdPrefetch = append(c.toRdPrefetch, nil)
		c.toWrPrefetch = append(c.toWrPrefetch, nil)
		c.modes = append(c.modes, newModeState())
		c.counters = append(c.counters, &pchCounters{})
		c.rr = append(c.rr, p)
	}
	return c
}

// SetRefreshManager attaches the refresh manager this controller advances
// on every tick.
func (c *Controller) SetRefreshManager(rm RefreshTicker) { c.refresh = rm }

// resolveFinalCommand translates req's type into its terminal command
// (spec.md §4.4 send step 1). NDP requests arrive with FinalCommand already
// set by the HSNC; plain host traffic resolves to RD/WR here.
func resolveFinalCommand(req *request.Request) {
	if req.FinalCommand >= 0 {
		return
	}
	if req.Kind == request.Read {
		req.FinalCommand = int(dram.RD)
	} else {
		req.FinalCommand = int(dram.WR)
	}
}

// ndpHeadroomExhausted reports whether accepting one more NDP request of
// req's direction would exceed the configured per-pseudo-channel NDP share
// of the target buffer.
func (c *Controller) ndpHeadroomExhausted(req *request.Request) bool {
	pch := req.AddrVec.PseudoChannel()
	cnt := c.counters[pch]
	if req.Kind == request.Read {
		limit := c.cfg.NDPReadHighThreshold * float64(c.read[pch].Cap())
		return float64(cnt.ndpDBRD+cnt.ndpDRAMRD) >= limit
	}
	limit := c.cfg.NDPWriteHighThreshold * float64(c.write[pch].Cap())
	return float64(cnt.ndpDBWR+cnt.ndpDRAMWR) >= limit
}

// noteEnqueued updates the per-pseudo-channel outstanding counters and
// last-access timestamps for a freshly accepted request.
func (c *Controller) noteEnqueued(req *request.Request) {
	cnt := c.counters[req.AddrVec.PseudoChannel()]
	switch dram.Command(req.FinalCommand) {
	case dram.RD, dram.RDA:
		cnt.hostRD++
		cnt.lastHostRead = c.clk
	case dram.WR, dram.WRA:
		cnt.hostWR++
	case dram.NDP_DB_RD:
		cnt.ndpDBRD++
	case dram.NDP_DB_WR:
		cnt.ndpDBWR++
	case dram.NDP_DRAM_RD, dram.NDP_DRAM_RDA:
		cnt.ndpDRAMRD++
	case dram.NDP_DRAM_WR, dram.NDP_DRAM_WRA:
		cnt.ndpDRAMWR++
		cnt.lastNDPDRAMWrite = c.clk
	case dram.REFab, dram.REFsb:
		cnt.ref++
	}
}

// noteRetired decrements the counter noteEnqueued incremented, keyed by the
// final command the request retired under.
func (c *Controller) noteRetired(pch int32, final dram.Command) {
	cnt := c.counters[pch]
	switch final {
	case dram.RD, dram.RDA, dram.PRE_RD, dram.PRE_RDA:
		cnt.hostRD--
	case dram.WR, dram.WRA, dram.PRE_WR:
		cnt.hostWR--
	case dram.NDP_DB_RD:
		cnt.ndpDBRD--
	case dram.NDP_DB_WR:
		cnt.ndpDBWR--
	case dram.NDP_DRAM_RD, dram.NDP_DRAM_RDA:
		cnt.ndpDRAMRD--
	case dram.NDP_DRAM_WR, dram.NDP_DRAM_WRA:
		cnt.ndpDRAMWR--
	case dram.POST_RD:
		cnt.postRD--
	case dram.POST_WR, dram.POST_WRA:
		cnt.postWR--
	case dram.REFab, dram.REFsb:
		cnt.ref--
	}
}

// Send enqueues a host (or NDP) request, forwarding it directly to the
// pending queue if an in-flight write to the same address already
// supersedes it (spec.md §4.4's write-to-read forwarding).
func (c *Controller) Send(req *request.Request) bool {
	pch := req.AddrVec.PseudoChannel()
	resolveFinalCommand(req)

	if req.Kind == request.Read && !req.IsNDPReq {
		if w := c.write[pch].Find(func(o *request.Request) bool { return o.Addr == req.Addr }); w != nil {
			req.DepartClk = c.clk + 1
			c.pending = append(c.pending, req)
			return true
		}
	}

	if req.IsNDPReq && c.ndpHeadroomExhausted(req) {
		return false
	}

	req.ArriveClk = c.clk
	var ok bool
	if req.Kind == request.Read {
		ok = c.read[pch].Enqueue(req)
	} else {
		ok = c.write[pch].Enqueue(req)
	}
	if ok {
		c.noteEnqueued(req)
	}
	return ok
}

// PrioritySend enqueues a maintenance request (refresh) ahead of ordinary
// traffic (spec.md §4.4).
func (c *Controller) PrioritySend(req *request.Request) bool {
	pch := req.AddrVec.PseudoChannel()
	resolveFinalCommand(req)
	req.ArriveClk = c.clk
	if !c.priority[pch].Enqueue(req) {
		return false
	}
	c.noteEnqueued(req)
	return true
}

// Tick advances the controller by one cycle, running the sub-phases in the
// fixed order spec.md §4.4 enumerates: drain the staging lists, serve
// completed reads, advance the refresh manager, update the adaptive
// row-policy caps, select the decoupled modes, then schedule and issue at
// most one command.
func (c *Controller) Tick(clk request.Clock) error {
	c.clk = clk

	c.drainStaging()
	c.serveCompletedReads()

	if c.refresh != nil {
		if err := c.refresh.Tick(clk); err != nil {
			return err
		}
	}

	for p := int32(0); p < c.numPCh; p++ {
		c.applyAdaptiveRowCap(p)
		c.setModePerPCh(clk, p)
	}

	req, buf := c.scheduleRequest()
	if req == nil {
		return nil
	}
	return c.issue(req, buf)
}

// drainStaging decrements every staged POST entry's transit timer and
// surfaces drained heads into their prefetch buffers, in order.
func (c *Controller) drainStaging() {
	for p := int32(0); p < c.numPCh; p++ {
		c.toRdPrefetch[p] = drainList(c.toRdPrefetch[p], c.rdPrefetch[p])
		c.toWrPrefetch[p] = drainList(c.toWrPrefetch[p], c.wrPrefetch[p])
	}
}

func drainList(list []stagedPost, dst *request.Buffer) []stagedPost {
	for i := range list {
		if list[i].remaining > 0 {
			list[i].remaining--
		}
	}
	for len(list) > 0 && list[0].remaining <= 0 && !dst.Full() {
		dst.Enqueue(list[0].req)
		list = list[1:]
	}
	return list
}

func (c *Controller) serveCompletedReads() {
	for len(c.pending) > 0 {
		req := c.pending[0]
		if req.DepartClk > c.clk {
			return
		}
		if req.Callback != nil {
			req.Callback(req)
		}
		c.pending = c.pending[1:]
	}
}

// applyAdaptiveRowCap lowers the row-hit cap of any bank whose open row
// conflicts with the request at the head of pch's read or write buffer
// (spec.md §4.4.3). The cap relaxes back to AdaptiveRowCapHigh on the next
// ACT to that bank.
func (c *Controller) applyAdaptiveRowCap(pch int32) {
	for _, buf := range [...]*request.Buffer{c.read[pch], c.write[pch]} {
		head := buf.Head()
		if head == nil {
			continue
		}
		if c.dev.CheckNodeOpen(head.AddrVec) && !c.dev.CheckRowBufferHit(head.AddrVec) {
			c.rowPolicy.UpdateCap(head.AddrVec, c.cfg.AdaptiveRowCap)
		}
	}
}

func (c *Controller) rotate() {
	c.rr = append(c.rr[1:], c.rr[0])
}

// probe is one (buffer, selection-mode) cell of the spec.md §4.4.2 search
// matrix.
type probe struct {
	buf *request.Buffer
	pre bool // use get_best_pre_request and rewrite to PRE_RD/PRE_WR
	lut int  // priority LUT index; -1 for plain FR-FCFS
}

// probesFor expands the (mc_db_mode, db_dram_mode) cell for pch into its
// ordered buffer-probe list (spec.md §4.4.2's table, plus the DRAM_NDP_WR
// column the table describes as "analogous").
func (c *Controller) probesFor(pch int32) []probe {
	rd, wr := c.read[pch], c.write[pch]
	rdPf, wrPf := c.rdPrefetch[pch], c.wrPrefetch[pch]
	m := c.modes[pch]

	plain := func(b *request.Buffer) probe { return probe{buf: b, lut: -1} }
	lut := func(b *request.Buffer, i int) probe { return probe{buf: b, lut: i} }
	pre := func(b *request.Buffer) probe { return probe{buf: b, pre: true, lut: -1} }

	switch m.dbDRAM {
	case ModeDRAMRefresh:
		switch m.mcDB {
		case ModeDBNDPWrite:
			return []probe{lut(wr, scheduler.LUTNDPDBWrite)}
		case ModeDBRead:
			return []probe{plain(rdPf), lut(rd, scheduler.LUTNDPDBRead)}
		default:
			return []probe{pre(wr)}
		}
	case ModeDRAMRead:
		switch m.mcDB {
		case ModeDBNDPWrite:
			return []probe{lut(wr, scheduler.LUTNDPDBWrite), pre(rd), lut(rd, scheduler.LUTNDPDRAMRead)}
		case ModeDBRead:
			return []probe{plain(rdPf), lut(rd, scheduler.LUTHostRead), pre(rd), lut(rd, scheduler.LUTNDPMixedRead)}
		default:
			return []probe{pre(wr), pre(rd), lut(rd, scheduler.LUTNDPDRAMRead)}
		}
	case ModeDRAMWrite:
		switch m.mcDB {
		case ModeDBNDPWrite:
			return []probe{lut(wr, scheduler.LUTNDPDBWrite), plain(wrPf), lut(wr, scheduler.LUTHostWrite), lut(wr, scheduler.LUTNDPDRAMWrite)}
		case ModeDBRead:
			return []probe{plain(rdPf), lut(rd, scheduler.LUTNDPDBRead), plain(wrPf), lut(wr, scheduler.LUTHostWrite), lut(wr, scheduler.LUTNDPDRAMWrite)}
		default:
			return []probe{pre(wr), plain(wrPf), lut(wr, scheduler.LUTHostWrite), lut(wr, scheduler.LUTNDPDRAMWrite)}
		}
	default: // ModeDRAMNDPWrite
		switch m.mcDB {
		case ModeDBNDPWrite:
			return []probe{lut(wr, scheduler.LUTNDPDBWrite), lut(wr, scheduler.LUTNDPDRAMWrite)}
		case ModeDBRead:
			return []probe{plain(rdPf), lut(rd, scheduler.LUTNDPDBRead), lut(wr, scheduler.LUTNDPDRAMWrite)}
		default:
			return []probe{pre(wr), lut(wr, scheduler.LUTNDPDRAMWrite)}
		}
	}
}

// runProbe resolves one probe to a ready candidate, or nil. For a pre
// probe, success mutates the candidate's final command to its PRE_RD/PRE_WR
// staging form and marks it as a data-buffer command; rejectCandidate
// undoes that if the closing-conflict check later vetoes the pick.
func (c *Controller) runProbe(p probe, pch int32) *request.Request {
	var cand *request.Request
	switch {
	case p.pre:
		if p.buf == c.read[pch] && !c.preRDEnabled(pch) {
			return nil
		}
		cand = c.sched.GetBestPreRequest(c.clk, p.buf)
		if cand == nil {
			return nil
		}
		rewriteToPreStage(cand)
	case p.lut >= 0:
		cand = c.sched.GetBestRequestWithPriority(c.clk, p.buf, p.lut)
	default:
		cand = c.sched.GetBestRequest(c.clk, p.buf)
	}
	if cand == nil {
		return nil
	}
	if !c.dev.CheckReady(c.clk, dram.Command(cand.Command), cand.AddrVec) {
		c.rejectCandidate(cand)
		return nil
	}
	return cand
}

// rewriteToPreStage mutates a host read/write candidate's final command to
// the DB staging command the pre-scheduler resolved it for (spec.md §4.4.2
// "mutate the candidate's final_command from RD/RDA to PRE_RD and mark
// is_db_cmd = true").
func rewriteToPreStage(req *request.Request) {
	switch dram.Command(req.FinalCommand) {
	case dram.RD:
		req.FinalCommand = int(dram.PRE_RD)
	case dram.RDA:
		req.FinalCommand = int(dram.PRE_RDA)
	case dram.WR, dram.WRA:
		req.FinalCommand = int(dram.PRE_WR)
	}
	req.IsDBCmd = true
}

// rejectCandidate undoes a pre-stage rewrite after the closing-conflict
// check (or a readiness recheck) vetoes the pick.
func (c *Controller) rejectCandidate(req *request.Request) {
	if !req.IsDBCmd {
		return
	}
	switch dram.Command(req.FinalCommand) {
	case dram.PRE_RD:
		req.FinalCommand = int(dram.RD)
	case dram.PRE_RDA:
		req.FinalCommand = int(dram.RDA)
	case dram.PRE_WR:
		req.FinalCommand = int(dram.WR)
	default:
		// Synthesized POST_RD/POST_WR requests are data-buffer commands by
		// construction; there is nothing to undo.
		return
	}
	req.IsDBCmd = false
}

// scheduleRequest implements the strict precedence order of spec.md §4.4.2:
// active buffer first, then per-pseudo-channel priority buffers, then the
// mode-matrix buffer probes, all subject to the closing-conflict check.
func (c *Controller) scheduleRequest() (*request.Request, *request.Buffer) {
	if best := c.sched.GetBestRequest(c.clk, c.active); best != nil &&
		c.dev.CheckReady(c.clk, dram.Command(best.Command), best.AddrVec) &&
		!c.conflictsWithActive(best) {
		return best, c.active
	}

	for _, pch := range c.rr {
		if c.priority[pch].Len() == 0 {
			continue
		}
		req := c.priority[pch].Head()
		req.Command = int(c.dev.GetPreqCommand(dram.Command(req.FinalCommand), req.AddrVec))
		if c.dev.CheckReady(c.clk, dram.Command(req.Command), req.AddrVec) &&
			!c.conflictsWithActive(req) {
			c.rotate()
			return req, c.priority[pch]
		}
	}

	for _, pch := range c.rr {
		if c.priority[pch].Len() != 0 {
			continue
		}
		for _, p := range c.probesFor(pch) {
			cand := c.runProbe(p, pch)
			if cand == nil {
				continue
			}
			if c.conflictsWithActive(cand) {
				c.rejectCandidate(cand)
				continue
			}
			c.rotate()
			return cand, p.buf
		}
	}
	return nil, nil
}

// conflictsWithActive reports whether req's command (a closing command)
// would precharge a bank another active-buffer entry is still using.
func (c *Controller) conflictsWithActive(req *request.Request) bool {
	if !dram.Command(req.Command).IsClosing() {
		return false
	}
	for _, other := range c.active.Items() {
		if other == req {
			continue
		}
		if sameBank(other.AddrVec, req.AddrVec) {
			return true
		}
	}
	return false
}

func sameBank(a, b request.AddrVec) bool {
	for i := 0; i <= request.LevelBank; i++ {
		if a[i] != request.Unspecified && b[i] != request.Unspecified && a[i] != b[i] {
			return false
		}
	}
	return true
}

// issue drives one chosen request's current command into the DRAM model
// and applies the post-issue bookkeeping of spec.md §4.4 step 7: row
// policy, token bucket, DB prefetch credit, POST synthesis, retirement or
// promotion to the active buffer.
func (c *Controller) issue(req *request.Request, buf *request.Buffer) error {
	cmd := dram.Command(req.Command)
	pch := req.AddrVec.PseudoChannel()
	m := c.modes[pch]

	if err := c.dev.IssueCommand(c.clk, cmd, req.AddrVec); err != nil {
		return err
	}

	c.rowPolicy.Update(req.AddrVec, cmd.IsOpening(), cmd.IsClosing())
	switch {
	case cmd.IsOpening():
		c.rowPolicy.UpdateCap(req.AddrVec, AdaptiveRowCapHigh)
	case !cmd.IsClosing() && c.dev.CheckRowBufferHit(req.AddrVec):
		c.rowPolicy.RecordHit(req.AddrVec)
	}

	switch cmd {
	case dram.NDP_DRAM_RD, dram.NDP_DRAM_RDA:
		m.tokens.Refill(1)
	case dram.PRE_RD, dram.PRE_RDA:
		m.tokens.TryGrant()
	}

	switch cmd {
	case dram.PRE_RD, dram.PRE_RDA:
		if err := c.dev.AdjustDBReadPrefetch(c.clk, req.AddrVec, 1); err != nil {
			return err
		}
	case dram.POST_RD:
		if err := c.dev.AdjustDBReadPrefetch(c.clk, req.AddrVec, -1); err != nil {
			return err
		}
	case dram.PRE_WR:
		if err := c.dev.AdjustDBWritePrefetch(c.clk, req.AddrVec, 1); err != nil {
			return err
		}
	case dram.POST_WR, dram.POST_WRA:
		if err := c.dev.AdjustDBWritePrefetch(c.clk, req.AddrVec, -1); err != nil {
			return err
		}
	}

	if int(cmd) != req.FinalCommand {
		if cmd.IsOpening() {
			req.IsActived = true
			if !c.active.Enqueue(req) {
				return fmt.Errorf("controller: active buffer overflow issuing %s", cmd)
			}
			buf.Remove(req)
		}
		return nil
	}

	// Final command issued: route NDP side effects, synthesize POSTs, and
	// retire or complete the request.
	switch cmd {
	case dram.NDP_DB_WR:
		if err := c.dev.ApplyNDPDBWrite(c.clk, req.AddrVec, req.Payload); err != nil {
			return err
		}
	case dram.NDP_DRAM_RD, dram.NDP_DRAM_RDA, dram.NDP_DRAM_WR, dram.NDP_DRAM_WRA:
		c.dev.AccountNDPDRAMAccess(req.AddrVec, req.NDPID)
	}

	c.noteRetired(pch, cmd)
	buf.Remove(req)

	switch cmd {
	case dram.PRE_RD, dram.PRE_RDA:
		post := synthesizePost(req, dram.POST_RD)
		c.counters[pch].postRD++
		c.toRdPrefetch[pch] = append(c.toRdPrefetch[pch], stagedPost{req: post, remaining: c.cfg.NBL})
	case dram.PRE_WR:
		post := synthesizePost(req, dram.POST_WR)
		c.counters[pch].postWR++
		c.toWrPrefetch[pch] = append(c.toWrPrefetch[pch], stagedPost{req: post, remaining: 4 * c.cfg.NBL})
	default:
		if req.Kind == request.Read {
			req.DepartClk = c.clk + c.cfg.ReadLatency
			c.pending = append(c.pending, req)
		}
	}
	return nil
}

// synthesizePost builds the paired POST_RD/POST_WR request a PRE staging
// issue leaves behind: same coordinates and completion identity, final
// command swapped to the DB-drain side of the transfer.
func synthesizePost(orig *request.Request, final dram.Command) *request.Request {
	post := request.New(orig.Kind, orig.Addr, orig.AddrVec, orig.SourceID, orig.Callback)
	post.ArriveClk = orig.ArriveClk
	post.IsNDPReq = orig.IsNDPReq
	post.NDPID = orig.NDPID
	post.IsDBCmd = true
	post.FinalCommand = int(final)
	post.Command = int(final)
	return post
}

// IsEmptyNDPReq reports whether pch has no NDP-tagged request anywhere in
// its buffers, staging lists, or this channel's shared active/pending
// queues, the condition the HSNC's ISSUE_START/BEFORE_RUN/BAR/DONE states
// poll for before advancing (spec.md §4.5).
func (c *Controller) IsEmptyNDPReq(pch int32) bool {
	isNDPForPCh := func(r *request.Request) bool {
		return r.IsNDPReq && r.AddrVec.PseudoChannel() == pch
	}
	for _, buf := range [...]*request.Buffer{
		c.active, c.read[pch], c.write[pch], c.priority[pch],
		c.rdPrefetch[pch], c.wrPrefetch[pch],
	} {
		if buf.Find(isNDPForPCh) != nil {
			return false
		}
	}
	for _, s := range c.toRdPrefetch[pch] {
		if isNDPForPCh(s.req) {
			return false
		}
	}
	for _, s := range c.toWrPrefetch[pch] {
		if isNDPForPCh(s.req) {
			return false
		}
	}
	for _, r := range c.pending {
		if isNDPForPCh(r) {
			return false
		}
	}
	return true
}

// IsFinished reports whether the controller has no remaining in-flight or
// queued work (spec.md's end-of-simulation condition). Requests in the
// priority (refresh) buffers are not counted.
func (c *Controller) IsFinished() bool {
	if c.active.Len() != 0 || len(c.pending) != 0 {
		return false
	}
	for p := int32(0); p < c.numPCh; p++ {
		if c.read[p].Len() != 0 || c.write[p].Len() != 0 {
			return false
		}
		if c.rdPrefetch[p].Len() != 0 || c.wrPrefetch[p].Len() != 0 {
			return false
		}
		if len(c.toRdPrefetch[p]) != 0 || len(c.toWrPrefetch[p]) != 0 {
			return false
		}
	}
	return true
}
