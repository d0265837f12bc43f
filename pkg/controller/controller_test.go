package controller

import (
	"errors"
	"testing"

	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

// fakeDevice is a minimal Device stub for exercising the controller's
// lifecycle without a full DRAM device fixture.
type fakeDevice struct {
	ready     map[dram.Command]bool
	preq      dram.Command
	prePreq   dram.Command
	rowHit    bool
	nodeOpen  bool
	issued    []dram.Command
	issueErr  error
	rdCredit  int
	wrCredit  int
	ndpWrites int
	ndpAccts  int
}

func (f *fakeDevice) CheckReady(clk request.Clock, cmd dram.Command, vec request.AddrVec) bool {
	return f.ready[cmd]
}
func (f *fakeDevice) GetPreqCommand(final dram.Command, vec request.AddrVec) dram.Command {
	return f.preq
}
func (f *fakeDevice) GetPreqPreCommand(final dram.Command, vec request.AddrVec) dram.Command {
	return f.prePreq
}
func (f *fakeDevice) IssueCommand(clk request.Clock, cmd dram.Command, vec request.AddrVec) error {
	if f.issueErr != nil {
		return f.issueErr
	}
	f.issued = append(f.issued, cmd)
	return nil
}
func (f *fakeDevice) AdjustDBReadPrefetch(clk request.Clock, vec request.AddrVec, delta int) error {
	f.rdCredit += delta
	return nil
}
func (f *fakeDevice) AdjustDBWritePrefetch(clk request.Clock, vec request.AddrVec, delta int) error {
	f.wrCredit += delta
	return nil
}
func (f *fakeDevice) CheckRowBufferHit(vec request.AddrVec) bool { return f.rowHit }
func (f *fakeDevice) CheckNodeOpen(vec request.AddrVec) bool     { return f.nodeOpen }
func (f *fakeDevice) ApplyNDPDBWrite(clk request.Clock, vec request.AddrVec, payload request.Payload) error {
	f.ndpWrites++
	return nil
}
func (f *fakeDevice) AccountNDPDRAMAccess(vec request.AddrVec, id int) { f.ndpAccts++ }

// fakeScheduler always hands back the head of whichever buffer it is asked
// about, stamping it with the preset command.
type fakeScheduler struct {
	command     dram.Command
	preCommand  dram.Command
	noPreResult bool
	noLUTResult bool
}

func (s *fakeScheduler) GetBestRequest(clk request.Clock, buf *request.Buffer) *request.Request {
	req := buf.Head()
	if req == nil {
		return nil
	}
	req.Command = int(s.command)
	return req
}

func (s *fakeScheduler) GetBestPreRequest(clk request.Clock, buf *request.Buffer) *request.Request {
	if s.noPreResult {
		return nil
	}
	req := buf.Head()
	if req == nil {
		return nil
	}
	req.Command = int(s.preCommand)
	return req
}

func (s *fakeScheduler) GetBestRequestWithPriority(clk request.Clock, buf *request.Buffer, lutIndex int) *request.Request {
	if s.noLUTResult {
		return nil
	}
	return s.GetBestRequest(clk, buf)
}

func testConfig() Config {
	return DefaultConfig(dram.TimingPresets["DDR5_4800B"], 20)
}

func testVec() request.AddrVec {
	var v request.AddrVec
	return v
}

func newController(dev *fakeDevice, sched *fakeScheduler) *Controller {
	return New(dev, sched, 0, 1, testConfig())
}

func TestSendForwardsReadFromPendingWrite(t *testing.T) {
	dev := &fakeDevice{ready: map[dram.Command]bool{}}
	sched := &fakeScheduler{}
	c := newController(dev, sched)

	w := request.New(request.Write, 42, testVec(), 0, nil)
	if !c.Send(w) {
		t.Fatalf("expected write to enqueue")
	}

	var fired bool
	r := request.New(request.Read, 42, testVec(), 0, func(*request.Request) { fired = true })
	if !c.Send(r) {
		t.Fatalf("expected read to be forwarded, not rejected")
	}
	if c.read[0].Len() != 0 {
		t.Fatalf("forwarded read should not land in the read buffer")
	}
	if len(c.pending) != 1 {
		t.Fatalf("forwarded read should land directly in the pending queue")
	}

	if err := c.Tick(r.DepartClk); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !fired {
		t.Fatalf("expected the forwarded read's callback to fire once its DepartClk arrived")
	}
}

func TestTickPromotesOpeningCommandToActiveBuffer(t *testing.T) {
	dev := &fakeDevice{ready: map[dram.Command]bool{dram.ACT: true}}
	sched := &fakeScheduler{command: dram.ACT}
	c := newController(dev, sched)

	req := request.New(request.Read, 0, testVec(), 0, nil)
	req.FinalCommand = int(dram.RD)
	c.Send(req)

	if err := c.Tick(0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.read[0].Len() != 0 {
		t.Fatalf("expected the request to leave the read buffer once ACT issued")
	}
	if c.active.Len() != 1 {
		t.Fatalf("expected the request to be promoted into the active buffer")
	}
	if !req.IsActived {
		t.Fatalf("expected IsActived to be set")
	}
}

func TestTickRetiresRequestOnFinalCommand(t *testing.T) {
	dev := &fakeDevice{ready: map[dram.Command]bool{dram.RD: true}}
	sched := &fakeScheduler{command: dram.RD}
	c := newController(dev, sched)

	req := request.New(request.Read, 0, testVec(), 0, nil)
	req.FinalCommand = int(dram.RD)
	req.IsActived = true
	c.active.Enqueue(req)

	if err := c.Tick(5); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.active.Len() != 0 {
		t.Fatalf("expected the request to leave the active buffer once its final command issued")
	}
	if len(c.pending) != 1 {
		t.Fatalf("expected the completed read to land in the pending queue")
	}
	if c.pending[0].DepartClk != 5+20 {
		t.Fatalf("DepartClk = %d, want %d", c.pending[0].DepartClk, 25)
	}
}

func TestConflictsWithActiveBlocksPrecharge(t *testing.T) {
	dev := &fakeDevice{ready: map[dram.Command]bool{dram.PRE: true}}
	sched := &fakeScheduler{command: dram.PRE}
	c := newController(dev, sched)

	vec := testVec()
	other := request.New(request.Read, 0, vec, 0, nil)
	other.IsActived = true
	c.active.Enqueue(other)

	req := request.New(request.Read, 0, vec, 0, nil)
	req.FinalCommand = int(dram.RD)
	req.IsActived = true
	c.active.Enqueue(req)

	if err := c.Tick(0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(dev.issued) != 0 {
		t.Fatalf("expected the precharge to be withheld while another active-buffer entry still needs the bank open")
	}
}

func TestIsFinishedReportsWhenAllQueuesDrain(t *testing.T) {
	dev := &fakeDevice{ready: map[dram.Command]bool{}}
	sched := &fakeScheduler{}
	c := newController(dev, sched)

	if !c.IsFinished() {
		t.Fatalf("expected a freshly created controller to be finished")
	}

	req := request.New(request.Read, 0, testVec(), 0, nil)
	c.Send(req)
	if c.IsFinished() {
		t.Fatalf("expected a queued request to block IsFinished")
	}
}

func TestPreStageSynthesizesPostIntoStagingList(t *testing.T) {
	// Silence the LUT probes so the read-pre probe is the one that wins
	// the matrix search, exercising the full PRE_RD -> staged POST_RD ->
	// prefetch buffer -> pending path.
	dev := &fakeDevice{ready: map[dram.Command]bool{dram.PRE_RD: true}}
	sched := &fakeScheduler{preCommand: dram.PRE_RD, noLUTResult: true}
	c := newController(dev, sched)

	req := request.New(request.Read, 0, testVec(), 0, nil)
	c.Send(req)

	if err := c.Tick(0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.read[0].Len() != 0 {
		t.Fatalf("expected the read to retire from the read buffer on PRE_RD issue")
	}
	if dram.Command(req.FinalCommand) != dram.PRE_RD || !req.IsDBCmd {
		t.Fatalf("expected the candidate rewritten to PRE_RD with IsDBCmd set")
	}
	if len(c.toRdPrefetch[0]) != 1 {
		t.Fatalf("expected a synthesized POST_RD in the read-prefetch staging list")
	}
	post := c.toRdPrefetch[0][0]
	if dram.Command(post.req.FinalCommand) != dram.POST_RD {
		t.Fatalf("staged final = %v, want POST_RD", dram.Command(post.req.FinalCommand))
	}
	if post.remaining != testConfig().NBL {
		t.Fatalf("POST_RD transit = %d, want nBL = %d", post.remaining, testConfig().NBL)
	}
	if dev.rdCredit != 1 || dev.wrCredit != 0 {
		t.Fatalf("expected one read-direction prefetch credit granted on PRE_RD issue")
	}
	if c.counters[0].postRD != 1 {
		t.Fatalf("expected the POST_RD outstanding counter to be incremented")
	}
	if c.counters[0].hostRD != 0 {
		t.Fatalf("expected the host-read counter released on PRE_RD retirement")
	}

	// Drain the transit timer with issue held back; the POST_RD must
	// surface in the read-prefetch buffer.
	sched.preCommand = 0
	sched.noPreResult = true
	for clk := request.Clock(1); clk <= request.Clock(testConfig().NBL); clk++ {
		if err := c.Tick(clk); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if c.rdPrefetch[0].Len() != 1 {
		t.Fatalf("expected the staged POST_RD to surface in the read-prefetch buffer")
	}

	dev.ready[dram.POST_RD] = true
	sched.command = dram.POST_RD
	clk := request.Clock(testConfig().NBL) + 1
	if err := c.Tick(clk); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.rdPrefetch[0].Len() != 0 || len(c.pending) != 1 {
		t.Fatalf("expected the POST_RD to issue and enqueue the pending read completion")
	}
	if dev.rdCredit != 0 {
		t.Fatalf("expected the read-direction prefetch credit returned on POST_RD issue")
	}
	if c.counters[0].postRD != 0 {
		t.Fatalf("expected the POST_RD outstanding counter released")
	}
}

func TestModeMachineEntersNDPWriteOnOutstandingNDPDBWrite(t *testing.T) {
	dev := &fakeDevice{ready: map[dram.Command]bool{}}
	sched := &fakeScheduler{}
	c := newController(dev, sched)

	req := request.New(request.Write, 0, testVec(), 0, nil)
	req.IsNDPReq = true
	req.FinalCommand = int(dram.NDP_DB_WR)
	req.HasPayload = true
	if !c.Send(req) {
		t.Fatalf("expected NDP_DB_WR to enqueue")
	}

	if err := c.Tick(0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	mcDB, _ := c.Modes(0)
	if mcDB != ModeDBNDPWrite {
		t.Fatalf("mc_db mode = %v, want DB_NDP_WR while an NDP_DB_WR is outstanding", mcDB)
	}
}

func TestModeMachinePrefersRefreshWhileREFPending(t *testing.T) {
	dev := &fakeDevice{ready: map[dram.Command]bool{}}
	sched := &fakeScheduler{}
	c := newController(dev, sched)

	ref := request.New(request.Read, 0, testVec(), 0, nil)
	ref.FinalCommand = int(dram.REFab)
	if !c.PrioritySend(ref) {
		t.Fatalf("expected priority send to succeed")
	}

	if err := c.Tick(0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	_, dbDRAM := c.Modes(0)
	if dbDRAM != ModeDRAMRefresh {
		t.Fatalf("db_dram mode = %v, want DRAM_REF while a refresh is pending", dbDRAM)
	}
}

func TestModeCyclesConserveWindowLength(t *testing.T) {
	dev := &fakeDevice{ready: map[dram.Command]bool{}}
	sched := &fakeScheduler{}
	c := newController(dev, sched)

	const window = 100
	for clk := request.Clock(0); clk < window; clk++ {
		if err := c.Tick(clk); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	mcDB, dbDRAM := c.ModeCycles(0)
	var mcSum, dramSum int64
	for _, v := range mcDB {
		mcSum += v
	}
	for _, v := range dbDRAM {
		dramSum += v
	}
	if mcSum != window || dramSum != window {
		t.Fatalf("mode cycles = (%d, %d), want both %d", mcSum, dramSum, window)
	}
}

func TestNDPHeadroomRejectsWhenExhausted(t *testing.T) {
	dev := &fakeDevice{ready: map[dram.Command]bool{}}
	sched := &fakeScheduler{}
	cfg := testConfig()
	cfg.NDPWriteHighThreshold = 0 // no NDP write headroom at all
	c := New(dev, sched, 0, 1, cfg)

	req := request.New(request.Write, 0, testVec(), 0, nil)
	req.IsNDPReq = true
	req.FinalCommand = int(dram.NDP_DRAM_WR)
	if c.Send(req) {
		t.Fatalf("expected an NDP write to be rejected with zero headroom")
	}
}

func TestPrioritySendMarksRefreshFinalCommand(t *testing.T) {
	dev := &fakeDevice{ready: map[dram.Command]bool{}}
	sched := &fakeScheduler{}
	c := newController(dev, sched)

	req := request.New(request.Read, 0, testVec(), 0, nil)
	req.FinalCommand = int(dram.REFab)
	if !c.PrioritySend(req) {
		t.Fatalf("expected priority send to succeed")
	}
	if c.priority[0].Len() != 1 {
		t.Fatalf("expected the refresh request to land in the priority buffer")
	}
	if c.counters[0].ref != 1 {
		t.Fatalf("expected the REF outstanding counter to be incremented")
	}
}

func TestTickPropagatesIssueError(t *testing.T) {
	dev := &fakeDevice{ready: map[dram.Command]bool{dram.RD: true}, issueErr: errors.New("boom")}
	sched := &fakeScheduler{command: dram.RD}
	c := newController(dev, sched)

	req := request.New(request.Read, 0, testVec(), 0, nil)
	req.FinalCommand = int(dram.RD)
	req.IsActived = true
	c.active.Enqueue(req)

	if err := c.Tick(0); err == nil {
		t.Fatalf("expected Tick to propagate the device's issue error")
	}
}
