package ndp

import (
	"testing"

	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

func TestDecodeNLRequestFields(t *testing.T) {
	// opcode=1(WR), opsize=8, ch=0, pch=1, bg=2, bk=1, row=5, col=3, id=2, etc=0
	var word uint64
	word |= uint64(1) << 60
	word |= uint64(8) << 53
	word |= uint64(0) << 50
	word |= uint64(1) << 48
	word |= uint64(2) << 45
	word |= uint64(1) << 43
	word |= uint64(5) << 25
	word |= uint64(3) << 18
	word |= uint64(2) << 15

	nl := DecodeNLRequest(word)
	if nl.Opcode != OpWR || nl.OpSize != 8 || nl.PCh != 1 || nl.BG != 2 || nl.BK != 1 ||
		nl.Row != 5 || nl.Col != 3 || nl.ID != 2 {
		t.Fatalf("decoded %+v does not match encoded fields", nl)
	}
}

// fakeController is a minimal Controller stub.
type fakeController struct {
	sent       []*request.Request
	emptyNDP   bool
	rejectSend bool
}

func (f *fakeController) Send(req *request.Request) bool {
	if f.rejectSend {
		return false
	}
	f.sent = append(f.sent, req)
	return true
}
func (f *fakeController) IsEmptyNDPReq(pch int32) bool { return f.emptyNDP }

func nlWord(op Opcode, opsize, bg, bk, row, col, id int) uint64 {
	var w uint64
	w |= uint64(op) << 60
	w |= uint64(opsize) << 53
	w |= uint64(bg) << 45
	w |= uint64(bk) << 43
	w |= uint64(row) << 25
	w |= uint64(col) << 18
	w |= uint64(id) << 15
	return w
}

func TestHSNCStartupSequence(t *testing.T) {
	p := NewPCh(0, request.AddrVec{})
	ctrl := &fakeController{emptyNDP: true}

	p.TriggerStart()
	if p.Status() != IssueStart {
		t.Fatalf("expected IssueStart after TriggerStart, got %v", p.Status())
	}

	if err := p.Tick(0, 0, ctrl); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if p.Status() != BeforeRun {
		t.Fatalf("expected BeforeRun after issuing NDP_DB_WR, got %v", p.Status())
	}
	if len(ctrl.sent) != 1 || dram.Command(ctrl.sent[0].FinalCommand) != dram.NDP_DB_WR {
		t.Fatalf("expected exactly one NDP_DB_WR sent to the control register")
	}

	if err := p.Tick(1, 0, ctrl); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if p.Status() != Run {
		t.Fatalf("expected Run once controller reports no outstanding NDP requests, got %v", p.Status())
	}
}

func TestHSNCDecodesRDIntoGeneratorSlotAndStreams(t *testing.T) {
	p := NewPCh(0, request.AddrVec{})
	p.status = Run
	p.nlSlots = append(p.nlSlots, nlWord(OpRD, 8, 0, 0, 0, 0, 0))
	ctrl := &fakeController{emptyNDP: true}

	if err := p.Tick(0, 0, ctrl); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(p.gen) != 1 {
		t.Fatalf("expected the decoded RD to land in the address-generator slot array")
	}

	for i := 0; i < 8; i++ {
		if err := p.Tick(request.Clock(i+1), 0, ctrl); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if len(p.gen) != 0 {
		t.Fatalf("expected the generator slot to be removed once opsize accesses were sent")
	}
	if len(ctrl.sent) != 8 {
		t.Fatalf("expected 8 NDP_DRAM_RD requests, got %d", len(ctrl.sent))
	}
	for _, req := range ctrl.sent {
		if dram.Command(req.FinalCommand) != dram.NDP_DRAM_RD {
			t.Fatalf("expected NDP_DRAM_RD final command")
		}
	}
}

func TestHSNCBarrierHoldsUntilDrainedAndIdle(t *testing.T) {
	p := NewPCh(0, request.AddrVec{})
	p.status = Run
	p.nlSlots = append(p.nlSlots, nlWord(OpBAR, 0, 0, 0, 0, 0, 0))
	ctrl := &fakeController{emptyNDP: true}

	if err := p.Tick(0, 0, ctrl); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if p.Status() != Bar {
		t.Fatalf("expected Bar, got %v", p.Status())
	}
	if err := p.Tick(1, 0, ctrl); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if p.Status() != Run {
		t.Fatalf("expected Bar to drain back to Run once generator slots are empty and no NDP requests are outstanding")
	}
}

func TestHSNCReservedOpcodeIsFatal(t *testing.T) {
	p := NewPCh(0, request.AddrVec{})
	p.status = Run
	p.nlSlots = append(p.nlSlots, nlWord(OpLoopStart, 0, 0, 0, 0, 0, 0))
	ctrl := &fakeController{emptyNDP: true}

	if err := p.Tick(0, 0, ctrl); err == nil {
		t.Fatalf("expected LOOP_START to be fatal")
	}
}

func TestHSNCWaitPollsAndReentersRun(t *testing.T) {
	p := NewPCh(0, request.AddrVec{})
	p.status = Wait
	p.waitCounter = 1
	ctrl := &fakeController{emptyNDP: true}

	if err := p.Tick(0, 0, ctrl); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(ctrl.sent) != 1 {
		t.Fatalf("expected a polling NDP_DB_RD once the wait counter elapsed")
	}
	ctrl.sent[0].Payload[0] = 1
	ctrl.sent[0].Callback(ctrl.sent[0])
	if p.Status() != Run {
		t.Fatalf("expected Run once the poll reports issuable")
	}
}

func TestLaunchBufferFeedsNLSlots(t *testing.T) {
	lb := NewLaunchBuffer()
	var words [groupSize]uint64
	words[0] = nlWord(OpRD, 8, 0, 0, 0, 0, 0)
	if !lb.Append(1, words) {
		t.Fatalf("expected append to succeed")
	}

	p := NewPCh(1, request.AddrVec{})
	p.Feed(lb)
	if len(p.nlSlots) != groupSize {
		t.Fatalf("expected 8 words fed into the NL-request slot array, got %d", len(p.nlSlots))
	}
	if lb.Len() != 0 {
		t.Fatalf("expected the group to be popped from the launch buffer")
	}
}
