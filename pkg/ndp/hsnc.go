package ndp

import (
	"fmt"

	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

// Status is the HSNC's run state (spec.md §4.5).
type Status int

const (
	Idle Status = iota
	IssueStart
	BeforeRun
	Run
	Bar
	Wait
	WaitRes
	Done
)

// nlSlotCap and genSlotCap bound the per-pseudo-channel NL-request slot
// array and address-generator slot array (spec.md §4.5).
const (
	nlSlotCap  = 16
	genSlotCap = 8
)

// waitPollInterval is the cycle count the WAIT state counts down before
// issuing a polling NDP_DB_RD, and the value it re-arms to when the poll
// reports "not yet issuable" (spec.md §4.5: "re-arm counter to 64*10").
const waitPollInterval = 64 * 10

// Controller is the subset of *controller.Controller the HSNC drives.
type Controller interface {
	Send(req *request.Request) bool
	IsEmptyNDPReq(pch int32) bool
}

// FatalError reports an HSNC invariant violation (e.g. a reserved opcode
// actually decoded, or WAIT_RES entered).
type FatalError struct {
	PCh int32
	Msg string
}

func (e *FatalError) Error() string { return fmt.Sprintf("ndp: pch %d: %s", e.PCh, e.Msg) }

// PCh is one pseudo-channel's Host-Side NDP Controller state.
type PCh struct {
	id     int32
	status Status

	nlSlots []uint64
	gen     []*request.AccInstSlot
	rr      int

	waitCounter int
	pollPending bool

	controlRegVec request.AddrVec
}

// NewPCh creates an idle HSNC for pseudo-channel id, addressing its NDP
// control register at controlRegVec.
func NewPCh(id int32, controlRegVec request.AddrVec) *PCh {
	return &PCh{id: id, controlRegVec: controlRegVec}
}

// Status reports the current run state.
func (p *PCh) Status() Status { return p.status }

// TriggerStart moves an idle HSNC to ISSUE_START, per a host write to the
// NDP control register with payload[pch] != 0.
func (p *PCh) TriggerStart() {
	if p.status == Idle {
		p.status = IssueStart
	}
}

// Feed drains up to one 8-word group from the DIMM-level launch buffer into
// the NL-request slot array, if there is room and a group is queued for
// this pseudo-channel.
func (p *PCh) Feed(lb *LaunchBuffer) {
	if len(p.nlSlots)+groupSize > nlSlotCap {
		return
	}
	group, ok := lb.PeekGroupFor(int(p.id))
	if !ok {
		return
	}
	p.nlSlots = append(p.nlSlots, group[:]...)
	lb.PopGroup()
}

// Tick advances this pseudo-channel's HSNC by one cycle.
func (p *PCh) Tick(clk request.Clock, ch int32, ctrl Controller) error {
	switch p.status {
	case IssueStart:
		if ctrl.IsEmptyNDPReq(p.id) {
			req := request.New(request.Write, 0, p.controlRegVec, -1, nil)
			req.IsNDPReq = true
			req.HasPayload = true
			for i := range req.Payload {
				req.Payload[i] = 1
			}
			req.FinalCommand = int(dram.NDP_DB_WR)
			if ctrl.Send(req) {
				p.status = BeforeRun
			}
		}
	case BeforeRun:
		if ctrl.IsEmptyNDPReq(p.id) {
			p.status = Run
		}
	case Run:
		if err := p.sendNDPReqToMC(ctrl); err != nil {
			return err
		}
		if err := p.decodeOneNLRequest(); err != nil {
			return err
		}
	case Bar:
		if err := p.sendNDPReqToMC(ctrl); err != nil {
			return err
		}
		if len(p.gen) == 0 && ctrl.IsEmptyNDPReq(p.id) {
			p.status = Run
		}
	case Wait:
		if p.pollPending {
			return nil
		}
		p.waitCounter--
		if p.waitCounter <= 0 {
			p.pollPending = true
			req := request.New(request.Read, 0, p.controlRegVec, -1, func(r *request.Request) {
				p.pollPending = false
				if r.Payload[0] != 0 {
					p.status = Run
				} else {
					p.waitCounter = waitPollInterval
				}
			})
			req.IsNDPReq = true
			req.FinalCommand = int(dram.NDP_DB_RD)
			ctrl.Send(req)
		}
	case WaitRes:
		return &FatalError{PCh: p.id, Msg: "WAIT_RES is reserved and must never be entered"}
	case Done:
		if err := p.sendNDPReqToMC(ctrl); err != nil {
			return err
		}
		if len(p.gen) == 0 && ctrl.IsEmptyNDPReq(p.id) {
			p.status = Idle
		}
	case Idle:
	}
	return nil
}

// sendNDPReqToMC streams at most one address-generator slot's next access
// to the controller per tick (spec.md §4.5).
func (p *PCh) sendNDPReqToMC(ctrl Controller) error {
	if len(p.gen) == 0 {
		return nil
	}
	for i := 0; i < len(p.gen); i++ {
		idx := (p.rr + i) % len(p.gen)
		slot := p.gen[idx]

		var vec request.AddrVec
		for j := range vec {
			vec[j] = request.Unspecified
		}
		vec[request.LevelChannel] = int32(slot.Ch)
		vec[request.LevelPseudoChannel] = int32(slot.PCh)
		vec[request.LevelBankGroup] = int32(slot.BG)
		vec[request.LevelBank] = int32(slot.BK)
		vec[request.LevelRow] = int32(slot.Row)
		vec[request.LevelColumn] = int32(slot.Col)

		kind := request.Read
		final := dram.NDP_DRAM_RD
		if slot.Opcode == int(OpWR) {
			kind = request.Write
			final = dram.NDP_DRAM_WR
		}
		req := request.New(kind, 0, vec, -1, nil)
		req.IsNDPReq = true
		req.NDPID = slot.ID
		req.FinalCommand = int(final)

		if !ctrl.Send(req) {
			continue
		}
		slot.Cnt++
		slot.Col++
		p.rr = (idx + 1) % len(p.gen)
		if slot.Done() {
			p.gen = append(p.gen[:idx], p.gen[idx+1:]...)
		}
		return nil
	}
	return nil
}

// decodeOneNLRequest pops and decodes the oldest queued NL-request word, if
// the address-generator slot array has room.
func (p *PCh) decodeOneNLRequest() error {
	if len(p.nlSlots) == 0 || len(p.gen) >= genSlotCap {
		return nil
	}
	word := p.nlSlots[0]
	p.nlSlots = p.nlSlots[1:]
	nl := DecodeNLRequest(word)

	switch nl.Opcode {
	case OpBAR:
		p.status = Bar
	case OpWait:
		p.status = Wait
		p.waitCounter = waitPollInterval
	case OpDone:
		p.status = Done
	case OpRD, OpWR:
		p.gen = append(p.gen, &request.AccInstSlot{
			Valid: true, Opcode: int(nl.Opcode), OpSize: nl.OpSize,
			Ch: nl.Ch, PCh: nl.PCh, BG: nl.BG, BK: nl.BK,
			Row: nl.Row, Col: nl.Col, ID: nl.ID, Etc: nl.Etc,
		})
	case OpLoopStart, OpLoopEnd:
		return &FatalError{PCh: p.id, Msg: "LOOP_START/LOOP_END are reserved opcodes"}
	case OpWaitRes:
		return &FatalError{PCh: p.id, Msg: "WAIT_RES opcode is reserved"}
	}
	return nil
}
