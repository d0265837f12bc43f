package dram

import "github.com/hanloveland/ramulator2-sub000/pkg/request"

// NDPStatus is the embedded NDP unit's run state (spec.md §4.1).
type NDPStatus int

const (
	NDPIdle NDPStatus = iota
	NDPRun
	NDPBarrier
	NDPWaitDone
	NDPDone
)

// instMemWords sizes the NDP unit's instruction memory at 8 KB of 64-bit
// words (spec.md §4.1 "8 KB instruction memory").
const instMemWords = 1024

// NDP opcode values that change run status (spec.md §4.1).
const (
	ndpOpcodeBarrier  = 48
	ndpOpcodeWaitDone = 49
)

// NDPUnit is the compute logic embedded in one pseudo-channel. It is written
// to exclusively via NDP_DB_WR commands: a write to the instruction-memory
// region loads code, a write to the control register with payload[0]==1
// starts execution.
type NDPUnit struct {
	status NDPStatus
	instMem [instMemWords]uint64
	pc      int

	// instSlots pairs in-flight NDP-DRAM accesses against the (id, bg, bk)
	// triple carried by the launch program, per spec.md §4.1's last
	// paragraph. The authoritative bookkeeping for opsize/cnt against the
	// HSNC's own address-generator slots lives in pkg/ndp; this map exists
	// so the DRAM model can independently detect "no instruction slot
	// expects this NDP-DRAM access" without importing pkg/ndp.
	instSlots map[[3]int]*request.InstSlot
}

func newNDPUnit() *NDPUnit {
	return &NDPUnit{instSlots: make(map[[3]int]*request.InstSlot)}
}

// Status reports the unit's current run state.
func (u *NDPUnit) Status() NDPStatus { return u.status }

// WriteInstMem loads an 8-word payload into instruction memory starting at
// wordOffset (mod instMemWords), matching an NDP_DB_WR to the
// instruction-memory region.
func (u *NDPUnit) WriteInstMem(wordOffset int, payload request.Payload) {
	for i := 0; i < request.PayloadWords; i++ {
		u.instMem[(wordOffset+i)%instMemWords] = payload[i]
	}
}

// DebugReadInstMem returns the 8-word instruction slot starting at
// wordOffset, for the round-trip test described in spec.md §8.
func (u *NDPUnit) DebugReadInstMem(wordOffset int) request.Payload {
	var out request.Payload
	for i := 0; i < request.PayloadWords; i++ {
		out[i] = u.instMem[(wordOffset+i)%instMemWords]
	}
	return out
}

// WriteControlReg processes a write to the control register. payload[0]==1
// starts the unit (fatal if not idle, per spec.md §4.1 "Failure semantics").
func (u *NDPUnit) WriteControlReg(clk request.Clock, vec request.AddrVec, payload request.Payload) error {
	if payload[0] != 1 {
		return nil
	}
	if u.status != NDPIdle {
		return fatal(clk, vec, "NDP unit started while not idle (status=%d)", u.status)
	}
	u.status = NDPRun
	u.pc = 0
	return nil
}

// NDP memory-access opcodes within a fetched instruction word, sharing the
// NL-request field layout (opcode[63:60], opsize[59:53], bg[47:45],
// bk[44:43], id[17:15]).
const (
	ndpOpcodeRead  = 0
	ndpOpcodeWrite = 1
)

// decodedOp is one fetched 64-bit NDP instruction: the simulator recognizes
// the barrier/wait-done control-flow opcodes and the read/write memory ops
// (which open an instruction slot for their expected NDP-DRAM accesses);
// any other opcode is a no-op compute instruction that simply advances pc.
type decodedOp struct {
	opcode int
	opsize int
	bg     int
	bk     int
	id     int
}

func decodeNDPInst(word uint64) decodedOp {
	return decodedOp{
		opcode: int((word >> 60) & 0xF),
		opsize: int((word >> 53) & 0x7F),
		bg:     int((word >> 45) & 0x7),
		bk:     int((word >> 43) & 0x3),
		id:     int((word >> 15) & 0x7),
	}
}

// Tick runs one instruction fetch/execute step. Callers invoke this once
// every 4 DRAM cycles (spec.md §4.1 "advance the embedded NDP-unit clock
// every 4 DRAM cycles").
func (u *NDPUnit) Tick() {
	switch u.status {
	case NDPRun:
		inst := decodeNDPInst(u.instMem[u.pc%instMemWords])
		u.pc++
		switch inst.opcode {
		case ndpOpcodeBarrier:
			u.status = NDPBarrier
		case ndpOpcodeWaitDone:
			u.status = NDPWaitDone
		case ndpOpcodeRead, ndpOpcodeWrite:
			if inst.opsize > 0 {
				u.RegisterSlot(inst.id, inst.bg, inst.bk, inst.opsize)
			}
		}
	case NDPBarrier:
		u.status = NDPRun
	case NDPWaitDone:
		u.status = NDPDone
	}
}

// Reset returns the unit to idle, used when the HSNC tears down a program.
func (u *NDPUnit) Reset() {
	u.status = NDPIdle
	u.pc = 0
}

// RegisterSlot records that opsize NDP-DRAM accesses are expected for the
// given (id, bg, bk) triple.
func (u *NDPUnit) RegisterSlot(id, bg, bk, opsize int) {
	u.instSlots[[3]int{id, bg, bk}] = &request.InstSlot{Valid: true, OpSize: opsize}
}

// AccountNDPDRAMAccess increments the matching slot's count, removing it
// once opsize accesses have landed (spec.md §4.1).
func (u *NDPUnit) AccountNDPDRAMAccess(id, bg, bk int) {
	key := [3]int{id, bg, bk}
	slot, ok := u.instSlots[key]
	if !ok {
		return
	}
	slot.Cnt++
	if slot.Cnt >= slot.OpSize {
		delete(u.instSlots, key)
	}
}
