// Package ndp implements the host-side NDP control plane: the DIMM-level
// launch-request buffer, the per-pseudo-channel Host-Side NDP Controller
// (HSNC) state machine, and the address-generator slots that stream decoded
// NL-requests to the memory controller as ordinary DRAM-addressed commands
// (spec.md §4.5).
package ndp

// Opcode identifies the primitive an NL-request word encodes.
type Opcode int

const (
	OpRD         Opcode = 0
	OpWR         Opcode = 1
	OpBAR        Opcode = 2
	OpWaitRes    Opcode = 3
	OpLoopStart  Opcode = 4
	OpLoopEnd    Opcode = 5
	OpWait       Opcode = 6
	OpDone       Opcode = 15
)

// NLRequest is one decoded NL-request opcode word (spec.md §4.5's bit
// layout: opcode[63:60] | opsize[59:53] | ch[52:50] | pch[49:48] |
// bg[47:45] | bk[44:43] | row[42:25] | col[24:18] | id[17:15] | etc[14:0]).
type NLRequest struct {
	Opcode Opcode
	OpSize int
	Ch     int
	PCh    int
	BG     int
	BK     int
	Row    int
	Col    int
	ID     int
	Etc    int
}

func bits(word uint64, hi, lo uint) int {
	mask := uint64(1)<<(hi-lo+1) - 1
	return int((word >> lo) & mask)
}

// DecodeNLRequest unpacks a 64-bit NL-request word.
func DecodeNLRequest(word uint64) NLRequest {
	return NLRequest{
		Opcode: Opcode(bits(word, 63, 60)),
		OpSize: bits(word, 59, 53),
		Ch:     bits(word, 52, 50),
		PCh:    bits(word, 49, 48),
		BG:     bits(word, 47, 45),
		BK:     bits(word, 44, 43),
		Row:    bits(word, 42, 25),
		Col:    bits(word, 24, 18),
		ID:     bits(word, 17, 15),
		Etc:    bits(word, 14, 0),
	}
}
