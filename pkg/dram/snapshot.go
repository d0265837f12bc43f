package dram

import "github.com/hanloveland/ramulator2-sub000/pkg/request"

// DebugReadInstMem exposes the word slot an NDP_DB_WR to wordOffset would
// have written, for the instruction-memory round-trip test described in
// spec.md §8: write a launch program through the normal command path, then
// read it back through this hook and compare.
func (d *Device) DebugReadInstMem(vec request.AddrVec, wordOffset int) request.Payload {
	return d.NDPUnitFor(vec).DebugReadInstMem(wordOffset)
}

// DebugNDPStatus exposes vec's pseudo-channel NDP run state for tests.
func (d *Device) DebugNDPStatus(vec request.AddrVec) NDPStatus {
	return d.NDPUnitFor(vec).Status()
}

// DebugBankState exposes a bank node's open/closed state and open row for
// tests, without forcing callers to reach into the tree directly.
func (d *Device) DebugBankState(vec request.AddrVec) (state NodeState, openRow int32) {
	node := d.tree.getOrCreate(vec, Bank)
	n := d.tree.node(node)
	return n.state, n.openRow
}
