// Package addrmap decomposes a linear byte address into the coordinate
// vector the rest of the simulator operates on (spec.md §4.5: "The mapper's
// public contract is apply(&mut Request) mutating addr_vec").
package addrmap

import (
	"math/bits"

	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

// field is one level's bit width and shift within the linear address.
type field struct {
	level int
	width uint
	shift uint
}

// AddrMapper is a fixed bit-sliced linear mapper: column occupies the
// lowest bits, followed by bank, bank group, rank, wide-io, narrow-io,
// pseudo-channel, and channel, with any remaining high bits forming the
// row (from the most significant bits down: Ro-Ch-PCh-NIO-WIO-Ra-BG-Ba-Co),
// so that sequential addresses fill a row's columns, then spread across
// banks, before wrapping into the next row.
type AddrMapper struct {
	fields []field
	rowShift uint
}

// New builds an AddrMapper sized to org's per-level counts.
func New(org dram.Org) *AddrMapper {
	m := &AddrMapper{}
	shift := uint(0)
	add := func(level int, count int) {
		w := widthFor(count)
		m.fields = append(m.fields, field{level: level, width: w, shift: shift})
		shift += w
	}
	add(request.LevelColumn, org.Columns)
	add(request.LevelBank, org.Banks)
	add(request.LevelBankGroup, org.BankGroups)
	add(request.LevelRank, org.Ranks)
	add(request.LevelWideIO, org.WideIO)
	add(request.LevelNarrowIO, org.NarrowIO)
	add(request.LevelPseudoChannel, org.PseudoChannels)
	add(request.LevelChannel, org.Channels)
	m.rowShift = shift
	return m
}

func widthFor(count int) uint {
	if count <= 1 {
		return 0
	}
	return uint(bits.Len(uint(count - 1)))
}

// Encode composes the linear address that Apply would decompose into vec.
// Unspecified coordinates contribute zero bits. Used by front ends that
// address a known coordinate (the NDP control register and launch-request
// region) through the ordinary linear-address path.
func (m *AddrMapper) Encode(vec request.AddrVec) int64 {
	var addr uint64
	for _, f := range m.fields {
		c := vec[f.level]
		if c == request.Unspecified || f.width == 0 {
			continue
		}
		addr |= uint64(c) << f.shift
	}
	if row := vec[request.LevelRow]; row != request.Unspecified {
		addr |= uint64(row) << m.rowShift
	}
	return int64(addr)
}

// Apply decomposes req.Addr into req.AddrVec.
func (m *AddrMapper) Apply(req *request.Request) {
	addr := uint64(req.Addr)
	for _, f := range m.fields {
		if f.width == 0 {
			req.AddrVec[f.level] = 0
			continue
		}
		mask := uint64(1)<<f.width - 1
		req.AddrVec[f.level] = int32((addr >> f.shift) & mask)
	}
	req.AddrVec[request.LevelRow] = int32(addr >> m.rowShift)
}
