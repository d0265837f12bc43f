package controller

import "github.com/hanloveland/ramulator2-sub000/pkg/request"

// Row-buffer hit cap values for the adaptive open-page policy (spec.md
// §4.4.3): a bank whose open row differs from the row of the head request
// in its pseudo-channel's read or write buffer is capped at the low value;
// activating a row restores the high cap.
const (
	AdaptiveRowCapLow  = 16
	AdaptiveRowCapHigh = 128
)

// bankKey flattens a bank's coordinate for the adaptive-cap and open-row
// tracking maps.
type bankKey struct {
	pch, bg, bank int32
}

// RowPolicy tracks each bank's adaptive row-buffer hit cap and decides when
// a row should be force-closed after serving too many consecutive hits.
type RowPolicy struct {
	cap     map[bankKey]int
	hits    map[bankKey]int
	openRow map[bankKey]int32
}

// NewRowPolicy creates a row policy with every bank defaulted to the high
// cap (no contention observed yet).
func NewRowPolicy() *RowPolicy {
	return &RowPolicy{
		cap:     make(map[bankKey]int),
		hits:    make(map[bankKey]int),
		openRow: make(map[bankKey]int32),
	}
}

func keyFor(vec request.AddrVec) bankKey {
	return bankKey{vec.PseudoChannel(), vec.BankGroup(), vec.Bank()}
}

// UpdateCap sets the row-buffer hit cap for one bank (a head request that
// misses the open row drives this to the configured low cap; an ACT
// restores AdaptiveRowCapHigh).
func (p *RowPolicy) UpdateCap(vec request.AddrVec, cap int) {
	p.cap[keyFor(vec)] = cap
}

func (p *RowPolicy) capFor(k bankKey) int {
	if c, ok := p.cap[k]; ok {
		return c
	}
	return AdaptiveRowCapHigh
}

// Update records that req was issued an opening (ACT) command, resetting
// the hit counter, or a closing command, clearing the tracked open row.
func (p *RowPolicy) Update(vec request.AddrVec, isOpening, isClosing bool) {
	k := keyFor(vec)
	switch {
	case isOpening:
		p.hits[k] = 0
		p.openRow[k] = vec.Row()
	case isClosing:
		delete(p.openRow, k)
		p.hits[k] = 0
	}
}

// ShouldForceClose reports whether a row-buffer-hit request to vec should
// instead be treated as a miss, because the bank has already served its
// adaptive cap's worth of consecutive hits on the currently open row.
func (p *RowPolicy) ShouldForceClose(vec request.AddrVec) bool {
	k := keyFor(vec)
	row, open := p.openRow[k]
	if !open || row != vec.Row() {
		return false
	}
	return p.hits[k] >= p.capFor(k)
}

// RecordHit increments vec's bank's consecutive-hit counter.
func (p *RowPolicy) RecordHit(vec request.AddrVec) {
	p.hits[keyFor(vec)]++
}
