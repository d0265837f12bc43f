package controller

import (
	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

// Config carries the controller's tunable knobs (spec.md §6 "Controller"
// group). Zero values are never valid; construct through DefaultConfig and
// override individual fields.
type Config struct {
	// ReadLatency is the fixed callback delay applied once a read reaches
	// its final command (depart_clk = clk + ReadLatency).
	ReadLatency request.Clock

	// NBL is the burst length in cycles, used to size the POST_RD/POST_WR
	// staging transit (nBL and 4*nBL respectively).
	NBL int64

	// Write-buffer occupancy watermarks, as fractions of buffer capacity.
	WrHighWatermark float64
	WrLowWatermark  float64

	// NDPWrMaxAge is how many cycles an NDP-DRAM write may sit unserved
	// before the DB<->DRAM mode machine forces a DRAM_NDP_WR dwell.
	NDPWrMaxAge int64

	// Minimum dwell times for the DRAM_NDP_WR and DRAM_RD modes.
	NDPWrModeMinTime  int64
	DRAMRdModeMinTime int64

	// NDP request admission headroom, as fractions of buffer capacity.
	NDPReadHighThreshold  float64
	NDPWriteHighThreshold float64

	// AdaptiveRowCap is the reduced row-hit cap applied to a bank whose
	// open row conflicts with a buffered request (spec.md §4.4.3).
	AdaptiveRowCap int
}

// DefaultConfig returns the controller configuration for timing preset t
// with the spec's default knob values.
func DefaultConfig(t dram.Timing, readLatency request.Clock) Config {
	return Config{
		ReadLatency:           readLatency,
		NBL:                   t.NBL,
		WrHighWatermark:       0.8,
		WrLowWatermark:        0.2,
		NDPWrMaxAge:           512,
		NDPWrModeMinTime:      512,
		DRAMRdModeMinTime:     512,
		NDPReadHighThreshold:  0.8,
		NDPWriteHighThreshold: 0.8,
		AdaptiveRowCap:        AdaptiveRowCapLow,
	}
}
