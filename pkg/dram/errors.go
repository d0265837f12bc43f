package dram

import (
	"fmt"

	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

// FatalError is raised for the invariant violations the device model
// detects: issuing a reserved or non-ready command, starting an NDP unit
// that is not idle, and a DB-prefetch counter running out of [0,32]. A
// payload's size is fixed by the request.Payload type, and accesses to
// unmapped NDP regions are not checked here. Propagation policy:
// all fatal errors surface at the tick() boundary carrying clock, channel,
// and pseudo-channel context (spec.md §7).
type FatalError struct {
	Clk     request.Clock
	Channel int32
	PCh     int32
	Msg     string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("ramsim: fatal at clk=%d channel=%d pch=%d: %s", e.Clk, e.Channel, e.PCh, e.Msg)
}

func fatal(clk request.Clock, vec request.AddrVec, format string, args ...any) error {
	return &FatalError{
		Clk:     clk,
		Channel: vec.Channel(),
		PCh:     vec.PseudoChannel(),
		Msg:     fmt.Sprintf(format, args...),
	}
}
