// Package memsystem is the top-level tick driver: it owns the address
// mapper, the DRAM device model, one memory controller and refresh manager
// per channel, and the DIMM-level NDP control plane (launch-request buffer
// and per-pseudo-channel HSNC state machines), per spec.md §4.5's "Memory
// System ... additionally hosts the DIMM/pseudo-channel NDP control plane".
package memsystem

import (
	"github.com/hanloveland/ramulator2-sub000/pkg/addrmap"
	"github.com/hanloveland/ramulator2-sub000/pkg/controller"
	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/ndp"
	"github.com/hanloveland/ramulator2-sub000/pkg/refresh"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
	"github.com/hanloveland/ramulator2-sub000/pkg/scheduler"
	"github.com/hanloveland/ramulator2-sub000/pkg/trace"
)

// ndpReservedBank is the bank coordinate the NDP launch-request region and
// control register are both mapped to (spec.md §6 "NDP launch-request wire
// format").
const ndpReservedBank = 3

// System is the memory-system orchestrator: send()/tick() are its only
// entry points, matching spec.md §5's single-threaded cooperative
// discrete-event scheduling model.
type System struct {
	org    dram.Org
	mapper *addrmap.AddrMapper
	dev    *dram.Device

	controllers []*controller.Controller
	refreshMgrs []*refresh.Manager

	// One launch-request buffer per channel. spec.md §4.5 describes a
	// single DIMM-level buffer aggregating two channels' worth of
	// pseudo-channels; every worked scenario and preset in this simulator
	// configures exactly one channel, so that aggregation collapses to one
	// buffer per channel here without changing any per-pseudo-channel
	// routing or capacity behavior.
	launchBufs []*ndp.LaunchBuffer
	hsnc       [][]*ndp.PCh

	launchBG int32
	controlBG int32
	maxRow    int32

	traceCore *trace.Core

	clk request.Clock
}

// New builds a System for the given organization, timing preset, and fixed
// read latency (the callback delay applied once a read reaches its final
// command, spec.md §4.4 "depart_clk = clk + read_latency").
func New(org dram.Org, t dram.Timing, readLatency request.Clock) *System {
	dev := dram.NewDevice(org, t)
	s := &System{
		org:    org,
		mapper: addrmap.New(org),
		dev:    dev,
		maxRow: int32(org.Rows - 1),
	}
	s.launchBG, s.controlBG = org.ReservedBankGroups()

	numPCh := int32(org.PseudoChannels)
	for ch := int32(0); ch < int32(org.Channels); ch++ {
		sched := scheduler.New(dev)
		ctrl := controller.New(dev, sched, ch, numPCh, controller.DefaultConfig(t, readLatency))
		rm := refresh.New(dev, ctrl, ch, numPCh, int32(org.Ranks), t.NREFI)
		ctrl.SetRefreshManager(rm)
		s.controllers = append(s.controllers, ctrl)
		s.refreshMgrs = append(s.refreshMgrs, rm)
		s.launchBufs = append(s.launchBufs, ndp.NewLaunchBuffer())

		pchs := make([]*ndp.PCh, 0, numPCh)
		for p := int32(0); p < numPCh; p++ {
			pchs = append(pchs, ndp.NewPCh(p, s.controlRegVec(ch, p)))
		}
		s.hsnc = append(s.hsnc, pchs)
	}
	return s
}

func (s *System) controlRegVec(ch, pch int32) request.AddrVec {
	var vec request.AddrVec
	for i := range vec {
		vec[i] = request.Unspecified
	}
	vec[request.LevelChannel] = ch
	vec[request.LevelPseudoChannel] = pch
	vec[request.LevelBankGroup] = s.controlBG
	vec[request.LevelBank] = ndpReservedBank
	vec[request.LevelRow] = s.maxRow
	vec[request.LevelColumn] = 0
	return vec
}

// ControlRegisterAddr returns the linear address of the NDP control
// register for (ch, pch), for front ends that start NDP programs through
// the ordinary Send path.
func (s *System) ControlRegisterAddr(ch, pch int32) int64 {
	return s.mapper.Encode(s.controlRegVec(ch, pch))
}

// LaunchBufferAddr returns the linear address of the NDP launch-request
// region for (ch, pch).
func (s *System) LaunchBufferAddr(ch, pch int32) int64 {
	vec := s.controlRegVec(ch, pch)
	vec[request.LevelBankGroup] = s.launchBG
	return s.mapper.Encode(vec)
}

// Send decomposes req's linear address and routes it: requests mapping into
// the NDP launch-request region or control register are consumed directly
// by the NDP control plane; everything else is handed to its channel's
// controller (spec.md §4.5 "data flow").
func (s *System) Send(req *request.Request) bool {
	s.mapper.Apply(req)
	vec := req.AddrVec

	if vec.Row() == s.maxRow && vec.Bank() == ndpReservedBank {
		switch vec.BankGroup() {
		case s.launchBG:
			return s.routeLaunchBuffer(req)
		case s.controlBG:
			return s.routeControlRegister(req)
		}
	}

	ch := int(vec.Channel())
	if ch < 0 || ch >= len(s.controllers) {
		return false
	}
	return s.controllers[ch].Send(req)
}

func (s *System) routeLaunchBuffer(req *request.Request) bool {
	if req.Kind != request.Write || !req.HasPayload {
		return false
	}
	ch := int(req.AddrVec.Channel())
	if ch < 0 || ch >= len(s.launchBufs) {
		return false
	}
	return s.launchBufs[ch].Append(int(req.AddrVec.PseudoChannel()), req.Payload)
}

// routeControlRegister consumes a host write to the NDP control register:
// payload word i nonzero triggers pseudo-channel i's HSNC out of IDLE
// (spec.md §6 "Writing 1 to payload word i of the control register starts
// pseudo-channel i"). Unlike an ordinary DRAM access this is a pure
// control-plane signal, resolved synchronously rather than modeled as DRAM
// timing.
func (s *System) routeControlRegister(req *request.Request) bool {
	if req.Kind != request.Write || !req.HasPayload {
		return false
	}
	ch := int(req.AddrVec.Channel())
	if ch < 0 || ch >= len(s.hsnc) {
		return false
	}
	for i, v := range req.Payload {
		if v != 0 && i < len(s.hsnc[ch]) {
			s.hsnc[ch][i].TriggerStart()
		}
	}
	return true
}

// Tick advances every subsystem by one DRAM cycle, in the fixed order
// spec.md §5 prescribes: the DRAM model first, then each controller in
// index order, then the NDP control plane, then (if enabled) the embedded
// trace core.
func (s *System) Tick(clk request.Clock) error {
	s.clk = clk
	s.dev.Tick(clk)

	for _, c := range s.controllers {
		if err := c.Tick(clk); err != nil {
			return err
		}
	}

	for ch, pchs := range s.hsnc {
		for _, p := range pchs {
			p.Feed(s.launchBufs[ch])
			if err := p.Tick(clk, int32(ch), s.controllers[ch]); err != nil {
				return err
			}
		}
	}

	if s.traceCore != nil {
		s.traceCore.Tick(clk, s)
	}
	return nil
}

// IsFinished reports whether every controller, launch buffer, and HSNC has
// drained and (if enabled) the trace core has drained without yet
// rewinding. With a trace core enabled this holds only during the idle
// interval before the trace rewinds; the trace core itself replays the
// trace indefinitely.
func (s *System) IsFinished() bool {
	for _, c := range s.controllers {
		if !c.IsFinished() {
			return false
		}
	}
	for _, lb := range s.launchBufs {
		if lb.Len() != 0 {
			return false
		}
	}
	for _, pchs := range s.hsnc {
		for _, p := range pchs {
			if p.Status() != ndp.Idle {
				return false
			}
		}
	}
	if s.traceCore != nil && !s.traceCore.Drained() {
		return false
	}
	return true
}

// Device exposes the underlying DRAM device model, for statistics
// collection (internal/metrics) and debug tooling.
func (s *System) Device() *dram.Device { return s.dev }

// Controllers exposes the per-channel controllers, for statistics
// collection.
func (s *System) Controllers() []*controller.Controller { return s.controllers }

// HSNCStatus reports pseudo-channel pch's HSNC run state on channel ch, for
// tests and diagnostics.
func (s *System) HSNCStatus(ch, pch int32) ndp.Status {
	return s.hsnc[ch][pch].Status()
}
