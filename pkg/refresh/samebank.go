package refresh

import (
	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

// SameBankManager is the per-bank-pair refresh scheme (REFsb): instead of
// one all-bank refresh per rank every nREFI, it rotates a same-bank refresh
// across the rank's banks at nREFI / banks intervals, keeping the other
// banks available. Supported but not enabled in the default configuration;
// the default system wires Manager (REFab) instead.
type SameBankManager struct {
	dev       Device
	ctrl      PrioritySender
	channelID int32

	pseudoChannels int32
	ranks          int32
	banks          int32

	interval int64

	nextRefreshClk request.Clock
	nextBank       int32
}

// NewSameBank creates a same-bank refresh manager for channelID, rotating
// through banks so that every bank is refreshed once per nrefi cycles.
func NewSameBank(dev Device, ctrl PrioritySender, channelID, pseudoChannels, ranks, banks int32, nrefi int64) *SameBankManager {
	m := &SameBankManager{
		dev: dev, ctrl: ctrl, channelID: channelID,
		pseudoChannels: pseudoChannels, ranks: ranks, banks: banks,
		interval: nrefi / int64(banks),
	}
	m.nextRefreshClk = request.Clock(m.interval)
	return m
}

// Tick runs the manager's deadline check against clk, emitting one REFsb
// per pseudo-channel per rank for the current rotation bank when its
// deadline arrives.
func (m *SameBankManager) Tick(clk request.Clock) error {
	if clk != m.nextRefreshClk {
		return nil
	}
	m.nextRefreshClk += request.Clock(m.interval)

	for p := int32(0); p < m.pseudoChannels; p++ {
		for r := int32(0); r < m.ranks; r++ {
			vec := rankVec(m.channelID, p, r)
			vec[request.LevelBank] = m.nextBank
			req := request.New(request.Read, 0, vec, -1, nil)
			req.FinalCommand = int(dram.REFsb)
			if !m.ctrl.PrioritySend(req) {
				return errRefreshRejected
			}
		}
	}
	m.nextBank = (m.nextBank + 1) % m.banks
	return nil
}
