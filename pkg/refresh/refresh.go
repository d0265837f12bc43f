// Package refresh implements the all-bank refresh scheme: every nREFI
// cycles it enqueues one REFab request per rank per pseudo-channel onto the
// controller's priority path, and raises a read-prefetch priority hint
// prefetchWindow cycles ahead of time so the controller can drain its
// read-prefetch backlog before the refresh closes every open bank.
package refresh

import (
	"errors"

	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

// errRefreshRejected is returned when the controller's priority path
// refuses a refresh request, which spec.md §7 treats as fatal: a refresh
// can never legitimately be backpressured.
var errRefreshRejected = errors.New("refresh: priority_send rejected an all-bank refresh request")

// prefetchWindow bounds how far ahead of a refresh the high-priority
// prefetch hint is raised. 8*24 is the maximum plausible read-prefetch
// backlog (8 deep, up to 24 cycles to drain each) the controller could
// still need to flush before the refresh lands.
const prefetchWindow = 8 * 24

// Device is the subset of *dram.Device the refresh manager drives.
type Device interface {
	SetHighPriPrefetch(vec request.AddrVec)
	ResetHighPriPrefetch(vec request.AddrVec)
}

// PrioritySender is the controller hook used to inject a refresh request
// ahead of the ordinary request queue (spec.md §4.4's priority_send path).
type PrioritySender interface {
	PrioritySend(req *request.Request) bool
}

// Manager runs one all-bank refresh scheme instance per channel.
type Manager struct {
	dev       Device
	ctrl      PrioritySender
	channelID int32

	pseudoChannels int32
	ranks          int32

	nrefi int64

	nextRefreshClk      request.Clock
	nextPrefetchHintClk request.Clock
}

// New creates a refresh manager for channelID, firing every nrefi cycles.
func New(dev Device, ctrl PrioritySender, channelID int32, pseudoChannels, ranks int32, nrefi int64) *Manager {
	m := &Manager{
		dev: dev, ctrl: ctrl, channelID: channelID,
		pseudoChannels: pseudoChannels, ranks: ranks, nrefi: nrefi,
	}
	m.nextRefreshClk = request.Clock(nrefi)
	m.nextPrefetchHintClk = m.nextRefreshClk - prefetchWindow
	return m
}

// Tick runs the manager's deadline checks against clk, raising the
// prefetch hint and emitting refresh requests as their deadlines arrive.
// clk is the caller's simulation clock; the manager keeps no clock of its
// own.
func (m *Manager) Tick(clk request.Clock) error {
	if clk == m.nextPrefetchHintClk {
		for p := int32(0); p < m.pseudoChannels; p++ {
			m.dev.SetHighPriPrefetch(pchVec(m.channelID, p))
		}
	}

	if clk == m.nextRefreshClk {
		m.nextRefreshClk += request.Clock(m.nrefi)
		m.nextPrefetchHintClk = m.nextRefreshClk - prefetchWindow

		for p := int32(0); p < m.pseudoChannels; p++ {
			m.dev.ResetHighPriPrefetch(pchVec(m.channelID, p))
			for r := int32(0); r < m.ranks; r++ {
				vec := rankVec(m.channelID, p, r)
				req := request.New(request.Read, 0, vec, -1, nil)
				req.FinalCommand = int(dram.REFab)
				if !m.ctrl.PrioritySend(req) {
					return errRefreshRejected
				}
			}
		}
	}
	return nil
}

func pchVec(ch, pch int32) request.AddrVec {
	var v request.AddrVec
	for i := range v {
		v[i] = request.Unspecified
	}
	v[request.LevelChannel] = ch
	v[request.LevelPseudoChannel] = pch
	return v
}

func rankVec(ch, pch, rank int32) request.AddrVec {
	v := pchVec(ch, pch)
	v[request.LevelNarrowIO] = 0
	v[request.LevelWideIO] = 0
	v[request.LevelRank] = rank
	return v
}
