package dram

import (
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
	"github.com/hanloveland/ramulator2-sub000/pkg/timing"
)

// maxDBPrefetch is the upper bound on a pseudo-channel's in-flight
// data-buffer prefetch credit (spec.md §4.1 invariant
// "pending_PRE_RD + pending_PRE_WR - posted_POST_RD - posted_POST_WR"
// stays within [0, 32]).
const maxDBPrefetch = 32

// ndpTickInterval is how many DRAM cycles separate successive embedded
// NDP-unit instruction fetches (spec.md §4.1).
const ndpTickInterval = 4

// pchKey identifies one pseudo-channel for per-pseudo-channel state
// (NDP unit, data-buffer prefetch credit).
type pchKey [2]int32

func keyOf(vec request.AddrVec) pchKey {
	return pchKey{vec.Channel(), vec.PseudoChannel()}
}

// Device is the cycle-accurate DDR5 pseudo-channel device model: the node
// tree, the timing-constraint table, the deferred-completion queue, the
// power accumulator, and the per-pseudo-channel embedded NDP units and
// data-buffer prefetch credit (spec.md §4.1).
type Device struct {
	org    Org
	timing Timing

	tree    *tree
	table   *timing.Table
	future  futureActionQueue
	power   *powerAccumulator

	ndpUnits     map[pchKey]*NDPUnit
	dbRdPrefetch map[pchKey]int
	dbWrPrefetch map[pchKey]int
	highPriPrefetch map[pchKey]bool
}

// NewDevice builds a device model for the given organization and timing
// preset, with the built-in rule list from buildTimingTable.
func NewDevice(org Org, t Timing) *Device {
	d := &Device{
		org:          org,
		timing:       t,
		tree:         newTree(),
		table:        buildTimingTable(t),
		power:        newPowerAccumulator(DefaultPowerPreset),
		ndpUnits:     make(map[pchKey]*NDPUnit),
		dbRdPrefetch: make(map[pchKey]int),
		dbWrPrefetch: make(map[pchKey]int),
		highPriPrefetch: make(map[pchKey]bool),
	}
	d.tree.populate(org)
	return d
}

// SetHighPriPrefetch raises the read-prefetch priority hint the refresh
// manager sets ahead of an impending all-bank refresh (spec.md §4.3's
// prefetch_window advisory), so the controller can drain its read-prefetch
// backlog before the refresh closes every bank in the rank.
func (d *Device) SetHighPriPrefetch(vec request.AddrVec) {
	d.highPriPrefetch[keyOf(vec)] = true
}

// ResetHighPriPrefetch clears the hint, issued once the refresh itself has
// been sent.
func (d *Device) ResetHighPriPrefetch(vec request.AddrVec) {
	d.highPriPrefetch[keyOf(vec)] = false
}

// IsHighPriPrefetch reports vec's pseudo-channel's current hint state.
func (d *Device) IsHighPriPrefetch(vec request.AddrVec) bool {
	return d.highPriPrefetch[keyOf(vec)]
}

// NDPUnitFor returns (creating on first access) the embedded NDP unit for
// vec's pseudo-channel.
func (d *Device) NDPUnitFor(vec request.AddrVec) *NDPUnit {
	k := keyOf(vec)
	u, ok := d.ndpUnits[k]
	if !ok {
		u = newNDPUnit()
		d.ndpUnits[k] = u
	}
	return u
}

// Tick advances device-local state that runs off the DRAM clock
// independent of command issue: deferred completions (refresh end) and the
// embedded NDP units' instruction fetch cadence.
func (d *Device) Tick(clk request.Clock) {
	for _, a := range d.future.due(clk) {
		d.applyDeferred(a.cmd, a.vec)
	}
	if clk%ndpTickInterval == 0 {
		for _, u := range d.ndpUnits {
			u.Tick()
		}
	}
}

// CheckReady reports whether cmd may legally be issued to vec at clk,
// i.e. the target bank is not refreshing (for bank-scope commands) and
// every timing rule naming cmd as a following command is currently
// satisfied at its scope node.
func (d *Device) CheckReady(clk request.Clock, cmd Command, vec request.AddrVec) bool {
	node := d.tree.getOrCreate(vec, cmd.Scope())
	if cmd.Scope() == Bank && d.tree.node(node).state == StateRefreshing {
		return false
	}
	for _, rule := range d.table.Rules {
		if !containsCmd(rule.Following, int(cmd)) {
			continue
		}
		scopeNode := d.tree.ancestorAt(node, Level(rule.Scope))
		if clk < d.tree.getNextAllowed(scopeNode, cmd) {
			return false
		}
	}
	return true
}

// IssueCommand applies cmd's state transition and pushes out every node's
// next-allowed time per the rules cmd triggers as a preceding command. It
// is fatal to call this for a command CheckReady currently rejects
// (spec.md §7).
func (d *Device) IssueCommand(clk request.Clock, cmd Command, vec request.AddrVec) error {
	if cmd.IsReserved() {
		return fatal(clk, vec, "%s is reserved and must never be issued", cmd)
	}
	if !d.CheckReady(clk, cmd, vec) {
		return fatal(clk, vec, "issued %s before its timing constraints were satisfied", cmd)
	}
	node := d.tree.getOrCreate(vec, cmd.Scope())
	d.applyStateTransition(node, cmd, vec, clk)
	d.power.record(cmd)

	for _, rule := range d.table.RulesFor(int(cmd)) {
		scopeNode := d.tree.ancestorAt(node, Level(rule.Scope))
		due := clk + request.Clock(rule.Latency)
		if rule.Window > 0 {
			// A windowed rule measures its latency from the Window-th
			// previous issue (four-activation-window style), not from this
			// one; with fewer than Window issues recorded it does not
			// constrain anything yet.
			w := d.tree.window(scopeNode, cmd, rule.Window)
			w.Record(int64(clk))
			t0, ok := w.NthPrevious(rule.Window)
			if !ok {
				continue
			}
			due = request.Clock(t0 + rule.Latency)
		}
		// A sibling rule constrains the peer nodes at the same level (e.g.
		// nCS: a CAS on one rank delays CAS on the other ranks), not the
		// issuing node itself.
		targets := []nodeID{scopeNode}
		if rule.Sibling {
			targets = d.tree.siblings(scopeNode)
		}
		for _, tgt := range targets {
			for _, fc := range rule.Following {
				d.tree.setNextAllowed(tgt, Command(fc), due)
			}
		}
	}

	switch cmd {
	case REFab:
		rankNode := d.tree.ancestorAt(node, Rank)
		d.future.schedule(REFabEnd, vec, clk+request.Clock(d.timing.NRFC1))
		for _, bankID := range d.tree.descendantsAt(rankNode, Bank) {
			b := d.tree.node(bankID)
			b.state = StateRefreshing
			b.openRow = request.Unspecified
		}
	case REFsb:
		// REFsb issues at rank scope but refreshes only the addressed bank
		// (the same bank number across the rank's bank groups shares the
		// vec's bank coordinate).
		d.future.schedule(REFsbEnd, vec, clk+request.Clock(d.timing.NRFC1))
		b := d.tree.node(d.tree.getOrCreate(vec, Bank))
		b.state = StateRefreshing
		b.openRow = request.Unspecified
	}
	return nil
}

// applyDeferred applies a system-generated completion (REFab_end or
// REFsb_end) without consulting CheckReady: these are derived effects of an
// already-issued command, not new host-visible issues.
func (d *Device) applyDeferred(cmd Command, vec request.AddrVec) {
	var scope nodeID
	switch cmd {
	case REFabEnd:
		scope = d.tree.ancestorAt(d.tree.getOrCreate(vec, Rank), Rank)
	case REFsbEnd:
		scope = d.tree.getOrCreate(vec, Bank)
	default:
		return
	}
	for _, bankID := range d.tree.descendantsAt(scope, Bank) {
		b := d.tree.node(bankID)
		b.state = StateClosed
		b.openRow = request.Unspecified
	}
}

func (d *Device) applyStateTransition(node nodeID, cmd Command, vec request.AddrVec, clk request.Clock) {
	switch {
	case cmd.IsOpening():
		n := d.tree.node(node)
		n.state = StateOpened
		n.openRow = vec.Row()
	case cmd.IsClosing() && cmd != PREA && cmd != PREsb:
		n := d.tree.node(node)
		n.state = StateClosed
		n.openRow = request.Unspecified
	case cmd == PREA || cmd == PREsb:
		for _, bankID := range d.tree.descendantsAt(node, Bank) {
			b := d.tree.node(bankID)
			b.state = StateClosed
			b.openRow = request.Unspecified
		}
	}
}

// CheckRowBufferHit reports whether vec's bank is open with the matching
// row already in the row buffer.
func (d *Device) CheckRowBufferHit(vec request.AddrVec) bool {
	node := d.tree.getOrCreate(vec, Bank)
	n := d.tree.node(node)
	return n.state == StateOpened && n.openRow == vec.Row()
}

// CheckNodeOpen reports whether vec's bank currently holds any row open.
func (d *Device) CheckNodeOpen(vec request.AddrVec) bool {
	node := d.tree.getOrCreate(vec, Bank)
	return d.tree.node(node).state == StateOpened
}

// bankPrecondition is the shared precondition chain spec.md §4.1 describes
// for both get_preq_command and get_preq_pre_command: closed bank needs an
// activate first, a row-buffer miss needs a precharge first, otherwise the
// target command itself is ready.
func (d *Device) bankPrecondition(vec request.AddrVec, target Command) Command {
	node := d.tree.getOrCreate(vec, Bank)
	n := d.tree.node(node)
	switch {
	case n.state == StateClosed:
		return ACT
	case n.state == StateOpened && n.openRow != vec.Row():
		return PRE
	default:
		return target
	}
}

// GetPreqCommand returns the command that must be issued next in order to
// make progress toward final (spec.md §4.1 get_preq_command): the bank's
// own ACT/PRE precondition chain, a rank-wide precharge-all ahead of
// REFab, or final itself once every precondition is satisfied.
func (d *Device) GetPreqCommand(final Command, vec request.AddrVec) Command {
	switch final {
	case NDP_DB_RD, NDP_DB_WR:
		return final
	case REFab:
		rankNode := d.tree.getOrCreate(vec, Rank)
		for _, bankID := range d.tree.descendantsAt(rankNode, Bank) {
			if d.tree.node(bankID).state == StateOpened {
				return PREA
			}
		}
		return REFab
	default:
		return d.bankPrecondition(vec, final)
	}
}

// preStage maps a host-visible final command onto the DB-prefetch command
// that must land in the data buffer before it (spec.md §4.2's PRE_RD/PRE_WR
// staging protocol).
func preStage(final Command) Command {
	switch final {
	case RD, NDP_DRAM_RD:
		return PRE_RD
	case RDA, NDP_DRAM_RDA:
		return PRE_RDA
	case WR, NDP_DRAM_WR, WRA, NDP_DRAM_WRA:
		return PRE_WR
	default:
		return final
	}
}

// GetPreqPreCommand is GetPreqCommand's DB-prefetch-staged counterpart
// (spec.md §4.1 get_preq_pre_command): it resolves the precondition chain
// for the PRE_RD/PRE_WR staging command rather than the host-visible final.
func (d *Device) GetPreqPreCommand(final Command, vec request.AddrVec) Command {
	pre := preStage(final)
	if pre == final {
		return d.GetPreqCommand(final, vec)
	}
	return d.bankPrecondition(vec, pre)
}

// ApplyNDPDBWrite routes the payload of an issued NDP_DB_WR into the
// embedded NDP unit: a write landing on the control-register bank group
// starts (or is absorbed by) the unit, any other column loads instruction
// memory at the addressed word offset (spec.md §4.1). The payload size
// precondition (exactly 8 words) is structural here: request.Payload is a
// fixed-length array, so a mismatched write cannot be expressed.
func (d *Device) ApplyNDPDBWrite(clk request.Clock, vec request.AddrVec, payload request.Payload) error {
	u := d.NDPUnitFor(vec)
	_, controlBG := d.org.ReservedBankGroups()
	if vec.BankGroup() == controlBG {
		return u.WriteControlReg(clk, vec, payload)
	}
	u.WriteInstMem(int(vec.Column())*request.PayloadWords, payload)
	return nil
}

// AccountNDPDRAMAccess pairs an issued NDP-DRAM read/write against its
// instruction slot by (id, bg, bk), removing the slot when the program's
// opsize worth of accesses have landed (spec.md §4.1).
func (d *Device) AccountNDPDRAMAccess(vec request.AddrVec, id int) {
	d.NDPUnitFor(vec).AccountNDPDRAMAccess(id, int(vec.BankGroup()), int(vec.Bank()))
}

// AdjustDBReadPrefetch updates vec's pseudo-channel read-direction
// prefetch counter by delta (PRE_RD/PRE_RDA issue +1, POST_RD issue -1).
// The counter may never go negative and the combined read+write credit is
// bounded by the DB buffer capacity (spec.md §4.1, §7).
func (d *Device) AdjustDBReadPrefetch(clk request.Clock, vec request.AddrVec, delta int) error {
	k := keyOf(vec)
	next := d.dbRdPrefetch[k] + delta
	if next < 0 || next+d.dbWrPrefetch[k] > maxDBPrefetch {
		return fatal(clk, vec, "data-buffer read-prefetch counter out of range: %d (write counter %d)", next, d.dbWrPrefetch[k])
	}
	d.dbRdPrefetch[k] = next
	return nil
}

// AdjustDBWritePrefetch is AdjustDBReadPrefetch's write-direction
// counterpart (PRE_WR issue +1, POST_WR/POST_WRA issue -1).
func (d *Device) AdjustDBWritePrefetch(clk request.Clock, vec request.AddrVec, delta int) error {
	k := keyOf(vec)
	next := d.dbWrPrefetch[k] + delta
	if next < 0 || next+d.dbRdPrefetch[k] > maxDBPrefetch {
		return fatal(clk, vec, "data-buffer write-prefetch counter out of range: %d (read counter %d)", next, d.dbRdPrefetch[k])
	}
	d.dbWrPrefetch[k] = next
	return nil
}

// DBReadPrefetchCount reports vec's pseudo-channel's outstanding
// read-direction prefetch count.
func (d *Device) DBReadPrefetchCount(vec request.AddrVec) int {
	return d.dbRdPrefetch[keyOf(vec)]
}

// DBWritePrefetchCount reports vec's pseudo-channel's outstanding
// write-direction prefetch count.
func (d *Device) DBWritePrefetchCount(vec request.AddrVec) int {
	return d.dbWrPrefetch[keyOf(vec)]
}

// PowerSnapshot returns the device's accumulated power/energy counters.
func (d *Device) PowerSnapshot() PowerSnapshot {
	return d.power.snapshot()
}

func containsCmd(list []int, cmd int) bool {
	for _, c := range list {
		if c == cmd {
			return true
		}
	}
	return false
}
