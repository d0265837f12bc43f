package controller

import "github.com/hanloveland/ramulator2-sub000/pkg/request"

// MCDBMode is the decoupled host/MC <-> data-buffer priority mode per
// pseudo-channel (spec.md §4.4.1): which side of the data buffer the
// controller is currently prioritizing moving data across.
type MCDBMode int

const (
	ModeDBNDPWrite MCDBMode = iota
	ModeDBRead
	ModeDBWrite
)

func (m MCDBMode) String() string {
	switch m {
	case ModeDBNDPWrite:
		return "DB_NDP_WR"
	case ModeDBRead:
		return "DB_RD"
	case ModeDBWrite:
		return "DB_WR"
	default:
		return "invalid"
	}
}

// DBDRAMMode is the decoupled data-buffer <-> DRAM priority mode per
// pseudo-channel (spec.md §4.4.1): which class of DRAM-side traffic
// currently owns the pseudo-channel's command bus.
type DBDRAMMode int

const (
	ModeDRAMRefresh DBDRAMMode = iota
	ModeDRAMRead
	ModeDRAMWrite
	ModeDRAMNDPWrite
)

func (m DBDRAMMode) String() string {
	switch m {
	case ModeDRAMRefresh:
		return "DRAM_REF"
	case ModeDRAMRead:
		return "DRAM_RD"
	case ModeDRAMWrite:
		return "DRAM_WR"
	case ModeDRAMNDPWrite:
		return "DRAM_NDP_WR"
	default:
		return "invalid"
	}
}

// tokenBucketMax and tokenBucketGrant bound the NDP-DRAM-read token bucket
// (spec.md §4.4.1): a pseudo-channel accrues one token per issued
// NDP_DRAM_RD up to 128, and a PRE_RD spends 16; PRE_RD staging is enabled
// while the bucket holds at least one grant's worth or no NDP-DRAM reads
// are outstanding at all.
const (
	tokenBucketMax   = 128
	tokenBucketGrant = 16
)

// TokenBucket throttles how much DB read-prefetch traffic a pseudo-channel
// may issue on the heels of an NDP-DRAM read burst.
type TokenBucket struct {
	tokens int
}

// NewTokenBucket creates an empty bucket.
func NewTokenBucket() *TokenBucket { return &TokenBucket{} }

// Refill adds n tokens, capped at tokenBucketMax.
func (b *TokenBucket) Refill(n int) {
	b.tokens += n
	if b.tokens > tokenBucketMax {
		b.tokens = tokenBucketMax
	}
}

// CanGrant reports whether the bucket holds a full grant.
func (b *TokenBucket) CanGrant() bool { return b.tokens >= tokenBucketGrant }

// TryGrant spends tokenBucketGrant tokens and reports success, or leaves the
// bucket untouched and reports failure if it holds fewer than that.
func (b *TokenBucket) TryGrant() bool {
	if b.tokens < tokenBucketGrant {
		return false
	}
	b.tokens -= tokenBucketGrant
	return true
}

// pchCounters is the per-pseudo-channel outstanding-work bookkeeping the
// mode selector reads (spec.md §4.4 "Per-pseudo-channel counters tracking
// outstanding RD / WR / DB_RD / DB_WR / DRAM_RD / DRAM_WR / POST_RD /
// POST_WR / REF").
type pchCounters struct {
	hostRD int
	hostWR int

	ndpDBRD int
	ndpDBWR int

	ndpDRAMRD int
	ndpDRAMWR int

	postRD int
	postWR int

	ref int

	lastHostRead     request.Clock
	lastNDPDRAMWrite request.Clock
}

func (c *pchCounters) dramReads() int  { return c.hostRD + c.ndpDRAMRD }
func (c *pchCounters) dramWrites() int { return c.hostWR + c.ndpDRAMWR }

// modeState is one pseudo-channel's decoupled-mode machine state: the two
// mode registers, the clock each was last entered at (for the dwell-time
// constraints), and the NDP-DRAM-read token bucket.
type modeState struct {
	mcDB   MCDBMode
	dbDRAM DBDRAMMode

	mcDBSince   request.Clock
	dbDRAMSince request.Clock

	tokens *TokenBucket

	// Cumulative cycles spent in each mode, exported into statistics
	// (spec.md §8's mode-cycle conservation property).
	mcDBCycles   [3]int64
	dbDRAMCycles [4]int64
}

func newModeState() *modeState {
	return &modeState{mcDB: ModeDBRead, dbDRAM: ModeDRAMRead, tokens: NewTokenBucket()}
}

func (m *modeState) setMCDB(clk request.Clock, next MCDBMode) {
	if next != m.mcDB {
		m.mcDB = next
		m.mcDBSince = clk
	}
}

func (m *modeState) setDBDRAM(clk request.Clock, next DBDRAMMode) {
	if next != m.dbDRAM {
		m.dbDRAM = next
		m.dbDRAMSince = clk
	}
}

// setModePerPCh runs both mode machines for one pseudo-channel (spec.md
// §4.4.1's transition tables). It is called once per controller tick per
// pseudo-channel, before the scheduling pass.
func (c *Controller) setModePerPCh(clk request.Clock, pch int32) {
	m := c.modes[pch]
	cnt := c.counters[pch]
	wrCap := float64(c.write[pch].Cap())

	wrAboveHigh := float64(cnt.hostWR) > c.cfg.WrHighWatermark*wrCap
	wrAboveLow := float64(cnt.hostWR) > c.cfg.WrLowWatermark*wrCap
	readsPending := cnt.hostRD > 0
	mcAged := clk-m.mcDBSince >= request.Clock(c.cfg.NDPWrMaxAge)
	rdDwellFresh := clk-m.mcDBSince < request.Clock(c.cfg.DRAMRdModeMinTime)

	switch m.mcDB {
	case ModeDBNDPWrite:
		switch {
		case cnt.ndpDBWR > 0:
			// stay
		case wrAboveHigh:
			m.setMCDB(clk, ModeDBWrite)
		default:
			m.setMCDB(clk, ModeDBRead)
		}
	case ModeDBWrite:
		switch {
		case wrAboveLow && !(mcAged && readsPending):
			// stay
		case cnt.ndpDBWR > 0:
			m.setMCDB(clk, ModeDBNDPWrite)
		default:
			m.setMCDB(clk, ModeDBRead)
		}
	case ModeDBRead:
		switch {
		case cnt.ndpDBWR > 0:
			m.setMCDB(clk, ModeDBNDPWrite)
		case wrAboveHigh && !(rdDwellFresh && readsPending):
			m.setMCDB(clk, ModeDBWrite)
		}
	}

	ndpWrAged := cnt.ndpDRAMWR > 0 &&
		clk-cnt.lastNDPDRAMWrite >= request.Clock(c.cfg.NDPWrMaxAge)
	dramWrAboveHigh := float64(cnt.dramWrites()) > c.cfg.WrHighWatermark*wrCap
	dramWrAboveLow := float64(cnt.dramWrites()) > c.cfg.WrLowWatermark*wrCap
	ndpWrDwellHeld := clk-m.dbDRAMSince < request.Clock(c.cfg.NDPWrModeMinTime)
	rdModeDwellHeld := clk-m.dbDRAMSince < request.Clock(c.cfg.DRAMRdModeMinTime)

	// A pending refresh preempts every other DRAM-side mode.
	if cnt.ref > 0 {
		m.setDBDRAM(clk, ModeDRAMRefresh)
	} else {
		switch m.dbDRAM {
		case ModeDRAMRefresh:
			switch {
			case ndpWrAged:
				m.setDBDRAM(clk, ModeDRAMNDPWrite)
			case dramWrAboveHigh || cnt.dramReads() == 0:
				m.setDBDRAM(clk, ModeDRAMWrite)
			default:
				m.setDBDRAM(clk, ModeDRAMRead)
			}
		case ModeDRAMNDPWrite:
			switch {
			case cnt.ndpDRAMWR > 0 && ndpWrDwellHeld:
				// hold the minimum dwell
			case cnt.ndpDRAMWR > 0 && !dramWrAboveHigh && cnt.dramReads() == 0:
				// stay: nothing else wants the bus
			case cnt.dramReads() > 0:
				m.setDBDRAM(clk, ModeDRAMRead)
			case cnt.dramWrites() > 0:
				m.setDBDRAM(clk, ModeDRAMWrite)
			}
		case ModeDRAMWrite:
			switch {
			case ndpWrAged:
				m.setDBDRAM(clk, ModeDRAMNDPWrite)
			case dramWrAboveLow || cnt.dramReads() == 0:
				// stay
			default:
				m.setDBDRAM(clk, ModeDRAMRead)
			}
		case ModeDRAMRead:
			wantsWrite := cnt.dramWrites() > 0 &&
				(dramWrAboveHigh || cnt.dramReads() == 0)
			switch {
			case ndpWrAged:
				m.setDBDRAM(clk, ModeDRAMNDPWrite)
			case wantsWrite && !(rdModeDwellHeld && cnt.dramReads() > 0):
				m.setDBDRAM(clk, ModeDRAMWrite)
			}
		}
	}

	m.mcDBCycles[m.mcDB]++
	m.dbDRAMCycles[m.dbDRAM]++
}

// preRDEnabled reports whether pch's read-prefetch staging is currently
// allowed by the token bucket (spec.md §4.4.1: "PRE_RD is enabled when
// token >= 16 or no NDP_DRAM_RD are outstanding").
func (c *Controller) preRDEnabled(pch int32) bool {
	if c.counters[pch].ndpDRAMRD == 0 {
		return true
	}
	return c.modes[pch].tokens.CanGrant()
}

// Modes reports pch's current decoupled-mode pair, for tests and stats.
func (c *Controller) Modes(pch int32) (MCDBMode, DBDRAMMode) {
	m := c.modes[pch]
	return m.mcDB, m.dbDRAM
}

// ModeCycles reports the cumulative cycles pch has spent in each mode.
func (c *Controller) ModeCycles(pch int32) (mcDB [3]int64, dbDRAM [4]int64) {
	m := c.modes[pch]
	return m.mcDBCycles, m.dbDRAMCycles
}
