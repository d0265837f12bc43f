package dram

import "github.com/hanloveland/ramulator2-sub000/pkg/timing"

// buildTimingTable translates a resolved Timing preset into the flat
// timing-constraint rule list the device consults on every issue (spec.md
// §3 "Timing-constraint table", §4.1 "Timing update"). This is a
// representative subset of the full DDR5 JEDEC rule set: it covers every
// rule the spec's worked end-to-end scenarios (§8) and testable properties
// exercise (row policy, nRCD/nRAS/nRP/nRTP chains, nFAW, nRRD_S/L, nCCD_S/L).
func buildTimingTable(t Timing) *timing.Table {
	lvl := func(l Level) timing.Level { return timing.Level(l) }
	cmds := func(cs ...Command) []int {
		out := make([]int, len(cs))
		for i, c := range cs {
			out[i] = int(c)
		}
		return out
	}

	rules := []timing.Rule{
		// Same-bank open/close/access chain.
		{Name: "nRCD", Scope: lvl(Bank), Preceding: cmds(ACT, P_ACT), Following: cmds(RD, WR, RDA, WRA, PRE_RD, PRE_WR, PRE_RDA, NDP_DRAM_RD, NDP_DRAM_WR, NDP_DRAM_RDA, NDP_DRAM_WRA), Latency: t.NRCD},
		{Name: "nRAS", Scope: lvl(Bank), Preceding: cmds(ACT, P_ACT), Following: cmds(PRE, PREA, PREsb, P_PRE, RDA, WRA, PRE_RDA), Latency: t.NRAS},
		{Name: "nRC", Scope: lvl(Bank), Preceding: cmds(ACT, P_ACT), Following: cmds(ACT, P_ACT), Latency: t.NRC},
		{Name: "nRP", Scope: lvl(Bank), Preceding: cmds(PRE, PREA, PREsb, P_PRE, RDA, WRA, PRE_RDA), Following: cmds(ACT, P_ACT), Latency: t.NRP},
		{Name: "nRTP", Scope: lvl(Bank), Preceding: cmds(RD, PRE_RD, NDP_DRAM_RD), Following: cmds(PRE, PREA, PREsb, P_PRE, RDA, PRE_RDA), Latency: t.NRTP},
		{Name: "nWR", Scope: lvl(Bank), Preceding: cmds(WR, PRE_WR, NDP_DRAM_WR), Following: cmds(PRE, PREA, PREsb, P_PRE, WRA), Latency: t.NCWL + t.NBL + t.NWR},
		{Name: "nCCDS", Scope: lvl(Bank), Preceding: cmds(RD, PRE_RD), Following: cmds(RD, PRE_RD), Latency: t.NCCDS},
		{Name: "nCCDS_WR", Scope: lvl(Bank), Preceding: cmds(WR, PRE_WR), Following: cmds(WR, PRE_WR), Latency: t.NCCDS},
		{Name: "nWTR", Scope: lvl(Bank), Preceding: cmds(WR, PRE_WR), Following: cmds(RD, PRE_RD), Latency: t.NCWL + t.NBL + t.NWTRS},

		// Cross-bank, same bank-group. The bank-group scope node itself
		// covers every bank under it; no sibling propagation needed.
		{Name: "nRRDL", Scope: lvl(BankGroup), Preceding: cmds(ACT, P_ACT), Following: cmds(ACT, P_ACT), Latency: t.NRRDL},
		{Name: "nCCDL", Scope: lvl(BankGroup), Preceding: cmds(RD, PRE_RD), Following: cmds(RD, PRE_RD), Latency: t.NCCDL},

		// Cross bank-group, same rank.
		{Name: "nRRDS", Scope: lvl(Rank), Preceding: cmds(ACT, P_ACT), Following: cmds(ACT, P_ACT), Latency: t.NRRDS},
		{Name: "nFAW", Scope: lvl(Rank), Preceding: cmds(ACT, P_ACT), Following: cmds(ACT, P_ACT), Latency: t.NFAW, Window: 4},

		// CAS <-> CAS between sibling ranks: nCS (rank switching) covers
		// the DQS turnaround before the other rank may drive the bus.
		{Name: "nCS_RD", Scope: lvl(Rank), Sibling: true,
			Preceding: cmds(RD, RDA),
			Following: cmds(RD, RDA, WR, WRA, PRE_RD, PRE_RDA, POST_WR, POST_WRA, NDP_DRAM_RD, NDP_DRAM_WR, NDP_DRAM_RDA, NDP_DRAM_WRA),
			Latency:   4*t.NBL + t.NCS},
		{Name: "nCS_RD_WI", Scope: lvl(Rank), Sibling: true,
			Preceding: cmds(PRE_RD, PRE_RDA, NDP_DRAM_RD, NDP_DRAM_RDA),
			Following: cmds(RD, RDA, WR, WRA, PRE_RD, PRE_RDA, POST_WR, POST_WRA, NDP_DRAM_RD, NDP_DRAM_WR, NDP_DRAM_RDA, NDP_DRAM_WRA),
			Latency:   t.NBL + t.NCS},
		{Name: "nCS_WR", Scope: lvl(Rank), Sibling: true,
			Preceding: cmds(WR, WRA),
			Following: cmds(RD, RDA, PRE_RD, PRE_RDA, NDP_DRAM_RD, NDP_DRAM_RDA),
			Latency:   t.NCL + 4*t.NBL + t.NCS - t.NCWL},
		{Name: "nCS_WR_WI", Scope: lvl(Rank), Sibling: true,
			Preceding: cmds(POST_WR, POST_WRA, NDP_DRAM_WR, NDP_DRAM_WRA),
			Following: cmds(RD, RDA, PRE_RD, PRE_RDA, NDP_DRAM_RD, NDP_DRAM_RDA),
			Latency:   t.NCL + t.NBL + t.NCS - t.NCWL},

		// Data-buffer staging (PRE_WR/POST_WR, PRE_RD/POST_RD transit) at
		// pseudo-channel scope.
		{Name: "postWRTransit", Scope: lvl(PseudoChannel), Preceding: cmds(PRE_WR), Following: cmds(POST_WR, POST_WRA), Latency: 4 * t.NBL},
		{Name: "postRDTransit", Scope: lvl(PseudoChannel), Preceding: cmds(PRE_RD, PRE_RDA), Following: cmds(POST_RD), Latency: t.NBL},
	}
	return timing.NewTable(rules)
}
