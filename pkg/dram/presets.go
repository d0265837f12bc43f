package dram

// Org describes the device organization preset (spec.md §6 "org" group):
// per-level counts plus DQ width and density, used to size the address
// decomposition and the node-tree bounds.
type Org struct {
	Name           string
	DQ             int
	DensityGb      int
	Channels       int
	PseudoChannels int
	NarrowIO       int
	WideIO         int
	Ranks          int
	BankGroups     int
	Banks          int
	Rows           int
	Columns        int
}

// ReservedBankGroups returns the (launch-buffer, control-register) bank
// group coordinates the NDP regions map to for this organization's DQ
// width (spec.md §6: "bg = 6 [x4/x8] | 2 [x16]" for the launch buffer,
// "bg = 7 [x4/x8] | 3 [x16]" for the control register).
func (o Org) ReservedBankGroups() (launch, control int32) {
	if o.DQ == 16 {
		return 2, 3
	}
	return 6, 7
}

// OrgPresets is the built-in organization preset table. Real deployments
// would load additional presets from configuration; DDR5_16Gb_x8 is the
// preset spec.md's worked end-to-end scenarios are expressed against.
var OrgPresets = map[string]Org{
	"DDR5_16Gb_x8": {
		Name: "DDR5_16Gb_x8", DQ: 8, DensityGb: 16,
		Channels: 1, PseudoChannels: 2, NarrowIO: 1, WideIO: 1,
		Ranks: 1, BankGroups: 8, Banks: 4, Rows: 1 << 17, Columns: 1 << 10,
	},
	"DDR5_32Gb_x4": {
		Name: "DDR5_32Gb_x4", DQ: 4, DensityGb: 32,
		Channels: 1, PseudoChannels: 2, NarrowIO: 1, WideIO: 1,
		Ranks: 1, BankGroups: 8, Banks: 4, Rows: 1 << 19, Columns: 1 << 10,
	},
}

// Timing holds the resolved cycle-count values for every JEDEC parameter the
// simulator's command chains and timing table consult. Values are in DRAM
// clock cycles; a preset supplies defaults and configuration may override
// individual fields (spec.md §6, cycles override "nXXX" or nanosecond
// override "tXXX" rounded via the JEDEC round-up rule).
type Timing struct {
	Name string

	TCKPs int64 // tCK period in picoseconds, for ns->cycle rounding

	NRCD   int64
	NRP    int64
	NCL    int64
	NCWL   int64
	NRAS   int64
	NRC    int64
	NRTP   int64
	NCCDS  int64 // nCCD_S: different bank-group column-to-column
	NCCDL  int64 // nCCD_L: same bank-group column-to-column
	NRRDS  int64
	NRRDL  int64
	NFAW   int64
	NBL    int64 // burst length in cycles (1 beat)
	NWTRS  int64
	NWTRL  int64
	NWR    int64
	NCS    int64 // rank-switching DQS turnaround
	NRFC1  int64
	NREFI  int64
}

// TimingPresets is the built-in speed-bin preset table.
var TimingPresets = map[string]Timing{
	"DDR5_4800B": {
		Name: "DDR5_4800B", TCKPs: 416,
		NRCD: 39, NRP: 39, NCL: 40, NCWL: 36, NRAS: 78, NRC: 117,
		NRTP: 17, NCCDS: 8, NCCDL: 8, NRRDS: 8, NRRDL: 8, NFAW: 40,
		NBL: 8, NWTRS: 12, NWTRL: 24, NWR: 48, NCS: 2, NRFC1: 410, NREFI: 7800,
	},
}

// RoundNsToCycles implements the JEDEC round-up rule:
// ceil((t_ns * 1000) / tCK_ps).
func RoundNsToCycles(tNs float64, tckPs int64) int64 {
	ps := tNs * 1000.0
	cycles := int64(ps / float64(tckPs))
	if float64(cycles)*float64(tckPs) < ps {
		cycles++
	}
	return cycles
}
