package dram

// VoltageCurrentPreset names the power-stat presets spec.md §6 allows under
// the optional "voltage"/"current" configuration groups.
type VoltageCurrentPreset struct {
	Name        string
	VDDmV       int
	IDDActMA    int
	IDDRdMA     int
	IDDWrMA     int
	IDDRefMA    int
	IDDStandbyMA int
}

// DefaultPowerPreset is the preset NewDevice gives every power accumulator;
// no configuration value selects another. The electrical model itself is
// out of scope (spec.md §1), so this only
// needs to be plausible enough to keep the accumulator's units sane.
var DefaultPowerPreset = VoltageCurrentPreset{
	Name: "default", VDDmV: 1100,
	IDDActMA: 48, IDDRdMA: 62, IDDWrMA: 60, IDDRefMA: 90, IDDStandbyMA: 20,
}

// powerAccumulator is a passive energy tally keyed off issued commands, per
// spec.md §1 ("treated as a passive accumulator keyed off issued
// commands"). It does not feed back into any scheduling or timing decision.
type powerAccumulator struct {
	preset      VoltageCurrentPreset
	actCount    int64
	rdCount     int64
	wrCount     int64
	refCount    int64
	energyPJ    int64 // accumulated in picojoule-cycles, a unitless proxy
}

func newPowerAccumulator(preset VoltageCurrentPreset) *powerAccumulator {
	return &powerAccumulator{preset: preset}
}

func (p *powerAccumulator) record(cmd Command) {
	switch {
	case cmd.IsOpening():
		p.actCount++
		p.energyPJ += int64(p.preset.VDDmV) * int64(p.preset.IDDActMA)
	case cmd.IsRead():
		p.rdCount++
		p.energyPJ += int64(p.preset.VDDmV) * int64(p.preset.IDDRdMA)
	case cmd.IsWrite():
		p.wrCount++
		p.energyPJ += int64(p.preset.VDDmV) * int64(p.preset.IDDWrMA)
	case cmd.IsRefresh():
		p.refCount++
		p.energyPJ += int64(p.preset.VDDmV) * int64(p.preset.IDDRefMA)
	}
}

// PowerSnapshot is the set of power counters exported into the statistics report.
type PowerSnapshot struct {
	ActivateCount int64
	ReadCount     int64
	WriteCount    int64
	RefreshCount  int64
	EnergyProxy   int64
}

func (p *powerAccumulator) snapshot() PowerSnapshot {
	return PowerSnapshot{
		ActivateCount: p.actCount,
		ReadCount:     p.rdCount,
		WriteCount:    p.wrCount,
		RefreshCount:  p.refCount,
		EnergyProxy:   p.energyPJ,
	}
}
