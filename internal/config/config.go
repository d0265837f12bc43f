// Package config loads and validates the simulator configuration: the
// organization and timing presets, their overrides, and the controller and
// memory-system knobs (spec.md §6 "Configuration").
//
// Configuration sources layer in this precedence order: RAMSIM_*
// environment variables over the YAML file over built-in defaults. Load
// binds no CLI flags; `ramsim run --trace` replaces memsystem.trace_path
// after loading.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
)

// minPCHDensityGb is the smallest die density the pseudo-channel model
// supports; anything below it is a configuration error (spec.md §7).
const minPCHDensityGb = 16

// Config is the full simulator configuration tree.
type Config struct {
	Org        OrgConfig        `mapstructure:"org" yaml:"org"`
	Timing     TimingConfig     `mapstructure:"timing" yaml:"timing"`
	Voltage    string           `mapstructure:"voltage" yaml:"voltage,omitempty"`
	Current    string           `mapstructure:"current" yaml:"current,omitempty"`
	RFM        RFMConfig        `mapstructure:"rfm" yaml:"rfm"`
	Controller ControllerConfig `mapstructure:"controller" yaml:"controller"`
	MemSystem  MemSystemConfig  `mapstructure:"memsystem" yaml:"memsystem"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// OrgConfig selects and optionally overrides an organization preset.
type OrgConfig struct {
	Preset  string `mapstructure:"preset" validate:"required" yaml:"preset"`
	DQ      int    `mapstructure:"dq" yaml:"dq,omitempty"`
	Density int    `mapstructure:"density" yaml:"density,omitempty"`

	Channels       int `mapstructure:"channels" yaml:"channels,omitempty"`
	PseudoChannels int `mapstructure:"pseudochannels" yaml:"pseudochannels,omitempty"`
	Ranks          int `mapstructure:"ranks" yaml:"ranks,omitempty"`
}

// TimingConfig selects a speed-bin preset plus per-parameter overrides,
// either directly in cycles ("nXXX") or in nanoseconds ("tXXX", rounded up
// to cycles via the JEDEC rule).
type TimingConfig struct {
	Preset      string             `mapstructure:"preset" validate:"required" yaml:"preset"`
	OverridesN  map[string]int64   `mapstructure:"overrides_cycles" yaml:"overrides_cycles,omitempty"`
	OverridesNs map[string]float64 `mapstructure:"overrides_ns" yaml:"overrides_ns,omitempty"`
}

// RFMConfig carries the (reserved) refresh-management parameters.
type RFMConfig struct {
	BRC      int `mapstructure:"brc" yaml:"brc"`
	RHRadius int `mapstructure:"rh_radius" yaml:"rh_radius"`
}

// ControllerConfig mirrors the controller knob set of spec.md §6.
type ControllerConfig struct {
	WrLowWatermark        float64 `mapstructure:"wr_low_watermark" validate:"gte=0,lte=1" yaml:"wr_low_watermark"`
	WrHighWatermark       float64 `mapstructure:"wr_high_watermark" validate:"gte=0,lte=1" yaml:"wr_high_watermark"`
	NDPWrMaxAge           int64   `mapstructure:"ndp_wr_max_age" validate:"gt=0" yaml:"ndp_wr_max_age"`
	NDPWrModeMinTime      int64   `mapstructure:"ndp_wr_mode_min_time" validate:"gt=0" yaml:"ndp_wr_mode_min_time"`
	DRAMRdModeMinTime     int64   `mapstructure:"dram_rd_mode_min_time" validate:"gt=0" yaml:"dram_rd_mode_min_time"`
	NDPReadHighThreshold  float64 `mapstructure:"ndp_read_high_threshold" validate:"gte=0,lte=1" yaml:"ndp_read_high_threshold"`
	NDPWriteHighThreshold float64 `mapstructure:"ndp_write_high_threshold" validate:"gte=0,lte=1" yaml:"ndp_write_high_threshold"`
	AdaptiveRowCap        int     `mapstructure:"adaptive_row_cap" validate:"gt=0" yaml:"adaptive_row_cap"`
}

// MemSystemConfig mirrors the memory-system knob set of spec.md §6.
type MemSystemConfig struct {
	TraceCoreEnable   bool   `mapstructure:"trace_core_enable" yaml:"trace_core_enable"`
	TraceCoreMSHRSize int    `mapstructure:"trace_core_mshr_size" validate:"gt=0" yaml:"trace_core_mshr_size"`
	TracePath         string `mapstructure:"trace_path" yaml:"trace_path,omitempty"`
	TraceNDPType      string `mapstructure:"trace_ndp_type" yaml:"trace_ndp_type,omitempty"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// Default returns the built-in configuration: the presets the worked
// end-to-end scenarios are expressed against and the spec's default knob
// values.
func Default() Config {
	return Config{
		Org:    OrgConfig{Preset: "DDR5_16Gb_x8"},
		Timing: TimingConfig{Preset: "DDR5_4800B"},
		RFM:    RFMConfig{BRC: 2, RHRadius: 2},
		Controller: ControllerConfig{
			WrLowWatermark:        0.2,
			WrHighWatermark:       0.8,
			NDPWrMaxAge:           512,
			NDPWrModeMinTime:      512,
			DRAMRdModeMinTime:     512,
			NDPReadHighThreshold:  0.8,
			NDPWriteHighThreshold: 0.8,
			AdaptiveRowCap:        16,
		},
		MemSystem: MemSystemConfig{TraceCoreMSHRSize: 16},
		Logging:   LoggingConfig{Level: "INFO", Format: "text", Output: "stderr"},
	}
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("org.preset", def.Org.Preset)
	v.SetDefault("timing.preset", def.Timing.Preset)
	v.SetDefault("rfm.brc", def.RFM.BRC)
	v.SetDefault("rfm.rh_radius", def.RFM.RHRadius)
	v.SetDefault("controller.wr_low_watermark", def.Controller.WrLowWatermark)
	v.SetDefault("controller.wr_high_watermark", def.Controller.WrHighWatermark)
	v.SetDefault("controller.ndp_wr_max_age", def.Controller.NDPWrMaxAge)
	v.SetDefault("controller.ndp_wr_mode_min_time", def.Controller.NDPWrModeMinTime)
	v.SetDefault("controller.dram_rd_mode_min_time", def.Controller.DRAMRdModeMinTime)
	v.SetDefault("controller.ndp_read_high_threshold", def.Controller.NDPReadHighThreshold)
	v.SetDefault("controller.ndp_write_high_threshold", def.Controller.NDPWriteHighThreshold)
	v.SetDefault("controller.adaptive_row_cap", def.Controller.AdaptiveRowCap)
	v.SetDefault("memsystem.trace_core_mshr_size", def.MemSystem.TraceCoreMSHRSize)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output", def.Logging.Output)
}

// Load reads configPath (optional; defaults apply when empty), layers
// RAMSIM_* environment variables over it, decodes, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RAMSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	var cfg Config
	decode := func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
	}
	if err := v.Unmarshal(&cfg, decode); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs struct-tag validation plus the cross-field checks the spec
// calls configuration errors (unknown preset, inconsistent density).
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.ResolveOrg(); err != nil {
		return err
	}
	if _, err := c.ResolveTiming(); err != nil {
		return err
	}
	return nil
}

// ResolveOrg materializes the organization preset with any overrides and
// checks its internal consistency.
func (c *Config) ResolveOrg() (dram.Org, error) {
	org, ok := dram.OrgPresets[c.Org.Preset]
	if !ok {
		return dram.Org{}, fmt.Errorf("config: unknown org preset %q", c.Org.Preset)
	}
	if c.Org.DQ != 0 {
		org.DQ = c.Org.DQ
	}
	if c.Org.Density != 0 {
		org.DensityGb = c.Org.Density
	}
	if c.Org.Channels != 0 {
		org.Channels = c.Org.Channels
	}
	if c.Org.PseudoChannels != 0 {
		org.PseudoChannels = c.Org.PseudoChannels
	}
	if c.Org.Ranks != 0 {
		org.Ranks = c.Org.Ranks
	}

	if org.DensityGb < minPCHDensityGb {
		return dram.Org{}, fmt.Errorf("config: density %d Gb below the %d Gb minimum for the pseudo-channel model", org.DensityGb, minPCHDensityGb)
	}
	bits := int64(org.Rows) * int64(org.Columns) * int64(org.Banks) *
		int64(org.BankGroups) * int64(org.DQ) / int64(org.PseudoChannels)
	if gb := bits >> 30; gb != int64(org.DensityGb) {
		return dram.Org{}, fmt.Errorf("config: density %d Gb inconsistent with bg x bank x row x column x dq / pseudochannels (= %d Gb)", org.DensityGb, gb)
	}
	return org, nil
}

// ResolveTiming materializes the speed-bin preset, applying cycle overrides
// directly and nanosecond overrides through the JEDEC round-up rule
// (ceil((t_ns * 1000) / tCK_ps)).
func (c *Config) ResolveTiming() (dram.Timing, error) {
	t, ok := dram.TimingPresets[c.Timing.Preset]
	if !ok {
		return dram.Timing{}, fmt.Errorf("config: unknown timing preset %q", c.Timing.Preset)
	}
	for name, cycles := range c.Timing.OverridesN {
		if err := applyTimingOverride(&t, name, cycles); err != nil {
			return dram.Timing{}, err
		}
	}
	for name, ns := range c.Timing.OverridesNs {
		cycles := dram.RoundNsToCycles(ns, t.TCKPs)
		if err := applyTimingOverride(&t, name, cycles); err != nil {
			return dram.Timing{}, err
		}
	}
	return t, nil
}

func applyTimingOverride(t *dram.Timing, name string, cycles int64) error {
	if cycles <= 0 {
		return fmt.Errorf("config: timing override %s must be positive, got %d", name, cycles)
	}
	switch strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(name, "n"), "t")) {
	case "RCD":
		t.NRCD = cycles
	case "RP":
		t.NRP = cycles
	case "CL":
		t.NCL = cycles
	case "CWL":
		t.NCWL = cycles
	case "RAS":
		t.NRAS = cycles
	case "RC":
		t.NRC = cycles
	case "RTP":
		t.NRTP = cycles
	case "CCDS", "CCD_S":
		t.NCCDS = cycles
	case "CCDL", "CCD_L":
		t.NCCDL = cycles
	case "RRDS", "RRD_S":
		t.NRRDS = cycles
	case "RRDL", "RRD_L":
		t.NRRDL = cycles
	case "FAW":
		t.NFAW = cycles
	case "BL":
		t.NBL = cycles
	case "WTRS", "WTR_S":
		t.NWTRS = cycles
	case "WTRL", "WTR_L":
		t.NWTRL = cycles
	case "WR":
		t.NWR = cycles
	case "CS":
		t.NCS = cycles
	case "RFC", "RFC1":
		t.NRFC1 = cycles
	case "REFI":
		t.NREFI = cycles
	default:
		return fmt.Errorf("config: unknown timing parameter %q", name)
	}
	return nil
}
