package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
controller:
  wr_high_watermark: 0.9
timing:
  overrides_cycles:
    nRCD: 42
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.9, cfg.Controller.WrHighWatermark)
	require.Equal(t, 0.2, cfg.Controller.WrLowWatermark, "untouched knobs keep their defaults")

	timing, err := cfg.ResolveTiming()
	require.NoError(t, err)
	require.Equal(t, int64(42), timing.NRCD)
	require.Equal(t, int64(39), timing.NRP, "non-overridden parameters keep preset values")
}

func TestUnknownPresetIsConfigurationError(t *testing.T) {
	cfg := Default()
	cfg.Org.Preset = "DDR5_NO_SUCH"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Timing.Preset = "DDR5_9999Z"
	require.Error(t, cfg.Validate())
}

func TestDensityBelowMinimumRejected(t *testing.T) {
	cfg := Default()
	cfg.Org.Density = 8
	_, err := cfg.ResolveOrg()
	require.ErrorContains(t, err, "below")
}

func TestDensityConsistencyChecked(t *testing.T) {
	cfg := Default()
	cfg.Org.Density = 64 // preset geometry yields 16 Gb
	_, err := cfg.ResolveOrg()
	require.ErrorContains(t, err, "inconsistent")
}

func TestNanosecondOverrideUsesJEDECRounding(t *testing.T) {
	cfg := Default()
	cfg.Timing.OverridesNs = map[string]float64{"tRCD": 16.0}

	// ceil(16.0 * 1000 / 416) = ceil(38.46) = 39
	timing, err := cfg.ResolveTiming()
	require.NoError(t, err)
	require.Equal(t, dram.RoundNsToCycles(16.0, 416), timing.NRCD)
	require.Equal(t, int64(39), timing.NRCD)
}

func TestUnknownTimingParameterRejected(t *testing.T) {
	cfg := Default()
	cfg.Timing.OverridesN = map[string]int64{"nBOGUS": 10}
	_, err := cfg.ResolveTiming()
	require.ErrorContains(t, err, "unknown timing parameter")
}
