package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestReportFlattensGatheredCounters(t *testing.T) {
	InitRegistry()
	sim := NewSimMetrics()
	require.NotNil(t, sim)

	sim.RecordTick()
	sim.RecordTick()
	sim.RecordSend(false, true)
	sim.RecordSend(true, true)
	sim.RecordSend(true, false)
	sim.RecordReadCompletion(150)

	report, err := NewReport(map[string]any{"org": "DDR5_16Gb_x8"})
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)

	require.Equal(t, float64(2), report.Stats["ramsim_ticks_total"])

	sent, ok := report.Stats["ramsim_requests_sent_total"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(1), sent["read"])
	require.Equal(t, float64(1), sent["write"])

	lat, ok := report.Stats["ramsim_read_latency_cycles"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, 150.0, lat["mean"])
}

func TestReportRoundTripsThroughYAML(t *testing.T) {
	InitRegistry()
	sim := NewSimMetrics()
	sim.RecordTick()

	report, err := NewReport(nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf))
	require.True(t, strings.Contains(buf.String(), "run_id"))

	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, report.RunID, decoded.RunID)
}

func TestDisabledMetricsAreNoOps(t *testing.T) {
	mu.Lock()
	registry = nil
	mu.Unlock()

	var sim *SimMetrics
	require.Nil(t, NewSimMetrics())
	sim.RecordTick() // nil receiver must be safe
	sim.RecordSend(true, true)
	sim.RecordReadCompletion(1)

	_, err := NewReport(nil)
	require.Error(t, err)
}
