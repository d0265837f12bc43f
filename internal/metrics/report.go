package metrics

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"
	"gopkg.in/yaml.v3"
)

// Report is the end-of-run statistics document: every gathered counter
// flattened into a nested map, tagged with a per-run identifier and the
// configuration it ran under.
type Report struct {
	RunID  string         `yaml:"run_id"`
	Config map[string]any `yaml:"config,omitempty"`
	Stats  map[string]any `yaml:"stats"`
}

// NewReport gathers the package registry into a Report. The run identifier
// is freshly generated; callers persist it to correlate emitted reports
// with their traces.
func NewReport(cfg map[string]any) (*Report, error) {
	reg := GetRegistry()
	if reg == nil {
		return nil, fmt.Errorf("metrics: registry not initialized")
	}
	families, err := reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("metrics: gather: %w", err)
	}

	stats := make(map[string]any, len(families))
	for _, fam := range families {
		stats[fam.GetName()] = flattenFamily(fam)
	}
	return &Report{
		RunID:  uuid.NewString(),
		Config: cfg,
		Stats:  stats,
	}, nil
}

// flattenFamily reduces one metric family to plain values: unlabeled
// metrics collapse to a scalar, labeled ones to a map keyed by their label
// values.
func flattenFamily(fam *dto.MetricFamily) any {
	if len(fam.GetMetric()) == 1 && len(fam.GetMetric()[0].GetLabel()) == 0 {
		return metricValue(fam, fam.GetMetric()[0])
	}
	out := make(map[string]any, len(fam.GetMetric()))
	for _, m := range fam.GetMetric() {
		key := ""
		for i, l := range m.GetLabel() {
			if i > 0 {
				key += ","
			}
			key += l.GetValue()
		}
		out[key] = metricValue(fam, m)
	}
	return out
}

func metricValue(fam *dto.MetricFamily, m *dto.Metric) any {
	switch fam.GetType() {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		sum := h.GetSampleSum()
		count := h.GetSampleCount()
		val := map[string]any{"count": count, "sum": sum}
		if count > 0 {
			val["mean"] = sum / float64(count)
		}
		return val
	default:
		return nil
	}
}

// Write serializes the report as YAML.
func (r *Report) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(r)
}
