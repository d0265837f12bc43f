// Package metrics registers the simulator's statistic counters on a
// Prometheus registry and flattens the gathered families into the nested
// report document emitted at the end of a run (spec.md §6 "Persisted
// state").
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mu       sync.Mutex
	registry *prometheus.Registry
)

// InitRegistry creates (or resets) the package registry. Call once at
// startup before constructing any metric set.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	registry = prometheus.NewRegistry()
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return registry != nil
}

// GetRegistry returns the package registry, or nil when metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}

// SimMetrics is the simulator's counter set: one instance per run.
type SimMetrics struct {
	Ticks prometheus.Counter

	RequestsSent     *prometheus.CounterVec
	RequestsRejected *prometheus.CounterVec
	ReadsCompleted   prometheus.Counter

	ReadLatency prometheus.Histogram
}

// NewSimMetrics registers the simulator counter set on the package
// registry. Returns nil when metrics are disabled, which every call site
// treats as "don't record".
func NewSimMetrics() *SimMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &SimMetrics{
		Ticks: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ramsim_ticks_total",
			Help: "Total DRAM clock cycles simulated",
		}),
		RequestsSent: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ramsim_requests_sent_total",
			Help: "Requests accepted by the memory system, by type",
		}, []string{"type"}), // "read", "write"
		RequestsRejected: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ramsim_requests_rejected_total",
			Help: "Requests rejected for capacity, by type",
		}, []string{"type"}),
		ReadsCompleted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ramsim_reads_completed_total",
			Help: "Read requests whose completion callback has fired",
		}),
		ReadLatency: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "ramsim_read_latency_cycles",
			Help:    "Completed-read latency distribution in DRAM cycles",
			Buckets: []float64{50, 100, 150, 200, 300, 500, 1000, 2000, 5000},
		}),
	}
}

// RecordTick increments the tick counter.
func (m *SimMetrics) RecordTick() {
	if m == nil {
		return
	}
	m.Ticks.Inc()
}

// RecordSend counts an accepted (or rejected) request by direction.
func (m *SimMetrics) RecordSend(isWrite, accepted bool) {
	if m == nil {
		return
	}
	t := "read"
	if isWrite {
		t = "write"
	}
	if accepted {
		m.RequestsSent.WithLabelValues(t).Inc()
	} else {
		m.RequestsRejected.WithLabelValues(t).Inc()
	}
}

// RecordReadCompletion counts one completed read and its latency.
func (m *SimMetrics) RecordReadCompletion(latencyCycles int64) {
	if m == nil {
		return
	}
	m.ReadsCompleted.Inc()
	m.ReadLatency.Observe(float64(latencyCycles))
}
