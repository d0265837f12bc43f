package memsystem

import (
	"fmt"

	"github.com/hanloveland/ramulator2-sub000/pkg/trace"
)

// EnableTraceCore turns on the embedded trace-core front end (spec.md §4.5
// "Trace core"): entries are replayed through System.Send with at most
// mshrSize outstanding reads, driven from within Tick. A front end that
// calls System.Send directly for its own (host) traffic is unaffected --
// and since those calls land before the Tick that drains the trace core's
// own sends, host traffic always claims buffer space first in any cycle
// both are eligible, matching spec.md §4.5's "host-send requests ... take
// precedence".
func (s *System) EnableTraceCore(entries []trace.Entry, mshrSize int) {
	s.traceCore = trace.NewCore(entries, mshrSize)
}

// TraceCoreEnabled reports whether a trace core was configured.
func (s *System) TraceCoreEnabled() bool { return s.traceCore != nil }

// TraceCoreAverageReadLatency reports the trace core's mean completed-read
// latency in cycles, or an error if no trace core was enabled.
func (s *System) TraceCoreAverageReadLatency() (float64, error) {
	if s.traceCore == nil {
		return 0, fmt.Errorf("memsystem: trace core not enabled")
	}
	return s.traceCore.AverageReadLatency(), nil
}
