package trace

import (
	"strings"
	"testing"

	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

func TestParseLegacyFormat(t *testing.T) {
	in := "# comment\nLD 0x100\nST 0x200 1 2 3 4 5 6 7 8\n\nLD 300\n"
	entries, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Addr != 0x100 || entries[0].IsWrite {
		t.Fatalf("entry 0 mismatch: %+v", entries[0])
	}
	if entries[1].Addr != 0x200 || !entries[1].IsWrite || !entries[1].HasPayload || entries[1].Payload[7] != 8 {
		t.Fatalf("entry 1 mismatch: %+v", entries[1])
	}
	if entries[0].Timestamp != 0 || entries[1].Timestamp != 1 || entries[2].Timestamp != 2 {
		t.Fatalf("expected sequential timestamps for legacy format, got %+v", entries)
	}
}

func TestParseTimestampedFormat(t *testing.T) {
	in := "10 LD 0x100\n50 ST 0x200 0 0 0 0 0 0 0 0\n"
	entries, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if entries[0].Timestamp != 10 || entries[1].Timestamp != 50 {
		t.Fatalf("expected explicit timestamps to be preserved, got %+v", entries)
	}
}

func TestParseRejectsBadPayloadLength(t *testing.T) {
	in := "ST 0x200 1 2 3\n"
	if _, err := Parse(strings.NewReader(in)); err == nil {
		t.Fatalf("expected an error for a short ST payload")
	}
}

type fakeSender struct {
	sent []*request.Request
	fail bool
}

func (f *fakeSender) Send(req *request.Request) bool {
	if f.fail {
		return false
	}
	f.sent = append(f.sent, req)
	return true
}

func TestCoreRespectsMSHRLimit(t *testing.T) {
	entries := []Entry{{Addr: 0}, {Addr: 8}, {Addr: 16}}
	c := NewCore(entries, 2)
	s := &fakeSender{}

	c.Tick(0, s)
	if len(s.sent) != 2 {
		t.Fatalf("expected exactly 2 reads admitted under a 2-entry MSHR, got %d", len(s.sent))
	}
	if c.Drained() {
		t.Fatalf("expected the core to still have a pending entry")
	}
}

func TestCoreRewindsAfterIdleInterval(t *testing.T) {
	entries := []Entry{{Addr: 0, IsWrite: true}}
	c := NewCore(entries, 4)
	s := &fakeSender{}

	c.Tick(0, s)
	if c.idx != 1 {
		t.Fatalf("expected the single write to be issued")
	}

	c.Tick(1, s)
	if !c.idle {
		t.Fatalf("expected the core to be marked idle once drained")
	}

	c.Tick(request.Clock(idleRewindCycles), s)
	if c.idx != 0 {
		t.Fatalf("expected the trace to rewind after the idle interval elapsed")
	}
}

func TestCoreCompletesReadAndRecordsLatency(t *testing.T) {
	entries := []Entry{{Addr: 0}}
	c := NewCore(entries, 4)
	s := &fakeSender{}

	c.Tick(5, s)
	if len(s.sent) != 1 {
		t.Fatalf("expected one read issued")
	}
	s.sent[0].DepartClk = 25
	s.sent[0].Callback(s.sent[0])

	if c.completedReads != 1 {
		t.Fatalf("expected completedReads to be incremented")
	}
	if got := c.AverageReadLatency(); got != 20 {
		t.Fatalf("AverageReadLatency = %v, want 20", got)
	}
}
