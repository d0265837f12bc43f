package refresh

import (
	"testing"

	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
)

type fakeDevice struct {
	hintSetCount   int
	hintResetCount int
}

func (f *fakeDevice) SetHighPriPrefetch(vec request.AddrVec)   { f.hintSetCount++ }
func (f *fakeDevice) ResetHighPriPrefetch(vec request.AddrVec) { f.hintResetCount++ }

type fakeController struct {
	sent    []*request.Request
	reject  bool
}

func (f *fakeController) PrioritySend(req *request.Request) bool {
	if f.reject {
		return false
	}
	f.sent = append(f.sent, req)
	return true
}

func TestRefreshFiresEveryNREFI(t *testing.T) {
	dev := &fakeDevice{}
	ctrl := &fakeController{}
	m := New(dev, ctrl, 0, 2, 1, 100)

	for clk := request.Clock(0); clk < 100; clk++ {
		if err := m.Tick(clk); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if len(ctrl.sent) != 0 {
		t.Fatalf("no refresh may fire before the simulation clock reaches nREFI")
	}
	if err := m.Tick(100); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(ctrl.sent) != 2 {
		t.Fatalf("expected 2 refresh requests (1 rank x 2 pseudochannels) at clk == nREFI, got %d", len(ctrl.sent))
	}
	for _, req := range ctrl.sent {
		if dram.Command(req.FinalCommand) != dram.REFab {
			t.Fatalf("refresh request FinalCommand = %v, want REFab", dram.Command(req.FinalCommand))
		}
	}
	if dev.hintResetCount != 2 {
		t.Fatalf("expected the high-pri prefetch hint reset once per pseudochannel at refresh time")
	}
}

func TestPrefetchHintRaisedBeforeRefresh(t *testing.T) {
	dev := &fakeDevice{}
	ctrl := &fakeController{}
	nrefi := int64(prefetchWindow + 10)
	m := New(dev, ctrl, 0, 1, 1, nrefi)

	hintClk := request.Clock(nrefi - prefetchWindow)
	for clk := request.Clock(0); clk < hintClk; clk++ {
		if err := m.Tick(clk); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if dev.hintSetCount != 0 {
		t.Fatalf("the hint must not be raised before clk reaches nREFI - prefetchWindow")
	}
	if err := m.Tick(hintClk); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if dev.hintSetCount != 1 {
		t.Fatalf("expected the prefetch hint raised exactly prefetchWindow cycles before the refresh")
	}
}

func TestRefreshRejectionIsFatal(t *testing.T) {
	dev := &fakeDevice{}
	ctrl := &fakeController{reject: true}
	m := New(dev, ctrl, 0, 1, 1, 10)

	var err error
	for clk := request.Clock(0); clk <= 10; clk++ {
		if err = m.Tick(clk); err != nil {
			break
		}
	}
	if err == nil {
		t.Fatalf("expected an error when priority_send rejects a refresh request")
	}
}
