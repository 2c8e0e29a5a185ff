package tracker

import (
	"testing"

	"github.com/goblimey/gpsreceiver/prn"
)

func testParams() Params {
	return Params{
		LoopBandwidthUnlockedHz:  6,
		LoopBandwidthLockedHz:    3,
		LockHistoryMs:            50,
		PhaseErrorVarianceMax:    900,
		IChannelVarianceMax:      2,
		ConstellationAngleMaxDeg: 6,
	}
}

func TestNewTrackerStartsProvisional(t *testing.T) {
	codes := prn.NewCodeSet()
	code, _ := codes.Code(1)
	tr := New(1, code, 0, 0, 0, testParams())
	if tr.State() != Provisional {
		t.Errorf("initial state = %v, want Provisional", tr.State())
	}
}

func TestProcessMillisecondTracksPerfectlyAlignedSignal(t *testing.T) {
	codes := prn.NewCodeSet()
	code, _ := codes.Code(7)
	tr := New(7, code, 0, 0, 0, testParams())

	for i := 0; i < testParams().LockHistoryMs+10; i++ {
		symbol := tr.ProcessMillisecond(code.Replica)
		if symbol != 1 && symbol != -1 {
			t.Fatalf("iteration %d: pseudosymbol %d not bipolar", i, symbol)
		}
	}

	if tr.State() != Locked {
		t.Errorf("state after steady tracking = %v, want Locked", tr.State())
	}
}

func TestStateStringer(t *testing.T) {
	if Locked.String() != "LOCKED" {
		t.Errorf("Locked.String() = %q", Locked.String())
	}
	if Provisional.String() != "PROVISIONAL" {
		t.Errorf("Provisional.String() = %q", Provisional.String())
	}
}

func TestRingWrapsAtCapacity(t *testing.T) {
	r := newRing(3)
	r.push(1)
	r.push(2)
	if r.full() {
		t.Fatal("ring reported full before reaching capacity")
	}
	r.push(3)
	if !r.full() {
		t.Fatal("ring did not report full at capacity")
	}
	r.push(4)
	values := r.values()
	if len(values) != 3 {
		t.Fatalf("len(values) = %d, want 3", len(values))
	}
}
