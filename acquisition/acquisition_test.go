package acquisition

import (
	"testing"

	"github.com/goblimey/gpsreceiver/prn"
)

func TestSearchFindsInjectedSignal(t *testing.T) {
	codes := prn.NewCodeSet()
	code, err := codes.Code(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params := Params{
		DopplerSearchRangeHz: 400,
		DopplerSearchStepHz:  200,
		IntegrationMs:        4,
		DetectionThreshold:   1.5,
	}

	shift := 37
	samples := make([]complex128, 0, params.IntegrationMs*2046)
	rotated := prn.Rotate(code.Replica, shift)
	for ms := 0; ms < params.IntegrationMs; ms++ {
		samples = append(samples, rotated...)
	}

	result, err := Search(samples, code, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected acquisition to succeed")
	}
	if result.SatelliteID != 5 {
		t.Errorf("satellite ID = %d, want 5", result.SatelliteID)
	}
	if result.DopplerHz != 0 {
		t.Errorf("Doppler = %v, want 0", result.DopplerHz)
	}
}

func TestSearchReturnsNilWhenTooFewSamples(t *testing.T) {
	codes := prn.NewCodeSet()
	code, _ := codes.Code(1)
	result, err := Search(make([]complex128, 10), code, DefaultParams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Error("expected nil result for too-short input")
	}
}

func TestBuildDopplerGridCoversRange(t *testing.T) {
	grid := buildDopplerGrid(Params{DopplerSearchRangeHz: 400, DopplerSearchStepHz: 200})
	want := []float64{-400, -200, 0, 200, 400}
	if len(grid) != len(want) {
		t.Fatalf("grid length %d, want %d", len(grid), len(want))
	}
	for i := range want {
		if grid[i] != want[i] {
			t.Errorf("grid[%d] = %v, want %v", i, grid[i], want[i])
		}
	}
}

func TestSNRHandlesZeroMean(t *testing.T) {
	if !isInf(snr(5, 0)) {
		t.Error("expected +Inf for zero mean")
	}
}

func isInf(f float64) bool {
	return f > 1e300
}
