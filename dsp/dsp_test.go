package dsp

import (
	"math/cmplx"
	"testing"
)

func TestCyclicCorrelatePeaksAtZeroShiftForIdenticalSignals(t *testing.T) {
	signal := []complex128{1, -1, 1, 1, -1, -1, 1, -1}
	correlation := CyclicCorrelate(signal, signal)

	peakIndex := 0
	peakValue := 0.0
	for i, v := range correlation {
		if cmplx.Abs(v) > peakValue {
			peakValue = cmplx.Abs(v)
			peakIndex = i
		}
	}
	if peakIndex != 0 {
		t.Errorf("peak at index %d, want 0 (autocorrelation)", peakIndex)
	}
}

func TestCyclicCorrelateMismatchedLengthsReturnNil(t *testing.T) {
	a := []complex128{1, 2, 3}
	b := []complex128{1, 2}
	if CyclicCorrelate(a, b) != nil {
		t.Error("expected nil for mismatched lengths")
	}
}

func TestMixDownPreservesMagnitude(t *testing.T) {
	samples := []complex128{1, 1, 1, 1}
	mixed := MixDown(samples, 1000, 4000)
	for i, v := range mixed {
		if diff := cmplx.Abs(v) - 1; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("sample %d: magnitude %v, want 1", i, cmplx.Abs(v))
		}
	}
}
