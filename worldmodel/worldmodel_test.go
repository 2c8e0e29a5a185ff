package worldmodel

import (
	"testing"

	"github.com/goblimey/gpsreceiver/subframe"
)

func TestOrbitNotCompleteUntilAllSubframesSeen(t *testing.T) {
	m := New()

	event := m.HandleSubframe(5, &subframe.Subframe{
		SubframeID: 2,
		Data: subframe.Subframe2Data{
			SqrtSemiMajorAxis: 5153.8,
			Eccentricity:      0.01,
			MeanAnomaly:       0.2,
		},
	})
	if event != nil {
		t.Fatal("did not expect orbit determined after subframe 2 alone")
	}
	if m.Orbital(5).IsComplete() {
		t.Fatal("orbital parameters should not be complete yet")
	}

	event = m.HandleSubframe(5, &subframe.Subframe{
		SubframeID: 3,
		Data: subframe.Subframe3Data{
			Inclination:        0.9,
			ArgumentOfPerigee:  1.1,
			LongitudeOfAscNode: -1.2,
		},
	})
	if event == nil {
		t.Fatal("expected orbit determined event after subframe 3 completes the set")
	}
	if event.SatelliteID != 5 {
		t.Errorf("SatelliteID = %d, want 5", event.SatelliteID)
	}
	if !m.Orbital(5).IsComplete() {
		t.Fatal("orbital parameters should be complete")
	}
}

func TestOrbitDeterminedEventFiresOnlyOnce(t *testing.T) {
	m := New()
	m.HandleSubframe(5, &subframe.Subframe{SubframeID: 2, Data: subframe.Subframe2Data{}})
	first := m.HandleSubframe(5, &subframe.Subframe{SubframeID: 3, Data: subframe.Subframe3Data{}})
	if first == nil {
		t.Fatal("expected completion event")
	}

	second := m.HandleSubframe(5, &subframe.Subframe{SubframeID: 2, Data: subframe.Subframe2Data{}})
	if second != nil {
		t.Fatal("completion event should only fire once")
	}
}

func TestForgetClearsAccumulatedState(t *testing.T) {
	m := New()
	m.HandleSubframe(5, &subframe.Subframe{SubframeID: 2, Data: subframe.Subframe2Data{}})
	m.Forget(5)
	if m.Orbital(5).SemiMajorAxis != nil {
		t.Fatal("expected state to be cleared after Forget")
	}
}

func TestForgetPreventsSecondOrbitDeterminedAfterReacquisition(t *testing.T) {
	m := New()
	first := m.HandleSubframe(5, &subframe.Subframe{SubframeID: 2, Data: subframe.Subframe2Data{}})
	if first != nil {
		t.Fatal("did not expect completion after subframe 2 alone")
	}
	first = m.HandleSubframe(5, &subframe.Subframe{SubframeID: 3, Data: subframe.Subframe3Data{}})
	if first == nil {
		t.Fatal("expected completion event")
	}

	// Drop for an unrelated reason (e.g. bit-sync failure) and re-acquire,
	// then re-accumulate both subframes again exactly as a fresh pass would.
	m.Forget(5)
	if m.Orbital(5).IsComplete() {
		t.Fatal("orbital parameters should be cleared after Forget")
	}

	m.HandleSubframe(5, &subframe.Subframe{SubframeID: 2, Data: subframe.Subframe2Data{}})
	second := m.HandleSubframe(5, &subframe.Subframe{SubframeID: 3, Data: subframe.Subframe3Data{}})
	if second != nil {
		t.Fatal("SatelliteOrbitDetermined must fire at most once per satellite ID, even across Forget")
	}
}

func TestSemiMajorAxisIsSquareOfSqrtA(t *testing.T) {
	m := New()
	m.HandleSubframe(1, &subframe.Subframe{
		SubframeID: 2,
		Data:       subframe.Subframe2Data{SqrtSemiMajorAxis: 4},
	})
	orbital := m.Orbital(1)
	if orbital.SemiMajorAxis == nil || *orbital.SemiMajorAxis != 16 {
		t.Fatalf("SemiMajorAxis = %v, want 16", orbital.SemiMajorAxis)
	}
}
