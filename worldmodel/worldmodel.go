// Package worldmodel accumulates per-satellite orbital and time parameters
// out of decoded navigation subframes. Parameter sets fill in progressively
// as subframes 1, 2 and 3 arrive (possibly out of order, possibly with gaps
// while a satellite is re-acquired) and the model reports completion
// exactly once per satellite.
package worldmodel

import "github.com/goblimey/gpsreceiver/subframe"

// OrbitalParameters holds the Keplerian elements decoded out of subframes 2
// and 3. Each field is nil until its subframe has been seen - this replaces
// the dict-of-sentinel-None pattern in the original implementation with an
// explicit optional-field struct, so "not yet known" is visible in the type
// rather than encoded as a runtime convention.
type OrbitalParameters struct {
	SemiMajorAxis      *float64
	Eccentricity       *float64
	Inclination        *float64
	LongitudeOfAscNode *float64
	ArgumentOfPerigee  *float64
	MeanAnomaly        *float64
}

// IsComplete reports whether every orbital element has been decoded.
func (p OrbitalParameters) IsComplete() bool {
	return p.SemiMajorAxis != nil &&
		p.Eccentricity != nil &&
		p.Inclination != nil &&
		p.LongitudeOfAscNode != nil &&
		p.ArgumentOfPerigee != nil &&
		p.MeanAnomaly != nil
}

// TimeParameters holds the time-related parameters decoded out of subframe 1.
type TimeParameters struct {
	WeekNumber *int
}

// IsComplete reports whether every time parameter has been decoded.
func (p TimeParameters) IsComplete() bool {
	return p.WeekNumber != nil
}

// satelliteModel is the per-satellite accumulation state.
type satelliteModel struct {
	orbital           OrbitalParameters
	time              TimeParameters
	orbitAlreadyEmitted bool
}

// Model aggregates subframe data across all satellites currently being
// tracked.
type Model struct {
	satellites map[int]*satelliteModel
}

// New creates an empty world model.
func New() *Model {
	return &Model{satellites: make(map[int]*satelliteModel)}
}

// SatelliteOrbitDetermined is emitted the first time a satellite's orbital
// parameter set becomes complete.
type SatelliteOrbitDetermined struct {
	SatelliteID int
	Orbital     OrbitalParameters
}

// HandleSubframe folds a decoded subframe for the given satellite into the
// model and returns a SatelliteOrbitDetermined event on the millisecond the
// satellite's orbit first becomes fully determined; otherwise it returns
// nil.
func (m *Model) HandleSubframe(satelliteID int, sf *subframe.Subframe) *SatelliteOrbitDetermined {
	sat := m.satellites[satelliteID]
	if sat == nil {
		sat = &satelliteModel{}
		m.satellites[satelliteID] = sat
	}

	wasComplete := sat.orbital.IsComplete()

	switch data := sf.Data.(type) {
	case subframe.Subframe1Data:
		week := data.WeekNumber
		sat.time.WeekNumber = &week
	case subframe.Subframe2Data:
		semiMajorAxis := data.SqrtSemiMajorAxis * data.SqrtSemiMajorAxis
		eccentricity := data.Eccentricity
		meanAnomaly := data.MeanAnomaly
		sat.orbital.SemiMajorAxis = &semiMajorAxis
		sat.orbital.Eccentricity = &eccentricity
		sat.orbital.MeanAnomaly = &meanAnomaly
	case subframe.Subframe3Data:
		inclination := data.Inclination
		argumentOfPerigee := data.ArgumentOfPerigee
		longitudeOfAscNode := data.LongitudeOfAscNode
		sat.orbital.Inclination = &inclination
		sat.orbital.ArgumentOfPerigee = &argumentOfPerigee
		sat.orbital.LongitudeOfAscNode = &longitudeOfAscNode
	}

	if !wasComplete && !sat.orbitAlreadyEmitted && sat.orbital.IsComplete() {
		sat.orbitAlreadyEmitted = true
		return &SatelliteOrbitDetermined{SatelliteID: satelliteID, Orbital: sat.orbital}
	}
	return nil
}

// Orbital returns the current (possibly incomplete) orbital parameter set
// for a satellite.
func (m *Model) Orbital(satelliteID int) OrbitalParameters {
	sat := m.satellites[satelliteID]
	if sat == nil {
		return OrbitalParameters{}
	}
	return sat.orbital
}

// Forget drops a satellite's accumulated orbital and time parameters, used
// when it is dropped from tracking and later re-acquired as a fresh pass.
// orbitAlreadyEmitted deliberately survives Forget: a satellite can be
// dropped and re-acquired for reasons that have nothing to do with its
// ephemeris (a bit-sync failure, say), and re-accumulating the same
// unchanged subframes afterwards must not fire a second
// SatelliteOrbitDetermined for a satellite ID that has already reported one.
func (m *Model) Forget(satelliteID int) {
	sat := m.satellites[satelliteID]
	if sat == nil {
		return
	}
	sat.orbital = OrbitalParameters{}
	sat.time = TimeParameters{}
}
