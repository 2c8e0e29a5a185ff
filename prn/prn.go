// Package prn generates the GPS L1 C/A pseudorandom noise (Gold) codes and
// the complex baseband replicas derived from them. Each replica is built
// once, in NewCodeSet, and shared read-only by every satellite pipeline
// afterwards - the acquisition and tracking loops never regenerate a code.
package prn

import (
	"fmt"
	"math/cmplx"

	"github.com/goblimey/gpsreceiver/gpsconst"
)

// g2Delay holds the two G2 tap-register indices (1-based, per the ICD) that
// are XORed to form the G2i output for each satellite's PRN ID 1..32. This
// is the standard GPS C/A code phase-select table from IS-GPS-200.
var g2Delay = [gpsconst.MaxSatelliteID + 1][2]int{
	1:  {2, 6}, 2: {3, 7}, 3: {4, 8}, 4: {5, 9}, 5: {1, 9}, 6: {2, 10},
	7:  {1, 8}, 8: {2, 9}, 9: {3, 10}, 10: {2, 3}, 11: {3, 4}, 12: {5, 6},
	13: {6, 7}, 14: {7, 8}, 15: {8, 9}, 16: {9, 10}, 17: {1, 4}, 18: {2, 5},
	19: {3, 6}, 20: {4, 7}, 21: {5, 8}, 22: {6, 9}, 23: {1, 3}, 24: {4, 6},
	25: {5, 7}, 26: {6, 8}, 27: {7, 9}, 28: {8, 10}, 29: {1, 6}, 30: {2, 7},
	31: {3, 8}, 32: {4, 9},
}

// Code is the 1023-chip C/A code for one satellite, plus the complex
// baseband replica upsampled to gpsconst.SamplesPerMillisecond samples.
type Code struct {
	SatelliteID int
	Chips       [gpsconst.CodeChipsPerPRN]int8   // +1/-1 chips
	Replica     []complex128                      // upsampled, real-valued-as-complex
}

// CodeSet holds the immutable Gold codes for every GPS satellite, indexed by
// satellite ID (1..32). Index 0 is unused.
type CodeSet struct {
	codes [gpsconst.MaxSatelliteID + 1]*Code
}

// NewCodeSet builds the Gold code and upsampled replica for every satellite
// once and returns the immutable set.
func NewCodeSet() *CodeSet {
	set := &CodeSet{}
	for id := gpsconst.MinSatelliteID; id <= gpsconst.MaxSatelliteID; id++ {
		set.codes[id] = newCode(id)
	}
	return set
}

// Code returns the satellite's precomputed code, or an error if the ID is
// out of the legal GPS PRN range.
func (s *CodeSet) Code(satelliteID int) (*Code, error) {
	if satelliteID < gpsconst.MinSatelliteID || satelliteID > gpsconst.MaxSatelliteID {
		return nil, fmt.Errorf("prn: satellite ID %d out of range [%d,%d]",
			satelliteID, gpsconst.MinSatelliteID, gpsconst.MaxSatelliteID)
	}
	return s.codes[satelliteID], nil
}

func newCode(satelliteID int) *Code {
	chips := generateGoldCode(satelliteID)
	code := &Code{SatelliteID: satelliteID, Chips: chips}
	code.Replica = upsample(chips)
	return code
}

// generateGoldCode runs the G1/G2 LFSR pair for one full 1023-chip period
// and combines them into the satellite's C/A code, per IS-GPS-200 §3.2.1.3.
func generateGoldCode(satelliteID int) [gpsconst.CodeChipsPerPRN]int8 {
	// Both registers start as all binary ones. In this bipolar form binary 1
	// is -1 (so that XOR becomes a product), hence the -1 seed.
	var g1, g2 [10]int8
	for i := range g1 {
		g1[i] = -1
		g2[i] = -1
	}

	delay := g2Delay[satelliteID]

	var chips [gpsconst.CodeChipsPerPRN]int8
	for i := 0; i < gpsconst.CodeChipsPerPRN; i++ {
		g1Out := g1[9]
		g2Out := g2[delay[0]-1] * g2[delay[1]-1]
		chips[i] = g1Out * g2Out

		g1Feedback := g1[2] * g1[9]
		g2Feedback := g2[1] * g2[2] * g2[5] * g2[7] * g2[8] * g2[9]

		copy(g1[1:], g1[:9])
		g1[0] = g1Feedback
		copy(g2[1:], g2[:9])
		g2[0] = g2Feedback
	}
	return chips
}

// upsample repeats each chip gpsconst.SamplesPerMillisecond/CodeChipsPerPRN
// times to produce one millisecond's worth of complex baseband samples at
// the receiver's working sample rate.
func upsample(chips [gpsconst.CodeChipsPerPRN]int8) []complex128 {
	samplesPerChip := float64(gpsconst.SamplesPerMillisecond) / float64(gpsconst.CodeChipsPerPRN)
	replica := make([]complex128, gpsconst.SamplesPerMillisecond)
	for sample := 0; sample < gpsconst.SamplesPerMillisecond; sample++ {
		chipIndex := int(float64(sample) / samplesPerChip)
		if chipIndex >= gpsconst.CodeChipsPerPRN {
			chipIndex = gpsconst.CodeChipsPerPRN - 1
		}
		replica[sample] = cmplx.Rect(float64(chips[chipIndex]), 0)
	}
	return replica
}

// Rotate returns a copy of the replica cyclically shifted left by n samples,
// i.e. replica[n] becomes the new index 0. It allocates a new slice on every
// call; RotateInto is the non-allocating form.
func Rotate(replica []complex128, n int) []complex128 {
	length := len(replica)
	dst := make([]complex128, length)
	RotateInto(dst, replica, n)
	return dst
}

// RotateInto writes the cyclic left-rotation of replica by n samples into
// dst, which must have the same length as replica. Unlike Rotate it performs
// no allocation, so the tracker's per-millisecond hot loop can reuse one
// scratch buffer across its whole run.
func RotateInto(dst, replica []complex128, n int) {
	length := len(replica)
	n = ((n % length) + length) % length
	copy(dst, replica[n:])
	copy(dst[length-n:], replica[:n])
}
