package subframe

import (
	"fmt"

	"github.com/goblimey/gpsreceiver/gpsconst"
)

// Subframe is a single parity-checked, 240-bit (10 words x 24 data bits)
// navigation subframe with its identifying fields and type-specific payload
// decoded out.
type Subframe struct {
	SubframeID int // 1..5
	Data       interface{}
}

// field bit-lengths, named the way the teacher names RTCM fixed-point
// fields (see rtcm/message1005's lenX constants), positioned within the
// 240-bit data-only word stream (24 bits per word, parity already
// stripped).
const (
	lenSubframeID = 3

	lenWeekNumber = 10

	// The 32-bit orbital fields are each split across two words per ICD
	// IS-GPS-200: an 8-bit most-significant chunk at the end of one word,
	// followed by the 24-bit least-significant chunk filling the whole of
	// the next.
	lenFieldMSB = 8
	lenFieldLSB = 24
)

// ICD LSB scale factors (semi-circles or meters as appropriate), applied
// the same way message1005.go applies its scaleFactor constants.
const (
	scaleSqrtA        = 1.0 / (1 << 19)
	scaleEccentricity = 1.0 / (1 << 33)
	scaleAngle        = 1.0 / (1 << 31) // semi-circles
)

// wordStart returns the bit offset of the first data bit of word w
// (0-based, so word index 0 is the TLM word and index 1 is the HOW) within
// the 240-bit corrected frame.
func wordStart(w int) int {
	return w * gpsconst.DataBitsPerWord
}

// getSplitBitsAsUint reads an ICD field split across two words: an 8-bit
// MSB chunk sitting in the last 8 bits of word highWord, and a 24-bit LSB
// chunk filling the whole of word lowWord, and recombines them into one
// 32-bit unsigned value.
func getSplitBitsAsUint(frame []int, highWord, lowWord int) uint64 {
	msb := getBitsAsUint(frame, wordStart(highWord)+gpsconst.DataBitsPerWord-lenFieldMSB, lenFieldMSB)
	lsb := getBitsAsUint(frame, wordStart(lowWord), lenFieldLSB)
	return msb<<uint(lenFieldLSB) | lsb
}

// getSplitBitsAsInt is getSplitBitsAsUint's two's-complement counterpart:
// the sign bit is the MSB chunk's leading bit.
func getSplitBitsAsInt(frame []int, highWord, lowWord int) int64 {
	v := getSplitBitsAsUint(frame, highWord, lowWord)
	signPos := wordStart(highWord) + gpsconst.DataBitsPerWord - lenFieldMSB
	if frame[signPos] == 1 {
		return int64(v) - (1 << uint(lenFieldMSB+lenFieldLSB))
	}
	return int64(v)
}

// Subframe1Data holds the GPS week number carried in subframe 1.
type Subframe1Data struct {
	WeekNumber int
}

// Subframe2Data holds the orbital elements carried in subframe 2.
type Subframe2Data struct {
	SqrtSemiMajorAxis float64
	Eccentricity      float64
	MeanAnomaly       float64
}

// Subframe3Data holds the orbital elements carried in subframe 3.
type Subframe3Data struct {
	Inclination        float64
	ArgumentOfPerigee  float64
	LongitudeOfAscNode float64
}

// Word indices (0-based: index 0 is the TLM word, index 1 is the HOW) for
// the orbital fields, per ICD IS-GPS-200 tables 20-II and 20-III. Each of
// M0, e, sqrt(A), Omega0, i0 and omega is a 32-bit field whose 8 MSBs end
// word highWord and whose 24 LSBs fill word lowWord entirely.
const (
	subframe2Word4 = 3 // Delta-n (16 bits) + M0 MSB (8 bits)
	subframe2Word5 = 4 // M0 LSB (24 bits)
	subframe2Word6 = 5 // Cuc (16 bits) + e MSB (8 bits)
	subframe2Word7 = 6 // e LSB (24 bits)
	subframe2Word8 = 7 // Cus (16 bits) + sqrt(A) MSB (8 bits)
	subframe2Word9 = 8 // sqrt(A) LSB (24 bits)

	subframe3Word3 = 2 // Cic (16 bits) + Omega0 MSB (8 bits)
	subframe3Word4 = 3 // Omega0 LSB (24 bits)
	subframe3Word5 = 4 // Cis (16 bits) + i0 MSB (8 bits)
	subframe3Word6 = 5 // i0 LSB (24 bits)
	subframe3Word7 = 6 // Crc (16 bits) + omega MSB (8 bits)
	subframe3Word8 = 7 // omega LSB (24 bits)
)

func decodeFields(frame []int) (*Subframe, error) {
	// Word index 1 (the HOW, hand-over word) carries the subframe ID in its
	// final three data bits before the parity-only reserved bits.
	subframeID := int(getBitsAsUint(frame, wordStart(1)+19, lenSubframeID))

	sf := &Subframe{SubframeID: subframeID}

	switch subframeID {
	case 1:
		// Word index 2 (ICD word 3) carries the 10-bit week number in its
		// first 10 bits.
		sf.Data = Subframe1Data{
			WeekNumber: int(getBitsAsUint(frame, wordStart(2), lenWeekNumber)),
		}
	case 2:
		sf.Data = Subframe2Data{
			MeanAnomaly:       float64(getSplitBitsAsInt(frame, subframe2Word4, subframe2Word5)) * scaleAngle,
			Eccentricity:      float64(getSplitBitsAsUint(frame, subframe2Word6, subframe2Word7)) * scaleEccentricity,
			SqrtSemiMajorAxis: float64(getSplitBitsAsUint(frame, subframe2Word8, subframe2Word9)) * scaleSqrtA,
		}
	case 3:
		sf.Data = Subframe3Data{
			LongitudeOfAscNode: float64(getSplitBitsAsInt(frame, subframe3Word3, subframe3Word4)) * scaleAngle,
			Inclination:        float64(getSplitBitsAsInt(frame, subframe3Word5, subframe3Word6)) * scaleAngle,
			ArgumentOfPerigee:  float64(getSplitBitsAsInt(frame, subframe3Word7, subframe3Word8)) * scaleAngle,
		}
	case 4, 5:
		// Almanac/ionospheric pages: only the frame structure and subframe
		// ID are of interest to this receiver; page payload is out of
		// scope.
	default:
		return nil, fmt.Errorf("subframe: unexpected subframe ID %d", subframeID)
	}

	return sf, nil
}
