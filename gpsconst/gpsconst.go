// Package gpsconst holds the physical and protocol constants shared by every
// stage of the GPS L1 C/A receiver pipeline: the chipping rate, the sample
// rate the rest of the pipeline is built around, and the navigation message
// framing constants from the GPS Interface Control Document.
package gpsconst

import "time"

const (
	// CodeChipsPerPRN is the number of chips in one C/A code period.
	CodeChipsPerPRN = 1023

	// CodeFrequencyHz is the nominal C/A code chipping rate.
	CodeFrequencyHz = 1023000

	// SamplesPerMillisecond is the number of complex baseband samples the
	// rest of the pipeline expects per millisecond of antenna input. One C/A
	// code period is exactly 1ms, so this is also the number of samples per
	// PRN period.
	SamplesPerMillisecond = 2046

	// SamplesPerPRNTransmission is an alias of SamplesPerMillisecond kept
	// for readability at call sites that are reasoning about code phase
	// rather than wall-clock time.
	SamplesPerPRNTransmission = SamplesPerMillisecond

	// NavigationBitDurationMs is the duration of one navigation data bit.
	NavigationBitDurationMs = 20

	// PseudosymbolsPerBit is the number of 1ms pseudosymbols folded into one
	// navigation bit.
	PseudosymbolsPerBit = NavigationBitDurationMs

	// MinSatelliteID and MaxSatelliteID bound the legal GPS PRN ID range.
	MinSatelliteID = 1
	MaxSatelliteID = 32

	// SubframeLengthBits is the length of one navigation subframe.
	SubframeLengthBits = 300

	// WordsPerSubframe is the number of 30-bit words in one subframe.
	WordsPerSubframe = 10

	// WordLengthBits is the length of one navigation message word,
	// including its 6 parity bits.
	WordLengthBits = 30

	// DataBitsPerWord is the number of non-parity, non-carry bits in a word.
	DataBitsPerWord = 24

	// ParityBitsPerWord is the number of trailing Hamming-derived parity
	// bits in a word.
	ParityBitsPerWord = 6
)

// Preamble is the 8-bit pattern that opens every subframe (ICD IS-GPS-200
// §20.3.3.1). A subframe may also begin with its bitwise complement, because
// the data polarity of a word depends on the last bit of the previous word.
var Preamble = [8]int{1, 0, 0, 0, 1, 0, 1, 1}

// SampleDuration is the wall-clock duration represented by one sample.
const SampleDuration = time.Millisecond / SamplesPerMillisecond
