// Package subframe assembles navigation bits into 300-bit GPS subframes,
// checks their parity, and decodes the fields the world model needs out of
// subframes 1, 2 and 3. It runs as a small state machine: search for the
// preamble, collect the rest of the frame, check parity, emit or resync.
package subframe

import (
	"github.com/goblimey/gpsreceiver/gpsconst"
)

// state is the decoder's internal position in the frame-acquisition cycle.
type state int

const (
	searchPreamble state = iota
	collectFrame
)

// Decoder accumulates navigation bits for one satellite and emits complete,
// parity-checked subframes.
type Decoder struct {
	st          state
	bits        []int
	previousD30 int // D30* assumed before each frame's first word; never updated, so always 0
}

// New creates a Decoder in the preamble-search state.
func New() *Decoder {
	return &Decoder{st: searchPreamble}
}

// ProcessBit feeds one navigation bit (0 or 1) to the decoder. It returns a
// decoded Subframe once 300 bits have been collected and every word passes
// parity; a frame that passes parity but carries a subframe ID outside 1..5
// returns an error; otherwise it returns nil, nil. A parity failure resets the
// decoder to preamble search silently - spec.md's soft-failure taxonomy
// treats this as routine resynchronization, not an error.
func (d *Decoder) ProcessBit(bit int) (*Subframe, error) {
	d.bits = append(d.bits, bit)

	switch d.st {
	case searchPreamble:
		if len(d.bits) < 8 {
			return nil, nil
		}
		if !matchesPreamble(d.bits[len(d.bits)-8:]) {
			d.bits = d.bits[len(d.bits)-7:]
			return nil, nil
		}
		d.bits = d.bits[len(d.bits)-8:]
		d.st = collectFrame
		return nil, nil

	case collectFrame:
		if len(d.bits) < gpsconst.SubframeLengthBits {
			return nil, nil
		}
		frame := d.bits
		d.bits = nil
		d.st = searchPreamble

		corrected, ok := checkAndCorrectParity(frame, d.previousD30)
		if !ok {
			return nil, nil
		}
		sf, err := decodeFields(corrected)
		return sf, err
	}
	return nil, nil
}

func matchesPreamble(window []int) bool {
	matchesDirect := true
	matchesInverted := true
	for i, b := range gpsconst.Preamble {
		if window[i] != b {
			matchesDirect = false
		}
		if window[i] != (1 - b) {
			matchesInverted = false
		}
	}
	return matchesDirect || matchesInverted
}

// checkAndCorrectParity verifies the 6-bit Hamming-derived parity of each
// 30-bit word and, where the data polarity was inverted (D30* of the
// previous word was 1), flips the data bits back per ICD IS-GPS-200
// §20.3.5. The parity bits themselves are transmitted uncomplemented.
// previousD30 is the last bit emitted by the word preceding this frame;
// within the frame each word supplies the next word's previousD30.
func checkAndCorrectParity(frame []int, previousD30 int) ([]int, bool) {
	corrected := make([]int, 0, gpsconst.SubframeLengthBits)
	d29, d30 := 0, previousD30

	for w := 0; w < gpsconst.WordsPerSubframe; w++ {
		word := frame[w*gpsconst.WordLengthBits : (w+1)*gpsconst.WordLengthBits]
		dataBits := make([]int, gpsconst.DataBitsPerWord)
		copy(dataBits, word[:gpsconst.DataBitsPerWord])
		parityBits := word[gpsconst.DataBitsPerWord:]

		if d30 == 1 {
			for i := range dataBits {
				dataBits[i] = 1 - dataBits[i]
			}
		}

		expectedParity := computeParity(dataBits, d29, d30)
		for i, p := range parityBits {
			if p != expectedParity[i] {
				return nil, false
			}
		}

		corrected = append(corrected, dataBits...)
		d29 = expectedParity[len(expectedParity)-2]
		d30 = expectedParity[len(expectedParity)-1]
	}
	return corrected, true
}

// parity source-bit index tables for D25..D30, per ICD IS-GPS-200 table
// 20-XIV, 0-based into the 24 data bits (d1..d24). Cross-checked bit for
// bit against the hamming masks in a real RTKLIB-derived Decode_Word
// (gnssgo/src/common.go): each row's indices are exactly the set bits of
// its mask, read from bit29 (d1) down to bit6 (d24).
var parityTable = [6][]int{
	{0, 1, 2, 4, 5, 9, 10, 11, 12, 13, 16, 17, 19, 22},
	{1, 2, 3, 5, 6, 10, 11, 12, 13, 14, 17, 18, 20, 23},
	{0, 2, 3, 4, 6, 7, 11, 12, 13, 14, 15, 18, 19, 21},
	{1, 3, 4, 5, 7, 8, 12, 13, 14, 15, 16, 19, 20, 22},
	{0, 2, 4, 5, 6, 8, 9, 13, 14, 15, 16, 17, 20, 21, 23},
	{2, 4, 5, 7, 8, 9, 10, 12, 14, 18, 21, 22, 23},
}

// D25 and D27 fold in D29* of the previous word directly; D26, D28 and D29
// fold in D30* instead; D30 folds in D29* again. This alternation (not a
// uniform D29* across D25..D28) is exactly what the same reference's mask
// bit31/bit30 split encodes per row.
func computeParity(dataBits []int, d29, d30 int) []int {
	parity := make([]int, gpsconst.ParityBitsPerWord)
	parity[0] = xorBits(dataBits, parityTable[0]) ^ d29
	parity[1] = xorBits(dataBits, parityTable[1]) ^ d30
	parity[2] = xorBits(dataBits, parityTable[2]) ^ d29
	parity[3] = xorBits(dataBits, parityTable[3]) ^ d30
	parity[4] = xorBits(dataBits, parityTable[4]) ^ d30
	parity[5] = xorBits(dataBits, parityTable[5]) ^ d29
	return parity
}

func xorBits(bits []int, indices []int) int {
	v := 0
	for _, i := range indices {
		v ^= bits[i]
	}
	return v
}

func getBitsAsUint(bits []int, pos, length int) uint64 {
	var v uint64
	for i := 0; i < length; i++ {
		v = v<<1 | uint64(bits[pos+i])
	}
	return v
}

func getBitsAsInt(bits []int, pos, length int) int64 {
	v := getBitsAsUint(bits, pos, length)
	if bits[pos] == 1 {
		return int64(v) - (1 << uint(length))
	}
	return int64(v)
}
