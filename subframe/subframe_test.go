package subframe

import (
	"testing"

	"github.com/goblimey/gpsreceiver/gpsconst"
)

// encodeFrame builds a valid, parity-passing 300-bit raw subframe (as it
// would appear on the wire, with the D30* inversion convention applied)
// from 10 x 24 logical data-bit words, starting from d29=d30=0 exactly as
// a fresh Decoder does.
func encodeFrame(t *testing.T, words [gpsconst.WordsPerSubframe][]int) []int {
	t.Helper()
	var frame []int
	d29, d30 := 0, 0
	for _, dataBits := range words {
		if len(dataBits) != gpsconst.DataBitsPerWord {
			t.Fatalf("word has %d data bits, want %d", len(dataBits), gpsconst.DataBitsPerWord)
		}
		parity := computeParity(dataBits, d29, d30)

		transmittedData := make([]int, gpsconst.DataBitsPerWord)
		transmittedParity := make([]int, gpsconst.ParityBitsPerWord)
		for i, b := range dataBits {
			if d30 == 1 {
				transmittedData[i] = 1 - b
			} else {
				transmittedData[i] = b
			}
		}
		// Only the data bits are complemented; the parity bits go out as
		// computed.
		copy(transmittedParity, parity)

		frame = append(frame, transmittedData...)
		frame = append(frame, transmittedParity...)

		d29 = parity[len(parity)-2]
		d30 = parity[len(parity)-1]
	}
	return frame
}

func wordWithPreamble() []int {
	word := make([]int, gpsconst.DataBitsPerWord)
	copy(word, gpsconst.Preamble[:])
	return word
}

func buildSubframe1(t *testing.T) []int {
	t.Helper()
	var words [gpsconst.WordsPerSubframe][]int
	words[0] = wordWithPreamble()
	for w := 1; w < gpsconst.WordsPerSubframe; w++ {
		words[w] = make([]int, gpsconst.DataBitsPerWord)
	}
	// Word 2 (HOW): subframe ID 1 in data bits 20-22 (0-based 19..21).
	words[1][19], words[1][20], words[1][21] = 0, 0, 1
	// Word 3: week number field, value 100 in its top 10 bits.
	setUint(words[2], 0, 10, 100)
	return encodeFrame(t, words)
}

func setUint(word []int, pos, length int, value uint64) {
	for i := length - 1; i >= 0; i-- {
		word[pos+i] = int(value & 1)
		value >>= 1
	}
}

func TestDecoderFindsPreambleAndDecodesSubframe1(t *testing.T) {
	frame := buildSubframe1(t)

	d := New()
	var got *Subframe
	for _, bit := range frame {
		sf, err := d.ProcessBit(bit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sf != nil {
			got = sf
		}
	}

	if got == nil {
		t.Fatal("expected a decoded subframe")
	}
	if got.SubframeID != 1 {
		t.Errorf("SubframeID = %d, want 1", got.SubframeID)
	}
	data, ok := got.Data.(Subframe1Data)
	if !ok {
		t.Fatalf("Data type = %T, want Subframe1Data", got.Data)
	}
	if data.WeekNumber != 100 {
		t.Errorf("WeekNumber = %d, want 100", data.WeekNumber)
	}
}

// TestComputeParityMatchesIndependentVectors checks computeParity against
// expected values worked out independently of computeParity itself, by
// folding the ICD IS-GPS-200 Table 20-XIV parity masks over each vector by
// hand (cross-checked against the Hamming masks in a real RTKLIB-derived
// Decode_Word) rather than generating them with the code under test. This
// is the kind of check encodeFrame can't provide, since encodeFrame calls
// computeParity to build its frames and so would pass even if parityTable
// had a transposed bit index.
func TestComputeParityMatchesIndependentVectors(t *testing.T) {
	cases := []struct {
		name     string
		data     []int
		d29, d30 int
		want     []int
	}{
		{
			name: "all-zero data, d29=d30=0",
			data: make([]int, gpsconst.DataBitsPerWord),
			d29:  0, d30: 0,
			want: []int{0, 0, 0, 0, 0, 0},
		},
		{
			// Every row's masked data contribution is 0, so the result is
			// exactly the fixed d29/d30 pattern: D25,D27,D30 take d29;
			// D26,D28,D29 take d30.
			name: "all-zero data, d29=d30=1",
			data: make([]int, gpsconst.DataBitsPerWord),
			d29:  1, d30: 1,
			want: []int{1, 1, 1, 1, 1, 1},
		},
		{
			// Every data bit set: each row's masked-bit count parity
			// depends only on whether its index set has even or odd size
			// (14, 14, 14, 14, 15, 13 respectively).
			name: "all-one data, d29=1, d30=0",
			data: allOnes(gpsconst.DataBitsPerWord),
			d29:  1, d30: 0,
			want: []int{1, 0, 1, 0, 1, 0},
		},
		{
			name: "mixed data pattern, d29=0, d30=1",
			data: dataWithBitsSet(gpsconst.DataBitsPerWord, 0, 3, 7, 12, 18, 23),
			d29:  0, d30: 1,
			want: []int{0, 1, 1, 0, 1, 0},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := computeParity(c.data, c.d29, c.d30)
			if len(got) != len(c.want) {
				t.Fatalf("len(got) = %d, want %d", len(got), len(c.want))
			}
			for i := range c.want {
				if got[i] != c.want[i] {
					t.Errorf("parity[%d] = %d, want %d (full: got=%v want=%v)", i, got[i], c.want[i], got, c.want)
				}
			}
		})
	}
}

func allOnes(n int) []int {
	bits := make([]int, n)
	for i := range bits {
		bits[i] = 1
	}
	return bits
}

func dataWithBitsSet(n int, indices ...int) []int {
	bits := make([]int, n)
	for _, i := range indices {
		bits[i] = 1
	}
	return bits
}

func TestMatchesPreambleAcceptsInverse(t *testing.T) {
	var inverted []int
	for _, b := range gpsconst.Preamble {
		inverted = append(inverted, 1-b)
	}
	if !matchesPreamble(inverted) {
		t.Error("expected inverted preamble to match")
	}
}

func TestCorruptedWordFailsParityAndResyncs(t *testing.T) {
	frame := buildSubframe1(t)
	frame[8] = 1 - frame[8] // corrupt a data bit inside word 1

	d := New()
	for _, bit := range frame {
		sf, err := d.ProcessBit(bit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sf != nil {
			t.Fatal("expected no subframe to be decoded from corrupted data")
		}
	}
}
