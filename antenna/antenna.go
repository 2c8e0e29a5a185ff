// Package antenna defines the receiver's sample-source contract and a
// minimal file-backed reference implementation. Real antenna front ends
// (SDR hardware, network IQ streams) are external collaborators; this
// package only needs to provide something runnable end to end.
package antenna

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/goblimey/gpsreceiver/gpsconst"
)

// ErrExhausted is returned once the sample source has no further samples.
var ErrExhausted = errors.New("antenna: sample source exhausted")

// SampleProvider is the receiver's view of an antenna front end: a cursor
// into a stream of complex baseband samples, sampled at
// gpsconst.SamplesPerMillisecond per millisecond.
type SampleProvider interface {
	// Cursor returns the index of the next sample GetSamples will return.
	Cursor() int

	// GetSamples returns the next n samples and advances the cursor by n.
	// It returns ErrExhausted once fewer than n samples remain, together with
	// whatever samples were still available.
	GetSamples(n int) ([]complex128, error)

	// SecondsSinceStart converts a sample index into elapsed seconds from
	// the start of the stream.
	SecondsSinceStart(sampleIndex int) float64
}

// sampleRateHz is the provider's fixed sample rate, derived from the
// pipeline's working sample count per millisecond.
const sampleRateHz = float64(gpsconst.SamplesPerMillisecond) * 1000

// FileProvider reads interleaved little-endian float32 I/Q pairs from a
// reader and serves them as a SampleProvider. It buffers nothing beyond the
// caller's request size, matching the teacher's preference for small,
// explicit stream readers over a buffering framework.
type FileProvider struct {
	source io.Reader
	cursor int
}

var _ SampleProvider = (*FileProvider)(nil)

// NewFileProvider wraps a reader of interleaved float32 I/Q samples.
func NewFileProvider(source io.Reader) *FileProvider {
	return &FileProvider{source: source}
}

// Cursor implements SampleProvider.
func (p *FileProvider) Cursor() int {
	return p.cursor
}

// SecondsSinceStart implements SampleProvider.
func (p *FileProvider) SecondsSinceStart(sampleIndex int) float64 {
	return float64(sampleIndex) / sampleRateHz
}

// GetSamples implements SampleProvider.
func (p *FileProvider) GetSamples(n int) ([]complex128, error) {
	raw := make([]byte, n*8)
	read, err := io.ReadFull(p.source, raw)
	samplesRead := read / 8

	samples := make([]complex128, samplesRead)
	for i := 0; i < samplesRead; i++ {
		iPart := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8:]))
		qPart := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8+4:]))
		samples[i] = complex(float64(iPart), float64(qPart))
	}
	p.cursor += samplesRead

	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return samples, ErrExhausted
	}
	if err != nil {
		return samples, err
	}
	return samples, nil
}
