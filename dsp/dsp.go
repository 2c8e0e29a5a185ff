// Package dsp holds the small set of signal-processing primitives shared by
// the acquisition and tracking stages. Both stages need the same cyclic
// cross-correlation operation - acquisition to search the full code-phase
// space in one pass, the tracker to refine a known-approximate phase - so it
// is factored out here rather than duplicated.
package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// CyclicCorrelate computes the circular cross-correlation of a and b using
// the FFT: ifft(fft(a) .* conj(fft(b))). Both slices must have equal,
// non-zero length. The result has the same length; result[n] is the
// correlation at a code-phase shift of n samples.
func CyclicCorrelate(a, b []complex128) []complex128 {
	n := len(a)
	if n == 0 || len(b) != n {
		return nil
	}

	fft := fourier.NewCmplxFFT(n)

	spectrumA := fft.Coefficients(nil, a)
	spectrumB := fft.Coefficients(nil, b)

	product := make([]complex128, n)
	for i := range product {
		product[i] = spectrumA[i] * cmplx.Conj(spectrumB[i])
	}

	correlation := fft.Sequence(nil, product)
	scale := complex(1/float64(n), 0)
	for i := range correlation {
		correlation[i] *= scale
	}
	return correlation
}

// MixDown multiplies each sample by a complex exponential at the given
// Doppler-shifted carrier frequency, removing (or applying) that carrier.
// sampleRateHz is the complex sample rate the slice was captured at.
func MixDown(samples []complex128, frequencyHz float64, sampleRateHz float64) []complex128 {
	mixed := make([]complex128, len(samples))
	MixDownInto(mixed, samples, frequencyHz, sampleRateHz)
	return mixed
}

// MixDownInto writes the mixed-down samples into dst, which must have the
// same length as samples. Unlike MixDown it performs no allocation, so
// callers with a fixed-size scratch buffer (the tracker's per-millisecond
// loop) can avoid allocating every call.
func MixDownInto(dst, samples []complex128, frequencyHz float64, sampleRateHz float64) {
	angularStep := -2 * math.Pi * frequencyHz / sampleRateHz
	for i, sample := range samples {
		dst[i] = sample * cmplx.Exp(complex(0, angularStep*float64(i)))
	}
}
