// Package tracker implements per-satellite code and carrier tracking: a
// delay-locked loop (DLL) for code phase and a Costas phase-locked loop for
// carrier phase, coupled through a shared loop update each millisecond.
package tracker

import (
	"math"
	"math/cmplx"

	"github.com/goblimey/gpsreceiver/dsp"
	"github.com/goblimey/gpsreceiver/gpsconst"
	"github.com/goblimey/gpsreceiver/prn"
)

// Params configures the loop filter bandwidths and lock-detection
// thresholds. All fields must be set; there is no useful zero value.
type Params struct {
	LoopBandwidthUnlockedHz  float64
	LoopBandwidthLockedHz    float64
	LockHistoryMs            int
	PhaseErrorVarianceMax    float64
	IChannelVarianceMax      float64
	ConstellationAngleMaxDeg float64
}

// DefaultParams mirrors the canonical values named in the receiver's
// configuration surface.
var DefaultParams = Params{
	LoopBandwidthUnlockedHz:  6,
	LoopBandwidthLockedHz:    3,
	LockHistoryMs:            250,
	PhaseErrorVarianceMax:    900,
	IChannelVarianceMax:      2,
	ConstellationAngleMaxDeg: 6,
}

const sampleRateHz = float64(gpsconst.SamplesPerMillisecond) * 1000
const samplesPerMs = float64(gpsconst.SamplesPerMillisecond)

// Pseudosymbol is the demodulated +1/-1 output of one millisecond of
// tracking, before bit synchronization folds 20 of them into a nav bit.
type Pseudosymbol int8

// State reports whether a tracker's carrier loop has achieved lock.
type State int

const (
	Provisional State = iota
	Locked
)

func (s State) String() string {
	if s == Locked {
		return "LOCKED"
	}
	return "PROVISIONAL"
}

// ring is a fixed-capacity float64 history buffer used by the lock
// detector. It never allocates after construction.
type ring struct {
	buf    []float64
	next   int
	filled int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]float64, capacity)}
}

func (r *ring) push(v float64) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.filled < len(r.buf) {
		r.filled++
	}
}

func (r *ring) full() bool {
	return r.filled == len(r.buf)
}

func (r *ring) values() []float64 {
	return r.buf[:r.filled]
}

// complexRing is ring's complex128 counterpart, used to accumulate the
// folded constellation points the lock detector needs a centroid of.
type complexRing struct {
	buf    []complex128
	next   int
	filled int
}

func newComplexRing(capacity int) *complexRing {
	return &complexRing{buf: make([]complex128, capacity)}
}

func (r *complexRing) push(v complex128) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.filled < len(r.buf) {
		r.filled++
	}
}

func (r *complexRing) full() bool {
	return r.filled == len(r.buf)
}

func (r *complexRing) values() []complex128 {
	return r.buf[:r.filled]
}

// Tracker holds the per-satellite DLL/Costas state and scratch buffers. A
// Tracker is not safe for concurrent use by multiple goroutines.
type Tracker struct {
	satelliteID int
	code        *prn.Code
	params      Params

	codePhaseSamples float64
	dopplerHz        float64
	carrierPhaseRad  float64

	// wipedCarrier and promptReplica are 2046-wide scratch buffers reused
	// every millisecond so the carrier wipe-off and replica rotation do not
	// allocate. dsp.MixDownInto and prn.RotateInto write into them in place;
	// dsp.CyclicCorrelate still allocates its FFT plan and result slices on
	// every call.
	wipedCarrier  []complex128
	promptReplica []complex128

	codeFilterGainPhase, codeFilterGainFreq       float64
	carrierFilterGainPhase, carrierFilterGainFreq float64

	state State

	dopplerHistory       *ring
	phaseErrorHistory    *ring
	iHistory             *ring
	constellationHistory *complexRing
}

// New creates a Tracker seeded from an acquisition result, including the
// carrier phase at the correlation peak so the Costas loop starts close to
// true phase rather than at zero.
func New(satelliteID int, code *prn.Code, dopplerHz float64, codePhaseSamples int, carrierPhaseRadians float64, params Params) *Tracker {
	t := &Tracker{
		satelliteID:      satelliteID,
		code:             code,
		params:           params,
		codePhaseSamples: float64(codePhaseSamples),
		dopplerHz:        dopplerHz,
		carrierPhaseRad:  carrierPhaseRadians,
		state:            Provisional,

		wipedCarrier:  make([]complex128, gpsconst.SamplesPerMillisecond),
		promptReplica: make([]complex128, gpsconst.SamplesPerMillisecond),

		dopplerHistory:       newRing(params.LockHistoryMs),
		phaseErrorHistory:    newRing(params.LockHistoryMs),
		iHistory:             newRing(params.LockHistoryMs),
		constellationHistory: newComplexRing(params.LockHistoryMs),
	}
	t.setLoopBandwidth(params.LoopBandwidthUnlockedHz)
	return t
}

// setLoopBandwidth recomputes the canonical second-order loop filter gains
// for the given noise bandwidth: zeta = sqrt(2)/2 (underdamped),
// alpha = 4*zeta*B*T, beta = 4*B^2*T.
func (t *Tracker) setLoopBandwidth(bandwidthHz float64) {
	const zeta = math.Sqrt2 / 2
	timePerSample := 1.0 / 1000 // one update per millisecond
	t.carrierFilterGainPhase = 4 * zeta * bandwidthHz * timePerSample
	t.carrierFilterGainFreq = 4 * bandwidthHz * bandwidthHz * timePerSample
	t.codeFilterGainPhase = t.carrierFilterGainPhase
	t.codeFilterGainFreq = t.carrierFilterGainFreq
}

// ProcessMillisecond advances the tracker by one millisecond of complex
// baseband samples (exactly gpsconst.SamplesPerMillisecond long) and
// returns the demodulated pseudosymbol for that millisecond.
func (t *Tracker) ProcessMillisecond(samples []complex128) Pseudosymbol {
	dsp.MixDownInto(t.wipedCarrier, samples, t.dopplerHz, sampleRateHz)
	carrierRemoval := cmplx.Exp(complex(0, -t.carrierPhaseRad))
	for i := range t.wipedCarrier {
		t.wipedCarrier[i] *= carrierRemoval
	}

	// The code phase is a delay, the same convention acquisition reports: the
	// replica is rotated right by it, so an aligned replica peaks at index 0.
	prn.RotateInto(t.promptReplica, t.code.Replica, -int(math.Round(t.codePhaseSamples)))

	// DLL: a single cyclic correlation located by argmax, not three
	// separate early/prompt/late correlations. The code phase is recentred
	// on the peak, then given a fixed +/-1 sample nudge towards whichever
	// neighbouring bin is stronger - a cheap bang-bang heuristic rather than
	// a continuous-gain discriminator.
	correlation := dsp.CyclicCorrelate(t.wipedCarrier, t.promptReplica)
	peakIndex := argmaxAbs(correlation)

	offset := peakIndex
	if offset > gpsconst.SamplesPerMillisecond/2 {
		offset -= gpsconst.SamplesPerMillisecond
	}
	t.codePhaseSamples = math.Mod(t.codePhaseSamples+float64(offset)+samplesPerMs, samplesPerMs)

	next := (peakIndex + 1) % gpsconst.SamplesPerMillisecond
	prev := (peakIndex - 1 + gpsconst.SamplesPerMillisecond) % gpsconst.SamplesPerMillisecond
	if cmplx.Abs(correlation[next]) > cmplx.Abs(correlation[prev]) {
		t.codePhaseSamples = math.Mod(t.codePhaseSamples+1+samplesPerMs, samplesPerMs)
	} else if cmplx.Abs(correlation[prev]) > cmplx.Abs(correlation[next]) {
		t.codePhaseSamples = math.Mod(t.codePhaseSamples-1+samplesPerMs, samplesPerMs)
	}

	// Costas PLL: I*Q discriminator, insensitive to the 180-degree nav-bit
	// phase ambiguity. The canonical loop gains in setLoopBandwidth are
	// derived assuming this discriminator's gain characteristic.
	prompt := correlation[peakIndex]
	i := real(prompt)
	q := imag(prompt)
	phaseError := i * q

	t.carrierPhaseRad += t.carrierFilterGainPhase * phaseError
	t.dopplerHz += t.carrierFilterGainFreq * phaseError
	t.carrierPhaseRad = math.Mod(t.carrierPhaseRad, 2*math.Pi)

	t.recordHistory(phaseError, i, q)
	t.updateLockState()

	if i >= 0 {
		return 1
	}
	return -1
}

// argmaxAbs returns the index of the largest-magnitude entry in values.
func argmaxAbs(values []complex128) int {
	best := 0
	bestMagnitude := -1.0
	for i, v := range values {
		m := cmplx.Abs(v)
		if m > bestMagnitude {
			bestMagnitude = m
			best = i
		}
	}
	return best
}

func (t *Tracker) recordHistory(phaseError, i, q float64) {
	t.dopplerHistory.push(t.dopplerHz)
	t.phaseErrorHistory.push(phaseError * phaseError)
	t.iHistory.push(i)

	// Fold onto the positive-I pole before storing: the nav-bit polarity
	// flips the sign of I every so often, and the lock detector cares about
	// how tight the constellation is around one pole, not both.
	point := complex(i, q)
	if real(point) < 0 {
		point = -point
	}
	t.constellationHistory.push(point)
}

// updateLockState applies the three-part lock test from the receiver's
// documented lock-detection rule: phase-error variance below threshold,
// split I-channel variance below threshold, and constellation rotation
// angle below threshold, all over the last LockHistoryMs milliseconds.
func (t *Tracker) updateLockState() {
	if !t.phaseErrorHistory.full() {
		return
	}

	phaseErrorVariance := mean(t.phaseErrorHistory.values())
	iVariance := splitVariance(t.iHistory.values())

	// The lock-angle metric is the angle of the centroid of the folded
	// constellation points, not the mean of their individual angles - those
	// are non-commuting operations, and only the former tolerates the noisy
	// per-sample angle of points near the origin.
	centroid := meanComplex(t.constellationHistory.values())
	angle := math.Abs(cmplx.Phase(centroid) * 180 / math.Pi)

	locked := phaseErrorVariance < t.params.PhaseErrorVarianceMax &&
		iVariance < t.params.IChannelVarianceMax &&
		angle < t.params.ConstellationAngleMaxDeg

	if locked && t.state != Locked {
		t.state = Locked
		t.setLoopBandwidth(t.params.LoopBandwidthLockedHz)
	} else if !locked && t.state != Provisional {
		t.state = Provisional
		t.setLoopBandwidth(t.params.LoopBandwidthUnlockedHz)
	}
}

// State reports the tracker's current lock state.
func (t *Tracker) State() State {
	return t.state
}

// DopplerHz returns the tracker's current carrier Doppler estimate.
func (t *Tracker) DopplerHz() float64 {
	return t.dopplerHz
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanComplex(values []complex128) complex128 {
	if len(values) == 0 {
		return 0
	}
	var sum complex128
	for _, v := range values {
		sum += v
	}
	return sum / complex(float64(len(values)), 0)
}

// splitVariance computes the variance of the history split by sign, then
// averages the two: the lock detector tests that each half of the
// constellation (the two nav-bit polarities) is internally tight, not that
// the whole history is tight around one mean (which would never hold while
// the nav-bit flips the sign of I every so often).
func splitVariance(values []float64) float64 {
	var positive, negative []float64
	for _, v := range values {
		if v >= 0 {
			positive = append(positive, v)
		} else {
			negative = append(negative, v)
		}
	}
	return (variance(positive) + variance(negative)) / 2
}

func variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return sumSq / float64(len(values)-1)
}
