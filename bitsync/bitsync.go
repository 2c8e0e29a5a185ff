// Package bitsync folds the tracker's 1ms pseudosymbol stream into 20ms
// navigation data bits. It first has to work out which of the 20 possible
// phase offsets aligns pseudosymbol boundaries with bit boundaries, then
// runs in steady state, emitting one bit every 20 pseudosymbols.
package bitsync

import (
	"math"

	"github.com/goblimey/gpsreceiver/gpsconst"
	"github.com/goblimey/gpsreceiver/tracker"
)

// Event is the tagged-sum result of feeding one pseudosymbol to an
// Integrator. Exactly one of DeterminedBitPhase, CannotDetermineBitPhase or
// EmitNavigationBit is produced per call that returns a non-nil Event; most
// calls, still accumulating history, return nil.
type Event interface {
	isEvent()
}

// DeterminedBitPhase reports the pseudosymbol offset (0..19) at which bit
// boundaries occur, found once enough pseudosymbols have accumulated.
type DeterminedBitPhase struct {
	BitPhase int
}

// CannotDetermineBitPhase reports that no offset reached the confidence
// threshold after the search window; the caller should give up on this
// satellite and make it eligible for re-acquisition.
type CannotDetermineBitPhase struct{}

// EmitNavigationBit is produced every PseudosymbolsPerBit pseudosymbols once
// the bit phase is known.
type EmitNavigationBit struct {
	Bit int // 0 or 1
}

func (DeterminedBitPhase) isEvent()      {}
func (CannotDetermineBitPhase) isEvent() {}
func (EmitNavigationBit) isEvent()       {}

// searchWindowPseudosymbols is the minimum number of pseudosymbols collected
// before a bit-phase decision is forced.
const searchWindowPseudosymbols = 40

// confidenceThreshold is the minimum mean chunk-sum magnitude (out of a
// maximum possible 20, when every pseudosymbol in every chunk agrees) a
// candidate phase offset must reach to be accepted.
const confidenceThreshold = 15

// Integrator determines bit phase and folds pseudosymbols into navigation
// bits for one satellite.
type Integrator struct {
	history []tracker.Pseudosymbol

	bitPhase      int
	phaseKnown    bool
	symbolsSinceBitPhase int
	bitAccumulator       int
}

// New creates an Integrator with no bit-phase knowledge yet.
func New() *Integrator {
	return &Integrator{}
}

// ProcessPseudosymbol feeds one pseudosymbol to the integrator and returns
// the event, if any, produced as a result.
func (in *Integrator) ProcessPseudosymbol(symbol tracker.Pseudosymbol) Event {
	if !in.phaseKnown {
		in.history = append(in.history, symbol)
		if len(in.history) < searchWindowPseudosymbols {
			return nil
		}
		phase, ok := determineBitPhase(in.history)
		in.history = nil
		if !ok {
			return CannotDetermineBitPhase{}
		}
		in.phaseKnown = true
		in.bitPhase = phase
		in.symbolsSinceBitPhase = 0
		in.bitAccumulator = 0
		return DeterminedBitPhase{BitPhase: phase}
	}

	// Align accumulation to the discovered bit phase: bit boundaries fall at
	// history indices bitPhase, bitPhase+20, ... and the search window is a
	// whole number of bits long, so the first bitPhase symbols (a full
	// PseudosymbolsPerBit when bitPhase is 0) complete the bit straddling the
	// discovery point, every following window is a full bit.
	in.bitAccumulator += int(symbol)
	in.symbolsSinceBitPhase++

	boundary := in.bitPhase
	if boundary == 0 {
		boundary = gpsconst.PseudosymbolsPerBit
	}
	if in.symbolsSinceBitPhase == boundary {
		bit := 0
		if in.bitAccumulator > 0 {
			bit = 1
		}
		in.bitAccumulator = 0
		in.symbolsSinceBitPhase = 0
		in.bitPhase = 0
		return EmitNavigationBit{Bit: bit}
	}
	return nil
}

// determineBitPhase scores each of the 20 candidate phase offsets by
// partitioning the history tail after that offset into 20-wide chunks,
// taking the magnitude of each chunk's pseudosymbol sum (a chunk aligned
// with a nav bit sums to +/-20 in the noise-free case; a misaligned chunk
// straddles a bit transition and partially cancels), and averaging those
// magnitudes across all chunks. The offset with the highest mean wins,
// provided it clears the confidence threshold. Unlike counting sign
// transitions at chunk boundaries, this tolerates runs of repeated same-
// polarity nav bits, which produce no transition to count but still sum
// cleanly within a correctly-aligned chunk.
func determineBitPhase(history []tracker.Pseudosymbol) (int, bool) {
	bestPhase := -1
	bestScore := -1.0

	for phase := 0; phase < gpsconst.PseudosymbolsPerBit; phase++ {
		tail := history[phase:]
		chunkCount := len(tail) / gpsconst.PseudosymbolsPerBit
		if chunkCount == 0 {
			continue
		}

		var total float64
		for c := 0; c < chunkCount; c++ {
			chunk := tail[c*gpsconst.PseudosymbolsPerBit : (c+1)*gpsconst.PseudosymbolsPerBit]
			var sum int
			for _, s := range chunk {
				sum += int(s)
			}
			total += math.Abs(float64(sum))
		}

		score := total / float64(chunkCount)
		if score > bestScore {
			bestScore = score
			bestPhase = phase
		}
	}

	if bestPhase < 0 || bestScore < confidenceThreshold {
		return 0, false
	}
	return bestPhase, true
}
