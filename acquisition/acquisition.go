// Package acquisition performs the two-dimensional Doppler x code-phase
// search that locates a satellite's signal in a block of antenna samples
// before tracking can begin.
package acquisition

import (
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/goblimey/gpsreceiver/dsp"
	"github.com/goblimey/gpsreceiver/gpsconst"
	"github.com/goblimey/gpsreceiver/prn"
)

// Params configures the search grid and detection threshold. Zero-value
// Params is not usable; callers should start from DefaultParams.
type Params struct {
	DopplerSearchRangeHz float64 // search +/- this much around zero
	DopplerSearchStepHz  float64
	IntegrationMs        int     // non-coherent accumulation window, ms
	DetectionThreshold   float64 // peak-to-mean ratio required to declare acquisition
}

// DefaultParams mirrors the ranges named in the receiver's documented
// configuration: a +/-7kHz search at 200Hz steps, 20ms of non-coherent
// integration.
var DefaultParams = Params{
	DopplerSearchRangeHz: 7000,
	DopplerSearchStepHz:  200,
	IntegrationMs:        20,
	DetectionThreshold:   2.5,
}

// Result is the outcome of a successful acquisition: the Doppler bin and
// code-phase offset (in samples) that produced the strongest correlation,
// plus the carrier phase at that peak so the tracker can seed its Costas
// loop from it instead of starting at zero.
type Result struct {
	SatelliteID         int
	DopplerHz           float64
	CodePhaseSamples    int
	CarrierPhaseRadians float64
	Strength            float64
}

const sampleRateHz = float64(gpsconst.SamplesPerMillisecond) * 1000

// Search runs the Doppler x code-phase grid search for a single satellite
// over the given block of samples (which must contain at least
// params.IntegrationMs milliseconds of samples). It returns nil, nil if no
// bin clears the detection threshold.
func Search(samples []complex128, code *prn.Code, params Params) (*Result, error) {
	integrationSamples := params.IntegrationMs * gpsconst.SamplesPerMillisecond
	if len(samples) < integrationSamples {
		integrationSamples = (len(samples) / gpsconst.SamplesPerMillisecond) * gpsconst.SamplesPerMillisecond
	}
	msCount := integrationSamples / gpsconst.SamplesPerMillisecond
	if msCount == 0 {
		return nil, nil
	}

	dopplerBins := buildDopplerGrid(params)

	var best Result
	var total float64
	var count int

	for _, doppler := range dopplerBins {
		accumulated := make([]float64, gpsconst.SamplesPerMillisecond)
		var lastCorrelation []complex128
		for ms := 0; ms < msCount; ms++ {
			block := samples[ms*gpsconst.SamplesPerMillisecond : (ms+1)*gpsconst.SamplesPerMillisecond]
			mixed := dsp.MixDown(block, doppler, sampleRateHz)
			correlation := dsp.CyclicCorrelate(mixed, code.Replica)
			lastCorrelation = correlation
			for i, v := range correlation {
				accumulated[i] += cmplx.Abs(v)
			}
		}

		for phase, magnitude := range accumulated {
			total += magnitude
			count++
			if magnitude > best.Strength {
				best = Result{
					SatelliteID:         code.SatelliteID,
					DopplerHz:           doppler,
					CodePhaseSamples:    phase,
					CarrierPhaseRadians: cmplx.Phase(lastCorrelation[phase]),
					Strength:            magnitude,
				}
			}
		}
	}

	if count == 0 {
		return nil, nil
	}
	mean := total / float64(count)
	if mean == 0 || best.Strength/mean < params.DetectionThreshold {
		return nil, nil
	}
	return &best, nil
}

func buildDopplerGrid(params Params) []float64 {
	var bins []float64
	for f := -params.DopplerSearchRangeHz; f <= params.DopplerSearchRangeHz; f += params.DopplerSearchStepHz {
		bins = append(bins, f)
	}
	return bins
}

// job is one (satellite, code) unit of work dispatched to the worker pool.
type job struct {
	code *prn.Code
}

// SearchAll runs Search concurrently for every candidate satellite, using a
// bounded worker pool sized to the host's CPU count. The returned slice
// holds one Result per satellite that acquired; order is not significant,
// callers should index the results by SatelliteID.
func SearchAll(samples []complex128, codes []*prn.Code, params Params) []*Result {
	jobs := make(chan job, len(codes))
	results := make(chan *Result, len(codes))

	workerCount := runtime.NumCPU()
	if workerCount > len(codes) {
		workerCount = len(codes)
	}
	if workerCount < 1 {
		workerCount = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				result, err := Search(samples, j.code, params)
				if err == nil && result != nil {
					results <- result
				}
			}
		}()
	}

	for _, code := range codes {
		jobs <- job{code: code}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var found []*Result
	for r := range results {
		found = append(found, r)
	}
	return found
}

// snr is exposed for tests that want to sanity-check the detection
// threshold maths without re-deriving it from a Result.
func snr(peak, mean float64) float64 {
	if mean == 0 {
		return math.Inf(1)
	}
	return peak / mean
}
