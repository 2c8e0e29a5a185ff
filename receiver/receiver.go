// Package receiver orchestrates the whole pipeline: it pulls samples from
// an antenna.SampleProvider, runs acquisition on satellites that aren't yet
// tracked, drives each tracked satellite's tracker/bitsync/subframe chain
// one millisecond at a time, folds decoded subframes into the world model,
// and publishes a snapshot of receiver state after every step.
package receiver

import (
	"fmt"
	"log"

	"github.com/goblimey/gpsreceiver/acquisition"
	"github.com/goblimey/gpsreceiver/antenna"
	"github.com/goblimey/gpsreceiver/bitsync"
	"github.com/goblimey/gpsreceiver/gpsconst"
	"github.com/goblimey/gpsreceiver/internal/dailylog"
	"github.com/goblimey/gpsreceiver/prn"
	"github.com/goblimey/gpsreceiver/subframe"
	"github.com/goblimey/gpsreceiver/tracker"
	"github.com/goblimey/gpsreceiver/worldmodel"
)

// SatelliteStatus reports where a satellite ID currently sits in the
// acquisition/tracking lifecycle.
type SatelliteStatus int

const (
	Eligible SatelliteStatus = iota
	Provisional
	Locked
	Dropped
)

func (s SatelliteStatus) String() string {
	switch s {
	case Eligible:
		return "ELIGIBLE"
	case Provisional:
		return "PROVISIONAL"
	case Locked:
		return "LOCKED"
	default:
		return "DROPPED"
	}
}

// Snapshot is published after every Step so an external dashboard can
// render receiver state. It is an external collaborator's input contract,
// not a UI.
type Snapshot struct {
	TimestampSeconds   float64
	EligibleSatellites []int
	TrackedCount       int
	ProcessedSubframes int
	Satellites         map[int]SatelliteStatus
	Orbits             map[int]worldmodel.OrbitalParameters
}

// SnapshotPublisher receives a Snapshot after every Step. Throttling the
// publish cadence, if a caller wants less than once-per-millisecond, is the
// publisher's concern.
type SnapshotPublisher interface {
	Publish(Snapshot)
}

// UnknownEventError is raised if a bitsync.Event of a type this package
// does not know about reaches the dispatch switch in trackSatellite. It
// signals a programming error - a new Event variant added to bitsync
// without a matching case here - and is the only error in this package
// that is allowed to panic.
type UnknownEventError struct {
	Event bitsync.Event
}

func (e UnknownEventError) Error() string {
	return fmt.Sprintf("receiver: unknown bitsync event type %T", e.Event)
}

// satellitePipeline bundles the per-satellite tracking chain.
type satellitePipeline struct {
	tracker        *tracker.Tracker
	bitIntegrator  *bitsync.Integrator
	subframeDecoder *subframe.Decoder
}

// Params bundles the acquisition and tracking parameters the receiver
// passes through to its subordinate packages, so callers configure the
// whole pipeline from one value built out of internal/config.Config.
type Params struct {
	Acquisition             acquisition.Params
	Tracking                tracker.Params
	TargetTrackedSatellites int
}

// Receiver is the top-level orchestrator.
type Receiver struct {
	samples   antenna.SampleProvider
	codes     *prn.CodeSet
	params    Params
	publisher SnapshotPublisher
	logger    *log.Logger

	eligibleSatelliteIDs []int
	pipelines            map[int]*satellitePipeline
	statuses             map[int]SatelliteStatus
	world                *worldmodel.Model

	// dropLoggers holds one SuppressingLogger per satellite, so a
	// satellite stuck cycling acquire/drop writes its drop-reason line once
	// until it next reaches LOCKED. The DROPPED status line from logStatus
	// is still written on every drop.
	dropLoggers map[int]*dailylog.SuppressingLogger

	processedSubframes int
}

// New creates a Receiver over the given sample provider. satelliteIDs
// restricts the eligible set; an empty slice means all 32 GPS PRNs.
func New(samples antenna.SampleProvider, satelliteIDs []int, params Params, publisher SnapshotPublisher, logger *log.Logger) *Receiver {
	if len(satelliteIDs) == 0 {
		for id := gpsconst.MinSatelliteID; id <= gpsconst.MaxSatelliteID; id++ {
			satelliteIDs = append(satelliteIDs, id)
		}
	}

	return &Receiver{
		samples:              samples,
		codes:                prn.NewCodeSet(),
		params:                params,
		publisher:             publisher,
		logger:                logger,
		eligibleSatelliteIDs:  satelliteIDs,
		pipelines:             make(map[int]*satellitePipeline),
		statuses:              make(map[int]SatelliteStatus),
		world:                 worldmodel.New(),
		dropLoggers:           make(map[int]*dailylog.SuppressingLogger),
	}
}

// Run drives Step repeatedly until the sample source is exhausted.
func (r *Receiver) Run() error {
	for {
		more, err := r.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Step advances the receiver by one millisecond of input. It returns false
// once the sample source is exhausted.
func (r *Receiver) Step() (bool, error) {
	samples, err := r.samples.GetSamples(gpsconst.SamplesPerMillisecond)
	if err == antenna.ErrExhausted {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if len(r.pipelines) < r.params.TargetTrackedSatellites {
		r.tryAcquire(samples)
	}

	for satelliteID, pipeline := range r.pipelines {
		if err := r.trackSatellite(satelliteID, pipeline, samples); err != nil {
			return false, err
		}
	}

	r.publishSnapshot()
	return true, nil
}

// tryAcquire runs acquisition across every still-eligible satellite and
// promotes any that acquire into the tracked set.
func (r *Receiver) tryAcquire(samples []complex128) {
	var codes []*prn.Code
	for _, id := range r.eligibleSatelliteIDs {
		if _, tracked := r.pipelines[id]; tracked {
			continue
		}
		code, err := r.codes.Code(id)
		if err != nil {
			continue
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return
	}

	results := acquisition.SearchAll(samples, codes, r.params.Acquisition)
	for _, result := range results {
		code, _ := r.codes.Code(result.SatelliteID)
		r.pipelines[result.SatelliteID] = &satellitePipeline{
			tracker:         tracker.New(result.SatelliteID, code, result.DopplerHz, result.CodePhaseSamples, result.CarrierPhaseRadians, r.params.Tracking),
			bitIntegrator:   bitsync.New(),
			subframeDecoder: subframe.New(),
		}
		r.statuses[result.SatelliteID] = Provisional
		r.logStatus(result.SatelliteID, Provisional)
	}
}

// trackSatellite advances one satellite's tracker/bitsync/subframe chain by
// one millisecond and folds any decoded subframe into the world model.
func (r *Receiver) trackSatellite(satelliteID int, pipeline *satellitePipeline, samples []complex128) error {
	symbol := pipeline.tracker.ProcessMillisecond(samples)

	status := Provisional
	if pipeline.tracker.State() == tracker.Locked {
		status = Locked
		// Tracking has recovered, so a future drop is a fresh event worth
		// reporting again rather than a continuation of the last one.
		if dl := r.dropLoggers[satelliteID]; dl != nil {
			dl.Clear()
		}
	}
	if r.statuses[satelliteID] != status {
		r.statuses[satelliteID] = status
		r.logStatus(satelliteID, status)
	}

	event := pipeline.bitIntegrator.ProcessPseudosymbol(symbol)
	if event == nil {
		return nil
	}

	switch e := event.(type) {
	case bitsync.DeterminedBitPhase:
		// Nothing further to do; the integrator now folds bits.
		_ = e
	case bitsync.CannotDetermineBitPhase:
		r.dropSatellite(satelliteID, "cannot determine bit phase")
	case bitsync.EmitNavigationBit:
		sf, err := pipeline.subframeDecoder.ProcessBit(e.Bit)
		if err != nil {
			r.dropSatellite(satelliteID, err.Error())
			return nil
		}
		if sf != nil {
			r.processedSubframes++
			if orbitEvent := r.world.HandleSubframe(satelliteID, sf); orbitEvent != nil {
				r.logger.Printf("satellite %d: orbit determined", satelliteID)
			}
		}
	default:
		panic(UnknownEventError{Event: event})
	}
	return nil
}

// dropSatellite removes a satellite from the tracked set and re-eligibilises
// it for acquisition, fixing the gap in the original implementation where
// this path was an unimplemented no-op.
func (r *Receiver) dropSatellite(satelliteID int, reason string) {
	delete(r.pipelines, satelliteID)
	r.statuses[satelliteID] = Dropped
	r.world.Forget(satelliteID)
	r.logStatus(satelliteID, Dropped)
	if r.logger != nil {
		dl := r.dropLoggers[satelliteID]
		if dl == nil {
			dl = dailylog.NewSuppressingLogger(r.logger)
			r.dropLoggers[satelliteID] = dl
		}
		dl.ReportOnce(fmt.Sprintf("satellite %d: dropped - %s", satelliteID, reason))
	}
	r.statuses[satelliteID] = Eligible
	r.logStatus(satelliteID, Eligible)
}

func (r *Receiver) logStatus(satelliteID int, status SatelliteStatus) {
	if r.logger != nil {
		r.logger.Printf("satellite %d: %s", satelliteID, status)
	}
}

func (r *Receiver) publishSnapshot() {
	if r.publisher == nil {
		return
	}

	orbits := make(map[int]worldmodel.OrbitalParameters)
	for id := range r.pipelines {
		orbits[id] = r.world.Orbital(id)
	}

	snapshot := Snapshot{
		TimestampSeconds:   r.samples.SecondsSinceStart(r.samples.Cursor()),
		EligibleSatellites: append([]int(nil), r.eligibleSatelliteIDs...),
		TrackedCount:       len(r.pipelines),
		ProcessedSubframes: r.processedSubframes,
		Satellites:         copyStatuses(r.statuses),
		Orbits:             orbits,
	}
	r.publisher.Publish(snapshot)
}

func copyStatuses(in map[int]SatelliteStatus) map[int]SatelliteStatus {
	out := make(map[int]SatelliteStatus, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
