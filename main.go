// gpsreceiver reads a file of interleaved float32 I/Q samples and runs the
// full acquisition/tracking/subframe pipeline over it with the default
// configuration. Satellite status changes and orbit determinations are
// logged to standard error; once the file is exhausted it prints "done".
// It prints no per-satellite summary.
//
// The program takes one argument: the path to the sample file.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/goblimey/gpsreceiver/antenna"
	"github.com/goblimey/gpsreceiver/acquisition"
	"github.com/goblimey/gpsreceiver/internal/config"
	"github.com/goblimey/gpsreceiver/receiver"
	"github.com/goblimey/gpsreceiver/tracker"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: gpsreceiver <sample-file>")
	}

	file, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("cannot open sample file: %v", err)
	}
	defer file.Close()

	cfg := config.Default()
	provider := antenna.NewFileProvider(file)

	params := receiver.Params{
		Acquisition: acquisition.Params{
			DopplerSearchRangeHz: cfg.DopplerSearchRangeHz,
			DopplerSearchStepHz:  cfg.DopplerSearchStepHz,
			IntegrationMs:        cfg.AcquisitionIntegrationPeriodMs,
			DetectionThreshold:   acquisition.DefaultParams.DetectionThreshold,
		},
		Tracking: tracker.Params{
			LoopBandwidthUnlockedHz:  cfg.LoopBandwidthUnlockedHz,
			LoopBandwidthLockedHz:    cfg.LoopBandwidthLockedHz,
			LockHistoryMs:            cfg.LockHistoryMs,
			PhaseErrorVarianceMax:    cfg.PhaseErrorVarianceLockThreshold,
			IChannelVarianceMax:      cfg.IChannelVarianceLockThreshold,
			ConstellationAngleMaxDeg: cfg.ConstellationAngleLockThresholdDeg,
		},
		TargetTrackedSatellites: cfg.TargetTrackedSatellites,
	}

	r := receiver.New(provider, cfg.SatelliteIDs, params, nil, log.New(os.Stderr, "gpsreceiver ", log.LstdFlags))
	if err := r.Run(); err != nil {
		log.Fatalf("receiver stopped: %v", err)
	}

	fmt.Println("done")
}
