// gpsreceiver runs the acquisition/tracking/subframe pipeline over a file
// of recorded I/Q samples and reports, as each satellite's orbit becomes
// fully determined, a line to the daily event log.
//
// When the application starts up it looks for a JSON config file, named by
// -c or --config, that defines the acquisition and tracking parameters. For
// example:
//
//	{
//	    "input_file": "samples.iq",
//	    "log_directory": "receiverlog",
//	    "satellite_ids": [3, 14, 22]
//	}
//
// If no config file is given, the receiver runs with its documented default
// parameters against the file named by -i/--input.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/goblimey/gpsreceiver/acquisition"
	"github.com/goblimey/gpsreceiver/antenna"
	"github.com/goblimey/gpsreceiver/internal/config"
	"github.com/goblimey/gpsreceiver/internal/dailylog"
	"github.com/goblimey/gpsreceiver/receiver"
	"github.com/goblimey/gpsreceiver/tracker"
)

func main() {
	var configFileName string
	flag.StringVar(&configFileName, "c", "", "JSON config file")
	flag.StringVar(&configFileName, "config", "", "JSON config file")

	var inputFileName string
	flag.StringVar(&inputFileName, "i", "", "sample file (overrides config)")
	flag.StringVar(&inputFileName, "input", "", "sample file (overrides config)")

	flag.Parse()

	cfg := config.Default()
	if len(configFileName) > 0 {
		loaded, err := config.FromFile(configFileName, nil)
		if err != nil {
			log.Fatalf("cannot read config %s: %v", configFileName, err)
		}
		cfg = *loaded
	}
	if len(inputFileName) > 0 {
		cfg.InputFile = inputFileName
	}
	if len(cfg.InputFile) == 0 {
		log.Fatal("no input file: set input_file in the config or pass -i")
	}

	eventLog := dailylog.New(cfg.LogDirectory)

	file, err := os.Open(cfg.InputFile)
	if err != nil {
		eventLog.Fatalf("cannot open sample file %s: %v", cfg.InputFile, err)
	}
	defer file.Close()

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

	r := receiver.New(provider, cfg.SatelliteIDs, params, nil, eventLog)
	if err := r.Run(); err != nil {
		eventLog.Fatalf("receiver stopped: %v", err)
	}
}
