// Package config provides support for reading the receiver's JSON
// configuration file, in the same style used across the rest of this
// family of tools: a plain struct with json tags, loaded once at startup.
//
// An example config file:
//
//	{
//		"input_file": "samples.iq",
//		"log_directory": ".",
//		"satellite_ids": [3, 14, 22],
//		"acquisition_integration_period_ms": 20,
//		"target_tracked_satellites": 4,
//		"doppler_search_range_hz": 7000,
//		"doppler_search_step_hz": 200,
//		"loop_bandwidth_locked_hz": 3,
//		"loop_bandwidth_unlocked_hz": 6,
//		"lock_history_ms": 250,
//		"phase_error_variance_lock_threshold": 900,
//		"i_channel_variance_lock_threshold": 2,
//		"constellation_angle_lock_threshold_deg": 6,
//		"bit_phase_confidence_threshold": 15
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
)

// Config holds every tunable named in the receiver's documented
// configuration surface, plus the ambient fields (input source, logging,
// satellite subset) needed to run it as a standalone program.
type Config struct {
	// InputFile is the path to the file of interleaved float32 I/Q samples.
	InputFile string `json:"input_file"`

	// LogDirectory is where the daily event log is written.
	LogDirectory string `json:"log_directory"`

	// SatelliteIDs restricts acquisition to this subset of PRN IDs. An
	// empty list means "search all 32".
	SatelliteIDs []int `json:"satellite_ids"`

	// AcquisitionIntegrationPeriodMs is the non-coherent accumulation
	// window used by the acquisition engine.
	AcquisitionIntegrationPeriodMs int `json:"acquisition_integration_period_ms"`

	// TargetTrackedSatellites is how many satellites the receiver tries to
	// keep in the tracked set at once.
	TargetTrackedSatellites int `json:"target_tracked_satellites"`

	// DopplerSearchRangeHz and DopplerSearchStepHz bound the acquisition
	// engine's Doppler grid.
	DopplerSearchRangeHz float64 `json:"doppler_search_range_hz"`
	DopplerSearchStepHz  float64 `json:"doppler_search_step_hz"`

	// LoopBandwidthLockedHz and LoopBandwidthUnlockedHz are the tracker's
	// two canonical loop-filter noise bandwidths.
	LoopBandwidthLockedHz   float64 `json:"loop_bandwidth_locked_hz"`
	LoopBandwidthUnlockedHz float64 `json:"loop_bandwidth_unlocked_hz"`

	// LockHistoryMs is the length of tracking history the lock detector
	// requires before it will declare lock.
	LockHistoryMs int `json:"lock_history_ms"`

	// PhaseErrorVarianceLockThreshold, IChannelVarianceLockThreshold and
	// ConstellationAngleLockThresholdDeg are the three lock-test
	// thresholds.
	PhaseErrorVarianceLockThreshold    float64 `json:"phase_error_variance_lock_threshold"`
	IChannelVarianceLockThreshold      float64 `json:"i_channel_variance_lock_threshold"`
	ConstellationAngleLockThresholdDeg float64 `json:"constellation_angle_lock_threshold_deg"`

	// BitPhaseConfidenceThreshold is the minimum confidence score for
	// accepting a bit-phase offset. It is read and stored here but not
	// passed to the bit integrator, which always uses its own fixed
	// threshold of 15.
	BitPhaseConfidenceThreshold int `json:"bit_phase_confidence_threshold"`

	// systemLog is the logger callers pass to FromFile/FromReader. It's not
	// supplied in the JSON, and nothing in this package writes to it.
	systemLog *log.Logger
}

// Default returns a Config populated with the receiver's canonical
// defaults, the same values shown in the example config above.
func Default() Config {
	return Config{
		LogDirectory:                       ".",
		AcquisitionIntegrationPeriodMs:      20,
		TargetTrackedSatellites:             4,
		DopplerSearchRangeHz:                7000,
		DopplerSearchStepHz:                 200,
		LoopBandwidthLockedHz:               3,
		LoopBandwidthUnlockedHz:             6,
		LockHistoryMs:                       250,
		PhaseErrorVarianceLockThreshold:     900,
		IChannelVarianceLockThreshold:       2,
		ConstellationAngleLockThresholdDeg:  6,
		BitPhaseConfidenceThreshold:         15,
	}
}

// FromFile reads and parses the JSON config file at configFileName,
// starting from Default() so that any field the file omits keeps its
// canonical value.
func FromFile(configFileName string, systemLog *log.Logger) (*Config, error) {
	file, err := os.Open(configFileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return FromReader(file, systemLog)
}

// FromReader parses a JSON config from an arbitrary reader, useful for
// tests that don't want to touch the filesystem.
func FromReader(source io.Reader, systemLog *log.Logger) (*Config, error) {
	jsonBytes, err := ioutil.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read JSON config - %w", err)
	}

	config := Default()
	if err := json.Unmarshal(jsonBytes, &config); err != nil {
		return nil, fmt.Errorf("config: cannot parse JSON config - %w", err)
	}
	config.systemLog = systemLog

	return &config, nil
}
