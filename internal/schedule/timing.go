package schedule

import (
	"math"

	"github.com/rjboer/GoRFburst/internal/waveform"
)

// MinWaitSamples is the shortest wait the sequencer can execute.
const MinWaitSamples = 8

// Timing is the quantized repetition schedule of one burst.
type Timing struct {
	PreSamples  int
	PostSamples int
	IdleSamples int

	IdleTime float64 // seconds
	Period   float64 // seconds
}

// ToSamples converts seconds to the nearest whole number of samples.
func ToSamples(seconds, sampleRate float64) int {
	return int(math.Round(seconds * sampleRate))
}

// Plan derives idle time and period for a burst of burstLength seconds and
// quantizes every wait to samples, raising waits shorter than MinWaitSamples
// to exactly MinWaitSamples.
func Plan(burstLength, sampleRate float64, cfg TimingConfig) (Timing, error) {
	if err := validateTiming(burstLength, sampleRate, cfg); err != nil {
		return Timing{}, err
	}

	dutyCycle := cfg.DutyCyclePercent / 100
	totalBurstTime := cfg.PreBurstTime + burstLength + cfg.PostBurstTime
	idleTime := totalBurstTime/dutyCycle - totalBurstTime

	return Timing{
		PreSamples:  floorWait(ToSamples(cfg.PreBurstTime, sampleRate)),
		PostSamples: floorWait(ToSamples(cfg.PostBurstTime, sampleRate)),
		IdleSamples: floorWait(ToSamples(idleTime, sampleRate)),
		IdleTime:    idleTime,
		Period:      totalBurstTime + idleTime,
	}, nil
}

func floorWait(samples int) int {
	if samples < MinWaitSamples {
		return MinWaitSamples
	}
	return samples
}

func validateTiming(burstLength, sampleRate float64, cfg TimingConfig) error {
	// The duty cycle is checked first: everything after divides by it.
	if !(cfg.DutyCyclePercent > 0) {
		return waveform.Invalid("dutyCyclePercent", "must be greater than 0, got %g", cfg.DutyCyclePercent)
	}
	if cfg.DutyCyclePercent > 100 {
		return waveform.Invalid("dutyCyclePercent", "must not exceed 100, got %g", cfg.DutyCyclePercent)
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return waveform.Invalid("sampleRate", "must be positive and finite, got %g", sampleRate)
	}
	if err := checkTime("burstLength", burstLength); err != nil {
		return err
	}
	if err := checkTime("preBurstTime", cfg.PreBurstTime); err != nil {
		return err
	}
	return checkTime("postBurstTime", cfg.PostBurstTime)
}
