package schedule

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rjboer/GoRFburst/internal/waveform"
)

func TestPlanFullDutyCycle(t *testing.T) {
	timing, err := Plan(1e-3, 1e6, TimingConfig{DutyCyclePercent: 100})
	require.NoError(t, err)
	assert.Equal(t, 0.0, timing.IdleTime)
	assert.InDelta(t, 1e-3, timing.Period, 1e-15)
	assert.Equal(t, MinWaitSamples, timing.IdleSamples)
}

func TestPlanHalfDutyCycle(t *testing.T) {
	cfg := TimingConfig{DutyCyclePercent: 50, PreBurstTime: 10e-6, PostBurstTime: 20e-6}
	timing, err := Plan(970e-6, 1e6, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 1e-3, timing.IdleTime, 1e-12)
	assert.InDelta(t, 2e-3, timing.Period, 1e-12)
	assert.Equal(t, 10, timing.PreSamples)
	assert.Equal(t, 20, timing.PostSamples)
	assert.Equal(t, 1000, timing.IdleSamples)
}

func TestPlanMinimumWaitFloor(t *testing.T) {
	// 5 us at 1 MS/s rounds to 5 samples, below the sequencer minimum.
	timing, err := Plan(1e-3, 1e6, TimingConfig{DutyCyclePercent: 100, PreBurstTime: 5e-6, PostBurstTime: 9e-6})
	require.NoError(t, err)
	assert.Equal(t, 8, timing.PreSamples)
	assert.Equal(t, 9, timing.PostSamples)
	assert.Equal(t, 8, timing.IdleSamples)
}

func TestPlanRejectsNonPositiveDutyCycle(t *testing.T) {
	for _, duty := range []float64{0, -10, math.NaN()} {
		timing, err := Plan(1e-3, 1e6, TimingConfig{DutyCyclePercent: duty})
		require.Error(t, err, "duty %g", duty)
		assert.True(t, waveform.IsValidation(err))
		assert.Zero(t, timing)
	}
}

func TestPlanValidation(t *testing.T) {
	cases := map[string]struct {
		burst, rate float64
		cfg         TimingConfig
	}{
		"duty above 100":     {1e-3, 1e6, TimingConfig{DutyCyclePercent: 101}},
		"zero sample rate":   {1e-3, 0, TimingConfig{DutyCyclePercent: 50}},
		"negative pre":       {1e-3, 1e6, TimingConfig{DutyCyclePercent: 50, PreBurstTime: -1e-6}},
		"infinite post":      {1e-3, 1e6, TimingConfig{DutyCyclePercent: 50, PostBurstTime: math.Inf(1)}},
		"negative burst len": {-1e-3, 1e6, TimingConfig{DutyCyclePercent: 50}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Plan(tc.burst, tc.rate, tc.cfg)
			assert.True(t, waveform.IsValidation(err), "got %v", err)
		})
	}
}

func TestToSamplesHasNoFloor(t *testing.T) {
	assert.Equal(t, 3, ToSamples(3e-6, 1e6))
	assert.Equal(t, 0, ToSamples(0, 1e6))
	assert.Equal(t, 2, ToSamples(1.5e-6, 1e6))
}
