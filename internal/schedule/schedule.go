// Package schedule turns a burst waveform and its repetition settings into a
// sample-accurate sequencer script that plays the burst at a duty cycle and
// drives the power amplifier enable marker around it.
//
// Everything here is pure: the same inputs always produce byte-identical
// scripts.
package schedule

import (
	"github.com/rjboer/GoRFburst/internal/waveform"
)

// Result is a rendered schedule plus the timing derived for it.
type Result struct {
	ScriptName string
	Script     string
	Program    *Program
	Timing     Timing

	Period   float64 // seconds
	IdleTime float64 // seconds

	LongCommand bool
}

type options struct {
	scriptName  string
	stopTrigger string
}

// Option customizes Schedule.
type Option func(*options)

// WithScriptName overrides the derived script name.
func WithScriptName(name string) Option {
	return func(o *options) { o.scriptName = name }
}

// WithStopTrigger ends the loop when the named script trigger fires instead
// of repeating forever.
func WithStopTrigger(trigger string) Option {
	return func(o *options) { o.stopTrigger = trigger }
}

// Schedule plans and synthesizes the burst script for w. No output is
// produced when any input is invalid.
func Schedule(w waveform.Waveform, tc TimingConfig, pa PAEnableConfig, opts ...Option) (Result, error) {
	timing, err := Plan(w.BurstLength(), w.SampleRate, tc)
	if err != nil {
		return Result{}, err
	}

	o := options{scriptName: ScriptName(w.Name, tc.DutyCyclePercent)}
	for _, opt := range opts {
		opt(&o)
	}

	prog, err := Synthesize(SynthesisRequest{
		ScriptName:   o.scriptName,
		WaveformName: w.Name,
		Burst:        w.Representative(),
		Timing:       timing,
		SampleRate:   w.SampleRate,
		TimingConfig: tc,
		PAEnable:     pa,
		StopTrigger:  o.stopTrigger,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		ScriptName:  prog.Name,
		Script:      prog.Render(),
		Program:     prog,
		Timing:      timing,
		Period:      timing.Period,
		IdleTime:    timing.IdleTime,
		LongCommand: pa.Mode == PAEnableDynamic && LongCommand(tc, pa),
	}, nil
}
