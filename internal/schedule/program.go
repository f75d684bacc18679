package schedule

import (
	"math"
	"strings"

	"github.com/rjboer/GoRFburst/internal/waveform"
)

// Marker indices used by the burst scripts.
const (
	BurstStartMarker = 0
	PAEnableMarker   = 1
)

// Waits wrapped around the loop in static PA enable mode.
const (
	staticEnableWait  = 10
	staticDisableWait = MinWaitSamples
)

// Kind is the sequencer operation of an Instruction.
type Kind int

const (
	KindWait Kind = iota
	KindGenerate
)

func (k Kind) String() string {
	switch k {
	case KindWait:
		return "wait"
	case KindGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// Marker fires marker Index at Offset samples into its instruction.
type Marker struct {
	Index  int
	Offset int
}

// Instruction is one sequencer step.
type Instruction struct {
	Kind     Kind
	Samples  int            // wait length
	Waveform string         // generate only
	Subset   waveform.Burst // generate only
	Markers  []Marker
}

// Wait builds a wait instruction.
func Wait(samples int, markers ...Marker) Instruction {
	return Instruction{Kind: KindWait, Samples: samples, Markers: markers}
}

// Generate builds a generate instruction over a subset of a waveform.
func Generate(name string, subset waveform.Burst, markers ...Marker) Instruction {
	return Instruction{Kind: KindGenerate, Waveform: name, Subset: subset, Markers: markers}
}

// markerRange is the half-open range of marker offsets an instruction
// accepts. Generate offsets are waveform sample indices and must fall inside
// the played subset.
func (in Instruction) markerRange() (lo, hi int) {
	if in.Kind == KindGenerate {
		return in.Subset.Start, in.Subset.Stop
	}
	return 0, in.Samples
}

// Program is a sequencer script before rendering. Body repeats until
// StopTrigger fires, or forever when StopTrigger is empty.
type Program struct {
	Name        string
	Prologue    []Instruction
	Body        []Instruction
	Epilogue    []Instruction
	StopTrigger string
}

// MarkerCount counts the markers with the given index across the program.
func (p *Program) MarkerCount(index int) int {
	count := 0
	for _, section := range [][]Instruction{p.Prologue, p.Body, p.Epilogue} {
		for _, in := range section {
			for _, m := range in.Markers {
				if m.Index == index {
					count++
				}
			}
		}
	}
	return count
}

// SynthesisRequest collects everything the script synthesizer needs.
type SynthesisRequest struct {
	ScriptName   string
	WaveformName string
	Burst        waveform.Burst
	Timing       Timing
	SampleRate   float64
	TimingConfig TimingConfig
	PAEnable     PAEnableConfig
	StopTrigger  string
}

// Synthesize builds the looped burst program:
//
//	wait idle     [PA enable, dynamic mode]
//	wait pre
//	generate burst marker0(0) [PA disable, dynamic mode with a long command]
//	wait post     [PA disable, dynamic mode otherwise]
//
// Static mode enables the amplifier once before the loop and disables it
// after the loop. Disabled mode emits no PA enable markers.
func Synthesize(req SynthesisRequest) (*Program, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	t := req.Timing
	idle := Wait(t.IdleSamples)
	pre := Wait(t.PreSamples)
	gen := Generate(req.WaveformName, req.Burst, Marker{Index: BurstStartMarker})
	post := Wait(t.PostSamples)

	prog := &Program{Name: req.ScriptName, StopTrigger: req.StopTrigger}
	switch req.PAEnable.Mode {
	case PAEnableStatic:
		prog.Prologue = []Instruction{Wait(staticEnableWait, Marker{Index: PAEnableMarker})}
		prog.Epilogue = []Instruction{Wait(staticDisableWait, Marker{Index: PAEnableMarker})}
	case PAEnableDynamic:
		enableSamples := ToSamples(req.PAEnable.CommandEnableTime, req.SampleRate)
		disableSamples := ToSamples(req.PAEnable.CommandDisableTime, req.SampleRate)

		idle.Markers = append(idle.Markers, Marker{Index: PAEnableMarker, Offset: t.IdleSamples - enableSamples - 1})
		if LongCommand(req.TimingConfig, req.PAEnable) {
			// Excess latency counts from the configured guard time, not the
			// floored post wait.
			excess := disableSamples - ToSamples(req.TimingConfig.PostBurstTime, req.SampleRate)
			offset := req.Burst.Stop - excess - 1
			gen.Markers = append(gen.Markers, Marker{Index: PAEnableMarker, Offset: offset})
		} else {
			post.Markers = append(post.Markers, Marker{Index: PAEnableMarker, Offset: t.PostSamples - disableSamples - 1})
		}
		for _, in := range []Instruction{idle, gen, post} {
			if err := checkMarkers(in); err != nil {
				return nil, err
			}
		}
	}
	prog.Body = []Instruction{idle, pre, gen, post}
	return prog, nil
}

func checkMarkers(in Instruction) error {
	for _, m := range in.Markers {
		if m.Index != PAEnableMarker {
			continue
		}
		lo, hi := in.markerRange()
		if m.Offset < lo || m.Offset >= hi {
			return waveform.Invalid("paEnable", "marker%d offset %d falls outside the %s instruction (%d..%d); the amplifier command time does not fit the configured timing",
				m.Index, m.Offset, in.Kind, lo, hi-1)
		}
	}
	return nil
}

func validateRequest(req SynthesisRequest) error {
	if !(req.TimingConfig.DutyCyclePercent > 0) {
		return waveform.Invalid("dutyCyclePercent", "must be greater than 0, got %g", req.TimingConfig.DutyCyclePercent)
	}
	if !validName(req.ScriptName) {
		return waveform.Invalid("scriptName", "%q is not a valid script name", req.ScriptName)
	}
	if !validName(req.WaveformName) {
		return waveform.Invalid("waveformName", "%q is not a valid waveform name", req.WaveformName)
	}
	if req.StopTrigger != "" && !validName(req.StopTrigger) {
		return waveform.Invalid("stopTrigger", "%q is not a valid trigger name", req.StopTrigger)
	}
	if req.Burst.Start < 0 || req.Burst.Start >= req.Burst.Stop {
		return waveform.Invalid("burst", "invalid subset [%d, %d]", req.Burst.Start, req.Burst.Stop)
	}
	t := req.Timing
	if t.PreSamples < MinWaitSamples || t.PostSamples < MinWaitSamples || t.IdleSamples < MinWaitSamples {
		return waveform.Invalid("timing", "waits must be at least %d samples, got idle=%d pre=%d post=%d",
			MinWaitSamples, t.IdleSamples, t.PreSamples, t.PostSamples)
	}
	if req.PAEnable.Mode == PAEnableDynamic {
		if !(req.SampleRate > 0) || math.IsInf(req.SampleRate, 0) {
			return waveform.Invalid("sampleRate", "must be positive and finite, got %g", req.SampleRate)
		}
		if err := checkTime("postBurstTime", req.TimingConfig.PostBurstTime); err != nil {
			return err
		}
		if err := checkTime("commandEnableTime", req.PAEnable.CommandEnableTime); err != nil {
			return err
		}
		if err := checkTime("commandDisableTime", req.PAEnable.CommandDisableTime); err != nil {
			return err
		}
	}
	return nil
}

func checkTime(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return waveform.Invalid(field, "must be a finite non-negative time, got %g", v)
	}
	return nil
}

func validName(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n(),")
}
