package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders a single instruction as one script line.
func (in Instruction) String() string {
	var b strings.Builder
	switch in.Kind {
	case KindGenerate:
		fmt.Fprintf(&b, "generate %s subset(%d,%d)", in.Waveform, in.Subset.Start, in.Subset.Stop)
	default:
		fmt.Fprintf(&b, "wait %d", in.Samples)
	}
	for _, m := range in.Markers {
		fmt.Fprintf(&b, " marker%d(%d)", m.Index, m.Offset)
	}
	return b.String()
}

// Render serializes the program into sequencer script text.
func (p *Program) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "script %s\n", p.Name)
	for _, in := range p.Prologue {
		fmt.Fprintf(&b, "  %s\n", in)
	}
	if p.StopTrigger == "" {
		b.WriteString("  repeat forever\n")
	} else {
		fmt.Fprintf(&b, "  repeat until %s\n", p.StopTrigger)
	}
	for _, in := range p.Body {
		fmt.Fprintf(&b, "    %s\n", in)
	}
	b.WriteString("  end repeat\n")
	for _, in := range p.Epilogue {
		fmt.Fprintf(&b, "  %s\n", in)
	}
	b.WriteString("end script\n")
	return b.String()
}

// ScriptName derives the script name from the waveform name and duty cycle,
// e.g. "lte50" or "lte12_5".
func ScriptName(waveformName string, dutyCyclePercent float64) string {
	duty := strconv.FormatFloat(dutyCyclePercent, 'f', -1, 64)
	return waveformName + strings.ReplaceAll(duty, ".", "_")
}
