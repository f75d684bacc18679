package schedule

import (
	"fmt"
	"strings"
)

// TimingConfig describes how a burst is repeated. Times are in seconds.
type TimingConfig struct {
	DutyCyclePercent float64
	PreBurstTime     float64
	PostBurstTime    float64

	// BurstStartTriggerExport is the terminal marker0 is exported on.
	BurstStartTriggerExport string
}

// PAEnableMode selects how the power amplifier enable line is driven.
type PAEnableMode int

const (
	PAEnableDisabled PAEnableMode = iota
	PAEnableStatic
	PAEnableDynamic
)

func (m PAEnableMode) String() string {
	switch m {
	case PAEnableDisabled:
		return "disabled"
	case PAEnableStatic:
		return "static"
	case PAEnableDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// ParsePAEnableMode converts a string to a PAEnableMode. An empty string
// selects PAEnableDisabled.
func ParsePAEnableMode(s string) (PAEnableMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "":
		return PAEnableDisabled, nil
	case "static":
		return PAEnableStatic, nil
	case "dynamic":
		return PAEnableDynamic, nil
	default:
		return PAEnableDisabled, fmt.Errorf("unsupported PA enable mode %q", s)
	}
}

// OutputBehaviour is how the exported PA enable marker drives its terminal.
type OutputBehaviour int

const (
	OutputToggle OutputBehaviour = iota
	OutputPulse
)

func (b OutputBehaviour) String() string {
	switch b {
	case OutputToggle:
		return "toggle"
	case OutputPulse:
		return "pulse"
	default:
		return "unknown"
	}
}

// ParseOutputBehaviour converts a string to an OutputBehaviour. An empty
// string selects OutputToggle.
func ParseOutputBehaviour(s string) (OutputBehaviour, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toggle", "":
		return OutputToggle, nil
	case "pulse":
		return OutputPulse, nil
	default:
		return OutputToggle, fmt.Errorf("unsupported output behaviour %q", s)
	}
}

// PAEnableConfig configures the PA enable marker. Command times are the
// latencies, in seconds, the amplifier needs to settle after a trigger.
type PAEnableConfig struct {
	Mode                  PAEnableMode
	TriggerExportTerminal string
	OutputBehaviour       OutputBehaviour
	CommandEnableTime     float64
	CommandDisableTime    float64
}

// LongCommand reports whether the amplifier takes longer to switch off than
// the post-burst guard time, in which case the disable trigger has to fire
// while the burst is still playing.
func LongCommand(tc TimingConfig, pa PAEnableConfig) bool {
	return pa.CommandDisableTime > tc.PostBurstTime
}
