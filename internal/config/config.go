// Package config loads the YAML run plan that selects the instrument, the
// waveform file and the burst timing.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rjboer/GoRFburst/internal/discovery"
	"github.com/rjboer/GoRFburst/internal/logging"
	"github.com/rjboer/GoRFburst/internal/schedule"
)

// ResourceAuto asks the runner to discover the instrument over mDNS.
const ResourceAuto = "auto"

// Config is the run plan.
type Config struct {
	Log         LogConfig        `yaml:"log"`
	Instrument  InstrumentConfig `yaml:"instrument"`
	Waveform    WaveformConfig   `yaml:"waveform"`
	Timing      TimingConfig     `yaml:"timing"`
	PAEnable    PAEnableConfig   `yaml:"paEnable"`
	StopTrigger string           `yaml:"stopTrigger,omitempty"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// InstrumentConfig selects the signal generator.
type InstrumentConfig struct {
	Resource         string  `yaml:"resource"`
	Service          string  `yaml:"service,omitempty"`
	Match            string  `yaml:"match,omitempty"`
	DiscoveryTimeout Seconds `yaml:"discoveryTimeout,omitempty"`
}

// WaveformConfig points at an iqfile pair.
type WaveformConfig struct {
	Path string `yaml:"path"` // base path without extension
	Name string `yaml:"name,omitempty"`
}

// TimingConfig mirrors schedule.TimingConfig.
type TimingConfig struct {
	DutyCyclePercent        float64 `yaml:"dutyCyclePercent"`
	PreBurstTime            Seconds `yaml:"preBurstTime"`
	PostBurstTime           Seconds `yaml:"postBurstTime"`
	BurstStartTriggerExport string  `yaml:"burstStartTriggerExport,omitempty"`
}

// PAEnableConfig mirrors schedule.PAEnableConfig.
type PAEnableConfig struct {
	Mode                  string  `yaml:"mode"`
	TriggerExportTerminal string  `yaml:"triggerExportTerminal,omitempty"`
	OutputBehaviour       string  `yaml:"outputBehaviour,omitempty"`
	CommandEnableTime     Seconds `yaml:"commandEnableTime"`
	CommandDisableTime    Seconds `yaml:"commandDisableTime"`
}

// Default returns a plan with every optional value filled in.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Instrument: InstrumentConfig{
			Resource:         ResourceAuto,
			Service:          discovery.ServiceHiSLIP,
			DiscoveryTimeout: Seconds(3),
		},
		Timing:   TimingConfig{DutyCyclePercent: 100},
		PAEnable: PAEnableConfig{Mode: schedule.PAEnableDisabled.String(), OutputBehaviour: schedule.OutputToggle.String()},
	}
}

// Parse decodes a YAML plan over Default and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a YAML plan file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// ApplyEnv overrides plan values from the environment, then revalidates.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("BURST_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("BURST_LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := lookup("BURST_RESOURCE"); ok {
		c.Instrument.Resource = v
	}
	if v, ok := lookup("BURST_DUTY_CYCLE"); ok {
		duty, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("config: BURST_DUTY_CYCLE: %w", err)
		}
		c.Timing.DutyCyclePercent = duty
	}
	return c.Validate()
}

// Validate checks the plan without touching the file system.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("config: log.format: %w", err)
	}
	if strings.TrimSpace(c.Instrument.Resource) == "" {
		return fmt.Errorf("config: instrument.resource must be set (use %q to discover)", ResourceAuto)
	}
	if err := c.Instrument.DiscoveryTimeout.Validate(); err != nil {
		return fmt.Errorf("config: instrument.discoveryTimeout: %w", err)
	}
	if c.Waveform.Path == "" {
		return fmt.Errorf("config: waveform.path must be set")
	}
	if d := c.Timing.DutyCyclePercent; !(d > 0) || d > 100 {
		return fmt.Errorf("config: timing.dutyCyclePercent must be in (0, 100]: %g given", d)
	}
	for _, t := range []struct {
		name  string
		value Seconds
	}{
		{"timing.preBurstTime", c.Timing.PreBurstTime},
		{"timing.postBurstTime", c.Timing.PostBurstTime},
		{"paEnable.commandEnableTime", c.PAEnable.CommandEnableTime},
		{"paEnable.commandDisableTime", c.PAEnable.CommandDisableTime},
	} {
		if err := t.value.Validate(); err != nil {
			return fmt.Errorf("config: %s: %w", t.name, err)
		}
	}
	if _, err := c.SchedulePAEnable(); err != nil {
		return err
	}
	return nil
}

// ScheduleTiming converts the timing section.
func (c Config) ScheduleTiming() schedule.TimingConfig {
	return schedule.TimingConfig{
		DutyCyclePercent:        c.Timing.DutyCyclePercent,
		PreBurstTime:            float64(c.Timing.PreBurstTime),
		PostBurstTime:           float64(c.Timing.PostBurstTime),
		BurstStartTriggerExport: c.Timing.BurstStartTriggerExport,
	}
}

// SchedulePAEnable converts the paEnable section.
func (c Config) SchedulePAEnable() (schedule.PAEnableConfig, error) {
	mode, err := schedule.ParsePAEnableMode(c.PAEnable.Mode)
	if err != nil {
		return schedule.PAEnableConfig{}, fmt.Errorf("config: paEnable.mode: %w", err)
	}
	behaviour, err := schedule.ParseOutputBehaviour(c.PAEnable.OutputBehaviour)
	if err != nil {
		return schedule.PAEnableConfig{}, fmt.Errorf("config: paEnable.outputBehaviour: %w", err)
	}
	return schedule.PAEnableConfig{
		Mode:                  mode,
		TriggerExportTerminal: c.PAEnable.TriggerExportTerminal,
		OutputBehaviour:       behaviour,
		CommandEnableTime:     float64(c.PAEnable.CommandEnableTime),
		CommandDisableTime:    float64(c.PAEnable.CommandDisableTime),
	}, nil
}

// ScheduleOptions returns the schedule options implied by the plan.
func (c Config) ScheduleOptions() []schedule.Option {
	var opts []schedule.Option
	if c.StopTrigger != "" {
		opts = append(opts, schedule.WithStopTrigger(c.StopTrigger))
	}
	return opts
}

// DiscoveryTimeout returns the browse window, at least one second.
func (c Config) DiscoveryTimeout() time.Duration {
	if d := c.Instrument.DiscoveryTimeout.Duration(); d >= time.Second {
		return d
	}
	return time.Second
}

// Logger builds the configured logger writing to out.
func (c Config) Logger(out io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log.level: %w", err)
	}
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("config: log.format: %w", err)
	}
	return logging.New(level, format, out), nil
}
