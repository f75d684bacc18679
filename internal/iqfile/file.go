// Package iqfile reads and writes waveform files: raw interleaved IQ samples
// next to a YAML metadata sidecar describing sample rate, bandwidth, PAPR and
// burst locations.
package iqfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rjboer/GoRFburst/internal/waveform"
)

// File extensions used by Load and Write.
const (
	DataExt = ".iq"
	MetaExt = ".yaml"
)

// CurrentVersion is written by Write when the metadata carries no version.
const CurrentVersion = "2.0.0"

// Metadata is the sidecar document.
type Metadata struct {
	Version         string     `yaml:"version"`
	Name            string     `yaml:"name,omitempty"`
	Format          DataFormat `yaml:"format"`
	SampleRate      float64    `yaml:"sampleRate"`
	SignalBandwidth float64    `yaml:"signalBandwidth,omitempty"`

	// Files of version 1.0.0 store the PAPR as a peak power adjustment.
	PAPR                float64 `yaml:"papr,omitempty"`
	PeakPowerAdjustment float64 `yaml:"peakPowerAdjustment,omitempty"`

	BurstStartLocations []int `yaml:"burstStartLocations,omitempty,flow"`
	BurstStopLocations  []int `yaml:"burstStopLocations,omitempty,flow"`
}

// ReadMetadata parses a sidecar file.
func ReadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("iqfile: read metadata: %w", err)
	}
	var meta Metadata
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&meta); err != nil {
		return Metadata{}, fmt.Errorf("iqfile: parse metadata %s: %w", path, err)
	}
	format, err := ParseDataFormat(string(meta.Format))
	if err != nil {
		return Metadata{}, err
	}
	meta.Format = format
	if meta.SampleRate <= 0 {
		return Metadata{}, fmt.Errorf("iqfile: metadata %s: sample rate must be positive, got %g", path, meta.SampleRate)
	}
	return meta, nil
}

// Read loads a data file and its metadata sidecar into a waveform.Source.
// A missing name falls back to the data file's base name.
func Read(dataPath, metaPath string) (waveform.Source, error) {
	meta, err := ReadMetadata(metaPath)
	if err != nil {
		return waveform.Source{}, err
	}
	f, err := os.Open(dataPath)
	if err != nil {
		return waveform.Source{}, fmt.Errorf("iqfile: open samples: %w", err)
	}
	defer f.Close()

	data, err := Decode(f, meta.Format)
	if err != nil {
		return waveform.Source{}, fmt.Errorf("%s: %w", dataPath, err)
	}

	name := meta.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
	}
	return waveform.Source{
		Name:                name,
		Version:             meta.Version,
		Data:                data,
		SampleRate:          meta.SampleRate,
		Bandwidth:           meta.SignalBandwidth,
		PAPR:                meta.PAPR,
		PeakPowerAdjustment: meta.PeakPowerAdjustment,
		BurstStarts:         meta.BurstStartLocations,
		BurstStops:          meta.BurstStopLocations,
	}, nil
}

// Load reads the pair base+DataExt and base+MetaExt.
func Load(base string) (waveform.Source, error) {
	return Read(base+DataExt, base+MetaExt)
}

// Write stores data and meta as base+DataExt and base+MetaExt.
func Write(base string, meta Metadata, data []complex128) error {
	if meta.Version == "" {
		meta.Version = CurrentVersion
	}
	format, err := ParseDataFormat(string(meta.Format))
	if err != nil {
		return err
	}
	meta.Format = format

	var samples bytes.Buffer
	if err := Encode(&samples, data, format); err != nil {
		return err
	}
	if err := os.WriteFile(base+DataExt, samples.Bytes(), 0o644); err != nil {
		return fmt.Errorf("iqfile: write samples: %w", err)
	}

	doc, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("iqfile: encode metadata: %w", err)
	}
	if err := os.WriteFile(base+MetaExt, doc, 0o644); err != nil {
		return fmt.Errorf("iqfile: write metadata: %w", err)
	}
	return nil
}
