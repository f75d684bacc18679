// Package waveform holds loaded baseband IQ waveforms together with the
// metadata the burst scheduler derives from them.
package waveform

import (
	"github.com/rjboer/GoRFburst/internal/dsp"
)

// DefaultBandwidthFraction is the share of the sample rate assumed as signal
// bandwidth when the source does not declare one.
const DefaultBandwidthFraction = 0.8

// Burst delimits one RF transmission inside a waveform by sample index.
type Burst struct {
	Start int
	Stop  int
}

// Len returns the number of samples between Start and Stop.
func (b Burst) Len() int { return b.Stop - b.Start }

// Waveform is a baseband IQ waveform and its derived metadata.
//
// A source may describe several bursts; all of them are kept in Bursts, but
// scheduling always uses a single representative burst (the first one). Files
// with irregular multi-burst layouts are therefore played back as repetitions
// of their first burst.
type Waveform struct {
	Name       string
	Data       []complex128
	SampleRate float64 // Hz
	Bandwidth  float64 // Hz
	Bursts     []Burst

	// PAPR is computed over the representative burst after normalization, in dB.
	PAPR float64

	// Version and StoredPAPR echo what the file reader found; StoredPAPR is
	// only used to cross-check PAPR.
	Version    string
	StoredPAPR float64
}

// SampleCount returns the number of IQ samples.
func (w Waveform) SampleCount() int { return len(w.Data) }

// Representative returns the burst used for scheduling. A waveform without
// burst markers is treated as a single burst spanning all samples.
func (w Waveform) Representative() Burst {
	if len(w.Bursts) == 0 {
		return FullBurst(len(w.Data))
	}
	return w.Bursts[0]
}

// BurstLength returns the representative burst duration in seconds.
func (w Waveform) BurstLength() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(w.Representative().Len()) / w.SampleRate
}

// FullBurst returns the default burst for a waveform of n samples.
func FullBurst(n int) Burst {
	if n <= 0 {
		return Burst{}
	}
	return Burst{Start: 0, Stop: n - 1}
}

// Clone returns a deep copy so that callers may modify the result freely.
func (w Waveform) Clone() Waveform {
	out := w
	out.Data = append([]complex128(nil), w.Data...)
	out.Bursts = append([]Burst(nil), w.Bursts...)
	return out
}

// Derive builds a new normalized waveform that replaces the samples of w,
// as produced by predistortion or crest factor reduction. The burst layout,
// sample rate and bandwidth carry over; w itself is not modified.
func (w Waveform) Derive(name string, data []complex128) (Waveform, error) {
	if len(data) != len(w.Data) {
		return Waveform{}, Invalid("data", "derived waveform has %d samples, original has %d", len(data), len(w.Data))
	}
	derived := w.Clone()
	derived.Name = name
	derived.Data = append([]complex128(nil), data...)
	derived.StoredPAPR = 0
	return Normalize(derived)
}

// OccupiedBandwidth measures the bandwidth containing fraction of the
// waveform power.
func (w Waveform) OccupiedBandwidth(a *dsp.Analyzer, fraction float64) (float64, error) {
	if a == nil {
		return dsp.OccupiedBandwidth(w.Data, w.SampleRate, fraction)
	}
	return a.OccupiedBandwidth(w.Data, w.SampleRate, fraction)
}
