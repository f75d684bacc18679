package waveform

// LegacyVersion is the waveform file version that stores PAPR under the
// peak power adjustment field.
const LegacyVersion = "1.0.0"

// Source is what a waveform file reader hands over: raw samples plus the
// metadata the file declares. Absent values are left at their zero value.
type Source struct {
	Name       string
	Version    string
	Data       []complex128
	SampleRate float64
	Bandwidth  float64

	PAPR                float64
	PeakPowerAdjustment float64

	BurstStarts []int
	BurstStops  []int
}

// StoredPAPR returns the PAPR the file declares, read from the field that
// matches its version.
func (s Source) StoredPAPR() float64 {
	if s.Version == LegacyVersion {
		return s.PeakPowerAdjustment
	}
	return s.PAPR
}

// FromSource builds and normalizes a Waveform. Bursts default to the whole
// waveform unless both marker arrays are present, and a missing bandwidth
// defaults to DefaultBandwidthFraction of the sample rate.
func FromSource(s Source) (Waveform, error) {
	w := Waveform{
		Name:       s.Name,
		Data:       s.Data,
		SampleRate: s.SampleRate,
		Bandwidth:  s.Bandwidth,
		Version:    s.Version,
		StoredPAPR: s.StoredPAPR(),
	}
	if w.Bandwidth == 0 {
		w.Bandwidth = DefaultBandwidthFraction * s.SampleRate
	}
	if len(s.BurstStarts) > 0 && len(s.BurstStops) > 0 {
		if len(s.BurstStarts) != len(s.BurstStops) {
			return Waveform{}, Invalid("bursts", "%d start locations but %d stop locations", len(s.BurstStarts), len(s.BurstStops))
		}
		w.Bursts = make([]Burst, len(s.BurstStarts))
		for i := range s.BurstStarts {
			w.Bursts[i] = Burst{Start: s.BurstStarts[i], Stop: s.BurstStops[i]}
		}
	}
	return Normalize(w)
}
