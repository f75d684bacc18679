package waveform

import (
	"fmt"
	"math"
)

// Normalize returns a copy of w scaled to unit peak magnitude with PAPR
// computed over the representative burst. Missing burst markers default to
// the whole waveform. The input waveform is not modified.
func Normalize(w Waveform) (Waveform, error) {
	n := len(w.Data)
	if n == 0 {
		return Waveform{}, Invalid("data", "waveform has no samples")
	}
	if !(w.SampleRate > 0) || math.IsInf(w.SampleRate, 0) {
		return Waveform{}, Invalid("sampleRate", "must be positive and finite, got %g", w.SampleRate)
	}

	bursts := w.Bursts
	if len(bursts) == 0 {
		bursts = []Burst{FullBurst(n)}
	}
	for i, b := range bursts {
		if err := checkBurst(b, n); err != nil {
			err.Field = burstField(i)
			return Waveform{}, err
		}
	}

	peak := math.Sqrt(peakPower(w.Data))
	if peak == 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return Waveform{}, Invalid("data", "peak magnitude is %g, cannot normalize", peak)
	}

	out := w.Clone()
	out.Bursts = append([]Burst(nil), bursts...)
	scale := complex(peak, 0)
	for i := range out.Data {
		out.Data[i] /= scale
	}

	papr, err := PAPR(out.Data, out.Bursts[0])
	if err != nil {
		return Waveform{}, err
	}
	out.PAPR = papr
	return out, nil
}

// PAPR returns the peak-to-average power ratio in dB of the samples inside
// [b.Start, b.Stop), measured against the peak of the whole waveform.
func PAPR(data []complex128, b Burst) (float64, error) {
	if err := checkBurst(b, len(data)); err != nil {
		return 0, err
	}
	sum := 0.0
	for _, v := range data[b.Start:b.Stop] {
		sum += power(v)
	}
	avg := sum / float64(b.Len())
	if avg == 0 {
		return 0, Invalid("burst", "window [%d, %d) carries no power", b.Start, b.Stop)
	}
	papr := 10 * math.Log10(peakPower(data)/avg)
	// A constant envelope can land a few ulps below zero after normalization.
	if papr < 0 {
		papr = 0
	}
	return papr, nil
}

func checkBurst(b Burst, n int) *ValidationError {
	switch {
	case b.Start == b.Stop:
		return Invalid("burst", "zero-length window at sample %d", b.Start)
	case b.Start < 0 || b.Stop > n-1:
		return Invalid("burst", "window [%d, %d] outside [0, %d]", b.Start, b.Stop, n-1)
	case b.Start > b.Stop:
		return Invalid("burst", "start %d after stop %d", b.Start, b.Stop)
	}
	return nil
}

func burstField(i int) string {
	if i == 0 {
		return "burst"
	}
	return fmt.Sprintf("bursts[%d]", i)
}

func power(v complex128) float64 { return real(v)*real(v) + imag(v)*imag(v) }

func peakPower(data []complex128) float64 {
	peak := 0.0
	for _, v := range data {
		if p := power(v); p > peak || math.IsNaN(p) {
			peak = p
		}
	}
	return peak
}
