package dsp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrEmptySignal is returned when a spectral estimate is requested for no samples.
var ErrEmptySignal = errors.New("dsp: empty signal")

// FFTShift returns the FFT output shifted so that DC is centered.
// The input slice is left untouched.
func FFTShift[T any](data []T) []T {
	n := len(data)
	shifted := make([]T, 0, n)
	if n == 0 {
		return shifted
	}
	half := n / 2
	shifted = append(shifted, data[half:]...)
	return append(shifted, data[:half]...)
}

// PowerSpectrum returns the Hamming-windowed power spectrum |X[k]|^2 of the
// samples, normalized by the squared window sum and shifted so that DC is at
// index len/2.
func PowerSpectrum(samples []complex128) []float64 {
	if len(samples) == 0 {
		return []float64{}
	}
	win := Hamming(len(samples))
	return powerSpectrum(fourier.NewCmplxFFT(len(samples)), samples, win, windowSum(win))
}

func powerSpectrum(fft *fourier.CmplxFFT, samples []complex128, win []float64, sumWin float64) []float64 {
	coeffs := fft.Coefficients(nil, ApplyWindow(samples, win))
	norm := sumWin * sumWin
	power := make([]float64, len(coeffs))
	for i, v := range coeffs {
		power[i] = (real(v)*real(v) + imag(v)*imag(v)) / norm
	}
	return FFTShift(power)
}

func windowSum(win []float64) float64 {
	sum := 0.0
	for _, v := range win {
		sum += v
	}
	return sum
}

// BinFrequency returns the baseband frequency in Hz of index i in a shifted
// spectrum of n bins.
func BinFrequency(i, n int, sampleRate float64) float64 {
	return float64(i-n/2) * sampleRate / float64(n)
}

// OccupiedBandwidth returns the width in Hz of the band that contains the
// given fraction of the total power, trimming (1-fraction)/2 from each edge.
func OccupiedBandwidth(samples []complex128, sampleRate, fraction float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptySignal
	}
	if err := checkOBWArgs(sampleRate, fraction); err != nil {
		return 0, err
	}
	return occupiedBandwidth(PowerSpectrum(samples), sampleRate, fraction), nil
}

func checkOBWArgs(sampleRate, fraction float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("dsp: sample rate must be positive, got %g", sampleRate)
	}
	if fraction <= 0 || fraction > 1 {
		return fmt.Errorf("dsp: power fraction must be in (0, 1], got %g", fraction)
	}
	return nil
}

func occupiedBandwidth(power []float64, sampleRate, fraction float64) float64 {
	total := 0.0
	for _, p := range power {
		total += p
	}
	if total == 0 {
		return 0
	}
	edge := total * (1 - fraction) / 2
	lower := 0
	for acc := 0.0; lower < len(power); lower++ {
		acc += power[lower]
		if acc > edge {
			break
		}
	}
	upper := len(power) - 1
	for acc := 0.0; upper > lower; upper-- {
		acc += power[upper]
		if acc > edge {
			break
		}
	}
	return float64(upper-lower+1) * sampleRate / float64(len(power))
}
