package dsp

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

type plan struct {
	fft       *fourier.CmplxFFT
	window    []float64
	windowSum float64
}

// Analyzer caches FFT plans and Hamming windows per transform size so that
// repeated spectral estimates over same-length waveforms skip the setup cost.
// It is safe for concurrent use.
type Analyzer struct {
	mu    sync.Mutex
	plans map[int]*plan
}

// NewAnalyzer returns an Analyzer with an empty plan cache.
func NewAnalyzer() *Analyzer {
	return &Analyzer{plans: make(map[int]*plan)}
}

func (a *Analyzer) plan(n int) *plan {
	if p, ok := a.plans[n]; ok {
		return p
	}
	win := Hamming(n)
	p := &plan{fft: fourier.NewCmplxFFT(n), window: win, windowSum: windowSum(win)}
	a.plans[n] = p
	return p
}

// PowerSpectrum is the cached equivalent of the package-level PowerSpectrum.
func (a *Analyzer) PowerSpectrum(samples []complex128) []float64 {
	if len(samples) == 0 {
		return []float64{}
	}
	// CmplxFFT keeps internal work buffers, so the plan is held for the transform.
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.plan(len(samples))
	return powerSpectrum(p.fft, samples, p.window, p.windowSum)
}

// OccupiedBandwidth is the cached equivalent of the package-level OccupiedBandwidth.
func (a *Analyzer) OccupiedBandwidth(samples []complex128, sampleRate, fraction float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptySignal
	}
	if err := checkOBWArgs(sampleRate, fraction); err != nil {
		return 0, err
	}
	return occupiedBandwidth(a.PowerSpectrum(samples), sampleRate, fraction), nil
}

// Sizes returns the number of cached transform sizes.
func (a *Analyzer) Sizes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.plans)
}
