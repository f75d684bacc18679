package dsp

import (
	"math"
	"sync"
	"testing"
)

func TestAnalyzerMatchesUncached(t *testing.T) {
	size := 512
	analyzer := NewAnalyzer()

	samples := make([]complex128, size)
	for i := range samples {
		samples[i] = complex(float64(i)/float64(size), 0)
	}

	cached := analyzer.PowerSpectrum(samples)
	direct := PowerSpectrum(samples)
	if len(cached) != len(direct) {
		t.Fatalf("length mismatch: %d vs %d", len(cached), len(direct))
	}
	for i := range cached {
		if math.Abs(cached[i]-direct[i]) > 1e-12 {
			t.Errorf("power mismatch at index %d: %g vs %g", i, cached[i], direct[i])
		}
	}
}

func TestAnalyzerCachesPerSize(t *testing.T) {
	analyzer := NewAnalyzer()
	analyzer.PowerSpectrum(make([]complex128, 256))
	analyzer.PowerSpectrum(make([]complex128, 256))
	analyzer.PowerSpectrum(make([]complex128, 128))
	if analyzer.Sizes() != 2 {
		t.Fatalf("expected 2 cached sizes, got %d", analyzer.Sizes())
	}
	if len(analyzer.PowerSpectrum(nil)) != 0 {
		t.Fatalf("expected empty spectrum for empty input")
	}
}

func TestAnalyzerConcurrentUse(t *testing.T) {
	analyzer := NewAnalyzer()
	data := multitone(128, []int{-3, 0, 3})
	want, err := OccupiedBandwidth(data, 128, 0.99)
	if err != nil {
		t.Fatalf("obw failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := analyzer.OccupiedBandwidth(data, 128, 0.99)
			if err != nil || got != want {
				errs <- "concurrent obw mismatch"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatal(msg)
	}
}
