package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitudes of the first half of the real FFT of
// data with its mean removed.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	freq := fft.FFTReal(centered)
	ps := make([]float64, len(freq)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(freq[i])
	}
	return ps
}

// DominantFrequency is the frequency in hz of the strongest non-constant
// bin. ok is false for signals without any oscillation.
func DominantFrequency(data []float64, dt float64) (float64, bool) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || dt <= 0 {
		return 0, false
	}

	maxPower := 0.0
	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower = ps[i]
			maxIdx = i
		}
	}
	if maxIdx == 0 || maxPower < 1e-9 {
		return 0, false
	}
	return float64(maxIdx) / (float64(len(data)) * dt), true
}
