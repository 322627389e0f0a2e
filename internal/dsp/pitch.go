// internal/dsp/pitch.go
package dsp

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// ErrNoTone indicates no tone rose above the noise in the searched band
var ErrNoTone = errors.New("no tone found in frequency range")

// PitchConfig bounds the search for the keyed tone.
type PitchConfig struct {
	SampleRate float64
	// FFTSize is the analysis length in samples (1024 or 2048 works well)
	FFTSize int
	// MinFreq and MaxFreq bound the search in Hz
	MinFreq float64
	MaxFreq float64
}

// EstimatePitch finds the strongest tone in samples by averaging the
// Blackman-windowed spectrum of consecutive FFTSize frames. The peak bin is
// refined with parabolic interpolation.
func EstimatePitch(samples []float32, cfg PitchConfig) (float64, error) {
	if cfg.FFTSize <= 0 {
		return 0, ErrInvalidBlockSize
	}
	if cfg.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}
	if cfg.MinFreq <= 0 || cfg.MaxFreq <= cfg.MinFreq || cfg.MaxFreq >= cfg.SampleRate/2 {
		return 0, ErrInvalidFrequency
	}
	if len(samples) < cfg.FFTSize {
		return 0, ErrInsufficientSamples
	}

	win := window.Blackman(cfg.FFTSize)
	spectrum := make([]float64, cfg.FFTSize/2)
	frame := make([]float64, cfg.FFTSize)
	for start := 0; start+cfg.FFTSize <= len(samples); start += cfg.FFTSize {
		for i := range frame {
			frame[i] = float64(samples[start+i]) * win[i]
		}
		for i, c := range fft.FFTReal(frame)[:len(spectrum)] {
			spectrum[i] += cmplx.Abs(c)
		}
	}

	binHz := cfg.SampleRate / float64(cfg.FFTSize)
	lo := max(int(cfg.MinFreq/binHz), 1)
	hi := min(int(cfg.MaxFreq/binHz), len(spectrum)-2)

	peak, total := lo, 0.0
	for i := lo; i <= hi; i++ {
		total += spectrum[i]
		if spectrum[i] > spectrum[peak] {
			peak = i
		}
	}
	// A tone stands well clear of the band average; noise does not.
	if hi < lo || spectrum[peak] <= 4*total/float64(hi-lo+1) {
		return 0, ErrNoTone
	}

	y1, y2, y3 := spectrum[peak-1], spectrum[peak], spectrum[peak+1]
	delta := 0.0
	if den := 2 * (2*y2 - y1 - y3); den != 0 {
		delta = (y3 - y1) / den
	}
	return (float64(peak) + delta) * binHz, nil
}
