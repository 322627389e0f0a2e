// internal/dsp/goertzel.go

// Package dsp detects a keyed tone in audio samples and turns it into key events.
package dsp

import (
	"errors"
	"math"

	"github.com/mjibson/go-dsp/window"
)

var (
	// ErrInvalidBlockSize indicates block size must be positive
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("target frequency must be positive and less than Nyquist frequency")
	// ErrInsufficientSamples indicates not enough samples for the configured block size
	ErrInsufficientSamples = errors.New("insufficient samples for block size")
)

// GoertzelConfig holds configuration for the Goertzel filter.
type GoertzelConfig struct {
	// TargetFrequency is the tone to detect in Hz (from config: tone_frequency)
	TargetFrequency float64
	// SampleRate is the audio sample rate in Hz (from config: sample_rate)
	SampleRate float64
	// BlockSize is the number of samples per detection window (from config: block_size)
	BlockSize int
}

// Goertzel measures the level of a single frequency. Each block is shaped
// with a Hann window, which narrows the response to neighbouring signals at
// the cost of a wider main lobe.
type Goertzel struct {
	config      GoertzelConfig
	coefficient float64 // 2 * cos(2π * f / fs)
	normalizer  float64 // 2 / sum(window), so a full-scale tone reads 1.0
	window      []float64
}

// NewGoertzel creates a Goertzel filter. Returns an error if the configuration is invalid.
func NewGoertzel(cfg GoertzelConfig) (*Goertzel, error) {
	if cfg.BlockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.TargetFrequency <= 0 || cfg.TargetFrequency >= cfg.SampleRate/2 {
		return nil, ErrInvalidFrequency
	}

	omega := 2 * math.Pi * cfg.TargetFrequency / cfg.SampleRate

	w := []float64{1}
	if cfg.BlockSize > 1 {
		w = window.Hann(cfg.BlockSize)
	}
	sum := 0.0
	for _, v := range w {
		sum += v
	}

	return &Goertzel{
		config:      cfg,
		coefficient: 2 * math.Cos(omega),
		normalizer:  2 / sum,
		window:      w,
	}, nil
}

// Magnitude returns the normalized level of the target frequency in the
// first BlockSize samples. For input in -1.0..1.0 a tone at the target
// frequency reads its amplitude.
func (g *Goertzel) Magnitude(samples []float32) (float64, error) {
	if len(samples) < g.config.BlockSize {
		return 0, ErrInsufficientSamples
	}
	return g.magnitude(samples), nil
}

// magnitude skips the length check; callers pass at least BlockSize samples.
func (g *Goertzel) magnitude(samples []float32) float64 {
	var s0, s1, s2 float64
	coeff := g.coefficient
	for i, w := range g.window {
		s0 = float64(samples[i])*w + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}

	power := s1*s1 + s2*s2 - coeff*s1*s2
	if power < 0 {
		power = 0
	}
	return math.Sqrt(power) * g.normalizer
}

// Config returns the filter configuration.
func (g *Goertzel) Config() GoertzelConfig {
	return g.config
}

// BlockSize returns the configured block size
func (g *Goertzel) BlockSize() int {
	return g.config.BlockSize
}
