// internal/dsp/detector.go
package dsp

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/ColonelBlimp/morsecodec/internal/keyer"
)

var (
	// ErrInvalidThreshold indicates threshold must be between 0 and 1
	ErrInvalidThreshold = errors.New("threshold must be between 0.0 and 1.0")
	// ErrInvalidHysteresis indicates hysteresis must be non-negative
	ErrInvalidHysteresis = errors.New("hysteresis must be non-negative")
	// ErrInvalidOverlap indicates overlap percentage must be 0-99
	ErrInvalidOverlap = errors.New("overlap percentage must be between 0 and 99")
	// ErrInvalidAGCDecay indicates AGC decay must be between 0 and 1
	ErrInvalidAGCDecay = errors.New("agc decay must be between 0.0 and 1.0")
	// ErrInvalidAGCAttack indicates AGC attack must be between 0 and 1
	ErrInvalidAGCAttack = errors.New("agc attack must be between 0.0 and 1.0")
	// ErrInvalidAGCWarmup indicates AGC warmup blocks must be non-negative
	ErrInvalidAGCWarmup = errors.New("agc warmup blocks must be non-negative")
	// ErrGoertzelRequired indicates Goertzel instance is required
	ErrGoertzelRequired = errors.New("goertzel instance is required")
)

// minAGCPeak keeps the AGC from dividing by silence
const minAGCPeak = 0.001

// EventCallback receives key events as the tone starts and stops.
// Must be non-blocking and fast - called from the audio processing path.
type EventCallback func(ev keyer.Event)

// DetectorConfig holds configuration for the tone detector.
type DetectorConfig struct {
	// Threshold for tone detection (0.0-1.0) (from config: threshold)
	Threshold float64
	// Hysteresis is consecutive blocks required to confirm state change (from config: hysteresis)
	Hysteresis int
	// OverlapPct is the block overlap percentage 0-99 (from config: overlap_pct)
	OverlapPct int
	// AGCEnabled enables automatic gain control (from config: agc_enabled)
	AGCEnabled bool
	// AGCDecay is the peak decay rate per block (from config: agc_decay)
	AGCDecay float64
	// AGCAttack is how fast to respond to louder signals (from config: agc_attack)
	AGCAttack float64
	// AGCWarmupBlocks is the number of blocks used to calibrate the AGC before
	// detection starts (from config: agc_warmup_blocks)
	AGCWarmupBlocks int
}

// Detector turns audio into key events. Each block's Goertzel level passes
// through AGC, a threshold and hysteresis; every confirmed change of state
// emits the duration of the state that just ended.
//
// Durations are measured on the sample clock, not the wall clock, so a file
// decodes the same however fast it is read.
type Detector struct {
	config     DetectorConfig
	goertzel   *Goertzel
	blockSize  int
	sampleRate float64

	// Overlap buffer for continuous processing
	overlapBuffer []float32
	hopSize       int // samples to advance between blocks

	// AGC state
	agcPeak       float64
	warmupCounter int

	// Hysteresis state
	toneState       bool
	pendingState    bool
	hysteresisCount int

	// Sample clock: position of the current block and of the last confirmed change
	clock          int64
	lastTransition int64
	started        bool

	callbackPtr atomic.Pointer[EventCallback]
}

// NewDetector creates a tone detector around a Goertzel filter.
func NewDetector(cfg DetectorConfig, goertzel *Goertzel) (*Detector, error) {
	if goertzel == nil {
		return nil, ErrGoertzelRequired
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, ErrInvalidThreshold
	}
	if cfg.Hysteresis < 0 {
		return nil, ErrInvalidHysteresis
	}
	if cfg.OverlapPct < 0 || cfg.OverlapPct >= 100 {
		return nil, ErrInvalidOverlap
	}
	if cfg.AGCDecay < 0 || cfg.AGCDecay > 1 {
		return nil, ErrInvalidAGCDecay
	}
	if cfg.AGCAttack < 0 || cfg.AGCAttack > 1 {
		return nil, ErrInvalidAGCAttack
	}
	if cfg.AGCWarmupBlocks < 0 {
		return nil, ErrInvalidAGCWarmup
	}

	blockSize := goertzel.BlockSize()
	overlap := blockSize * cfg.OverlapPct / 100

	return &Detector{
		config:        cfg,
		goertzel:      goertzel,
		blockSize:     blockSize,
		sampleRate:    goertzel.Config().SampleRate,
		overlapBuffer: make([]float32, 0, 2*blockSize),
		hopSize:       blockSize - overlap,
		agcPeak:       1.0, // no false triggers before the AGC has seen a signal
	}, nil
}

// SetCallback sets the callback for key events. Pass nil to remove it.
func (d *Detector) SetCallback(cb EventCallback) {
	if cb == nil {
		d.callbackPtr.Store(nil)
	} else {
		d.callbackPtr.Store(&cb)
	}
}

// Process consumes samples normalized to -1.0..1.0. Samples that do not
// complete a block are kept for the next call.
func (d *Detector) Process(samples []float32) {
	d.overlapBuffer = append(d.overlapBuffer, samples...)

	for len(d.overlapBuffer) >= d.blockSize {
		d.processBlock(d.overlapBuffer[:d.blockSize])
		d.clock += int64(d.hopSize)

		n := copy(d.overlapBuffer, d.overlapBuffer[d.hopSize:])
		d.overlapBuffer = d.overlapBuffer[:n]
	}
}

// Flush emits the state in progress, so a recording that ends while the
// tone is on still delivers its last mark. Nothing is emitted before the
// first transition.
func (d *Detector) Flush() {
	if !d.started || d.clock == d.lastTransition {
		return
	}
	d.emit(keyer.Event{DurationMs: d.durationMs(d.clock - d.lastTransition), High: d.toneState})
	d.lastTransition = d.clock
}

func (d *Detector) processBlock(block []float32) {
	magnitude := d.goertzel.magnitude(block)

	// Calibrate the AGC to the actual signal level without detecting.
	if d.warmupCounter < d.config.AGCWarmupBlocks {
		d.warmupCounter++
		if d.config.AGCEnabled && magnitude > minAGCPeak {
			if magnitude > d.agcPeak || d.warmupCounter == 1 {
				d.agcPeak = magnitude
			}
		}
		return
	}

	if d.config.AGCEnabled {
		magnitude = d.applyAGC(magnitude)
	}
	d.updateHysteresis(magnitude > d.config.Threshold)
}

// applyAGC normalizes the magnitude by a tracked peak.
func (d *Detector) applyAGC(magnitude float64) float64 {
	if magnitude > d.agcPeak {
		d.agcPeak += d.config.AGCAttack * (magnitude - d.agcPeak)
	} else {
		d.agcPeak *= d.config.AGCDecay
	}
	d.agcPeak = max(d.agcPeak, minAGCPeak)

	return min(magnitude/d.agcPeak, 1.0)
}

func (d *Detector) updateHysteresis(tonePresent bool) {
	if tonePresent == d.toneState {
		d.pendingState = d.toneState
		d.hysteresisCount = 0
		return
	}

	if tonePresent == d.pendingState {
		d.hysteresisCount++
	} else {
		d.pendingState = tonePresent
		d.hysteresisCount = 1
	}
	if d.hysteresisCount < d.config.Hysteresis {
		return
	}

	// The change happened when the pending run began, not when it was confirmed.
	at := d.clock - int64(max(d.hysteresisCount-1, 0)*d.hopSize)
	if d.started {
		d.emit(keyer.Event{DurationMs: d.durationMs(at - d.lastTransition), High: d.toneState})
	}
	d.started = true
	d.toneState = d.pendingState
	d.lastTransition = at
	d.hysteresisCount = 0
}

func (d *Detector) durationMs(samples int64) uint16 {
	ms := math.Round(float64(samples) * 1000 / d.sampleRate)
	return uint16(min(max(ms, 0), math.MaxUint16))
}

func (d *Detector) emit(ev keyer.Event) {
	if cb := d.callbackPtr.Load(); cb != nil {
		(*cb)(ev)
	}
}

// ToneState returns the current confirmed tone state
func (d *Detector) ToneState() bool {
	return d.toneState
}

// AGCPeak returns the current AGC peak value
func (d *Detector) AGCPeak() float64 {
	return d.agcPeak
}

// Reset restores the initial state. The callback is kept.
func (d *Detector) Reset() {
	d.overlapBuffer = d.overlapBuffer[:0]
	d.agcPeak = 1.0
	d.warmupCounter = 0
	d.toneState = false
	d.pendingState = false
	d.hysteresisCount = 0
	d.clock = 0
	d.lastTransition = 0
	d.started = false
}

// Config returns the current configuration
func (d *Detector) Config() DetectorConfig {
	return d.config
}
