// internal/loopback/loopback.go

// Package loopback sends text through the encoder, the keyer and the decoder
// and scores what comes out the other end.
package loopback

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	lev "github.com/agnivade/levenshtein"

	"github.com/ColonelBlimp/morsecodec/internal/dsp"
	"github.com/ColonelBlimp/morsecodec/internal/keyer"
	"github.com/ColonelBlimp/morsecodec/internal/morse"
)

// ErrNothingToSend indicates the text has no characters the code table can send
var ErrNothingToSend = errors.New("no encodable characters in text")

// Options controls how text is keyed and decoded.
type Options struct {
	// UnitMs is the dit length of the sender
	UnitMs int
	// FarnsworthWPM stretches the spacing to this overall speed (0 = standard spacing)
	FarnsworthWPM int
	// Jitter randomizes every duration by up to ±Jitter, seeded by Seed
	Jitter float64
	Seed   uint64
	// Table is shared by encoder and decoder (nil = default table)
	Table *morse.CodeTable[rune]
	// Decoder configures the receiving side; Capacity 0 fits the text
	Decoder morse.DecoderConfig[rune]
	// Audio routes the events through a synthesized tone and the detector
	Audio *AudioOptions
}

// AudioOptions configures the tone path.
type AudioOptions struct {
	SampleRate int
	ToneHz     float64
	BlockSize  int
	Detector   dsp.DetectorConfig
}

// Result reports one loopback run.
type Result struct {
	Sent     string
	Received string
	// Events is the number of key events the decoder was fed
	Events int
	// Distance is the Levenshtein distance between Sent and Received
	Distance int
	// CER is the character error rate, Distance over the length of Sent
	CER            float64
	ReferenceShort uint16
	WPM            int
}

// Run keys text and decodes it again.
func Run(text string, opts Options) (Result, error) {
	capacity := max(utf8.RuneCountInString(text), 1)
	enc, err := morse.NewEncoder(morse.EncoderConfig[rune]{Capacity: capacity, Table: opts.Table})
	if err != nil {
		return Result{}, err
	}
	if err := enc.EncodeString(text); err != nil {
		return Result{}, fmt.Errorf("encoding: %w", err)
	}
	sent := strings.TrimSpace(enc.Message().String())
	if sent == "" {
		return Result{}, ErrNothingToSend
	}

	timing := keyer.Timing{UnitMs: opts.UnitMs, Jitter: opts.Jitter, Seed: opts.Seed}
	if opts.FarnsworthWPM > 0 && opts.UnitMs > 0 {
		timing.SpaceUnitMs = keyer.FarnsworthUnit(morse.MillisecondsPerWPM/opts.UnitMs, opts.FarnsworthWPM)
	}
	events, err := keyer.Render(enc.AllMultipliers(), timing)
	if err != nil {
		return Result{}, fmt.Errorf("keying: %w", err)
	}

	if opts.Audio != nil {
		if events, err = viaAudio(events, *opts.Audio); err != nil {
			return Result{}, err
		}
	}

	cfg := opts.Decoder
	if cfg.Capacity == 0 {
		cfg.Capacity = capacity + 1
	}
	if cfg.Table == nil {
		cfg.Table = opts.Table
	}
	dec, err := morse.NewDecoder(cfg)
	if err != nil {
		return Result{}, err
	}
	for _, ev := range events {
		dec.SubmitSignal(ev.DurationMs, ev.High)
	}
	dec.EndCharacter(false)

	received := strings.TrimSpace(dec.Message().String())
	distance := lev.ComputeDistance(sent, received)
	return Result{
		Sent:           sent,
		Received:       received,
		Events:         len(events),
		Distance:       distance,
		CER:            float64(distance) / float64(utf8.RuneCountInString(sent)),
		ReferenceShort: dec.ReferenceShort(),
		WPM:            dec.WPM(),
	}, nil
}

// viaAudio synthesizes the events as a tone and detects them again.
func viaAudio(events []keyer.Event, opts AudioOptions) ([]keyer.Event, error) {
	g, err := dsp.NewGoertzel(dsp.GoertzelConfig{
		TargetFrequency: opts.ToneHz,
		SampleRate:      float64(opts.SampleRate),
		BlockSize:       opts.BlockSize,
	})
	if err != nil {
		return nil, fmt.Errorf("tone filter: %w", err)
	}
	det, err := dsp.NewDetector(opts.Detector, g)
	if err != nil {
		return nil, fmt.Errorf("tone detector: %w", err)
	}

	var detected []keyer.Event
	det.SetCallback(func(ev keyer.Event) {
		detected = append(detected, ev)
	})
	det.Process(keyer.Synthesize(events, opts.SampleRate, opts.ToneHz))
	det.Flush()
	return detected, nil
}
