// cmd/codec.go
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/ColonelBlimp/morsecodec/internal/config"
	"github.com/ColonelBlimp/morsecodec/internal/dsp"
	"github.com/ColonelBlimp/morsecodec/internal/keyer"
	"github.com/ColonelBlimp/morsecodec/internal/morse"
)

// textDecoder hides the character width chosen by the unicode setting.
type textDecoder interface {
	SubmitSignal(durationMs uint16, isHigh bool)
	EndCharacter(endWord bool)
	ReferenceShort() uint16
	WPM() int
	Buffered() int
	Text() string
}

type typedDecoder[C morse.Char] struct {
	*morse.Decoder[C]
}

func (d typedDecoder[C]) Text() string {
	return d.Message().String()
}

func newDecoder(s *config.Settings) (textDecoder, error) {
	if s.Unicode {
		return newTypedDecoder[rune](s)
	}
	return newTypedDecoder[byte](s)
}

func newTypedDecoder[C morse.Char](s *config.Settings) (textDecoder, error) {
	cfg, err := config.DecoderConfig[C](s)
	if err != nil {
		return nil, err
	}
	dec, err := morse.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}
	return typedDecoder[C]{dec}, nil
}

// decodeEvents feeds every event and finishes the last character.
func decodeEvents(dec textDecoder, events []keyer.Event) string {
	for _, ev := range events {
		dec.SubmitSignal(ev.DurationMs, ev.High)
	}
	dec.EndCharacter(false)
	return strings.TrimSpace(dec.Text())
}

// newToneDetector builds the Goertzel filter and detector for a tone.
func newToneDetector(s *config.Settings, sampleRate, toneHz float64) (*dsp.Detector, error) {
	gcfg := s.GoertzelConfig(sampleRate)
	gcfg.TargetFrequency = toneHz
	g, err := dsp.NewGoertzel(gcfg)
	if err != nil {
		return nil, fmt.Errorf("tone filter: %w", err)
	}
	det, err := dsp.NewDetector(s.DetectorConfig(), g)
	if err != nil {
		return nil, fmt.Errorf("tone detector: %w", err)
	}
	return det, nil
}

// echo prints a growing message. Text that changed before the end is
// reprinted on the same line.
type echo struct {
	w    io.Writer
	last string
}

func (e *echo) update(text string) {
	if text == e.last {
		return
	}
	if strings.HasPrefix(text, e.last) {
		fmt.Fprint(e.w, text[len(e.last):])
	} else {
		fmt.Fprintf(e.w, "\r%s", text)
	}
	e.last = text
}
