// internal/keyer/event.go

// Package keyer converts between encoded Morse characters and timed
// high/low key events, the input the decoder consumes.
package keyer

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"math/rand/v2"

	"github.com/ColonelBlimp/morsecodec/internal/morse"
)

var (
	// ErrInvalidUnit indicates the unit duration must be positive
	ErrInvalidUnit = errors.New("unit duration must be positive")
	// ErrInvalidJitter indicates jitter must be between 0 and 0.5
	ErrInvalidJitter = errors.New("jitter must be between 0.0 and 0.5")
)

// MaxJitter keeps a jittered dit shorter than an exact dah.
const MaxJitter = 0.5

// Event is one key state: how long the line was high (tone) or low (silence).
type Event struct {
	DurationMs uint16
	High       bool
}

// String renders the event as "+ms" for a mark or "-ms" for a gap.
func (e Event) String() string {
	if e.High {
		return fmt.Sprintf("+%d", e.DurationMs)
	}
	return fmt.Sprintf("-%d", e.DurationMs)
}

// Timing controls how multipliers are turned into durations.
type Timing struct {
	// UnitMs is the dit length; marks and gaps inside a character use it
	UnitMs int
	// SpaceUnitMs is the unit of character and word gaps (0 = UnitMs).
	// A longer unit gives Farnsworth spacing.
	SpaceUnitMs int
	// Jitter randomly stretches or shrinks each event by up to this fraction
	Jitter float64
	// Seed makes the jitter reproducible
	Seed uint64
}

// Validate checks the timing values.
func (t Timing) Validate() error {
	if t.UnitMs <= 0 || t.SpaceUnitMs < 0 {
		return ErrInvalidUnit
	}
	if t.Jitter < 0 || t.Jitter > MaxJitter {
		return ErrInvalidJitter
	}
	return nil
}

// FarnsworthUnit returns the gap unit in ms that sends characters at
// charWPM with an overall speed of effectiveWPM. An effective speed that is
// not slower than the character speed gives the plain dit length.
func FarnsworthUnit(charWPM, effectiveWPM int) int {
	if charWPM <= 0 {
		return 0
	}
	dit := morse.MillisecondsPerWPM / charWPM
	if effectiveWPM <= 0 || effectiveWPM >= charWPM {
		return dit
	}
	return morse.FarnsworthUnit(dit, float64(effectiveWPM)/float64(charWPM))
}

// Render turns encoded characters into key events. Consecutive gaps are
// merged into the longest one, so the 7-unit word gap replaces the 3-unit gap
// closing the previous character.
func Render(chars iter.Seq2[int, []morse.Multiplier], t Timing) ([]Event, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	spaceUnit := t.SpaceUnitMs
	if spaceUnit == 0 {
		spaceUnit = t.UnitMs
	}
	rng := rand.New(rand.NewPCG(t.Seed, t.Seed^0x9e3779b97f4a7c15))

	var events []Event
	for _, mults := range chars {
		for _, m := range mults {
			unit := t.UnitMs
			if !m.High && m.Units > 1 {
				unit = spaceUnit
			}
			ms := float64(int(m.Units) * unit)
			if t.Jitter > 0 {
				ms *= 1 + (rng.Float64()*2-1)*t.Jitter
			}
			ev := Event{DurationMs: toDuration(ms), High: m.High}

			if n := len(events); !ev.High && n > 0 && !events[n-1].High {
				events[n-1].DurationMs = max(events[n-1].DurationMs, ev.DurationMs)
				continue
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func toDuration(ms float64) uint16 {
	return uint16(math.Round(min(max(ms, 1), math.MaxUint16)))
}

// Total returns the summed duration of events in ms.
func Total(events []Event) int {
	total := 0
	for _, ev := range events {
		total += int(ev.DurationMs)
	}
	return total
}
