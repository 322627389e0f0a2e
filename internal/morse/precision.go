// internal/morse/precision.go
package morse

import (
	"fmt"
	"strings"
)

// Decoding defaults
const (
	// DefaultTolerance is the default tolerance factor of a signal window (±50%)
	DefaultTolerance = 0.5
	// DefaultLazyPaddingMs widens the lazy short range; 50 ms reads better for human keying
	DefaultLazyPaddingMs = 50
	// DefaultLazyWordMultiplier is the lazy word space in dits, generous so slow dahs don't split words
	DefaultLazyWordMultiplier = 9
	// MinFarnsworthFactor and MaxFarnsworthFactor bound the Farnsworth speed reduction
	MinFarnsworthFactor = 0.01
	MaxFarnsworthFactor = 0.99
	// farnsworthUnitsPerWord is the number of spacing units in "PARIS " that Farnsworth stretches
	farnsworthUnitsPerWord = 19
)

// PrecisionMode selects how signal durations are classified.
type PrecisionMode uint8

const (
	// Lazy saturates the short and long ranges; the most forgiving for humans.
	Lazy PrecisionMode = iota
	// Accurate only accepts durations whose tolerance window holds the expected length.
	Accurate
	// Farnsworth classifies marks like Accurate but expects stretched spacing.
	Farnsworth
)

// String returns the lower-case mode name.
func (m PrecisionMode) String() string {
	switch m {
	case Lazy:
		return "lazy"
	case Accurate:
		return "accurate"
	case Farnsworth:
		return "farnsworth"
	default:
		return fmt.Sprintf("PrecisionMode(%d)", uint8(m))
	}
}

// Precision is a precision mode plus, for Farnsworth, the speed reduction factor.
type Precision struct {
	Mode PrecisionMode
	// Factor is the Farnsworth speed reduction (effective WPM = WPM * Factor)
	Factor float64
}

// LazyPrecision returns the Lazy policy.
func LazyPrecision() Precision { return Precision{Mode: Lazy} }

// AccuratePrecision returns the Accurate policy.
func AccuratePrecision() Precision { return Precision{Mode: Accurate} }

// FarnsworthPrecision returns the Farnsworth policy. The factor is clamped
// to [MinFarnsworthFactor, MaxFarnsworthFactor].
func FarnsworthPrecision(factor float64) Precision {
	return Precision{Mode: Farnsworth, Factor: clamp(factor, MinFarnsworthFactor, MaxFarnsworthFactor)}
}

// ParsePrecision maps a mode name to a Precision. The factor is only used
// for "farnsworth".
func ParsePrecision(name string, factor float64) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lazy":
		return LazyPrecision(), nil
	case "accurate":
		return AccuratePrecision(), nil
	case "farnsworth":
		return FarnsworthPrecision(factor), nil
	default:
		return Precision{}, fmt.Errorf("unknown precision %q (want lazy, accurate or farnsworth)", name)
	}
}

// String returns the mode name, with the factor for Farnsworth.
func (p Precision) String() string {
	if p.Mode == Farnsworth {
		return fmt.Sprintf("farnsworth(%.2f)", p.Factor)
	}
	return p.Mode.String()
}

// window is the inclusive tolerance range around a duration.
type window struct {
	lo, hi int
}

// toleranceWindow returns [d - d*factor, d + d*factor], truncated to whole ms.
func toleranceWindow(d int, factor float64) window {
	diff := int(float64(d) * factor)
	return window{lo: d - diff, hi: d + diff}
}

func (w window) contains(v int) bool {
	return v >= w.lo && v <= w.hi
}

// WPM converts a dit length to words per minute ("PARIS" convention).
// Returns 0 when the dit length is unknown.
func WPM(ditMs int) int {
	if ditMs <= 0 {
		return 0
	}
	return MillisecondsPerWPM / ditMs
}

// FarnsworthUnit returns the stretched spacing unit in ms for a dit length
// and a speed reduction factor. Character timing is unaffected; only the
// gaps between characters and words use this unit.
//
// The extra delay per word is ((60*c - 37.2*s) / (c*s)) seconds for
// character speed c and effective speed s, spread over 19 spacing units.
func FarnsworthUnit(ditMs int, factor float64) int {
	wpm := float64(WPM(ditMs))
	if wpm == 0 || factor <= 0 {
		return ditMs
	}
	reduced := wpm * factor
	delay := int((60*wpm - 37.2*reduced) / (wpm * reduced) * 1000)
	return delay / farnsworthUnitsPerWord
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
