// internal/morse/signal.go

// Package morse implements a Morse code codec: an encoder from text to
// dot/dash sequences and timing multipliers, and a live decoder that
// classifies high/low signal durations into characters.
package morse

import (
	"errors"
	"strings"
)

// Morse timing ratios (ITU standard)
const (
	// MaxSignals is the longest code supported by the code tables
	MaxSignals = 6
	// LongMultiplier is the ratio of dah duration to dit duration (ITU: 3:1)
	LongMultiplier = 3
	// WordSpaceMultiplier is the ratio of word space to dit duration (ITU: 7:1)
	WordSpaceMultiplier = 7
	// MillisecondsPerWPM is the dit length in ms at 1 WPM ("PARIS" = 50 dits)
	MillisecondsPerWPM = 1200
)

const (
	// Filler marks an unused message cell. '#' is not part of international Morse.
	Filler = '#'
	// DecodingErrorChar is written to the message when a character can't be decoded.
	DecodingErrorChar = '?'
	// WordSeparator is the character produced by an all-empty code
	WordSeparator = ' '
)

// ErrInvalidCode indicates a textual code contains something other than dots and dashes
var ErrInvalidCode = errors.New("code must contain 1-6 dots or dashes")

// Signal is a single Morse mark.
type Signal uint8

const (
	// NoSignal fills unused positions of a Code
	NoSignal Signal = iota
	// Short is a dit
	Short
	// Long is a dah
	Long
)

// String returns "." for Short, "-" for Long and "" otherwise.
func (s Signal) String() string {
	switch s {
	case Short:
		return "."
	case Long:
		return "-"
	default:
		return ""
	}
}

// Code is the mark sequence of one character. Unused trailing entries are
// NoSignal; a Code with no marks at all stands for the word separator.
type Code [MaxSignals]Signal

// ParseCode builds a Code from a dot/dash string such as ".-".
// The empty string yields the word separator code.
func ParseCode(s string) (Code, error) {
	var c Code
	if len(s) > MaxSignals {
		return c, ErrInvalidCode
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.':
			c[i] = Short
		case '-':
			c[i] = Long
		default:
			return Code{}, ErrInvalidCode
		}
	}
	return c, nil
}

// mustCode is ParseCode for the static tables
func mustCode(s string) Code {
	c, err := ParseCode(s)
	if err != nil {
		panic("morse: bad static code " + s)
	}
	return c
}

// Len returns the number of marks in the code.
func (c Code) Len() int {
	n := 0
	for _, s := range c {
		if s == NoSignal {
			break
		}
		n++
	}
	return n
}

// IsSpace reports whether the code is the word separator.
func (c Code) IsSpace() bool {
	return c[0] == NoSignal
}

// String renders the code as dots and dashes.
func (c Code) String() string {
	var b strings.Builder
	for _, s := range c[:c.Len()] {
		b.WriteString(s.String())
	}
	return b.String()
}
