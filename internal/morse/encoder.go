// internal/morse/encoder.go
package morse

import (
	"errors"
	"fmt"
	"iter"
	"unicode/utf8"
)

// Encoder symbols
const (
	Dit           = '.'
	Dah           = '-'
	WordDelimiter = '/'
)

// Multiplier is one signal of an encoded character: a high (mark) or low
// (gap) duration expressed in dit units.
type Multiplier struct {
	High  bool
	Units uint8
}

// String renders the multiplier as "+n" for a mark or "-n" for a gap.
func (m Multiplier) String() string {
	if m.High {
		return fmt.Sprintf("+%d", m.Units)
	}
	return fmt.Sprintf("-%d", m.Units)
}

// EncoderConfig holds configuration for the encoder.
type EncoderConfig[C Char] struct {
	// Capacity is the fixed message length
	Capacity int
	// Table is the character/code mapping (nil = DefaultCodeTable)
	Table *CodeTable[C]
	// Message is an optional starting text, encoded on construction
	Message string
	// CursorAtEnd continues after Message instead of at EditPosition
	CursorAtEnd bool
	// EditPosition is the starting cursor when CursorAtEnd is false
	EditPosition int
	// ClampCursor stops the cursor at the message ends instead of wrapping
	ClampCursor bool
}

// Encoder converts text to Morse codes. Every message cell has a parallel
// encoded code, available as dot/dash symbols or as timing multipliers.
// An Encoder is not safe for concurrent use.
type Encoder[C Char] struct {
	table   *CodeTable[C]
	message *Message[C]
	encoded []Code
}

// NewEncoder creates an encoder from cfg.
func NewEncoder[C Char](cfg EncoderConfig[C]) (*Encoder[C], error) {
	if cfg.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	table := cfg.Table
	if table == nil {
		table = DefaultCodeTable[C]()
	}
	message, err := newStartMessage[C](cfg.Capacity, cfg.ClampCursor, cfg.Message, cfg.CursorAtEnd, cfg.EditPosition)
	if err != nil {
		return nil, err
	}

	e := &Encoder[C]{
		table:   table,
		message: message,
		encoded: make([]Code, cfg.Capacity),
	}
	e.EncodeMessage()
	return e, nil
}

// Message returns the encoder's message.
func (e *Encoder[C]) Message() *Message[C] {
	return e.message
}

// EncodeCharacter encodes ch at the cursor and advances it.
// Lower-case letters are upper-cased first.
func (e *Encoder[C]) EncodeCharacter(ch rune) error {
	c, ok := toChar[C](ch)
	if !ok {
		return fmt.Errorf("%q: %w", ch, ErrCharNotFound)
	}
	code, ok := e.table.Code(c)
	if !ok {
		return fmt.Errorf("%q: %w", ch, ErrCharNotFound)
	}

	pos := e.message.EditPos()
	e.message.Add(c)
	e.encoded[pos] = code
	e.message.ShiftRight()
	return nil
}

// EncodeString encodes text from the cursor onwards. Text that would run past
// the end of the message is rejected as a whole; characters missing from the
// table are skipped.
func (e *Encoder[C]) EncodeString(text string) error {
	if e.message.EditPos()+utf8.RuneCountInString(text) > e.message.Cap() {
		return ErrMessageTooLong
	}
	for _, r := range text {
		if err := e.EncodeCharacter(r); err != nil && !errors.Is(err, ErrCharNotFound) {
			return err
		}
	}
	return nil
}

// EncodeMessage encodes every character already in the message, for example
// after Message().Set. Unknown characters keep a word separator code.
func (e *Encoder[C]) EncodeMessage() {
	for i := range e.encoded {
		e.encoded[i] = Code{}
	}
	for i, ch := range e.message.All() {
		if code, ok := e.table.Code(ch); ok {
			e.encoded[i] = code
		}
	}
}

// Code returns the encoded code of message cell i.
func (e *Encoder[C]) Code(i int) (Code, bool) {
	if i < 0 || i >= e.message.Len() {
		return Code{}, false
	}
	return e.encoded[i], true
}

// Symbols returns cell i as dots and dashes, "/" for a word separator.
// Cells beyond the message length return nil.
func (e *Encoder[C]) Symbols(i int) []byte {
	code, ok := e.Code(i)
	if !ok {
		return nil
	}
	if code.IsSpace() {
		return []byte{WordDelimiter}
	}
	out := make([]byte, 0, code.Len())
	for _, s := range code[:code.Len()] {
		if s == Long {
			out = append(out, Dah)
		} else {
			out = append(out, Dit)
		}
	}
	return out
}

// Multipliers returns cell i as timing multipliers: marks of 1 or 3 units
// separated by 1-unit gaps and closed by a 3-unit character gap. A word
// separator is a single 7-unit gap. Cells beyond the message length return nil.
func (e *Encoder[C]) Multipliers(i int) []Multiplier {
	code, ok := e.Code(i)
	if !ok {
		return nil
	}
	if code.IsSpace() {
		return []Multiplier{{Units: WordSpaceMultiplier}}
	}

	n := code.Len()
	out := make([]Multiplier, 0, 2*n)
	for j, s := range code[:n] {
		units := uint8(1)
		if s == Long {
			units = LongMultiplier
		}
		out = append(out, Multiplier{High: true, Units: units})
		if j < n-1 {
			out = append(out, Multiplier{Units: 1})
		}
	}
	return append(out, Multiplier{Units: LongMultiplier})
}

// LastSymbols returns Symbols of the most recently encoded cell, nil when
// nothing has been encoded.
func (e *Encoder[C]) LastSymbols() []byte {
	return e.Symbols(e.message.LastChangedIndex())
}

// LastMultipliers returns Multipliers of the most recently encoded cell, nil
// when nothing has been encoded.
func (e *Encoder[C]) LastMultipliers() []Multiplier {
	return e.Multipliers(e.message.LastChangedIndex())
}

// AllSymbols iterates over Symbols for every character of the message.
func (e *Encoder[C]) AllSymbols() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for i := range e.message.Len() {
			if !yield(i, e.Symbols(i)) {
				return
			}
		}
	}
}

// AllMultipliers iterates over Multipliers for every character of the message.
func (e *Encoder[C]) AllMultipliers() iter.Seq2[int, []Multiplier] {
	return func(yield func(int, []Multiplier) bool) {
		for i := range e.message.Len() {
			if !yield(i, e.Multipliers(i)) {
				return
			}
		}
	}
}
