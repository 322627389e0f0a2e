// internal/morse/message.go
package morse

import (
	"errors"
	"iter"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidCapacity indicates a message must hold at least one character
	ErrInvalidCapacity = errors.New("message capacity must be positive")
	// ErrMessageTooLong indicates text does not fit into the message capacity
	ErrMessageTooLong = errors.New("text exceeds message capacity")
	// ErrIndexOutOfRange indicates a message index outside the capacity
	ErrIndexOutOfRange = errors.New("message index out of range")
)

// Message is a fixed-capacity character buffer with an edit cursor.
// Unused cells hold Filler. Cells are allocated once and never grow.
//
// When the cursor moves past either end it wraps around by default; with
// clamping enabled it stays on the first or last cell instead.
type Message[C Char] struct {
	cells      []C
	editPos    int
	lastChange int
	clamp      bool
}

// NewMessage creates an empty message with the given capacity.
func NewMessage[C Char](capacity int, clamp bool) (*Message[C], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	m := &Message[C]{
		cells: make([]C, capacity),
		clamp: clamp,
	}
	m.fill(m.cells)
	return m, nil
}

func (m *Message[C]) fill(cells []C) {
	for i := range cells {
		cells[i] = C(Filler)
	}
}

// Cap returns the fixed capacity of the message.
func (m *Message[C]) Cap() int {
	return len(m.cells)
}

// Len returns the message length, ignoring trailing fillers.
func (m *Message[C]) Len() int {
	return m.lastCharIndex() + 1
}

// IsEmpty reports whether the message holds no characters.
func (m *Message[C]) IsEmpty() bool {
	return m.lastCharIndex() < 0
}

func (m *Message[C]) lastCharIndex() int {
	for i := len(m.cells) - 1; i >= 0; i-- {
		if m.cells[i] != C(Filler) {
			return i
		}
	}
	return -1
}

// fillGaps turns fillers that sit before the last character into spaces,
// since a character written after a gap means the gap was meant as spacing.
func (m *Message[C]) fillGaps() {
	last := m.lastCharIndex()
	for i := 0; i < last; i++ {
		if m.cells[i] == C(Filler) {
			m.cells[i] = C(WordSeparator)
		}
	}
}

// Set replaces the message with text. With cursorAtEnd the cursor is placed
// after the last character, otherwise at the start. Text longer than the
// capacity is rejected and the message is left unchanged. In byte mode
// non-ASCII runes are dropped.
func (m *Message[C]) Set(text string, cursorAtEnd bool) error {
	if utf8.RuneCountInString(text) > len(m.cells) {
		return ErrMessageTooLong
	}
	m.fill(m.cells)
	i := 0
	for _, r := range text {
		if ch, ok := toChar[C](r); ok {
			m.cells[i] = ch
			i++
		}
	}
	m.editPos = 0
	if cursorAtEnd {
		m.editPos = min(m.Len(), len(m.cells)-1)
	}
	m.lastChange = m.editPos
	return nil
}

// Clear empties the message and moves the cursor to the start.
func (m *Message[C]) Clear() {
	m.fill(m.cells)
	m.editPos = 0
	m.lastChange = 0
}

// SetClamp switches cursor movement between wrapping and clamping.
func (m *Message[C]) SetClamp(clamp bool) {
	m.clamp = clamp
}

// Clamped reports whether cursor movement clamps at the ends.
func (m *Message[C]) Clamped() bool {
	return m.clamp
}

// EditPos returns the cursor position.
func (m *Message[C]) EditPos() int {
	return m.editPos
}

// SetEditPos moves the cursor, clamping it into the message.
func (m *Message[C]) SetEditPos(pos int) {
	m.editPos = max(0, min(pos, len(m.cells)-1))
}

// ShiftLeft moves the cursor one cell left.
func (m *Message[C]) ShiftLeft() {
	switch {
	case m.editPos > 0:
		m.editPos--
	case !m.clamp:
		m.editPos = len(m.cells) - 1
	}
}

// ShiftRight moves the cursor one cell right.
func (m *Message[C]) ShiftRight() {
	switch {
	case m.editPos < len(m.cells)-1:
		m.editPos++
	case !m.clamp:
		m.editPos = 0
	}
}

// Add writes ch at the cursor without moving it.
func (m *Message[C]) Add(ch C) {
	m.cells[m.editPos] = ch
	m.fillGaps()
	m.lastChange = m.editPos
}

// PutAt writes ch at index.
func (m *Message[C]) PutAt(index int, ch C) error {
	if index < 0 || index >= len(m.cells) {
		return ErrIndexOutOfRange
	}
	m.cells[index] = ch
	m.fillGaps()
	m.lastChange = index
	return nil
}

// At returns the character at index.
func (m *Message[C]) At(index int) (C, bool) {
	if index < 0 || index >= len(m.cells) {
		return C(Filler), false
	}
	return m.cells[index], true
}

// LastChangedIndex returns the index of the most recent write.
func (m *Message[C]) LastChangedIndex() int {
	return m.lastChange
}

// LastChanged returns the most recently written character.
func (m *Message[C]) LastChanged() C {
	return m.cells[m.lastChange]
}

// Chars returns a copy of every cell, fillers included.
func (m *Message[C]) Chars() []C {
	return append([]C(nil), m.cells...)
}

// All iterates over the characters up to Len.
func (m *Message[C]) All() iter.Seq2[int, C] {
	return func(yield func(int, C) bool) {
		for i, ch := range m.cells[:m.Len()] {
			if !yield(i, ch) {
				return
			}
		}
	}
}

// String returns the message up to Len.
func (m *Message[C]) String() string {
	var b strings.Builder
	for _, ch := range m.cells[:m.Len()] {
		b.WriteRune(rune(ch))
	}
	return b.String()
}
