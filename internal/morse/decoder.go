// internal/morse/decoder.go
package morse

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPrecision indicates an unknown precision mode
	ErrInvalidPrecision = errors.New("invalid precision mode")
	// ErrInvalidLazyTiming indicates a negative lazy padding or word multiplier
	ErrInvalidLazyTiming = errors.New("lazy padding and word multiplier must not be negative")
)

// DefaultCapacity is the message capacity used when none is configured
const DefaultCapacity = 256

// signalBufferLength leaves room for one mark beyond the longest code, so a
// runaway character is detected instead of silently truncated.
const signalBufferLength = MaxSignals + 1

type durationKind uint8

const (
	kindEmpty durationKind = iota
	kindShort
	kindLong
	kindOther
)

// signalDuration is a raw duration tagged with its classification.
type signalDuration struct {
	kind durationKind
	ms   int
}

// DecoderConfig holds configuration for the decoder.
type DecoderConfig[C Char] struct {
	// Capacity is the fixed message length
	Capacity int
	// Precision selects the classification policy
	Precision Precision
	// Tolerance is the ± factor of a signal window, clamped to [0, 1]. 0 selects DefaultTolerance.
	Tolerance float64
	// ReferenceShortMs is the initial dit length. 0 learns it from the first mark.
	// Messages starting with 'T' decode badly without it; 100 ms is a good start for hand keying.
	ReferenceShortMs uint16
	// Table is the character/code mapping (nil = DefaultCodeTable)
	Table *CodeTable[C]

	// Message is an optional starting text
	Message string
	// CursorAtEnd continues after Message instead of at EditPosition
	CursorAtEnd bool
	// EditPosition is the starting cursor when CursorAtEnd is false
	EditPosition int
	// ClampCursor stops the cursor at the message ends instead of wrapping
	ClampCursor bool

	// LazyPaddingMs is added to the end of the lazy short range (0 = DefaultLazyPaddingMs)
	LazyPaddingMs int
	// LazyWordMultiplier is the lazy word space in dits (0 = DefaultLazyWordMultiplier)
	LazyWordMultiplier int
}

// DefaultDecoderConfig returns a Lazy decoder configuration with a learned reference.
func DefaultDecoderConfig[C Char]() DecoderConfig[C] {
	return DecoderConfig[C]{
		Capacity:           DefaultCapacity,
		Precision:          LazyPrecision(),
		Tolerance:          DefaultTolerance,
		LazyPaddingMs:      DefaultLazyPaddingMs,
		LazyWordMultiplier: DefaultLazyWordMultiplier,
	}
}

// Decoder turns a stream of high/low signal durations into characters.
//
// The decoder learns the dit length as it goes. Each mark is classified
// against the current reference and buffered until a character gap arrives;
// the buffer is then looked up and the character written to the message.
// A Decoder is not safe for concurrent use.
type Decoder[C Char] struct {
	precision          Precision
	tolerance          float64
	lazyPaddingMs      int
	lazyWordMultiplier int
	initialReference   int
	reference          int

	table   *CodeTable[C]
	message *Message[C]

	// character entered mark by mark with AddMark
	current    Code
	currentPos int

	buffer [signalBufferLength]signalDuration
	pos    int

	firstMark  pending // buffer[0] while it is a provisional dit
	lastSingle pending // last committed lone-dit character
}

// NewDecoder creates a decoder from cfg.
func NewDecoder[C Char](cfg DecoderConfig[C]) (*Decoder[C], error) {
	if cfg.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if cfg.Precision.Mode > Farnsworth {
		return nil, ErrInvalidPrecision
	}
	if cfg.LazyPaddingMs < 0 || cfg.LazyWordMultiplier < 0 {
		return nil, ErrInvalidLazyTiming
	}

	precision := cfg.Precision
	if precision.Mode == Farnsworth {
		precision = FarnsworthPrecision(precision.Factor)
	}
	tolerance := clamp(cfg.Tolerance, 0, 1)
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}
	padding := cfg.LazyPaddingMs
	if padding == 0 {
		padding = DefaultLazyPaddingMs
	}
	wordMultiplier := cfg.LazyWordMultiplier
	if wordMultiplier == 0 {
		wordMultiplier = DefaultLazyWordMultiplier
	}
	table := cfg.Table
	if table == nil {
		table = DefaultCodeTable[C]()
	}

	message, err := newStartMessage[C](cfg.Capacity, cfg.ClampCursor, cfg.Message, cfg.CursorAtEnd, cfg.EditPosition)
	if err != nil {
		return nil, err
	}

	return &Decoder[C]{
		precision:          precision,
		tolerance:          tolerance,
		lazyPaddingMs:      padding,
		lazyWordMultiplier: wordMultiplier,
		initialReference:   int(cfg.ReferenceShortMs),
		reference:          int(cfg.ReferenceShortMs),
		table:              table,
		message:            message,
	}, nil
}

// newStartMessage builds the message shared by decoder and encoder configs.
func newStartMessage[C Char](capacity int, clampCursor bool, text string, cursorAtEnd bool, editPos int) (*Message[C], error) {
	m, err := NewMessage[C](capacity, clampCursor)
	if err != nil {
		return nil, err
	}
	if text != "" {
		if err := m.Set(text, cursorAtEnd); err != nil {
			return nil, fmt.Errorf("starting message: %w", err)
		}
	}
	if !cursorAtEnd {
		m.SetEditPos(editPos)
	}
	return m, nil
}

// Message returns the decoded message. Callers may edit it between signals.
func (d *Decoder[C]) Message() *Message[C] {
	return d.message
}

// ReferenceShort returns the current dit length estimate in ms (0 = not yet known).
func (d *Decoder[C]) ReferenceShort() uint16 {
	return uint16(min(d.reference, 1<<16-1))
}

// WPM returns the speed implied by the reference, 0 while it is unknown.
func (d *Decoder[C]) WPM() int {
	return WPM(d.reference)
}

// Precision returns the active classification policy.
func (d *Decoder[C]) Precision() Precision {
	return d.precision
}

// Buffered returns the number of marks collected for the character in progress.
func (d *Decoder[C]) Buffered() int {
	return d.pos
}

// LastDecoded returns the most recently written message character.
func (d *Decoder[C]) LastDecoded() C {
	return d.message.LastChanged()
}

// Reset drops the character in progress and pending corrections and
// restores the configured reference. The message is kept.
func (d *Decoder[C]) Reset() {
	d.reference = d.initialReference
	d.resetCharacter()
	d.lastSingle.clear()
}

// AddMark appends a prepared mark to the character entered by hand,
// bypassing duration classification. Marks beyond MaxSignals are ignored.
func (d *Decoder[C]) AddMark(s Signal) {
	if d.currentPos < MaxSignals {
		d.current[d.currentPos] = s
		d.currentPos++
	}
}

// CommitCharacter writes the character built with AddMark to the message.
// With no marks added it writes a word separator.
func (d *Decoder[C]) CommitCharacter() {
	d.commit(d.table.decode(d.current))
}

// EndCharacter finishes the buffered character without waiting for a
// character gap, e.g. when the operator has stopped keying. An empty buffer
// writes nothing; endWord additionally writes a word separator.
func (d *Decoder[C]) EndCharacter(endWord bool) {
	if d.pos > 0 {
		d.commit(d.decodeBuffer())
	}
	if endWord {
		d.commit(d.table.decode(Code{}))
	}
}

// SubmitSignal feeds one signal: how long the line was high (a mark) or low
// (a gap) in milliseconds. Zero-length signals are ignored.
func (d *Decoder[C]) SubmitSignal(durationMs uint16, isHigh bool) {
	if durationMs == 0 {
		return
	}
	ms := int(durationMs)
	w := toleranceWindow(ms, d.tolerance)

	switch {
	case d.pos == 0:
		// A leading gap is idle line noise from the input source.
		if isHigh {
			d.startCharacter(ms, w)
		}
	case !isHigh:
		d.handleGap(ms, w)
	case d.pos < len(d.buffer):
		d.handleMark(ms, w)
	default:
		d.commit(C(DecodingErrorChar))
	}
}

// startCharacter stores the first mark. Without a reference it is assumed to
// be a dit and seeds the reference; handleMark fixes it if that was wrong.
func (d *Decoder[C]) startCharacter(ms int, w window) {
	sd := signalDuration{kind: kindShort, ms: ms}
	if d.reference == 0 {
		d.reference = ms
	} else {
		sd = d.resolve(ms, w, true)
	}
	d.push(sd)
	if sd.kind == kindShort {
		d.firstMark.set(0, ms)
	}
}

func (d *Decoder[C]) handleMark(ms int, w window) {
	sd := d.resolve(ms, w, true)
	d.push(sd)

	// The first mark had no context. A dah whose window holds it, or a dit
	// whose window holds a third of it, shows it was a dah after all.
	var confirmed bool
	switch sd.kind {
	case kindLong:
		confirmed = d.firstMark.confirmedLongBy(w, 1)
	case kindShort:
		confirmed = d.firstMark.confirmedLongBy(w, LongMultiplier)
	}
	if confirmed {
		d.buffer[0].kind = kindLong
		d.firstMark.clear()
	}
}

func (d *Decoder[C]) handleGap(ms int, w window) {
	// A gap shorter than the reference and clear of its window means the
	// reference is too long, typically because it was seeded from a dah.
	if ms < d.reference && !w.contains(d.reference) {
		d.reference = ms
	}

	sd := d.resolve(ms, w, false)
	switch {
	case sd.kind == kindLong:
		if d.lastSingle.confirmedLongBy(w, 1) {
			d.correctLastSingle()
		}
		d.EndCharacter(false)
	case sd.kind == kindOther && ms >= d.wordSpaceMs():
		d.EndCharacter(true)
	}
}

// correctLastSingle rewrites the last lone-dit character as a lone dah,
// unless the cell has been overwritten since.
func (d *Decoder[C]) correctLastSingle() {
	defer d.lastSingle.clear()

	long, ok := d.table.Char(singleLongCode)
	if !ok {
		return
	}
	if ch, ok := d.message.At(d.lastSingle.index); !ok || ch != d.table.decode(singleShortCode) {
		return
	}
	_ = d.message.PutAt(d.lastSingle.index, long)
}

func (d *Decoder[C]) push(sd signalDuration) {
	if d.pos < len(d.buffer) {
		d.buffer[d.pos] = sd
		d.pos++
	}
}

// decodeBuffer converts the buffered marks to a character. Gaps classified
// as Other leave an empty slot, which normally fails the lookup.
func (d *Decoder[C]) decodeBuffer() C {
	if d.pos > MaxSignals {
		return C(DecodingErrorChar)
	}

	var code Code
	shortMs := 0
	for i, sd := range d.buffer[:d.pos] {
		switch sd.kind {
		case kindShort:
			code[i] = Short
			shortMs = sd.ms
		case kindLong:
			code[i] = Long
		}
	}

	// A lone dit may later prove to be a lone dah (E vs T).
	if code == singleShortCode {
		d.lastSingle.set(d.message.EditPos(), shortMs)
	}
	return d.table.decode(code)
}

// commit writes ch at the cursor, advances it and starts a new character.
func (d *Decoder[C]) commit(ch C) {
	d.message.Add(ch)
	d.message.ShiftRight()
	d.resetCharacter()
}

func (d *Decoder[C]) resetCharacter() {
	d.buffer = [signalBufferLength]signalDuration{}
	d.pos = 0
	d.current = Code{}
	d.currentPos = 0
	d.firstMark.clear()
}

// resolve classifies a duration against the reference under the precision policy.
func (d *Decoder[C]) resolve(ms int, w window, isHigh bool) signalDuration {
	switch d.precision.Mode {
	case Lazy:
		shortEnd := toleranceWindow(d.reference, d.tolerance).hi + d.lazyPaddingMs
		switch {
		case ms < shortEnd:
			return signalDuration{kind: kindShort, ms: ms}
		case ms < d.wordSpaceMs():
			return signalDuration{kind: kindLong, ms: ms}
		default:
			return signalDuration{kind: kindOther, ms: ms}
		}
	case Farnsworth:
		if !isHigh {
			return d.resolveWindow(ms, w, d.farnsworthUnit()*LongMultiplier)
		}
	}
	return d.resolveWindow(ms, w, d.reference*LongMultiplier)
}

// resolveWindow is the strict classification shared by Accurate and Farnsworth.
func (d *Decoder[C]) resolveWindow(ms int, w window, longMs int) signalDuration {
	switch {
	case w.contains(d.reference):
		return signalDuration{kind: kindShort, ms: ms}
	case w.contains(longMs):
		return signalDuration{kind: kindLong, ms: ms}
	default:
		return signalDuration{kind: kindOther, ms: ms}
	}
}

func (d *Decoder[C]) farnsworthUnit() int {
	return FarnsworthUnit(d.reference, d.precision.Factor)
}

func (d *Decoder[C]) wordSpaceMs() int {
	switch d.precision.Mode {
	case Lazy:
		return d.reference * d.lazyWordMultiplier
	case Farnsworth:
		return d.farnsworthUnit() * WordSpaceMultiplier
	default:
		return d.reference * WordSpaceMultiplier
	}
}
