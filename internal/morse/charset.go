// internal/morse/charset.go
package morse

import (
	"errors"
	"unicode"
)

var (
	// ErrCharsetMismatch indicates a custom character set and code set differ in length
	ErrCharsetMismatch = errors.New("character set and code set must have the same length")
	// ErrEmptyCharset indicates a custom character set has no entries
	ErrEmptyCharset = errors.New("character set must not be empty")
	// ErrCharNotFound indicates a character has no code in the table
	ErrCharNotFound = errors.New("character not found in character set")
)

// Char is the character type a table, message, encoder or decoder works on:
// byte for single-byte ASCII operation, rune for Unicode character sets.
type Char interface {
	byte | rune
}

// DefaultCharacters is the international character set. The second 'X' is
// the multiplication sign, which shares the letter's code.
const DefaultCharacters = " ABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890,?:-\"(=X.;/'_)+@"

// DefaultCodes holds the codes of DefaultCharacters, index for index.
var DefaultCodes = []Code{
	{}, // word separator

	mustCode(".-"), mustCode("-..."), mustCode("-.-."), mustCode("-.."), mustCode("."),
	mustCode("..-."), mustCode("--."), mustCode("...."), mustCode(".."), mustCode(".---"),
	mustCode("-.-"), mustCode(".-.."), mustCode("--"), mustCode("-."), mustCode("---"),
	mustCode(".--."), mustCode("--.-"), mustCode(".-."), mustCode("..."), mustCode("-"),
	mustCode("..-"), mustCode("...-"), mustCode(".--"), mustCode("-..-"), mustCode("-.--"),
	mustCode("--.."),

	mustCode(".----"), mustCode("..---"), mustCode("...--"), mustCode("....-"), mustCode("....."),
	mustCode("-...."), mustCode("--..."), mustCode("---.."), mustCode("----."), mustCode("-----"),

	mustCode("--..--"), // ,
	mustCode("..--.."), // ?
	mustCode("---..."), // :
	mustCode("-....-"), // -
	mustCode(".-..-."), // "
	mustCode("-.--."),  // (
	mustCode("-...-"),  // =
	mustCode("-..-"),   // multiplication sign
	mustCode(".-.-.-"), // .
	mustCode("-.-.-."), // ;
	mustCode("-..-."),  // /
	mustCode(".----."), // '
	mustCode("..--.-"), // _
	mustCode("-.--.-"), // )
	mustCode(".-.-."),  // +
	mustCode(".--.-."), // @
}

var (
	singleShortCode = Code{Short}
	singleLongCode  = Code{Long}
)

// CodeTable maps characters to codes and back. When a character or a code
// appears more than once the first entry wins in both directions.
type CodeTable[C Char] struct {
	chars  []C
	codes  []Code
	byChar map[C]Code
	byCode map[Code]C
}

// NewCodeTable builds a table from a character set and its matching code set.
// Both slices are copied.
func NewCodeTable[C Char](chars []C, codes []Code) (*CodeTable[C], error) {
	if len(chars) == 0 {
		return nil, ErrEmptyCharset
	}
	if len(chars) != len(codes) {
		return nil, ErrCharsetMismatch
	}

	t := &CodeTable[C]{
		chars:  append([]C(nil), chars...),
		codes:  append([]Code(nil), codes...),
		byChar: make(map[C]Code, len(chars)),
		byCode: make(map[Code]C, len(codes)),
	}
	for i, ch := range t.chars {
		if _, ok := t.byChar[ch]; !ok {
			t.byChar[ch] = t.codes[i]
		}
		if _, ok := t.byCode[t.codes[i]]; !ok {
			t.byCode[t.codes[i]] = ch
		}
	}
	return t, nil
}

// DefaultCodeTable returns the international table.
func DefaultCodeTable[C Char]() *CodeTable[C] {
	chars := make([]C, 0, len(DefaultCharacters))
	for _, r := range DefaultCharacters {
		chars = append(chars, C(r))
	}
	t, err := NewCodeTable(chars, DefaultCodes)
	if err != nil {
		panic("morse: default table: " + err.Error())
	}
	return t
}

// Code returns the code for ch.
func (t *CodeTable[C]) Code(ch C) (Code, bool) {
	c, ok := t.byChar[ch]
	return c, ok
}

// Char returns the character for code.
func (t *CodeTable[C]) Char(code Code) (C, bool) {
	ch, ok := t.byCode[code]
	return ch, ok
}

// Len returns the number of entries in the table.
func (t *CodeTable[C]) Len() int {
	return len(t.chars)
}

// Characters returns a copy of the character set.
func (t *CodeTable[C]) Characters() []C {
	return append([]C(nil), t.chars...)
}

// decode looks up a code, falling back to the decoding error placeholder.
func (t *CodeTable[C]) decode(code Code) C {
	if ch, ok := t.byCode[code]; ok {
		return ch
	}
	return C(DecodingErrorChar)
}

// toChar converts a rune to the table's character type, upper-casing it.
// In byte mode runes outside ASCII are rejected.
func toChar[C Char](r rune) (C, bool) {
	var zero C
	if _, ascii := any(zero).(byte); ascii {
		if r > unicode.MaxASCII {
			return zero, false
		}
	}
	return C(unicode.ToUpper(r)), true
}
