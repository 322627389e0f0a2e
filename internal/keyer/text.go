// internal/keyer/text.go
package keyer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidToken indicates a timing token is not "+ms" or "-ms"
var ErrInvalidToken = errors.New("timing token must be +ms or -ms")

// Parse reads a timing stream: tokens such as "+100 -300" separated by
// whitespace or commas. A '+' token is a mark, a '-' token a gap. Text after
// '#' on a line is a comment.
func Parse(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text, _, _ := strings.Cut(scanner.Text(), "#")
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\r'
		})
		for _, tok := range fields {
			ev, err := parseToken(tok)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			events = append(events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read timings: %w", err)
	}
	return events, nil
}

func parseToken(tok string) (Event, error) {
	if len(tok) < 2 || (tok[0] != '+' && tok[0] != '-') {
		return Event{}, fmt.Errorf("%q: %w", tok, ErrInvalidToken)
	}
	ms, err := strconv.ParseUint(tok[1:], 10, 16)
	if err != nil {
		return Event{}, fmt.Errorf("%q: %w", tok, ErrInvalidToken)
	}
	return Event{DurationMs: uint16(ms), High: tok[0] == '+'}, nil
}

// Format writes events in the form Parse reads, one character per line.
// A gap more than twice the shortest gap is taken as a character gap.
func Format(w io.Writer, events []Event) error {
	shortest := uint16(0)
	for _, ev := range events {
		if !ev.High && (shortest == 0 || ev.DurationMs < shortest) {
			shortest = ev.DurationMs
		}
	}

	bw := bufio.NewWriter(w)
	for i, ev := range events {
		sep := " "
		if i == len(events)-1 || (!ev.High && int(ev.DurationMs) > 2*int(shortest)) {
			sep = "\n"
		}
		if _, err := bw.WriteString(ev.String() + sep); err != nil {
			return err
		}
	}
	return bw.Flush()
}
