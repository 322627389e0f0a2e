// internal/morse/pending.go
package morse

// pending is a provisional short classification waiting for later evidence.
// It covers both the first mark of the character in progress and the last
// committed single-dit character: either may turn out to be a dah once the
// reference has settled.
type pending struct {
	active   bool
	index    int // message index of a committed character, unused for the first mark
	duration int
}

func (p *pending) set(index, duration int) {
	*p = pending{active: true, index: index, duration: duration}
}

func (p *pending) clear() {
	*p = pending{}
}

// confirmedLongBy reports whether a signal window proves the provisional dit
// was a dah. divisor scales the pending duration onto the window's unit:
// 1 when the window belongs to a long signal, LongMultiplier when it belongs
// to a short one.
func (p pending) confirmedLongBy(w window, divisor int) bool {
	return p.active && w.contains(p.duration/divisor)
}
