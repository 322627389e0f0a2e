// internal/keyer/synth.go
package keyer

import "math"

const (
	// ToneAmplitude is the peak level of synthesized marks
	ToneAmplitude = 0.8
	// rampMs is the raised-cosine edge of each mark, which keeps key clicks
	// out of the neighbouring frequencies
	rampMs = 5
)

// Synthesize renders events as a keyed sine tone, normalized to -1.0..1.0.
// Gaps are silence.
func Synthesize(events []Event, sampleRate int, toneHz float64) []float32 {
	if sampleRate <= 0 {
		return nil
	}
	total := 0
	for _, ev := range events {
		total += samplesFor(ev.DurationMs, sampleRate)
	}

	out := make([]float32, 0, total)
	omega := 2 * math.Pi * toneHz / float64(sampleRate)
	ramp := rampMs * sampleRate / 1000
	n := 0 // running sample index keeps the phase continuous
	for _, ev := range events {
		count := samplesFor(ev.DurationMs, sampleRate)
		if !ev.High {
			out = append(out, make([]float32, count)...)
			n += count
			continue
		}
		edge := min(ramp, count/2)
		for i := range count {
			gain := 1.0
			switch {
			case i < edge:
				gain = raisedCosine(i, edge)
			case i >= count-edge:
				gain = raisedCosine(count-1-i, edge)
			}
			out = append(out, float32(ToneAmplitude*gain*math.Sin(omega*float64(n))))
			n++
		}
	}
	return out
}

func samplesFor(ms uint16, sampleRate int) int {
	return int(ms) * sampleRate / 1000
}

func raisedCosine(i, width int) float64 {
	return 0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(width)))
}
