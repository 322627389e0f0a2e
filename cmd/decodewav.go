// cmd/decodewav.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/morsecodec/internal/audio"
	"github.com/ColonelBlimp/morsecodec/internal/dsp"
	"github.com/ColonelBlimp/morsecodec/internal/keyer"
)

// Pitch search band for recordings without a known tone.
const (
	pitchFFTSize = 2048
	pitchMinHz   = 200
	pitchMaxHz   = 1500
)

var decodeWAVCmd = &cobra.Command{
	Use:   "decode-wav <file>",
	Short: "Decode a keyed tone from a WAV recording",
	Long: `Detects a keyed tone in a 16-bit PCM WAV file and decodes it. Stereo files are
mixed down. Durations come from the sample clock, so the result does not
depend on how fast the file is read.

With --frequency 0 the tone is found with an FFT before decoding.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecodeWAV,
}

func init() {
	decodeWAVCmd.Flags().Float64P("frequency", "f", 600, "tone frequency in Hz, 0 to estimate (default from tone_frequency)")
	decodeWAVCmd.Flags().Bool("stats", false, "print the learned dit length, speed and event count")
	rootCmd.AddCommand(decodeWAVCmd)
}

func runDecodeWAV(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	wav, err := audio.ReadWAVFile(args[0])
	if err != nil {
		return err
	}
	sampleRate := float64(wav.SampleRate)
	debugf(cmd, s, "read %d samples at %d Hz", len(wav.Samples), wav.SampleRate)

	toneHz := s.ToneFrequency
	if cmd.Flags().Changed("frequency") {
		toneHz, _ = cmd.Flags().GetFloat64("frequency")
	}
	if toneHz == 0 {
		toneHz, err = dsp.EstimatePitch(wav.Samples, dsp.PitchConfig{
			SampleRate: sampleRate,
			FFTSize:    pitchFFTSize,
			MinFreq:    pitchMinHz,
			MaxFreq:    min(pitchMaxHz, sampleRate/2-1),
		})
		if err != nil {
			return fmt.Errorf("estimate pitch: %w", err)
		}
		debugf(cmd, s, "estimated tone at %.1f Hz", toneHz)
	}

	det, err := newToneDetector(s, sampleRate, toneHz)
	if err != nil {
		return err
	}
	var events []keyer.Event
	det.SetCallback(func(ev keyer.Event) {
		events = append(events, ev)
	})
	det.Process(wav.Samples)
	det.Flush()
	debugf(cmd, s, "detected %d events", len(events))

	dec, err := newDecoder(s)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), decodeEvents(dec, events))

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		printStats(cmd.OutOrStdout(), s, dec, events)
	}
	return nil
}
