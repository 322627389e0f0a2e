// cmd/loopback.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/morsecodec/internal/config"
	"github.com/ColonelBlimp/morsecodec/internal/loopback"
)

var loopbackCmd = &cobra.Command{
	Use:   "loopback <text...>",
	Short: "Encode text, key it and decode it again",
	Long: `Sends text through the encoder, the keyer and the decoder and reports the
character error rate. --jitter randomizes every duration to imitate a hand
key; --audio also routes the keying through a synthesized tone and the tone
detector.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoopback,
}

func init() {
	loopbackCmd.Flags().Int("unit", 100, "dit length in ms (default from unit_ms)")
	loopbackCmd.Flags().Int("farnsworth-wpm", 0, "stretch spacing to this overall speed (0 = off)")
	loopbackCmd.Flags().Float64("jitter", 0, "random timing error as a fraction of each duration (0.0-0.5)")
	loopbackCmd.Flags().Uint64("seed", 1, "jitter random seed")
	loopbackCmd.Flags().Bool("audio", false, "route through a synthesized tone and the detector")
	rootCmd.AddCommand(loopbackCmd)
}

func runLoopback(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	opts, err := loopbackOptions(cmd, s)
	if err != nil {
		return err
	}
	res, err := loopback.Run(strings.Join(args, " "), opts)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "sent:      %s\n", res.Sent)
	fmt.Fprintf(w, "received:  %s\n", res.Received)
	fmt.Fprintf(w, "events:    %s\n", humanize.Comma(int64(res.Events)))
	fmt.Fprintf(w, "errors:    %d (CER %.1f%%)\n", res.Distance, 100*res.CER)
	fmt.Fprintf(w, "reference: %d ms (%d wpm)\n", res.ReferenceShort, res.WPM)
	return nil
}

func loopbackOptions(cmd *cobra.Command, s *config.Settings) (loopback.Options, error) {
	dcfg, err := config.DecoderConfig[rune](s)
	if err != nil {
		return loopback.Options{}, err
	}
	// Sized to the text by Run.
	dcfg.Capacity = 0

	unit := s.UnitMs
	if cmd.Flags().Changed("unit") {
		unit, _ = cmd.Flags().GetInt("unit")
	}
	opts := loopback.Options{UnitMs: unit, Decoder: dcfg}
	opts.FarnsworthWPM, _ = cmd.Flags().GetInt("farnsworth-wpm")
	opts.Jitter, _ = cmd.Flags().GetFloat64("jitter")
	opts.Seed, _ = cmd.Flags().GetUint64("seed")

	if viaAudio, _ := cmd.Flags().GetBool("audio"); viaAudio {
		opts.Audio = &loopback.AudioOptions{
			SampleRate: int(s.SampleRate),
			ToneHz:     s.ToneFrequency,
			BlockSize:  s.BlockSize,
			Detector:   s.DetectorConfig(),
		}
	}
	return opts, nil
}
