// cmd/decode.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/morsecodec/internal/config"
	"github.com/ColonelBlimp/morsecodec/internal/keyer"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode a stream of key timings",
	Long: `Decodes key events written as "+ms" for a mark and "-ms" for a gap, separated
by whitespace or commas. Text after '#' is a comment. Without a file the
stream is read from standard input.

Example:
  echo "+60 -60 +60 -60 +60 -180 +180 -60 +180 -60 +180" | morsecodec decode`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().Bool("stats", false, "print the learned dit length, speed and event count")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	events, err := keyer.Parse(r)
	if err != nil {
		return err
	}
	debugf(cmd, s, "read %d events", len(events))

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

func printStats(w io.Writer, s *config.Settings, dec textDecoder, events []keyer.Event) {
	fmt.Fprintf(w, "precision: %s\n", s.Precision)
	fmt.Fprintf(w, "reference: %d ms (%d wpm)\n", dec.ReferenceShort(), dec.WPM())
	fmt.Fprintf(w, "events:    %s\n", humanize.Comma(int64(len(events))))
	fmt.Fprintf(w, "duration:  %s\n", time.Duration(keyer.Total(events))*time.Millisecond)
}
