// cmd/encode.go
package cmd

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ColonelBlimp/morsecodec/internal/audio"
	"github.com/ColonelBlimp/morsecodec/internal/config"
	"github.com/ColonelBlimp/morsecodec/internal/keyer"
	"github.com/ColonelBlimp/morsecodec/internal/morse"
)

var (
	errNothingToEncode = errors.New("no encodable characters in input")
	errUnknownFormat   = errors.New("format must be text, timing or yaml")
)

var encodeCmd = &cobra.Command{
	Use:   "encode [text...]",
	Short: "Encode text as Morse symbols or key timings",
	Long: `Encodes text with the code table. Without arguments the text is read from
standard input. Characters missing from the table are skipped.

Formats:
  text    dots and dashes, "/" between words
  timing  +ms/-ms key events, readable by 'decode'
  yaml    every character with its code and unit pattern`,
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().String("format", "text", "output format: text, timing or yaml")
	encodeCmd.Flags().Int("unit", 100, "dit length in ms (default from unit_ms)")
	encodeCmd.Flags().Int("farnsworth-wpm", 0, "stretch spacing to this overall speed (0 = off)")
	encodeCmd.Flags().String("wav", "", "also write the keyed tone to this WAV file")
	rootCmd.AddCommand(encodeCmd)
}

// encodedChar is one character of the yaml output.
type encodedChar struct {
	Char  string   `yaml:"char"`
	Code  string   `yaml:"code"`
	Units []string `yaml:"units,flow"`
}

// encoding is the width-independent result of encoding text.
type encoding struct {
	Text        string
	Chars       []encodedChar
	Multipliers [][]morse.Multiplier
}

func encodeText[C morse.Char](text string) (*encoding, error) {
	enc, err := morse.NewEncoder(morse.EncoderConfig[C]{Capacity: max(utf8.RuneCountInString(text), 1)})
	if err != nil {
		return nil, err
	}
	if err := enc.EncodeString(text); err != nil {
		return nil, err
	}
	out := &encoding{Text: enc.Message().String()}
	for i, ch := range enc.Message().All() {
		mults := enc.Multipliers(i)
		units := make([]string, len(mults))
		for j, m := range mults {
			units[j] = m.String()
		}
		out.Chars = append(out.Chars, encodedChar{
			Char:  string(rune(ch)),
			Code:  string(enc.Symbols(i)),
			Units: units,
		})
		out.Multipliers = append(out.Multipliers, mults)
	}
	return out, nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		text = strings.Join(strings.Fields(string(data)), " ")
	}

	var e *encoding
	if s.Unicode {
		e, err = encodeText[rune](text)
	} else {
		e, err = encodeText[byte](text)
	}
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if strings.TrimSpace(e.Text) == "" {
		return errNothingToEncode
	}
	debugf(cmd, s, "encoded %d characters: %q", len(e.Chars), e.Text)

	timing, err := encodeTiming(cmd, s)
	if err != nil {
		return err
	}
	events, err := keyer.Render(slices.All(e.Multipliers), timing)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text":
		symbols := make([]string, len(e.Chars))
		for i, c := range e.Chars {
			symbols[i] = c.Code
		}
		fmt.Fprintln(out, strings.Join(symbols, " "))
	case "timing":
		if err := keyer.Format(out, events); err != nil {
			return err
		}
	case "yaml":
		doc := struct {
			Text        string        `yaml:"text"`
			UnitMs      int           `yaml:"unit_ms"`
			SpaceUnitMs int           `yaml:"space_unit_ms,omitempty"`
			DurationMs  int           `yaml:"duration_ms"`
			Characters  []encodedChar `yaml:"characters"`
		}{e.Text, timing.UnitMs, timing.SpaceUnitMs, keyer.Total(events), e.Chars}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("write yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("write yaml: %w", err)
		}
	default:
		return fmt.Errorf("%q: %w", format, errUnknownFormat)
	}

	if path, _ := cmd.Flags().GetString("wav"); path != "" {
		samples := keyer.Synthesize(events, int(s.SampleRate), s.ToneFrequency)
		if err := audio.WriteWAVFile(path, samples, int(s.SampleRate)); err != nil {
			return fmt.Errorf("write wav: %w", err)
		}
		debugf(cmd, s, "wrote %d samples at %.0f Hz to %s", len(samples), s.SampleRate, path)
	}
	return nil
}

// encodeTiming resolves the keying speed from flags and settings.
func encodeTiming(cmd *cobra.Command, s *config.Settings) (keyer.Timing, error) {
	unit := s.UnitMs
	if cmd.Flags().Changed("unit") {
		unit, _ = cmd.Flags().GetInt("unit")
	}
	timing := keyer.Timing{UnitMs: unit}
	if err := timing.Validate(); err != nil {
		return keyer.Timing{}, err
	}
	if fw, _ := cmd.Flags().GetInt("farnsworth-wpm"); fw > 0 {
		timing.SpaceUnitMs = keyer.FarnsworthUnit(morse.MillisecondsPerWPM/unit, fw)
	}
	return timing, nil
}
