// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/morsecodec/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "morsecodec",
	Short: "Morse code encoder and adaptive decoder",
	Long: `Encodes text to Morse timings and decodes mark/space durations back to text.

The decoder learns the sender's dit length as it goes and classifies each
signal with a lazy, accurate or Farnsworth precision policy. Timings can come
from a text stream, a WAV recording or a live sound card.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().StringP("precision", "p", "accurate", "decoder precision: lazy, accurate or farnsworth")
	rootCmd.PersistentFlags().Float64P("tolerance", "t", 0.5, "signal tolerance factor (above 0, up to 1.0)")
	rootCmd.PersistentFlags().IntP("reference", "r", 0, "initial dit length in ms (0 = learn)")
	rootCmd.PersistentFlags().BoolP("unicode", "u", false, "use rune characters")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")
}

// bindFlags lets flags override the config file. Bindings are made when
// the command runs, after every subcommand has registered its flags.
func bindFlags() {
	viper.BindPFlag("precision", rootCmd.PersistentFlags().Lookup("precision"))
	viper.BindPFlag("tolerance", rootCmd.PersistentFlags().Lookup("tolerance"))
	viper.BindPFlag("reference_short_ms", rootCmd.PersistentFlags().Lookup("reference"))
	viper.BindPFlag("unicode", rootCmd.PersistentFlags().Lookup("unicode"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("device_index", listenCmd.Flags().Lookup("device"))
	viper.BindPFlag("tone_frequency", listenCmd.Flags().Lookup("frequency"))
}

func initConfig() {
	bindFlags()
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}

// loadSettings returns the validated settings.
func loadSettings() (*config.Settings, error) {
	s, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return s, nil
}

// debugf writes to the command's error stream when debug output is on.
func debugf(cmd *cobra.Command, s *config.Settings, format string, args ...any) {
	if s.Debug {
		fmt.Fprintf(cmd.ErrOrStderr(), "[DEBUG] "+format+"\n", args...)
	}
}
