// cmd/devices.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/morsecodec/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture devices",
	Long:  `Lists the capture devices. Use the index with 'listen --device' or device_index.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		capture := audio.New(audio.DefaultConfig())
		if err := capture.Init(); err != nil {
			return fmt.Errorf("audio init: %w", err)
		}
		defer capture.Close()

		devices, err := capture.Devices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no capture devices found")
			return nil
		}
		for _, d := range devices {
			mark := ""
			if d.IsDefault {
				mark = " (default)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s%s\n", d.Index, d.Name, mark)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
