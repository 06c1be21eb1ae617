package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pipelined.dev/audiograph/config"
	"pipelined.dev/audiograph/portaudio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Show available output devices",

	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Device kinds:")
		for _, kind := range []string{config.DevicePortAudio, config.DeviceOto, config.DeviceClock, config.DeviceWav, config.DeviceMp3} {
			fmt.Fprintf(out, "\t%s\n", kind)
		}
		names, err := portaudio.Devices()
		if err != nil {
			logger.Warn(fmt.Sprintf("portaudio is not available: %v", err))
			return nil
		}
		fmt.Fprintln(out, "PortAudio outputs:")
		for _, name := range names {
			fmt.Fprintf(out, "\t%s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
