package main

import (
	"github.com/spf13/cobra"
)

var (
	argDevice      string
	argDeviceName  string
	argHighLatency bool

	playCmd = &cobra.Command{
		Use:   "play",
		Short: "Play a recipe on the output device",
		Long: `Play a recipe on the output device. Parameters are changed with
commands read from standard input:

	<id> <value> [ramp]  set parameter, e.g. "frequency 880 1s"
	params               print parameters
	play, pause          control the player
	quit                 stop playback`,

		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("device") {
				cfg.Device = argDevice
			}
			if flags.Changed("device-name") {
				cfg.DeviceName = argDeviceName
			}
			if flags.Changed("high-latency") {
				cfg.HighLatency = argHighLatency
			}
			if flags.Changed("duration") {
				cfg.Duration = argDuration
			}
			device, err := newDevice(cfg)
			if err != nil {
				return err
			}
			conductor, err := newConductor(cfg, device)
			if err != nil {
				return err
			}
			return session(cmd.Context(), conductor, device, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
)

func init() {
	playCmd.Flags().StringVarP(&argDevice, "device", "d", "", "Device kind: portaudio, oto or clock")
	playCmd.Flags().StringVar(&argDeviceName, "device-name", "", "Name of the portaudio output, default output if empty")
	playCmd.Flags().BoolVar(&argHighLatency, "high-latency", false, "Use high latency portaudio parameters")
	playCmd.Flags().DurationVar(&argDuration, "duration", 0, "Duration of clock device, unlimited if zero")

	rootCmd.AddCommand(playCmd)
}
