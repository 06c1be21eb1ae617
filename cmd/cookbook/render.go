package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pipelined.dev/audiograph/config"
)

var (
	argOutput   string
	argDuration time.Duration
	argBitDepth int
	argBitRate  int

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Render a recipe into a wav or mp3 file",

		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("output") {
				cfg.Output = argOutput
			}
			if flags.Changed("duration") {
				cfg.Duration = argDuration
			}
			if flags.Changed("bit-depth") {
				cfg.BitDepth = argBitDepth
			}
			if flags.Changed("bit-rate") {
				cfg.BitRate = argBitRate
			}
			cfg.Device = fileDevice(cfg.Output)
			device, err := newDevice(cfg)
			if err != nil {
				return err
			}
			conductor, err := newConductor(cfg, device)
			if err != nil {
				return err
			}
			return session(cmd.Context(), conductor, device, nil, cmd.OutOrStdout())
		},
	}
)

// fileDevice returns device kind by output extension.
func fileDevice(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		return config.DeviceMp3
	}
	return config.DeviceWav
}

func init() {
	renderCmd.Flags().StringVarP(&argOutput, "output", "o", "", "Output file, format is selected by extension")
	renderCmd.Flags().DurationVar(&argDuration, "duration", 0, "Duration of rendered signal")
	renderCmd.Flags().IntVar(&argBitDepth, "bit-depth", 0, "Bit depth of wav file: 16, 24 or 32")
	renderCmd.Flags().IntVar(&argBitRate, "bit-rate", 0, "Bit rate of mp3 file in kbps")

	rootCmd.AddCommand(renderCmd)
}
