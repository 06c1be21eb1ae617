package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/clock"
	"pipelined.dev/audiograph/recipe"
	"pipelined.dev/audiograph/signal"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show available recipes and their parameters",

	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, name := range recipe.Names() {
			// idle engine never opens the device
			c, err := recipe.New(name, signal.Buffer{}, &clock.Device{}, cfg.Format(),
				audiograph.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%s\n", name, recipe.Description(name))
			printParams(out, c)
			if err := c.Close(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
