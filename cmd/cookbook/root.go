package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/config"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/mp3"
	"pipelined.dev/audiograph/recipe"
	"pipelined.dev/audiograph/signal"
	"pipelined.dev/audiograph/wav"
)

var (
	// arguments
	argConfig     string
	argRecipe     string
	argSource     string
	argSampleRate int
	argChannels   int
	argBlockSize  int
	argParams     []string
	argRamp       time.Duration
	argDebug      bool

	cfg    *config.Config
	logger = log.GetLogger()

	rootCmd = &cobra.Command{
		Use:           "cookbook",
		Short:         "Cookbook plays audio graph recipes",
		SilenceUsage:  true,
		SilenceErrors: false,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if argDebug {
				logger.SetLevel(logrus.DebugLevel)
			}
			c, err := config.Load(argConfig)
			if err != nil {
				return err
			}
			overrideConfig(cmd, c)
			cfg = c
			return nil
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&argConfig, "config", "c", "", "Path to YAML config file")
	flags.StringVarP(&argRecipe, "recipe", "r", "", "Name of the recipe, see list command")
	flags.StringVarP(&argSource, "source", "s", "", "WAV or MP3 file to play, synthesized loop if empty")
	flags.IntVar(&argSampleRate, "sample-rate", 0, "Sample rate of the graph")
	flags.IntVar(&argChannels, "channels", 0, "Number of output channels")
	flags.IntVar(&argBlockSize, "block-size", 0, "Number of samples processed per block")
	flags.StringArrayVarP(&argParams, "param", "p", nil, "Initial parameter value as id=value, can be repeated")
	flags.DurationVar(&argRamp, "ramp", 0, "Ramp duration of parameter changes")
	flags.BoolVar(&argDebug, "debug", false, "Enable debug logging")
}

// overrideConfig applies flags that were set explicitly.
func overrideConfig(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("recipe") {
		c.Recipe = argRecipe
	}
	if flags.Changed("source") {
		c.Source = argSource
	}
	if flags.Changed("sample-rate") {
		c.SampleRate = argSampleRate
	}
	if flags.Changed("channels") {
		c.Channels = argChannels
	}
	if flags.Changed("block-size") {
		c.BlockSize = argBlockSize
	}
	if flags.Changed("ramp") {
		c.Ramp = argRamp
	}
}

// parseParams parses id=value pairs.
func parseParams(pairs []string) (map[string]float64, error) {
	params := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		id, value, ok := strings.Cut(pair, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid param %q: expected id=value", pair)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid param %q: %w", pair, err)
		}
		params[id] = v
	}
	return params, nil
}

// loadSource decodes source file by its extension.
func loadSource(path string) (signal.Buffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "":
		return signal.Buffer{}, nil
	case ".wav":
		return wav.Load(path)
	case ".mp3":
		return mp3.Load(path)
	default:
		return signal.Buffer{}, fmt.Errorf("unsupported source file %s", path)
	}
}

// newConductor builds recipe of the config and applies initial params.
// Params from flags override params from config.
func newConductor(c *config.Config, d audiograph.Device) (*recipe.Conductor, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	params, err := parseParams(argParams)
	if err != nil {
		return nil, err
	}
	src, err := loadSource(c.Source)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}
	conductor, err := recipe.New(c.Recipe, src, d, c.Format(),
		audiograph.WithLogger(logger),
		audiograph.WithDeadlineTolerance(c.DeadlineTolerance),
	)
	if err != nil {
		return nil, err
	}
	if c.Ramp > 0 {
		conductor.SetRamp(c.Ramp)
	}
	for _, values := range []map[string]float64{c.Params, params} {
		for id, v := range values {
			if err := conductor.SetTarget(id, v, 0); err != nil {
				conductor.Close()
				return nil, err
			}
		}
	}
	return conductor, nil
}
