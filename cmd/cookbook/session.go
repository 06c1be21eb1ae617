package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/clock"
	"pipelined.dev/audiograph/config"
	"pipelined.dev/audiograph/mp3"
	"pipelined.dev/audiograph/oto"
	"pipelined.dev/audiograph/portaudio"
	"pipelined.dev/audiograph/recipe"
	sig "pipelined.dev/audiograph/signal"
	"pipelined.dev/audiograph/wav"
)

// errQuit is returned by control routine when user quits.
var errQuit = errors.New("quit")

// newDevice returns device of the config.
func newDevice(c *config.Config) (audiograph.Device, error) {
	switch strings.ToLower(c.Device) {
	case config.DevicePortAudio:
		return portaudio.Device{Name: c.DeviceName, HighLatency: c.HighLatency}, nil
	case config.DeviceOto:
		return oto.Device{}, nil
	case config.DeviceClock:
		return &clock.Device{Realtime: true, Duration: c.Duration}, nil
	case config.DeviceWav:
		d, err := wav.NewDevice(c.Output, sig.BitDepth(c.BitDepth), c.Duration)
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.DeviceMp3:
		return mp3.NewDevice(c.Output, mp3.Encoding{
			BitRate: c.BitRate,
			Quality: mp3.DefaultEncoding.Quality,
		}, c.Duration), nil
	default:
		return nil, fmt.Errorf("%w: unknown device %q", config.ErrInvalid, c.Device)
	}
}

// session runs conductor until interrupt, quit command or until clock
// device renders its duration. Commands are read from in if it's not nil.
func session(ctx context.Context, conductor *recipe.Conductor, d audiograph.Device, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := conductor.Start(); err != nil {
		conductor.Close()
		return err
	}
	logger.Info(fmt.Sprintf("started %s recipe", conductor.Name()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return wait(ctx, d)
	})
	if in != nil {
		lines := readLines(ctx, in)
		g.Go(func() error {
			return control(ctx, conductor, lines, out)
		})
	}
	err := g.Wait()
	if errors.Is(err, errQuit) {
		err = nil
	}

	stats := conductor.Engine().Stats()
	logger.WithField("blocks", stats.Blocks).
		WithField("misses", stats.Misses).
		WithField("faults", stats.Faults).
		Info(fmt.Sprintf("rendered %v", sig.DurationOf(conductor.Engine().Graph().Format().SampleRate, stats.Samples)))
	if closeErr := conductor.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// wait blocks until clock device is done or context is cancelled. Other
// devices run until context is cancelled.
func wait(ctx context.Context, d audiograph.Device) error {
	cd, ok := d.(*clock.Device)
	if !ok {
		<-ctx.Done()
		return nil
	}
	select {
	case <-ctx.Done():
		return nil
	case <-cd.Done():
		if err := cd.Err(); err != nil {
			return err
		}
		// stop control routine
		return errQuit
	}
}

// readLines scans lines in its own goroutine. Channel is closed when
// reader is exhausted.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// control executes commands:
//
//	<id> <value> [ramp]  set parameter
//	params               print parameters
//	play, pause          control the player
//	quit                 stop the session
func control(ctx context.Context, conductor *recipe.Conductor, lines <-chan string, out io.Writer) error {
	printParams(out, conductor)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := execute(ctx, conductor, line, out); err != nil {
				if errors.Is(err, errQuit) {
					return err
				}
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

func execute(ctx context.Context, conductor *recipe.Conductor, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "quit", "exit":
		return errQuit
	case "params":
		printParams(out, conductor)
		return nil
	case "play":
		return conductor.Play(ctx)
	case "pause":
		return conductor.Pause(ctx)
	}
	if len(fields) < 2 || len(fields) > 3 {
		return fmt.Errorf("unknown command %q", line)
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", fields[1], err)
	}
	if len(fields) == 2 {
		return conductor.Set(fields[0], v)
	}
	d, err := time.ParseDuration(fields[2])
	if err != nil {
		return fmt.Errorf("invalid ramp %q: %w", fields[2], err)
	}
	return conductor.SetTarget(fields[0], v, d)
}

func printParams(out io.Writer, conductor *recipe.Conductor) {
	for _, p := range conductor.Params() {
		fmt.Fprintf(out, "\t%s\t%g %s\t%v\n", p.ID, p.Get(), p.Unit, p.Range)
	}
}
