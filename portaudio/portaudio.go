// Package portaudio provides output device backed by PortAudio.
package portaudio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/signal"
)

// ErrDeviceNotFound is returned when no output device matches the name.
var ErrDeviceNotFound = errors.New("output device not found")

// Device is an output device. Empty name selects the default output,
// otherwise first output device which name contains Name is used.
type Device struct {
	Name string
	// HighLatency selects high latency parameters of the device.
	HighLatency bool
}

var _ audiograph.Device = Device{}

// Devices returns names of all output devices.
func Devices() ([]string, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	defer portaudio.Terminate()
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, d := range devices {
		if d.MaxOutputChannels > 0 {
			names = append(names, d.Name)
		}
	}
	return names, nil
}

// Open initializes PortAudio and opens output stream.
func (d Device) Open(f audiograph.Format, render audiograph.RenderFunc) (audiograph.Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s, err := d.open(f, render)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return s, nil
}

func (d Device) open(f audiograph.Format, render audiograph.RenderFunc) (*stream, error) {
	output, err := d.find()
	if err != nil {
		return nil, err
	}
	var p portaudio.StreamParameters
	if d.HighLatency {
		p = portaudio.HighLatencyParameters(nil, output)
	} else {
		p = portaudio.LowLatencyParameters(nil, output)
	}
	p.Output.Channels = f.Channels
	p.SampleRate = float64(f.SampleRate)
	p.FramesPerBuffer = f.BlockSize

	s := stream{
		render:    render,
		blockSize: f.BlockSize,
		block:     signal.Alloc(f.Channels, f.BlockSize),
		view:      make(signal.Block, f.Channels),
	}
	if s.Stream, err = portaudio.OpenStream(p, s.process); err != nil {
		return nil, fmt.Errorf("open %s: %w", output.Name, err)
	}
	return &s, nil
}

func (d Device) find() (*portaudio.DeviceInfo, error) {
	if d.Name == "" {
		return portaudio.DefaultOutputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, device := range devices {
		if device.MaxOutputChannels > 0 && strings.Contains(device.Name, d.Name) {
			return device, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", d.Name, ErrDeviceNotFound)
}

type stream struct {
	*portaudio.Stream
	render    audiograph.RenderFunc
	blockSize int
	block     signal.Block
	view      signal.Block
}

// process is called by PortAudio with non-interleaved buffers.
func (s *stream) process(out [][]float32) {
	if len(out) == 0 {
		return
	}
	size := len(out[0])
	for offset := 0; offset < size; offset += s.blockSize {
		n := min(s.blockSize, size-offset)
		s.view.Reslice(s.block, n)
		s.render(s.view)
		for c := range out {
			for i, v := range s.view[c] {
				out[c][offset+i] = float32(v)
			}
		}
	}
}

// Close closes the stream and terminates PortAudio.
func (s *stream) Close() error {
	if err := s.Stream.Close(); err != nil {
		portaudio.Terminate()
		return err
	}
	return portaudio.Terminate()
}
