// Package wav loads wav files into buffers and renders engines into wav
// files.
package wav

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/clock"
	"pipelined.dev/audiograph/signal"
)

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")
	// ErrInvalidFile is returned when file is not a valid wav.
	ErrInvalidFile = errors.New("wav is not valid")
)

func supported(bitDepth signal.BitDepth) bool {
	switch bitDepth {
	case signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
		return true
	}
	return false
}

// Load decodes the whole wav file.
func Load(path string) (signal.Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return signal.Buffer{}, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return signal.Buffer{}, fmt.Errorf("%s: %w", path, ErrInvalidFile)
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if !supported(bitDepth) {
		return signal.Buffer{}, fmt.Errorf("%s: %d bits: %w", path, decoder.BitDepth, ErrUnsupportedBitDepth)
	}
	ib, err := decoder.FullPCMBuffer()
	if err != nil {
		return signal.Buffer{}, fmt.Errorf("%s: %w", path, err)
	}
	return signal.Buffer{
		Block: signal.InterInt{
			Data:        ib.Data,
			NumChannels: int(decoder.NumChans),
			BitDepth:    bitDepth,
		}.AsFloat64(),
		SampleRate: int(decoder.SampleRate),
	}, nil
}

// NewDevice returns device which renders d of signal into wav file. File
// is created when device is opened and finalized when it's closed.
func NewDevice(path string, bitDepth signal.BitDepth, d time.Duration) (*clock.Device, error) {
	if !supported(bitDepth) {
		return nil, ErrUnsupportedBitDepth
	}
	return &clock.Device{
		Duration: d,
		Sink: func(f audiograph.Format) (clock.Sink, error) {
			return newSink(path, bitDepth, f)
		},
	}, nil
}

// sink saves audio to wav file.
type sink struct {
	bitDepth signal.BitDepth
	file     *os.File
	encoder  *wav.Encoder
	buffer   *audio.IntBuffer
}

func newSink(path string, bitDepth signal.BitDepth, f audiograph.Format) (*sink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &sink{
		bitDepth: bitDepth,
		file:     file,
		encoder:  wav.NewEncoder(file, f.SampleRate, int(bitDepth), f.Channels, 1),
		buffer: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: f.Channels,
				SampleRate:  f.SampleRate,
			},
			Data:           make([]int, f.BlockSize*f.Channels),
			SourceBitDepth: int(bitDepth),
		},
	}, nil
}

func (s *sink) Write(b signal.Block) error {
	frames := b.PutInterInt(s.buffer.Data[:cap(s.buffer.Data)], s.bitDepth)
	data := s.buffer.Data
	s.buffer.Data = data[:frames*b.NumChannels()]
	err := s.encoder.Write(s.buffer)
	s.buffer.Data = data
	return err
}

// Close flushes encoder and closes the file.
func (s *sink) Close() error {
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
