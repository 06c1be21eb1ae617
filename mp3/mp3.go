// Package mp3 loads mp3 files into buffers and renders engines into mp3
// files.
package mp3

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/viert/lame"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/clock"
	"pipelined.dev/audiograph/signal"
)

// decoded signal is always 16 bit stereo.
const (
	numChannels = 2
	bitDepth    = signal.BitDepth16
)

// Load decodes the whole mp3 file.
func Load(path string) (signal.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return signal.Buffer{}, err
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return signal.Buffer{}, fmt.Errorf("%s: %w", path, err)
	}
	data, err := io.ReadAll(d)
	if err != nil {
		return signal.Buffer{}, fmt.Errorf("%s: %w", path, err)
	}
	ints := make([]int, len(data)/2)
	for i := range ints {
		ints[i] = int(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return signal.Buffer{
		Block: signal.InterInt{
			Data:        ints,
			NumChannels: numChannels,
			BitDepth:    bitDepth,
		}.AsFloat64(),
		SampleRate: d.SampleRate(),
	}, nil
}

// Encoding settings.
type Encoding struct {
	BitRate int
	Quality int
}

// DefaultEncoding is 192 kbps with good quality.
var DefaultEncoding = Encoding{
	BitRate: 192,
	Quality: 2,
}

// NewDevice returns device which renders d of signal into mp3 file.
// Only mono and stereo formats are supported.
func NewDevice(path string, e Encoding, d time.Duration) *clock.Device {
	return &clock.Device{
		Duration: d,
		Sink: func(f audiograph.Format) (clock.Sink, error) {
			return newSink(path, e, f)
		},
	}
}

// sink sends data to mp3 file.
type sink struct {
	f    *os.File
	wr   *lame.LameWriter
	ints []int
	buf  []byte
}

func newSink(path string, e Encoding, format audiograph.Format) (*sink, error) {
	if format.Channels > 2 {
		return nil, fmt.Errorf("mp3: %d channels are not supported", format.Channels)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := sink{
		f:    f,
		wr:   lame.NewWriter(f),
		ints: make([]int, format.BlockSize*format.Channels),
		buf:  make([]byte, format.BlockSize*format.Channels*2),
	}
	s.wr.Encoder.SetBitrate(e.BitRate)
	s.wr.Encoder.SetQuality(e.Quality)
	s.wr.Encoder.SetNumChannels(format.Channels)
	s.wr.Encoder.SetInSamplerate(format.SampleRate)
	if format.Channels == 2 {
		s.wr.Encoder.SetMode(lame.JOINT_STEREO)
	}
	s.wr.Encoder.SetVBR(lame.VBR_RH)
	s.wr.Encoder.InitParams()
	return &s, nil
}

// Write encodes block into file.
func (s *sink) Write(b signal.Block) error {
	frames := b.PutInterInt(s.ints, bitDepth)
	n := frames * b.NumChannels()
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(s.buf[i*2:], uint16(int16(s.ints[i])))
	}
	_, err := s.wr.Write(s.buf[:n*2])
	return err
}

// Close flushes encoder and closes the file.
func (s *sink) Close() error {
	if err := s.wr.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
