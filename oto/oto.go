// Package oto provides output device backed by oto. Oto supports a single
// context per process, so all devices share the format of the first
// opened one.
package oto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/hajimehoshi/oto/v2"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/signal"
)

// ErrFormatMismatch is returned when device is opened with format that
// differs from the format of the shared context.
var ErrFormatMismatch = errors.New("oto context has different format")

const bytesPerSample = 4 // float32

var shared struct {
	sync.Mutex
	ctx         *oto.Context
	sampleRate  int
	numChannels int
	err         error
}

func sharedContext(f audiograph.Format) (*oto.Context, error) {
	shared.Lock()
	defer shared.Unlock()
	if shared.ctx == nil && shared.err == nil {
		ctx, ready, err := oto.NewContext(f.SampleRate, f.Channels, oto.FormatFloat32LE)
		if err != nil {
			shared.err = err
			return nil, err
		}
		<-ready
		shared.ctx, shared.sampleRate, shared.numChannels = ctx, f.SampleRate, f.Channels
	}
	if shared.err != nil {
		return nil, shared.err
	}
	if shared.sampleRate != f.SampleRate || shared.numChannels != f.Channels {
		return nil, fmt.Errorf("%w: %dHz %dch", ErrFormatMismatch, shared.sampleRate, shared.numChannels)
	}
	return shared.ctx, nil
}

// Device is the default output of oto.
type Device struct{}

var _ audiograph.Device = Device{}

// Open implements audiograph.Device.
func (Device) Open(f audiograph.Format, render audiograph.RenderFunc) (audiograph.Stream, error) {
	ctx, err := sharedContext(f)
	if err != nil {
		return nil, err
	}
	r := reader{
		render: render,
		block:  signal.Alloc(f.Channels, f.BlockSize),
		view:   make(signal.Block, f.Channels),
		floats: make([]float32, f.BlockSize*f.Channels),
	}
	return &stream{Player: ctx.NewPlayer(&r)}, nil
}

type stream struct {
	oto.Player
}

func (s *stream) Start() error {
	s.Play()
	return s.Err()
}

func (s *stream) Stop() error {
	s.Pause()
	return s.Err()
}

// reader renders blocks when oto pulls the data.
type reader struct {
	render audiograph.RenderFunc
	block  signal.Block
	view   signal.Block
	floats []float32
}

func (r *reader) Read(p []byte) (int, error) {
	frameSize := bytesPerSample * r.block.NumChannels()
	frames := min(len(p)/frameSize, r.block.Size())
	if frames == 0 {
		return 0, nil
	}
	r.view.Reslice(r.block, frames)
	r.render(r.view)
	n := r.view.PutInterFloat32(r.floats) * r.block.NumChannels()
	for i, v := range r.floats[:n] {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}
	return n * bytesPerSample, nil
}
