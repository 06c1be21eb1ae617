// Package source provides nodes without inputs: buffer player and
// oscillator.
package source

import (
	"math"
	"sync/atomic"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/mutable"
	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/signal"
)

// Player plays a buffer. Its rate parameter changes playback speed and
// pitch together. Transport is controlled with mutations which are pushed
// through the engine.
type Player struct {
	mutable.Context
	rate   *param.Parameter
	volume *param.Parameter

	// owned by processing goroutine
	buffer signal.Buffer
	step   float64 // buffer samples per output sample at unity rate
	pos    float64
	loop   bool

	sampleRate int
	playing    atomic.Bool
}

var _ audiograph.Node = (*Player)(nil)

// NewPlayer returns looping player of the buffer. Player is stopped.
func NewPlayer(b signal.Buffer) *Player {
	return &Player{
		Context: mutable.Mutable(),
		buffer:  b,
		loop:    true,
		rate: param.Must(param.Config{
			ID:      "rate",
			Name:    "Rate",
			Type:    param.Ratio,
			Range:   param.Range{Min: 0.3125, Max: 5},
			Default: 1,
			Curve:   param.Logarithmic,
		}),
		volume: param.Must(param.Config{
			ID:      "volume",
			Name:    "Volume",
			Type:    param.Gain,
			Range:   param.Range{Min: 0, Max: 1},
			Default: 1,
		}),
	}
}

// Describe implements audiograph.Node.
func (p *Player) Describe() audiograph.Descriptor {
	return audiograph.Descriptor{
		Name:   "player",
		Params: param.List{p.rate, p.volume},
	}
}

// Prepare implements audiograph.Node.
func (p *Player) Prepare(f audiograph.Format) error {
	p.sampleRate = f.SampleRate
	p.updateStep()
	return nil
}

// Playing returns true if player is playing.
func (p *Player) Playing() bool {
	return p.playing.Load()
}

// Play starts playback from the current position.
func (p *Player) Play() mutable.Mutation {
	return p.Mutate(func() {
		p.playing.Store(p.buffer.Size() > 0)
	})
}

// Pause stops playback and keeps the position.
func (p *Player) Pause() mutable.Mutation {
	return p.Mutate(func() {
		p.playing.Store(false)
	})
}

// Stop stops playback and rewinds to the start.
func (p *Player) Stop() mutable.Mutation {
	return p.Mutate(func() {
		p.playing.Store(false)
		p.pos = 0
	})
}

// Load replaces the buffer and rewinds to the start.
func (p *Player) Load(b signal.Buffer) mutable.Mutation {
	return p.Mutate(func() {
		p.buffer = b
		p.pos = 0
		p.updateStep()
		if b.Size() == 0 {
			p.playing.Store(false)
		}
	})
}

// SetLoop enables or disables looping. Player without loop stops at the
// end of the buffer.
func (p *Player) SetLoop(loop bool) mutable.Mutation {
	return p.Mutate(func() {
		p.loop = loop
	})
}

// Process implements audiograph.Node.
func (p *Player) Process(_ [][]signal.Block, out signal.Block) {
	size := float64(p.buffer.Size())
	numChannels := p.buffer.NumChannels()
	for i := 0; i < out.Size(); i++ {
		rate := p.rate.Next()
		volume := p.volume.Next()
		if !p.playing.Load() {
			for c := range out {
				out[c][i] = 0
			}
			continue
		}

		idx := int(p.pos)
		frac := p.pos - float64(idx)
		next := idx + 1
		if next >= int(size) {
			if p.loop {
				next = 0
			} else {
				next = idx
			}
		}
		for c := range out {
			src := p.buffer.Block[c%numChannels]
			out[c][i] = volume * (src[idx] + frac*(src[next]-src[idx]))
		}

		p.pos += rate * p.step
		if p.pos >= size {
			if p.loop {
				p.pos = math.Mod(p.pos, size)
			} else {
				p.pos = 0
				p.playing.Store(false)
			}
		}
	}
}

// Reset implements audiograph.Node. It rewinds the player, transport
// state is retained.
func (p *Player) Reset() {
	p.pos = 0
}

func (p *Player) updateStep() {
	p.step = 1
	if p.buffer.SampleRate > 0 && p.sampleRate > 0 {
		p.step = float64(p.buffer.SampleRate) / float64(p.sampleRate)
	}
}
