package source

import (
	"fmt"
	"math"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/signal"
)

// Waveform of the oscillator.
type Waveform int

// Supported waveforms.
const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	case Triangle:
		return "triangle"
	}
	return fmt.Sprintf("Waveform(%d)", int(w))
}

// Oscillator generates periodic waveform. Same signal is written into
// every channel.
type Oscillator struct {
	Waveform
	frequency  *param.Parameter
	amplitude  *param.Parameter
	sampleRate float64
	phase      float64 // [0, 1)
}

var _ audiograph.Node = (*Oscillator)(nil)

// NewOscillator returns oscillator of provided waveform.
func NewOscillator(w Waveform) *Oscillator {
	return &Oscillator{
		Waveform: w,
		frequency: param.Must(param.Config{
			ID:      "frequency",
			Name:    "Frequency",
			Unit:    "Hz",
			Type:    param.Frequency,
			Range:   param.Range{Min: 20, Max: 20000},
			Default: 440,
			Curve:   param.Logarithmic,
		}),
		amplitude: param.Must(param.Config{
			ID:      "amplitude",
			Name:    "Amplitude",
			Type:    param.Gain,
			Range:   param.Range{Min: 0, Max: 1},
			Default: 1,
		}),
	}
}

// Describe implements audiograph.Node.
func (o *Oscillator) Describe() audiograph.Descriptor {
	return audiograph.Descriptor{
		Name:   "oscillator",
		Params: param.List{o.frequency, o.amplitude},
	}
}

// Prepare implements audiograph.Node.
func (o *Oscillator) Prepare(f audiograph.Format) error {
	o.sampleRate = float64(f.SampleRate)
	return nil
}

// Process implements audiograph.Node.
func (o *Oscillator) Process(_ [][]signal.Block, out signal.Block) {
	for i := 0; i < out.Size(); i++ {
		v := o.amplitude.Next() * o.sample()
		for c := range out {
			out[c][i] = v
		}
		o.phase += o.frequency.Next() / o.sampleRate
		o.phase -= math.Floor(o.phase)
	}
}

// Reset implements audiograph.Node.
func (o *Oscillator) Reset() {
	o.phase = 0
}

func (o *Oscillator) sample() float64 {
	switch o.Waveform {
	case Square:
		if o.phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*o.phase - 1
	case Triangle:
		if o.phase < 0.5 {
			return 4*o.phase - 1
		}
		return 3 - 4*o.phase
	default:
		return math.Sin(2 * math.Pi * o.phase)
	}
}
