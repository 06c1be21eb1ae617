// Package effect provides gain effects.
package effect

import (
	"github.com/cwbudde/algo-vecmath"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/signal"
)

// Fader applies gain to the input.
type Fader struct {
	gain  *param.Parameter
	gains []float64
}

var _ audiograph.Node = (*Fader)(nil)

// NewFader returns fader with unity gain.
func NewFader() *Fader {
	return &Fader{
		gain: param.Must(param.Config{
			ID:      "gain",
			Name:    "Gain",
			Type:    param.Gain,
			Range:   param.Range{Min: 0, Max: 4},
			Default: 1,
		}),
	}
}

// Describe implements audiograph.Node.
func (f *Fader) Describe() audiograph.Descriptor {
	return audiograph.Descriptor{
		Name:   "fader",
		Inputs: []audiograph.Socket{{Name: "input", Required: true}},
		Params: param.List{f.gain},
	}
}

// Prepare implements audiograph.Node.
func (f *Fader) Prepare(format audiograph.Format) error {
	f.gains = make([]float64, format.BlockSize)
	return nil
}

// Process implements audiograph.Node.
func (f *Fader) Process(in [][]signal.Block, out signal.Block) {
	gains := f.gains[:out.Size()]
	f.gain.Fill(gains)
	input := in[0][0]
	for c := range out {
		vecmath.MulBlock(out[c], input[c], gains)
	}
}

// Reset implements audiograph.Node.
func (f *Fader) Reset() {}
