// Package mixer provides nodes that combine multiple signals.
package mixer

import (
	"github.com/cwbudde/algo-vecmath"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/signal"
)

// Mixer sums up all connected inputs and applies volume.
type Mixer struct {
	// Average divides the sum by number of connected inputs.
	Average bool
	volume  *param.Parameter
	gains   []float64
}

var _ audiograph.Node = (*Mixer)(nil)

// New returns new mixer.
func New() *Mixer {
	return &Mixer{
		volume: param.Must(param.Config{
			ID:      "volume",
			Name:    "Volume",
			Type:    param.Gain,
			Range:   param.Range{Min: 0, Max: 2},
			Default: 1,
		}),
	}
}

// Describe implements audiograph.Node.
func (m *Mixer) Describe() audiograph.Descriptor {
	return audiograph.Descriptor{
		Name:   "mixer",
		Inputs: []audiograph.Socket{{Name: "inputs", Multiple: true}},
		Params: param.List{m.volume},
	}
}

// Prepare implements audiograph.Node.
func (m *Mixer) Prepare(f audiograph.Format) error {
	m.gains = make([]float64, f.BlockSize)
	return nil
}

// Process implements audiograph.Node.
func (m *Mixer) Process(in [][]signal.Block, out signal.Block) {
	gains := m.gains[:out.Size()]
	m.volume.Fill(gains)
	if m.Average && len(in[0]) > 1 {
		vecmath.ScaleBlock(gains, gains, 1/float64(len(in[0])))
	}
	out.Zero()
	for _, b := range in[0] {
		for c := range out {
			vecmath.AddBlockInPlace(out[c], b[c])
		}
	}
	for c := range out {
		vecmath.MulBlockInPlace(out[c], gains)
	}
}

// Reset implements audiograph.Node.
func (m *Mixer) Reset() {}
