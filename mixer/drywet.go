package mixer

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/signal"
)

// Law defines how dry and wet gains depend on balance.
type Law int

const (
	// Linear crossfade: dry*(1-b) + wet*b.
	Linear Law = iota
	// EqualPower crossfade: dry*cos(b*pi/2) + wet*sin(b*pi/2).
	EqualPower
)

func (l Law) String() string {
	switch l {
	case Linear:
		return "linear"
	case EqualPower:
		return "equalPower"
	}
	return fmt.Sprintf("Law(%d)", int(l))
}

// Sockets of DryWet node.
const (
	DrySocket = 0
	WetSocket = 1
)

// DryWet crossfades between dry and wet inputs. Balance 0 outputs dry
// signal exactly and balance 1 outputs wet signal exactly.
type DryWet struct {
	Law
	balance *param.Parameter

	dryGains []float64
	wetGains []float64
	wet      []float64
}

var _ audiograph.Node = (*DryWet)(nil)

// NewDryWet returns dry/wet mixer with provided law and balance 0.5.
func NewDryWet(law Law) *DryWet {
	return &DryWet{
		Law: law,
		balance: param.Must(param.Config{
			ID:      "balance",
			Name:    "Balance",
			Type:    param.Balance,
			Range:   param.Range{Min: 0, Max: 1},
			Default: 0.5,
		}),
	}
}

// Describe implements audiograph.Node.
func (m *DryWet) Describe() audiograph.Descriptor {
	return audiograph.Descriptor{
		Name: "dryWetMixer",
		Inputs: []audiograph.Socket{
			DrySocket: {Name: "dry", Required: true},
			WetSocket: {Name: "wet", Required: true},
		},
		Params: param.List{m.balance},
	}
}

// Prepare implements audiograph.Node.
func (m *DryWet) Prepare(f audiograph.Format) error {
	m.dryGains = make([]float64, f.BlockSize)
	m.wetGains = make([]float64, f.BlockSize)
	m.wet = make([]float64, f.BlockSize)
	return nil
}

// Process implements audiograph.Node.
func (m *DryWet) Process(in [][]signal.Block, out signal.Block) {
	n := out.Size()
	dryGains, wetGains, wet := m.dryGains[:n], m.wetGains[:n], m.wet[:n]
	m.balance.Fill(wetGains)
	for i, b := range wetGains {
		dryGains[i], wetGains[i] = m.gains(b)
	}
	dry, wetIn := in[DrySocket][0], in[WetSocket][0]
	for c := range out {
		vecmath.MulBlock(out[c], dry[c], dryGains)
		vecmath.MulBlock(wet, wetIn[c], wetGains)
		vecmath.AddBlockInPlace(out[c], wet)
	}
}

// Reset implements audiograph.Node.
func (m *DryWet) Reset() {}

// gains returns dry and wet gains for balance b.
func (m *DryWet) gains(b float64) (float64, float64) {
	switch {
	case b <= 0:
		return 1, 0
	case b >= 1:
		return 0, 1
	}
	if m.Law == EqualPower {
		return math.Cos(b * math.Pi / 2), math.Sin(b * math.Pi / 2)
	}
	return 1 - b, b
}
