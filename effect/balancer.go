package effect

import (
	"math"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/signal"
)

// Sockets of Balancer node.
const (
	InputSocket      = 0
	ComparatorSocket = 1
)

// followerCutoff is half-power frequency of the power followers.
const followerCutoff = 10

// minPower keeps gain finite when the input is silent.
const minPower = 1e-12

// Balancer adjusts the input so its RMS level follows the RMS level of
// the comparator signal.
type Balancer struct {
	k        float64 // follower coefficient
	inPower  float64
	cmpPower float64
}

var _ audiograph.Node = (*Balancer)(nil)

// NewBalancer returns new balancer.
func NewBalancer() *Balancer {
	return &Balancer{}
}

// Describe implements audiograph.Node.
func (b *Balancer) Describe() audiograph.Descriptor {
	return audiograph.Descriptor{
		Name: "balancer",
		Inputs: []audiograph.Socket{
			InputSocket:      {Name: "input", Required: true},
			ComparatorSocket: {Name: "comparator", Required: true},
		},
	}
}

// Prepare implements audiograph.Node.
func (b *Balancer) Prepare(f audiograph.Format) error {
	b.k = 1 - math.Exp(-2*math.Pi*followerCutoff/float64(f.SampleRate))
	b.Reset()
	return nil
}

// Process implements audiograph.Node.
func (b *Balancer) Process(in [][]signal.Block, out signal.Block) {
	input, comparator := in[InputSocket][0], in[ComparatorSocket][0]
	numChannels := float64(out.NumChannels())
	for i := 0; i < out.Size(); i++ {
		var x2, c2 float64
		for c := range out {
			x2 += input[c][i] * input[c][i]
			c2 += comparator[c][i] * comparator[c][i]
		}
		b.inPower += b.k * (x2/numChannels - b.inPower)
		b.cmpPower += b.k * (c2/numChannels - b.cmpPower)

		gain := math.Sqrt(b.cmpPower / math.Max(b.inPower, minPower))
		for c := range out {
			out[c][i] = input[c][i] * gain
		}
	}
}

// Reset implements audiograph.Node.
func (b *Balancer) Reset() {
	b.inPower = 0
	b.cmpPower = 0
}
