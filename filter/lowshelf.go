// Package filter provides filter nodes.
package filter

import (
	"math"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/internal/biquad"
	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/signal"
)

// shelfQ gives the steepest shelf without overshoot.
var shelfQ = 1 / math.Sqrt2

// LowShelf boosts or cuts frequencies below the cutoff.
type LowShelf struct {
	cutoff *param.Parameter
	gain   *param.Parameter

	sampleRate     int
	sections       []biquad.Section
	cutoffValue    float64
	gainValue      float64
	coefficientsOK bool
}

var _ audiograph.Node = (*LowShelf)(nil)

// NewLowShelf returns low shelf filter with default parameters.
func NewLowShelf() *LowShelf {
	return &LowShelf{
		cutoff: param.Must(param.Config{
			ID:      "cutoffFrequency",
			Name:    "Cutoff Frequency",
			Unit:    "Hz",
			Type:    param.Frequency,
			Range:   param.Range{Min: 10, Max: 200},
			Default: 80,
			Curve:   param.Logarithmic,
		}),
		gain: param.Must(param.Config{
			ID:      "gain",
			Name:    "Gain",
			Unit:    "dB",
			Type:    param.Gain,
			Range:   param.Range{Min: -40, Max: 40},
			Default: 0,
		}),
	}
}

// Describe implements audiograph.Node.
func (f *LowShelf) Describe() audiograph.Descriptor {
	return audiograph.Descriptor{
		Name:   "lowShelfFilter",
		Inputs: []audiograph.Socket{{Name: "input", Required: true}},
		Params: param.List{f.cutoff, f.gain},
	}
}

// Prepare implements audiograph.Node.
func (f *LowShelf) Prepare(format audiograph.Format) error {
	f.sampleRate = format.SampleRate
	f.sections = make([]biquad.Section, format.Channels)
	f.coefficientsOK = false
	return nil
}

// Process implements audiograph.Node.
func (f *LowShelf) Process(in [][]signal.Block, out signal.Block) {
	input := in[0][0]
	for i := 0; i < out.Size(); i++ {
		f.update(f.cutoff.Next(), f.gain.Next())
		for c := range out {
			out[c][i] = f.sections[c].ProcessSample(input[c][i])
		}
	}
}

// Reset implements audiograph.Node.
func (f *LowShelf) Reset() {
	for i := range f.sections {
		f.sections[i].Reset()
	}
}

// update recalculates coefficients if parameters have changed.
func (f *LowShelf) update(cutoff, gain float64) {
	if f.coefficientsOK && cutoff == f.cutoffValue && gain == f.gainValue {
		return
	}
	f.cutoffValue, f.gainValue, f.coefficientsOK = cutoff, gain, true
	c := biquad.LowShelf(cutoff, gain, shelfQ, f.sampleRate)
	for i := range f.sections {
		f.sections[i].Coefficients = c
	}
}
