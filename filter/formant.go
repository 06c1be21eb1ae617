package filter

import (
	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/internal/biquad"
	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/signal"
)

// Formant filter is a difference of two resonators tuned to the center
// frequency. Impulse response is a sinusoid which rises with attack
// duration and falls with decay duration.
type Formant struct {
	center *param.Parameter
	attack *param.Parameter
	decay  *param.Parameter

	sampleRate int
	attacks    []biquad.Section
	decays     []biquad.Section
	values     [3]float64
	valid      bool
}

var _ audiograph.Node = (*Formant)(nil)

// NewFormant returns formant filter with default parameters.
func NewFormant() *Formant {
	return &Formant{
		center: param.Must(param.Config{
			ID:      "centerFrequency",
			Name:    "Center Frequency",
			Unit:    "Hz",
			Type:    param.Frequency,
			Range:   param.Range{Min: 12, Max: 20000},
			Default: 1000,
			Curve:   param.Logarithmic,
		}),
		attack: param.Must(param.Config{
			ID:      "attackDuration",
			Name:    "Attack Duration",
			Unit:    "s",
			Type:    param.Time,
			Range:   param.Range{Min: 0, Max: 0.1},
			Default: 0.007,
		}),
		decay: param.Must(param.Config{
			ID:      "decayDuration",
			Name:    "Decay Duration",
			Unit:    "s",
			Type:    param.Time,
			Range:   param.Range{Min: 0, Max: 0.1},
			Default: 0.04,
		}),
	}
}

// Describe implements audiograph.Node.
func (f *Formant) Describe() audiograph.Descriptor {
	return audiograph.Descriptor{
		Name:   "formantFilter",
		Inputs: []audiograph.Socket{{Name: "input", Required: true}},
		Params: param.List{f.center, f.attack, f.decay},
	}
}

// Prepare implements audiograph.Node.
func (f *Formant) Prepare(format audiograph.Format) error {
	f.sampleRate = format.SampleRate
	f.attacks = make([]biquad.Section, format.Channels)
	f.decays = make([]biquad.Section, format.Channels)
	f.valid = false
	return nil
}

// Process implements audiograph.Node.
func (f *Formant) Process(in [][]signal.Block, out signal.Block) {
	input := in[0][0]
	for i := 0; i < out.Size(); i++ {
		f.update([3]float64{f.center.Next(), f.attack.Next(), f.decay.Next()})
		for c := range out {
			x := input[c][i]
			out[c][i] = f.decays[c].ProcessSample(x) - f.attacks[c].ProcessSample(x)
		}
	}
}

// Reset implements audiograph.Node.
func (f *Formant) Reset() {
	for i := range f.attacks {
		f.attacks[i].Reset()
		f.decays[i].Reset()
	}
}

func (f *Formant) update(values [3]float64) {
	if f.valid && values == f.values {
		return
	}
	f.values, f.valid = values, true
	center, attack, decay := values[0], values[1], values[2]
	// both resonators share gain normalized to decay peak, so the
	// difference is enveloped
	gain := 2 * (1 - biquad.Radius(decay, f.sampleRate))
	a := biquad.Resonator(center, attack, gain, f.sampleRate)
	d := biquad.Resonator(center, decay, gain, f.sampleRate)
	for i := range f.attacks {
		f.attacks[i].Coefficients = a
		f.decays[i].Coefficients = d
	}
}
