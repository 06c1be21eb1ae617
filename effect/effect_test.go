package effect_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/effect"
	"pipelined.dev/audiograph/signal"
)

var format = audiograph.Format{
	SampleRate: 44100,
	Channels:   2,
	BlockSize:  256,
}

func prepare(t *testing.T, n audiograph.Node) {
	t.Helper()
	require.NoError(t, n.Prepare(format))
	for _, p := range n.Describe().Params {
		p.Prepare(format.SampleRate)
	}
}

func sine(freq, amplitude float64, size int) signal.Block {
	b := signal.Alloc(format.Channels, size)
	for c := range b {
		for i := range b[c] {
			b[c][i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(format.SampleRate))
		}
	}
	return b
}

func rms(b signal.Block) float64 {
	var sum float64
	for c := range b {
		for _, v := range b[c] {
			sum += v * v
		}
	}
	return math.Sqrt(sum / float64(b.NumChannels()*b.Size()))
}

// process runs node over inputs split into blocks.
func process(n audiograph.Node, inputs ...signal.Block) signal.Block {
	var result signal.Block
	for offset := 0; offset < inputs[0].Size(); offset += format.BlockSize {
		for _, p := range n.Describe().Params {
			p.Ingest()
		}
		in := make([][]signal.Block, len(inputs))
		for i := range inputs {
			in[i] = []signal.Block{inputs[i].Slice(offset, format.BlockSize)}
		}
		out := signal.Alloc(format.Channels, in[0][0].Size())
		n.Process(in, out)
		result = result.Append(out)
	}
	return result
}

func TestFader(t *testing.T) {
	f := effect.NewFader()
	prepare(t, f)
	input := sine(440, 0.5, 100)
	assert.Equal(t, input, process(f, input))

	gain, ok := f.Describe().Params.ByID("gain")
	require.True(t, ok)
	require.NoError(t, gain.Set(2))
	out := process(f, input)
	assert.InDelta(t, 2*rms(input), rms(out), 1e-12)

	require.NoError(t, gain.Set(0))
	assert.Equal(t, signal.Alloc(format.Channels, 100), process(f, input))
	assert.Error(t, gain.Set(5))
}

func TestBalancer(t *testing.T) {
	tests := []struct {
		input      float64
		comparator float64
	}{
		{input: 0.1, comparator: 0.8},
		{input: 0.9, comparator: 0.2},
		{input: 0.5, comparator: 0.5},
	}
	size := format.SampleRate
	for _, test := range tests {
		b := effect.NewBalancer()
		prepare(t, b)
		out := process(b, sine(440, test.input, size), sine(1000, test.comparator, size))
		tail := out.Slice(size/2, size/2)
		expected := test.comparator / math.Sqrt2
		assert.InDelta(t, expected, rms(tail), expected*0.05, "%v", test)
	}
}

func TestBalancerSilentInput(t *testing.T) {
	b := effect.NewBalancer()
	prepare(t, b)
	size := format.BlockSize
	out := process(b, signal.Alloc(format.Channels, size), sine(1000, 1, size))
	assert.Equal(t, signal.Alloc(format.Channels, size), out)

	// silent comparator silences the output
	out = process(b, sine(440, 1, size*100), signal.Alloc(format.Channels, size*100))
	assert.Less(t, rms(out.Slice(size*99, size)), 1e-3)
}
