package recipe_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/mock"
	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/recipe"
	"pipelined.dev/audiograph/signal"
	"pipelined.dev/audiograph/wav"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var format = audiograph.Format{
	SampleRate: 1000,
	Channels:   2,
	BlockSize:  100,
}

func newConductor(t *testing.T, name string, d audiograph.Device) *recipe.Conductor {
	t.Helper()
	c, err := recipe.New(name, signal.Buffer{}, d, format,
		audiograph.WithLogger(log.Discard()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, c.Close())
	})
	return c
}

func ids(l param.List) []string {
	var result []string
	for _, p := range l {
		result = append(result, p.ID)
	}
	return result
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{recipe.Balancer, recipe.Formant, recipe.LowShelf}, recipe.Names())
	for _, name := range recipe.Names() {
		assert.NotEmpty(t, recipe.Description(name))
	}
}

func TestUnknownRecipe(t *testing.T) {
	_, err := recipe.New("reverb", signal.Buffer{}, &mock.Device{}, format)
	assert.True(t, errors.Is(err, recipe.ErrUnknownRecipe))

	_, err = recipe.New(recipe.Balancer, signal.Buffer{}, &mock.Device{}, audiograph.Format{})
	assert.Error(t, err)
}

func TestParams(t *testing.T) {
	tests := map[string]struct {
		params []string
		values []float64
	}{
		recipe.Balancer: {
			params: []string{"frequency", "rate", "balance"},
			values: []float64{440, 1, 0.5},
		},
		recipe.Formant: {
			params: []string{"centerFrequency", "attackDuration", "decayDuration", "balance"},
			values: []float64{1000, 0.007, 0.04, 0.5},
		},
		recipe.LowShelf: {
			params: []string{"cutoffFrequency", "gain", "balance"},
			values: []float64{80, 0, 0.5},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := newConductor(t, name, &mock.Device{})
			assert.Equal(t, name, c.Name())
			assert.Equal(t, test.params, ids(c.Params()))
			for i, id := range test.params {
				v, err := c.Get(id)
				require.NoError(t, err)
				assert.InDelta(t, test.values[i], v, 1e-9, id)
			}
		})
	}
}

func TestSetErrors(t *testing.T) {
	c := newConductor(t, recipe.Balancer, &mock.Device{})

	_, err := c.Get("gain")
	assert.True(t, errors.Is(err, recipe.ErrUnknownParam))
	assert.True(t, errors.Is(c.Set("gain", 1), recipe.ErrUnknownParam))

	var rangeErr *param.RangeError
	assert.True(t, errors.As(c.SetTarget("rate", 10, 0), &rangeErr))
	assert.Equal(t, "rate", rangeErr.ID)
	v, err := c.Get("rate")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestFrequencyRamp(t *testing.T) {
	device := &mock.Device{}
	c := newConductor(t, recipe.Balancer, device)
	require.NoError(t, c.Start())
	assert.True(t, c.Player().Playing())

	require.NoError(t, c.Set("frequency", 880))
	device.Pull(200)
	v, err := c.Get("frequency")
	require.NoError(t, err)
	assert.Greater(t, v, 440.0)
	assert.Less(t, v, 880.0)

	device.Pull(300)
	v, err = c.Get("frequency")
	require.NoError(t, err)
	assert.InDelta(t, 880, v, 1e-9)

	// ramp override
	c.SetRamp(0)
	require.NoError(t, c.Set("frequency", 220))
	device.Pull(100)
	v, err = c.Get("frequency")
	require.NoError(t, err)
	assert.InDelta(t, 220, v, 1e-9)
}

func TestTransport(t *testing.T) {
	device := &mock.Device{}
	c := newConductor(t, recipe.Formant, device)
	require.NoError(t, c.Start())

	out := device.Pull(500)
	assert.Greater(t, peak(out), 0.0)

	require.NoError(t, c.Pause(context.Background()))
	device.Pull(100)
	assert.False(t, c.Player().Playing())

	require.NoError(t, c.Play(context.Background()))
	device.Pull(100)
	assert.True(t, c.Player().Playing())

	require.NoError(t, c.Stop())
	assert.False(t, c.Engine().Running())
}

func TestBalanceExtremes(t *testing.T) {
	device := &mock.Device{}
	c := newConductor(t, recipe.LowShelf, device)
	// boost of low frequencies makes wet signal louder
	require.NoError(t, c.Set("gain", 20))
	require.NoError(t, c.Set("balance", 0))
	require.NoError(t, c.Start())
	dry := device.Pull(2000)
	require.NoError(t, c.Stop())

	require.NoError(t, c.Set("balance", 1))
	require.NoError(t, c.Start())
	wet := device.Pull(2000)

	loop := recipe.Loop(format.SampleRate)
	assert.InDelta(t, peak(loop.Block), peak(dry), 1e-9)
	assert.Greater(t, energy(wet), energy(dry))
}

func TestRenderWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balancer.wav")
	device, err := wav.NewDevice(path, signal.BitDepth16, time.Second)
	require.NoError(t, err)
	c := newConductor(t, recipe.Balancer, device)
	require.NoError(t, c.Start())
	<-device.Done()
	require.NoError(t, device.Err())
	require.NoError(t, c.Close())

	b, err := wav.Load(path)
	require.NoError(t, err)
	assert.Equal(t, format.SampleRate, b.SampleRate)
	assert.Equal(t, format.Channels, b.NumChannels())
	assert.Equal(t, format.SampleRate, b.Size())
	assert.Greater(t, peak(b.Block), 0.0)
}

func TestLoop(t *testing.T) {
	assert.Equal(t, 0, recipe.Loop(0).Size())

	b := recipe.Loop(1000)
	assert.Equal(t, 1000, b.SampleRate)
	assert.Equal(t, 2, b.NumChannels())
	assert.Equal(t, 2000, b.Size())
	assert.Equal(t, 2*time.Second, b.Duration())
	p := peak(b.Block)
	assert.Greater(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)
}

func peak(b signal.Block) float64 {
	var p float64
	for c := range b {
		for _, v := range b[c] {
			p = math.Max(p, math.Abs(v))
		}
	}
	return p
}

func energy(b signal.Block) float64 {
	var e float64
	for c := range b {
		for _, v := range b[c] {
			e += v * v
		}
	}
	return e
}
