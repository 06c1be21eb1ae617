package mp3_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/mp3"
	"pipelined.dev/audiograph/signal"
	"pipelined.dev/audiograph/source"
)

func TestRenderAndLoad(t *testing.T) {
	format := audiograph.Format{
		SampleRate: 44100,
		Channels:   2,
		BlockSize:  512,
	}
	path := filepath.Join(t.TempDir(), "out.mp3")
	d := mp3.NewDevice(path, mp3.DefaultEncoding, time.Second)

	osc := source.NewOscillator(source.Sine)
	g := audiograph.NewGraph(format)
	require.NoError(t, g.AddNode(osc))
	require.NoError(t, g.SetOutput(osc))
	e := audiograph.New(g, d, audiograph.WithLogger(log.Discard()))
	require.NoError(t, e.Start())
	<-d.Done()
	require.NoError(t, d.Err())
	require.NoError(t, e.Close())

	b, err := mp3.Load(path)
	require.NoError(t, err)
	assert.Equal(t, format.SampleRate, b.SampleRate)
	assert.Equal(t, 2, b.NumChannels())
	assert.GreaterOrEqual(t, b.Size(), format.SampleRate*9/10)
}

func TestLoadInvalid(t *testing.T) {
	_, err := mp3.Load(filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "invalid.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not an mp3 file"), 0o644))
	_, err = mp3.Load(path)
	assert.Error(t, err)
}

func TestTooManyChannels(t *testing.T) {
	d := mp3.NewDevice(filepath.Join(t.TempDir(), "out.mp3"), mp3.DefaultEncoding, time.Second)
	_, err := d.Open(audiograph.Format{SampleRate: 44100, Channels: 6, BlockSize: 64}, func(b signal.Block) {})
	assert.Error(t, err)
}
