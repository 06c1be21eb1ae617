package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/config"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/mock"
	"pipelined.dev/audiograph/mp3"
	"pipelined.dev/audiograph/recipe"
	"pipelined.dev/audiograph/signal"
	"pipelined.dev/audiograph/wav"
)

func init() {
	logger = log.Discard()
}

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestInit(t *testing.T) {
	// check if commands are registered
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, name := range []string{"list", "devices", "play", "render"} {
		assert.Contains(t, names, name)
	}
}

func TestList(t *testing.T) {
	out := runCmd(t, "list")
	for _, name := range recipe.Names() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "centerFrequency")
	assert.Contains(t, out, "cutoffFrequency")
}

func TestRender(t *testing.T) {
	wavPath := filepath.Join(t.TempDir(), "formant.wav")
	runCmd(t, "render", "-r", recipe.Formant, "-o", wavPath, "--duration", "250ms", "--sample-rate", "8000", "-p", "balance=1")
	b, err := wav.Load(wavPath)
	require.NoError(t, err)
	assert.Equal(t, 8000, b.SampleRate)
	assert.Equal(t, 2000, b.Size())

	mp3Path := filepath.Join(t.TempDir(), "lowshelf.mp3")
	runCmd(t, "render", "-r", recipe.LowShelf, "-o", mp3Path, "--duration", "1s", "--sample-rate", "44100", "-p", "balance=0.5")
	b, err = mp3.Load(mp3Path)
	require.NoError(t, err)
	assert.Equal(t, 44100, b.SampleRate)
	assert.Greater(t, b.Size(), 0)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"frequency=880", "balance=0.25"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"frequency": 880, "balance": 0.25}, params)

	for _, invalid := range []string{"frequency", "=1", "frequency=high"} {
		_, err := parseParams([]string{invalid})
		assert.Error(t, err, invalid)
	}
}

func TestFileDevice(t *testing.T) {
	assert.Equal(t, config.DeviceMp3, fileDevice("out.MP3"))
	assert.Equal(t, config.DeviceWav, fileDevice("out.wav"))
	assert.Equal(t, config.DeviceWav, fileDevice("out"))
}

func TestNewDevice(t *testing.T) {
	c := config.Default()
	c.Device = "jack"
	_, err := newDevice(c)
	assert.Error(t, err)

	c.Device = config.DeviceWav
	c.BitDepth = 8
	_, err = newDevice(c)
	assert.Error(t, err)

	c.Device = config.DeviceClock
	d, err := newDevice(c)
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestControl(t *testing.T) {
	device := &mock.Device{}
	conductor, err := recipe.New(recipe.Balancer, signal.Buffer{}, device,
		audiograph.Format{SampleRate: 1000, Channels: 2, BlockSize: 100},
		audiograph.WithLogger(log.Discard()),
	)
	require.NoError(t, err)
	defer conductor.Close()
	require.NoError(t, conductor.Start())

	var out bytes.Buffer
	ctx := context.Background()
	lines := make(chan string, 10)
	for _, line := range []string{
		"rate 2",
		"frequency 220 0s",
		"balance 5",
		"pause",
		"params",
	} {
		lines <- line
	}
	close(lines)
	require.NoError(t, control(ctx, conductor, lines, &out))
	device.Pull(100)

	rate, err := conductor.Get("rate")
	require.NoError(t, err)
	assert.Equal(t, 2.0, rate)
	frequency, err := conductor.Get("frequency")
	require.NoError(t, err)
	assert.Equal(t, 220.0, frequency)
	assert.False(t, conductor.Player().Playing())
	assert.Equal(t, 1, strings.Count(out.String(), "error:"))

	lines = make(chan string, 1)
	lines <- "quit"
	assert.ErrorIs(t, control(ctx, conductor, lines, &out), errQuit)
}
