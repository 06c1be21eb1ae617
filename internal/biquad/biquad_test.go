package biquad_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/audiograph/internal/biquad"
)

const sampleRate = 48000

// gainAt returns magnitude of steady-state response to a sine at freq.
func gainAt(c biquad.Coefficients, freq float64) float64 {
	s := biquad.Section{Coefficients: c}
	n := sampleRate
	var peak float64
	for i := 0; i < n; i++ {
		y := s.ProcessSample(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
		if i > n/2 {
			peak = math.Max(peak, math.Abs(y))
		}
	}
	return peak
}

func TestLowShelf(t *testing.T) {
	tests := []struct {
		gainDB float64
	}{
		{gainDB: 12},
		{gainDB: -12},
		{gainDB: 0},
	}
	for _, test := range tests {
		c := biquad.LowShelf(80, test.gainDB, 1/math.Sqrt2, sampleRate)
		expected := math.Pow(10, test.gainDB/20)
		assert.InDelta(t, expected, gainAt(c, 10), expected*0.05, "low band %v dB", test.gainDB)
		assert.InDelta(t, 1, gainAt(c, 5000), 0.02, "high band %v dB", test.gainDB)
	}
}

func TestLowShelfInvalidFrequency(t *testing.T) {
	c := biquad.LowShelf(sampleRate, 12, 1, sampleRate)
	s := biquad.Section{Coefficients: c}
	assert.Equal(t, 0.5, s.ProcessSample(0.5))
}

func TestResonator(t *testing.T) {
	c := biquad.Resonator(1000, 0.01, 1, sampleRate)
	s := biquad.Section{Coefficients: c}
	// impulse response decays
	first := math.Abs(s.ProcessSample(1))
	var tail float64
	for i := 0; i < sampleRate/10; i++ {
		tail = math.Abs(s.ProcessSample(0))
	}
	assert.Less(t, tail, first*1e-3)

	s.Reset()
	assert.Equal(t, 0.0, s.ProcessSample(0))

	silent := biquad.Section{Coefficients: biquad.Resonator(1000, 0, 1, sampleRate)}
	assert.Equal(t, 0.0, silent.ProcessSample(1))
}

func TestRadius(t *testing.T) {
	assert.Equal(t, 0.0, biquad.Radius(0, sampleRate))
	assert.InDelta(t, math.Exp(-1), math.Pow(biquad.Radius(0.01, sampleRate), 480), 1e-12)
}
