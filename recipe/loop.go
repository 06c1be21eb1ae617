package recipe

import (
	"math"

	"pipelined.dev/audiograph/signal"
)

// loop is a bar of plucked notes at 120 bpm.
var loop = struct {
	notes []float64 // Hz, one per beat
	beat  float64   // seconds
	decay float64   // seconds
	level float64
}{
	notes: []float64{220, 277.18, 329.63, 440},
	beat:  0.5,
	decay: 0.12,
	level: 0.5,
}

// Loop synthesizes stereo buffer used when no source file is provided.
func Loop(sampleRate int) signal.Buffer {
	if sampleRate <= 0 {
		return signal.Buffer{}
	}
	beat := int(loop.beat * float64(sampleRate))
	b := signal.Alloc(2, beat*len(loop.notes))
	for n, freq := range loop.notes {
		w := 2 * math.Pi * freq / float64(sampleRate)
		for i := 0; i < beat; i++ {
			t := float64(i) / float64(sampleRate)
			v := loop.level * math.Exp(-t/loop.decay) * (math.Sin(w*float64(i)) + 0.3*math.Sin(2*w*float64(i)))
			b[0][n*beat+i] = v
			b[1][n*beat+i] = v
		}
	}
	return signal.Buffer{Block: b, SampleRate: sampleRate}
}
