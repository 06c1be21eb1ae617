package metric_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/audiograph/metric"
)

func TestMeter(t *testing.T) {
	sampleRate := 44100
	pint := 1
	// test cases
	var tests = []struct {
		component          interface{}
		routines           int
		blocks             int
		blockSize          int64
		expectedSamples    string
		expectedComponents string
	}{
		{
			component:          int(1),
			routines:           2,
			blocks:             10,
			blockSize:          100,
			expectedSamples:    "2000",
			expectedComponents: "2",
		},
		{
			component:          &pint,
			routines:           2,
			blocks:             10,
			blockSize:          100,
			expectedSamples:    "4000",
			expectedComponents: "4",
		},
		{
			component:          "recipe.test",
			routines:           1,
			blocks:             3,
			blockSize:          10,
			expectedSamples:    "30",
			expectedComponents: "1",
		},
	}
	// function to test meter.
	testFn := func(m *metric.Meter, wg *sync.WaitGroup, blocks int, blockSize int64) {
		for i := 0; i < blocks; i++ {
			m.Measure(blockSize, time.Millisecond)
		}
		wg.Done()
	}

	for _, c := range tests {
		wg := &sync.WaitGroup{}
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go testFn(metric.NewMeter(c.component, sampleRate), wg, c.blocks, c.blockSize)
		}
		// check if no data race.
		wg.Wait()
		values := metric.Get(c.component)
		assert.Equal(t, c.expectedSamples, values[metric.SampleCounter])
		assert.Equal(t, c.expectedComponents, values[metric.ComponentCounter])
		assert.Equal(t, `"1ms"`, values[metric.LatencyCounter])
	}
}

func TestMissAndFault(t *testing.T) {
	m := metric.NewMeter("recipe.faulty", 48000)
	m.Miss()
	m.Miss()
	m.Fault()
	values := metric.Get("recipe.faulty")
	assert.Equal(t, "2", values[metric.MissCounter])
	assert.Equal(t, "1", values[metric.FaultCounter])
	assert.Contains(t, metric.GetAll(), "recipe.faulty")

	// nil meter is a no-op
	var nilMeter *metric.Meter
	nilMeter.Measure(10, time.Second)
	nilMeter.Miss()
	nilMeter.Fault()
}
