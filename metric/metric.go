// Package metric publishes processing counters with expvar. Counters are
// aggregated per component type, so all engines running the same recipe
// share the same set of counters.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"pipelined.dev/audiograph/signal"
)

const componentsLabel = "audiograph.components"

const (
	// BlockCounter measures number of processed blocks.
	BlockCounter = "Blocks"
	// SampleCounter measures number of samples.
	SampleCounter = "Samples"
	// LatencyCounter measures how long the latest block took to process.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of processed signal.
	DurationCounter = "Duration"
	// MissCounter counts blocks that took longer than their period.
	MissCounter = "Misses"
	// FaultCounter counts blocks that failed and were replaced with silence.
	FaultCounter = "Faults"
	// ComponentCounter counts number of meters.
	ComponentCounter = "Components"
)

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		BlockCounter,
		SampleCounter,
		LatencyCounter,
		DurationCounter,
		MissCounter,
		FaultCounter,
		ComponentCounter,
	}
)

// Get metrics values for provided component type.
func Get(component interface{}) map[string]string {
	return getCounters(getType(component))
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	components.Lock()
	defer components.Unlock()
	for component := range components.m {
		m[component] = getCounters(component)
	}
	return m
}

func getCounters(componentType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(componentType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// Meter captures counters of a single running component. Its methods
// don't lock and can be called from the processing goroutine.
type Meter struct {
	metric
	sampleRate int

	// last block size and its duration are cached
	blockSize     atomic.Int64
	blockDuration atomic.Int64
}

// NewMeter creates new meter for the component. Component's type is used
// as a key for counters.
func NewMeter(component interface{}, sampleRate int) *Meter {
	metric := components.get(getType(component))
	metric.components.Add(1)
	return &Meter{
		metric:     metric,
		sampleRate: sampleRate,
	}
}

// Measure captures processed block of size samples that took elapsed to
// process.
func (m *Meter) Measure(size int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.latency.set(elapsed)
	m.blocks.Add(1)
	m.samples.Add(size)
	// recalculate block duration only when block size has changed
	if m.blockSize.Load() != size {
		m.blockSize.Store(size)
		m.blockDuration.Store(int64(signal.DurationOf(m.sampleRate, size)))
	}
	m.duration.add(time.Duration(m.blockDuration.Load()))
}

// Miss captures a deadline miss.
func (m *Meter) Miss() {
	if m == nil {
		return
	}
	m.misses.Add(1)
}

// Fault captures a failed block.
func (m *Meter) Fault() {
	if m == nil {
		return
	}
	m.faults.Add(1)
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(componentType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[componentType]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(componentType)
	m.m[componentType] = metric
	return metric
}

type metric struct {
	components *expvar.Int
	blocks     *expvar.Int
	samples    *expvar.Int
	misses     *expvar.Int
	faults     *expvar.Int
	latency    *duration
	duration   *duration
}

func newMetric(componentType string) metric {
	m := metric{
		components: expvar.NewInt(key(componentType, ComponentCounter)),
		blocks:     expvar.NewInt(key(componentType, BlockCounter)),
		samples:    expvar.NewInt(key(componentType, SampleCounter)),
		misses:     expvar.NewInt(key(componentType, MissCounter)),
		faults:     expvar.NewInt(key(componentType, FaultCounter)),
		latency:    &duration{},
		duration:   &duration{},
	}
	expvar.Publish(key(componentType, LatencyCounter), m.latency)
	expvar.Publish(key(componentType, DurationCounter), m.duration)
	return m
}

func key(componentType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, componentType, counter)
}

func getType(component interface{}) string {
	if s, ok := component.(string); ok {
		return s
	}
	rv := reflect.ValueOf(component)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d atomic.Int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(v.d.Load()).String())
}

func (v *duration) add(delta time.Duration) {
	v.d.Add(int64(delta))
}

func (v *duration) set(value time.Duration) {
	v.d.Store(int64(value))
}
