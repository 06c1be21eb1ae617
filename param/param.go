// Package param implements node parameters with sample-accurate automation.
//
// A Parameter is shared between two execution contexts. The control context
// (UI, recipes, CLI) calls SetTarget and Get. The processing context calls
// Ingest once per block and Next or Fill for every processed sample. The
// only state both contexts touch is a pair of atomic slots: the latest
// target command and the published current value. No locks are taken.
package param

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"pipelined.dev/audiograph/signal"
)

// Curve defines how parameter moves between two values. It's used both
// for ramps and for normalized (knob) mapping.
type Curve int

const (
	// Linear interpolation.
	Linear Curve = iota
	// Logarithmic interpolation is geometric. It requires strictly positive
	// range and suits frequencies and rates.
	Logarithmic
)

func (c Curve) String() string {
	switch c {
	case Linear:
		return "linear"
	case Logarithmic:
		return "logarithmic"
	}
	return fmt.Sprintf("Curve(%d)", int(c))
}

// Type is a semantic type of parameter.
type Type int

// Semantic types of parameters.
const (
	Generic Type = iota
	Frequency
	Gain
	Ratio
	Balance
	Time
)

// Range is a closed interval of valid parameter values.
type Range struct {
	Min, Max float64
}

// Contains returns true if v is within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

type (
	// Config describes parameter.
	Config struct {
		ID      string
		Name    string
		Unit    string
		Type    Type
		Range   Range
		Default float64
		Curve   Curve
	}

	// Parameter is a single automatable value of the node.
	Parameter struct {
		Config
		sampleRate int

		// shared between contexts
		latest    atomic.Pointer[command]
		published atomic.Uint64

		// owned by processing context
		ingested *command
		ramp     ramp
	}

	command struct {
		value    float64
		duration time.Duration
	}
)

// New validates config and returns new parameter set to default value.
func New(c Config) (*Parameter, error) {
	if c.Range.Min > c.Range.Max || math.IsNaN(c.Range.Min) || math.IsNaN(c.Range.Max) {
		return nil, fmt.Errorf("parameter %s: invalid range %v", c.ID, c.Range)
	}
	if c.Curve == Logarithmic && c.Range.Min <= 0 {
		return nil, fmt.Errorf("parameter %s: logarithmic curve requires positive range, got %v", c.ID, c.Range)
	}
	if !c.Range.Contains(c.Default) {
		return nil, &RangeError{ID: c.ID, Value: c.Default, Range: c.Range}
	}
	p := &Parameter{Config: c}
	p.ramp.curve = c.Curve
	p.latest.Store(p.settle(c.Default))
	return p, nil
}

// Must is a helper that wraps New and panics if config is invalid. It's
// intended for node constructors with static configs.
func Must(c Config) *Parameter {
	p, err := New(c)
	if err != nil {
		panic(err)
	}
	return p
}

// Prepare sets the sample rate used to convert ramp durations into
// samples. Must not be called while the parameter is processed.
func (p *Parameter) Prepare(sampleRate int) {
	p.sampleRate = sampleRate
}

// SetTarget stages a new target value. The value is reached exactly after
// d of processed audio. Zero duration applies value at the next processed
// sample. A new call cancels the ramp in flight and restarts from the
// current value. Values out of range are rejected with *RangeError and the
// previous target is retained.
func (p *Parameter) SetTarget(value float64, d time.Duration) error {
	if math.IsNaN(value) || !p.Range.Contains(value) {
		return &RangeError{ID: p.ID, Value: value, Range: p.Range}
	}
	if d < 0 {
		d = 0
	}
	p.latest.Store(&command{value: value, duration: d})
	return nil
}

// Set is a shortcut for SetTarget with zero duration.
func (p *Parameter) Set(value float64) error {
	return p.SetTarget(value, 0)
}

// Get returns the latest value published by the processing context.
func (p *Parameter) Get() float64 {
	return math.Float64frombits(p.published.Load())
}

// Target returns the latest accepted target value.
func (p *Parameter) Target() float64 {
	return p.latest.Load().value
}

// Normalized maps value into [0, 1] along the parameter curve.
func (p *Parameter) Normalized(v float64) float64 {
	if p.Range.Max == p.Range.Min {
		return 0
	}
	var n float64
	switch p.Curve {
	case Logarithmic:
		n = math.Log(v/p.Range.Min) / math.Log(p.Range.Max/p.Range.Min)
	default:
		n = (v - p.Range.Min) / (p.Range.Max - p.Range.Min)
	}
	return math.Max(0, math.Min(1, n))
}

// FromNormalized maps position in [0, 1] to the value along the parameter
// curve.
func (p *Parameter) FromNormalized(n float64) float64 {
	n = math.Max(0, math.Min(1, n))
	switch p.Curve {
	case Logarithmic:
		return p.Range.Min * math.Pow(p.Range.Max/p.Range.Min, n)
	default:
		return p.Range.Min + n*(p.Range.Max-p.Range.Min)
	}
}

// Ingest picks up the staged target. It's called by the processing
// context once per block before the first Next.
func (p *Parameter) Ingest() {
	c := p.latest.Load()
	if c == p.ingested {
		return
	}
	p.ingested = c
	n := 0
	if p.sampleRate > 0 {
		n = signal.SamplesIn(p.sampleRate, c.duration)
	}
	p.ramp.begin(c.value, n)
	p.published.Store(math.Float64bits(p.ramp.current))
}

// Next advances the parameter by one sample and returns its value.
func (p *Parameter) Next() float64 {
	if !p.ramp.active() {
		return p.ramp.current
	}
	v := p.ramp.next()
	p.published.Store(math.Float64bits(v))
	return v
}

// Fill advances the parameter by len(buf) samples and writes values into
// buf.
func (p *Parameter) Fill(buf []float64) {
	if !p.ramp.active() {
		v := p.ramp.current
		for i := range buf {
			buf[i] = v
		}
		return
	}
	for i := range buf {
		buf[i] = p.ramp.next()
	}
	p.published.Store(math.Float64bits(p.ramp.current))
}

// Value returns the current processing value without advancing.
func (p *Parameter) Value() float64 {
	return p.ramp.current
}

// Ramping returns true if ramp is in flight.
func (p *Parameter) Ramping() bool {
	return p.ramp.active()
}

// Cancel drops the ramp in flight and staged ramps. Staged immediate
// values are applied. The current value is retained. Must not be called
// while the parameter is processed. Target set concurrently with Cancel
// stays staged for the next block.
func (p *Parameter) Cancel() {
	c := p.latest.Load()
	v := p.ramp.current
	if c != p.ingested && c.duration == 0 {
		v = c.value
	}
	settled := p.settle(v)
	p.latest.CompareAndSwap(c, settled)
}

// settle drops ramp in flight and makes v the current value. Returned
// command is ingested but not staged.
func (p *Parameter) settle(v float64) *command {
	c := &command{value: v}
	p.ramp.reset(v)
	p.ingested = c
	p.published.Store(math.Float64bits(v))
	return c
}

// RangeError is returned when parameter value is out of declared bounds.
type RangeError struct {
	ID    string
	Value float64
	Range Range
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("parameter %s: value %g is out of range %v", e.ID, e.Value, e.Range)
}

// List is an ordered list of parameters.
type List []*Parameter

// ByID returns parameter with provided id.
func (l List) ByID(id string) (*Parameter, bool) {
	for _, p := range l {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}
