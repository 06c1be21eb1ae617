// Package mock provides mocks for nodes and devices and allows to execute
// integration tests.
package mock

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/signal"
)

// ErrPanic is the value mocks panic with.
var ErrPanic = errors.New("mock panic")

// Source mocks a source node. It outputs value of its "value" parameter.
type Source struct {
	counter
	Hooks
	Value float64
	value *param.Parameter
}

// Describe implements audiograph.Node.
func (m *Source) Describe() audiograph.Descriptor {
	if m.value == nil {
		m.value = param.Must(param.Config{
			ID:      "value",
			Range:   param.Range{Min: -1, Max: 1},
			Default: m.Value,
		})
	}
	return audiograph.Descriptor{
		Name:   "mock.Source",
		Params: param.List{m.value},
	}
}

// Prepare implements audiograph.Node.
func (m *Source) Prepare(audiograph.Format) error {
	m.Prepared = true
	return m.ErrorOnPrepare
}

// Process implements audiograph.Node.
func (m *Source) Process(_ [][]signal.Block, out signal.Block) {
	m.call()
	for i := 0; i < out.Size(); i++ {
		v := m.value.Next()
		for c := range out {
			out[c][i] = v
		}
	}
	m.advance(out.Size())
}

// Reset implements audiograph.Node.
func (m *Source) Reset() {
	m.resets.Add(1)
}

// Processor mocks a processing node. It sums all inputs of all sockets.
type Processor struct {
	counter
	Hooks
	Inputs []audiograph.Socket
}

// Describe implements audiograph.Node.
func (m *Processor) Describe() audiograph.Descriptor {
	inputs := m.Inputs
	if inputs == nil {
		inputs = []audiograph.Socket{{Name: "input", Required: true}}
	}
	return audiograph.Descriptor{
		Name:   "mock.Processor",
		Inputs: inputs,
	}
}

// Prepare implements audiograph.Node.
func (m *Processor) Prepare(audiograph.Format) error {
	m.Prepared = true
	return m.ErrorOnPrepare
}

// Process implements audiograph.Node.
func (m *Processor) Process(in [][]signal.Block, out signal.Block) {
	m.call()
	out.Zero()
	for _, edges := range in {
		for _, b := range edges {
			for c := range out {
				for i := range out[c] {
					out[c][i] += b[c][i]
				}
			}
		}
	}
	m.advance(out.Size())
}

// Reset implements audiograph.Node.
func (m *Processor) Reset() {
	m.resets.Add(1)
}

// Hooks allows to mock failures and delays of nodes.
type Hooks struct {
	Prepared       bool
	ErrorOnPrepare error
	// Delay is slept on every process call.
	Delay time.Duration
	// Panic makes every process call panic with ErrPanic.
	Panic atomic.Bool
}

type counter struct {
	calls   atomic.Int64
	samples atomic.Int64
	resets  atomic.Int64
}

func (c *counter) advance(size int) {
	c.calls.Add(1)
	c.samples.Add(int64(size))
}

// Count returns number of processed blocks and samples.
func (c *counter) Count() (int64, int64) {
	return c.calls.Load(), c.samples.Load()
}

// Resets returns number of reset calls.
func (c *counter) Resets() int64 {
	return c.resets.Load()
}

// call executes hooks of the node.
func (h *Hooks) call() {
	if h.Delay > 0 {
		time.Sleep(h.Delay)
	}
	if h.Panic.Load() {
		panic(ErrPanic)
	}
}

// Device mocks a device. Blocks are rendered manually with Pull.
type Device struct {
	ErrorOnOpen  error
	ErrorOnStart error
	ErrorOnStop  error
	ErrorOnClose error

	mu      sync.Mutex
	render  audiograph.RenderFunc
	format  audiograph.Format
	started bool
	opened  int
	closed  int
}

// Open implements audiograph.Device.
func (d *Device) Open(f audiograph.Format, render audiograph.RenderFunc) (audiograph.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ErrorOnOpen != nil {
		return nil, d.ErrorOnOpen
	}
	d.opened++
	d.format = f
	d.render = render
	return stream{d}, nil
}

// Pull renders a block of n samples. Nil is returned if device is not
// started.
func (d *Device) Pull(n int) signal.Block {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil
	}
	out := signal.Alloc(d.format.Channels, n)
	d.render(out)
	return out
}

// Started returns true if stream is started.
func (d *Device) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Count returns number of open and close calls.
func (d *Device) Count() (opened, closed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened, d.closed
}

type stream struct {
	*Device
}

func (s stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrorOnStart != nil {
		return s.ErrorOnStart
	}
	s.started = true
	return nil
}

func (s stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return s.ErrorOnStop
}

func (s stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.closed++
	return s.ErrorOnClose
}
