package audiograph

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/metric"
	"pipelined.dev/audiograph/mutable"
	"pipelined.dev/audiograph/signal"
)

// Engine drives graph processing from the device callback. Start, Stop,
// Close and staging of pushed mutations are serialized with a mutex which
// the processing side never takes. Push doesn't hold the mutex while it
// waits for the processing side.
type Engine struct {
	id        xid.ID
	graph     *Graph
	device    Device
	log       log.Logger
	component interface{}
	meter     *metric.Meter
	tolerance float64

	// control side
	mu     sync.Mutex
	state  state
	stream Stream
	pusher mutable.Pusher
	// closed when running engine stops
	stopped chan struct{}
	// pushes waiting for the processing side
	senders sync.WaitGroup

	// shared between sides
	rendering atomic.Bool
	active    atomic.Int32
	dest      mutable.Destination
	blocks    atomic.Int64
	samples   atomic.Int64
	misses    atomic.Int64
	faults    atomic.Int64
}

// Stats are processing counters of the engine.
type Stats struct {
	Blocks  int64
	Samples int64
	Misses  int64
	Faults  int64
}

// New creates engine for the graph and device. Device is not opened until
// Start is called.
func New(g *Graph, d Device, options ...Option) *Engine {
	e := Engine{
		id:        xid.New(),
		graph:     g,
		device:    d,
		component: "engine",
		tolerance: 1,
		pusher:    mutable.NewPusher(),
		dest:      mutable.NewDestination(),
	}
	for _, option := range options {
		option(&e)
	}
	if e.log == nil {
		e.log = log.GetLogger()
	}
	e.log = e.log.WithField("engine", e.id.String())
	e.meter = metric.NewMeter(e.component, g.format.SampleRate)
	return &e
}

// ID returns unique id of the engine.
func (e *Engine) ID() string {
	return e.id.String()
}

// Graph returns graph processed by the engine.
func (e *Engine) Graph() *Graph {
	return e.graph
}

// Running returns true if device renders blocks.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == running
}

// Start opens and starts the device. If device cannot be opened or
// started, error wraps ErrDeviceUnavailable and engine stays idle.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != idle {
		return fmt.Errorf("start %v engine: %w", e.state, ErrInvalidState)
	}
	if err := e.graph.Validate(); err != nil {
		e.log.Warn(fmt.Sprintf("graph is incomplete: %v", err))
	}
	if e.stream == nil {
		stream, err := e.device.Open(e.graph.format, e.render)
		if err != nil {
			return fmt.Errorf("open device: %w: %w", ErrDeviceUnavailable, err)
		}
		e.stream = stream
	}
	e.rendering.Store(true)
	if err := e.stream.Start(); err != nil {
		e.rendering.Store(false)
		errs := execErrors{fmt.Errorf("start device: %w: %w", ErrDeviceUnavailable, err)}
		if err := e.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close device: %w", err))
		}
		e.stream = nil
		return errs.ret()
	}
	e.stopped = make(chan struct{})
	e.state = running
	e.log.Debug(fmt.Sprintf("started with %v", e.graph.format))
	return nil
}

// Stop stops the device. After it returns no more blocks are processed.
// Parameter ramps are cancelled and DSP state of nodes is reset, but
// parameter values are retained. Stopping idle engine is a no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stop()
}

func (e *Engine) stop() error {
	if e.state != running {
		return nil
	}
	e.rendering.Store(false)
	err := e.stream.Stop()
	// in-flight block may still finish
	for e.active.Load() > 0 {
		runtime.Gosched()
	}
	close(e.stopped)
	e.senders.Wait()
	e.dest.Receive().ApplyAll()
	e.pusher.Detach().ApplyAll()
	e.graph.Reset()
	e.state = idle
	e.log.Debug("stopped")
	if err != nil {
		return fmt.Errorf("stop device: %w", err)
	}
	return nil
}

// Close stops the engine and closes the device. Closed engine cannot be
// started again.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == closed {
		return nil
	}
	var errs execErrors
	if err := e.stop(); err != nil {
		errs = append(errs, err)
	}
	if e.stream != nil {
		if err := e.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close device: %w", err))
		}
		e.stream = nil
	}
	e.state = closed
	e.log.Debug("closed")
	return errs.ret()
}

// Push stages mutations for the processing side. Running engine applies
// them before the next block; Push blocks until they are accepted, engine
// is stopped or ctx is done. Mutations that weren't accepted before ctx is
// done are applied with the next push or when engine stops. Idle engine
// applies them immediately.
func (e *Engine) Push(ctx context.Context, mutations ...mutable.Mutation) error {
	ms, stopped, err := e.stage(mutations)
	for err == nil && ms != nil {
		select {
		case e.dest <- ms:
			e.senders.Done()
			return nil
		case <-stopped:
			e.senders.Done()
			ms, stopped, err = e.resend(ms)
		case <-ctx.Done():
			e.senders.Done()
			e.keep(ms)
			return ctx.Err()
		}
	}
	return err
}

// stage applies mutations if engine is idle. Otherwise it returns set of
// mutations for the processing side and channel closed when engine stops.
func (e *Engine) stage(mutations []mutable.Mutation) (mutable.Mutations, <-chan struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == closed {
		return nil, nil, fmt.Errorf("push to closed engine: %w", ErrInvalidState)
	}
	for _, m := range mutations {
		if !m.IsMutable() {
			return nil, nil, fmt.Errorf("push immutable: %w", mutable.ErrUnknownContext)
		}
	}
	if e.state != running {
		// nothing drains the destination
		e.dest.Receive().ApplyAll()
		e.pusher.Detach().ApplyAll()
		for _, m := range mutations {
			m.Apply()
		}
		return nil, nil, nil
	}
	for _, m := range mutations {
		e.pusher.AddDestination(m.Context, e.dest)
	}
	if err := e.pusher.Put(mutations...); err != nil {
		return nil, nil, err
	}
	ms := e.pusher.Detach()
	if ms != nil {
		e.senders.Add(1)
	}
	return ms, e.stopped, nil
}

// resend applies mutations after engine was stopped. If engine was started
// again, mutations are sent to the new run.
func (e *Engine) resend(ms mutable.Mutations) (mutable.Mutations, <-chan struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case closed:
		return nil, nil, fmt.Errorf("push to closed engine: %w", ErrInvalidState)
	case running:
		e.senders.Add(1)
		return ms, e.stopped, nil
	}
	ms.ApplyAll()
	return nil, nil, nil
}

// keep returns mutations that weren't accepted by the processing side.
func (e *Engine) keep(ms mutable.Mutations) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case running:
		e.pusher.Return(e.dest, ms)
	case idle:
		ms.ApplyAll()
	}
}

// Stats returns processing counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Blocks:  e.blocks.Load(),
		Samples: e.samples.Load(),
		Misses:  e.misses.Load(),
		Faults:  e.faults.Load(),
	}
}

// render is called by the device.
func (e *Engine) render(out signal.Block) {
	e.active.Add(1)
	defer e.active.Add(-1)
	if !e.rendering.Load() {
		out.Zero()
		return
	}
	start := time.Now()
	size := out.Size()
	e.process(out)
	elapsed := time.Since(start)

	e.blocks.Add(1)
	e.samples.Add(int64(size))
	e.meter.Measure(int64(size), elapsed)
	if size == 0 {
		return
	}
	deadline := time.Duration(float64(signal.DurationOf(e.graph.format.SampleRate, int64(size))) * e.tolerance)
	if elapsed > deadline {
		e.misses.Add(1)
		e.meter.Miss()
	}
}

// process renders graph into out in chunks of graph block size. A panic
// silences the whole block.
func (e *Engine) process(out signal.Block) {
	defer func() {
		if r := recover(); r != nil {
			out.Zero()
			e.faults.Add(1)
			e.meter.Fault()
		}
	}()
	if ms := e.dest.Receive(); ms != nil {
		ms.ApplyAll()
	}
	size := out.Size()
	for offset := 0; offset < size; offset += e.graph.format.BlockSize {
		n := min(e.graph.format.BlockSize, size-offset)
		result := e.graph.Process(n)
		for c := range out {
			if c < len(result) {
				copy(out[c][offset:offset+n], result[c])
			} else {
				clear(out[c][offset : offset+n])
			}
		}
	}
}
