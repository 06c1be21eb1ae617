// Package clock provides a device that renders blocks from its own
// goroutine. It drives headless engines and file writers.
package clock

import (
	"errors"
	"sync"
	"time"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/signal"
)

// Sink consumes rendered blocks.
type Sink interface {
	Write(signal.Block) error
	Close() error
}

// SinkAllocatorFunc creates sink for the opened device.
type SinkAllocatorFunc func(audiograph.Format) (Sink, error)

// ErrDone is returned when device that already rendered its duration is
// started again.
var ErrDone = errors.New("duration rendered")

// Device renders blocks into sink. Realtime device renders a block per
// block period, otherwise blocks are rendered as fast as possible.
type Device struct {
	Realtime bool
	// Duration limits rendered signal. Zero means no limit.
	Duration time.Duration
	// Sink is allocated when device is opened. Nil sink discards blocks.
	Sink SinkAllocatorFunc

	once     sync.Once
	finished sync.Once
	done     chan struct{}
	mu       sync.Mutex
	err      error
}

var _ audiograph.Device = (*Device)(nil)

// Done is closed when duration is rendered or sink failed.
func (d *Device) Done() <-chan struct{} {
	d.once.Do(func() {
		d.done = make(chan struct{})
	})
	return d.done
}

// Err returns error of the sink.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Device) finish(err error) {
	d.finished.Do(func() {
		d.mu.Lock()
		d.err = err
		d.mu.Unlock()
		d.Done()
		close(d.done)
	})
}

// Open implements audiograph.Device.
func (d *Device) Open(f audiograph.Format, render audiograph.RenderFunc) (audiograph.Stream, error) {
	var sink Sink = discard{}
	if d.Sink != nil {
		var err error
		if sink, err = d.Sink(f); err != nil {
			return nil, err
		}
	}
	s := stream{
		device: d,
		format: f,
		render: render,
		sink:   sink,
		block:  signal.Alloc(f.Channels, f.BlockSize),
		view:   make(signal.Block, f.Channels),
	}
	if d.Duration > 0 {
		s.limit = int64(signal.SamplesIn(f.SampleRate, d.Duration))
	}
	return &s, nil
}

type stream struct {
	device *Device
	format audiograph.Format
	render audiograph.RenderFunc
	sink   Sink
	block  signal.Block
	view   signal.Block

	limit    int64 // zero is unlimited
	rendered int64 // owned by the goroutine

	cancel chan struct{}
	wg     sync.WaitGroup
}

// Start launches rendering goroutine.
func (s *stream) Start() error {
	if s.cancel != nil {
		return nil
	}
	if err := s.device.Err(); err != nil {
		return err
	}
	if s.limit > 0 && s.rendered >= s.limit {
		return ErrDone
	}
	s.cancel = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.cancel)
	return nil
}

// Stop stops rendering goroutine and waits for it to return.
func (s *stream) Stop() error {
	if s.cancel == nil {
		return nil
	}
	close(s.cancel)
	s.wg.Wait()
	s.cancel = nil
	return nil
}

// Close stops rendering and closes the sink.
func (s *stream) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}
	return s.sink.Close()
}

func (s *stream) run(cancel <-chan struct{}) {
	defer s.wg.Done()
	var tick <-chan time.Time
	if s.device.Realtime {
		ticker := time.NewTicker(signal.DurationOf(s.format.SampleRate, int64(s.format.BlockSize)))
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-cancel:
			return
		default:
		}
		if tick != nil {
			select {
			case <-cancel:
				return
			case <-tick:
			}
		}

		n := int64(s.format.BlockSize)
		if s.limit > 0 && s.limit-s.rendered < n {
			n = s.limit - s.rendered
		}
		s.view.Reslice(s.block, int(n))
		s.render(s.view)
		if err := s.sink.Write(s.view); err != nil {
			s.device.finish(err)
			return
		}
		s.rendered += n
		if s.limit > 0 && s.rendered >= s.limit {
			s.device.finish(nil)
			return
		}
	}
}

type discard struct{}

func (discard) Write(signal.Block) error { return nil }

func (discard) Close() error { return nil }
