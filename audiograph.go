package audiograph

import (
	"fmt"

	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/signal"
)

type (
	// Format of the signal processed by the graph. Every block has Channels
	// rows of at most BlockSize samples.
	Format struct {
		SampleRate int
		Channels   int
		BlockSize  int
	}

	// Node is a unit of audio processing. Graph calls Prepare once when
	// node is added. Process and Reset are never called concurrently.
	Node interface {
		Describe() Descriptor
		Prepare(Format) error
		// Process reads inputs and overwrites every sample of out. First
		// dimension of in is a socket, second is an edge connected to that
		// socket. Input blocks must not be modified.
		Process(in [][]signal.Block, out signal.Block)
		// Reset clears DSP state such as filter memory, phase or playhead.
		Reset()
	}

	// Descriptor describes node's sockets and parameters.
	Descriptor struct {
		Name   string
		Inputs []Socket
		Params param.List
	}

	// Socket is an input of the node.
	Socket struct {
		Name     string
		Required bool
		Multiple bool
	}

	// RenderFunc fills out block with the next portion of signal. Device
	// calls it from its processing goroutine.
	RenderFunc func(out signal.Block)

	// Device is a destination of the signal.
	Device interface {
		Open(Format, RenderFunc) (Stream, error)
	}

	// Stream is an opened device.
	Stream interface {
		Start() error
		Stop() error
		Close() error
	}
)

// Validate returns error if format cannot be processed.
func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 || f.BlockSize <= 0 {
		return fmt.Errorf("invalid format: %v", f)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz %dch %d samples", f.SampleRate, f.Channels, f.BlockSize)
}

// SocketByName returns index of the socket with provided name or -1.
func (d Descriptor) SocketByName(name string) int {
	for i := range d.Inputs {
		if d.Inputs[i].Name == name {
			return i
		}
	}
	return -1
}
