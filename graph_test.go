package audiograph_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/mock"
	"pipelined.dev/audiograph/signal"
)

var format = audiograph.Format{
	SampleRate: 44100,
	Channels:   2,
	BlockSize:  64,
}

func newGraph(t *testing.T, nodes ...audiograph.Node) *audiograph.Graph {
	t.Helper()
	g := audiograph.NewGraph(format)
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
	return g
}

// assertConstant checks that every sample of block equals v.
func assertConstant(t *testing.T, v float64, b signal.Block) {
	t.Helper()
	for c := range b {
		for i := range b[c] {
			if !assert.InDelta(t, v, b[c][i], 1e-12, "channel %d sample %d", c, i) {
				return
			}
		}
	}
}

func TestConnectCycle(t *testing.T) {
	a := &mock.Processor{}
	b := &mock.Processor{}
	c := &mock.Processor{}
	g := newGraph(t, a, b, c)
	require.NoError(t, g.Connect(a, b, 0))
	require.NoError(t, g.Connect(b, c, 0))

	var cycleErr *audiograph.CycleError
	assert.True(t, errors.As(g.Connect(c, a, 0), &cycleErr))
	assert.True(t, errors.As(g.Connect(a, a, 0), &cycleErr))

	// topology is unchanged, a still has no input
	assert.NoError(t, g.SetOutput(c))
	err := g.Validate()
	var topologyErr *audiograph.TopologyError
	assert.True(t, errors.As(err, &topologyErr))
	assert.Equal(t, "validate", topologyErr.Op)
	assert.Equal(t, 0, topologyErr.Socket)
}

func TestConnectTopologyErrors(t *testing.T) {
	source1 := &mock.Source{}
	source2 := &mock.Source{}
	processor := &mock.Processor{}
	multiple := &mock.Processor{
		Inputs: []audiograph.Socket{{Name: "inputs", Multiple: true}},
	}
	unknown := &mock.Source{}
	g := newGraph(t, source1, source2, processor, multiple)

	require.NoError(t, g.Connect(source1, processor, 0))
	require.NoError(t, g.Connect(source1, multiple, 0))
	require.NoError(t, g.Connect(source2, multiple, 0))

	tests := []struct {
		description string
		err         error
	}{
		{
			description: "add twice",
			err:         g.AddNode(source1),
		},
		{
			description: "unknown from",
			err:         g.Connect(unknown, processor, 0),
		},
		{
			description: "unknown to",
			err:         g.Connect(source1, unknown, 0),
		},
		{
			description: "socket out of range",
			err:         g.Connect(source2, processor, 1),
		},
		{
			description: "negative socket",
			err:         g.Connect(source2, processor, -1),
		},
		{
			description: "duplicate edge",
			err:         g.Connect(source1, multiple, 0),
		},
		{
			description: "occupied socket",
			err:         g.Connect(source2, processor, 0),
		},
		{
			description: "disconnect missing edge",
			err:         g.Disconnect(source2, processor, 0),
		},
		{
			description: "remove unknown",
			err:         g.RemoveNode(unknown),
		},
		{
			description: "output unknown",
			err:         g.SetOutput(unknown),
		},
	}
	for _, test := range tests {
		var topologyErr *audiograph.TopologyError
		assert.True(t, errors.As(test.err, &topologyErr), test.description)
	}
}

func TestAddNodePrepareError(t *testing.T) {
	errPrepare := errors.New("prepare error")
	g := audiograph.NewGraph(format)
	source := &mock.Source{}
	source.ErrorOnPrepare = errPrepare
	err := g.AddNode(source)
	assert.True(t, errors.Is(err, errPrepare))
	assert.Empty(t, g.Nodes())
}

func TestProcess(t *testing.T) {
	source1 := &mock.Source{Value: 0.5}
	source2 := &mock.Source{Value: 0.25}
	processor := &mock.Processor{}
	mixer := &mock.Processor{
		Inputs: []audiograph.Socket{{Name: "inputs", Multiple: true}},
	}
	unused := &mock.Source{Value: 1}
	g := newGraph(t, source1, source2, processor, mixer, unused)
	require.NoError(t, g.Connect(source1, processor, 0))
	require.NoError(t, g.Connect(processor, mixer, 0))
	require.NoError(t, g.Connect(source2, mixer, 0))

	// no output, all nodes processed and silence returned
	out := g.Process(format.BlockSize)
	assert.Equal(t, format.Channels, out.NumChannels())
	assert.Equal(t, format.BlockSize, out.Size())
	assertConstant(t, 0, out)
	calls, _ := unused.Count()
	assert.Equal(t, int64(1), calls)

	// only ancestors of output are processed
	require.NoError(t, g.SetOutput(mixer))
	out = g.Process(10)
	assert.Equal(t, 10, out.Size())
	assertConstant(t, 0.75, out)
	calls, _ = unused.Count()
	assert.Equal(t, int64(1), calls)
	calls, samples := mixer.Count()
	assert.Equal(t, int64(2), calls)
	assert.Equal(t, int64(format.BlockSize+10), samples)

	// block size is clamped
	out = g.Process(format.BlockSize * 2)
	assert.Equal(t, format.BlockSize, out.Size())
}

func TestProcessUnconnectedSocketIsSilent(t *testing.T) {
	source := &mock.Source{Value: 0.5}
	processor := &mock.Processor{
		Inputs: []audiograph.Socket{
			{Name: "input", Required: true},
			{Name: "sidechain", Required: true},
		},
	}
	g := newGraph(t, source, processor)
	require.NoError(t, g.Connect(source, processor, 0))
	require.NoError(t, g.SetOutput(processor))

	err := g.Validate()
	var topologyErr *audiograph.TopologyError
	require.True(t, errors.As(err, &topologyErr))
	assert.Equal(t, 1, topologyErr.Socket)

	assertConstant(t, 0.5, g.Process(format.BlockSize))
}

func TestTopologyChangesRecompile(t *testing.T) {
	source := &mock.Source{Value: 0.5}
	processor := &mock.Processor{}
	g := newGraph(t, source, processor)
	require.NoError(t, g.Connect(source, processor, 0))
	require.NoError(t, g.SetOutput(processor))
	assert.NoError(t, g.Validate())
	assertConstant(t, 0.5, g.Process(format.BlockSize))

	require.NoError(t, g.Disconnect(source, processor, 0))
	assertConstant(t, 0, g.Process(format.BlockSize))

	require.NoError(t, g.Connect(source, processor, 0))
	assertConstant(t, 0.5, g.Process(format.BlockSize))

	require.NoError(t, g.RemoveNode(source))
	assertConstant(t, 0, g.Process(format.BlockSize))
	assert.Len(t, g.Nodes(), 1)

	// removed node can be added again
	require.NoError(t, g.AddNode(source))
	require.NoError(t, g.Connect(source, processor, 0))
	assertConstant(t, 0.5, g.Process(format.BlockSize))

	require.NoError(t, g.RemoveNode(processor))
	assertConstant(t, 0, g.Process(format.BlockSize))
	calls, _ := source.Count()
	// without output source is still processed
	assert.Equal(t, int64(4), calls)
}

func TestProcessRampsParameters(t *testing.T) {
	source := &mock.Source{}
	g := newGraph(t, source)
	require.NoError(t, g.SetOutput(source))
	p, ok := source.Describe().Params.ByID("value")
	require.True(t, ok)

	d := signal.DurationOf(format.SampleRate, int64(format.BlockSize*2))
	require.NoError(t, p.SetTarget(1, d))
	first := g.Process(format.BlockSize)
	last := first[0][format.BlockSize-1]
	assert.InDelta(t, 0.5, last, 1e-9)
	second := g.Process(format.BlockSize)
	assert.Equal(t, 1.0, second[0][format.BlockSize-1])
	assert.Equal(t, 1.0, p.Get())
}

func TestConcurrentTopologyChanges(t *testing.T) {
	source := &mock.Source{Value: 0.5}
	processor := &mock.Processor{}
	g := newGraph(t, source, processor)
	require.NoError(t, g.SetOutput(processor))

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			_ = g.Connect(source, processor, 0)
			_ = g.Disconnect(source, processor, 0)
		}
	}()
	deadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(deadline) {
		out := g.Process(format.BlockSize)
		v := out[0][0]
		assert.True(t, v == 0 || v == 0.5, "unexpected value %v", v)
	}
	close(done)
	wg.Wait()
}
