package audiograph

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"

	"pipelined.dev/audiograph/signal"
)

// Graph is an acyclic set of connected nodes. Topology is changed on the
// control side and can be changed while graph is processed. Process is
// called on the processing side and doesn't block.
type Graph struct {
	format Format

	mu       sync.Mutex
	vertices map[Node]*vertex
	order    []*vertex // insertion order
	output   *vertex

	plan    atomic.Pointer[plan]
	silence buffer
}

// vertex is a node added to the graph.
type vertex struct {
	id     xid.ID
	node   Node
	desc   Descriptor
	inputs [][]*vertex // per socket
	out    buffer
}

// buffer is a preallocated block with a view resliced to the size of
// processed block.
type buffer struct {
	backing signal.Block
	view    signal.Block
}

func newBuffer(f Format) buffer {
	backing := signal.Alloc(f.Channels, f.BlockSize)
	view := make(signal.Block, f.Channels)
	view.Reslice(backing, f.BlockSize)
	return buffer{
		backing: backing,
		view:    view,
	}
}

// NewGraph returns empty graph of provided format. It panics if format
// is not valid.
func NewGraph(f Format) *Graph {
	if err := f.Validate(); err != nil {
		panic(err)
	}
	g := Graph{
		format:   f,
		vertices: make(map[Node]*vertex),
		silence:  newBuffer(f),
	}
	g.plan.Store(&plan{})
	return &g
}

// Format returns format of the graph.
func (g *Graph) Format() Format {
	return g.format
}

// AddNode prepares node for the graph format and adds it to the graph.
// Adding the same node twice returns *TopologyError.
func (g *Graph) AddNode(n Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if v, ok := g.vertices[n]; ok {
		return &TopologyError{Op: "add", Node: v.String(), Socket: -1, Reason: "already added"}
	}
	v := vertex{
		id:   xid.New(),
		node: n,
		desc: n.Describe(),
		out:  newBuffer(g.format),
	}
	if err := n.Prepare(g.format); err != nil {
		return fmt.Errorf("prepare %s: %w", v.String(), err)
	}
	for _, p := range v.desc.Params {
		p.Prepare(g.format.SampleRate)
	}
	v.inputs = make([][]*vertex, len(v.desc.Inputs))
	g.vertices[n] = &v
	g.order = append(g.order, &v)
	g.compile()
	return nil
}

// RemoveNode removes node and all its edges from the graph. If node was
// the output, graph has no output after this call.
func (g *Graph) RemoveNode(n Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.vertices[n]
	if !ok {
		return &TopologyError{Op: "remove", Node: describe(n), Socket: -1, Reason: "unknown node"}
	}
	for _, other := range g.order {
		for s := range other.inputs {
			other.inputs[s] = without(other.inputs[s], v)
		}
	}
	for i := range g.order {
		if g.order[i] == v {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	if g.output == v {
		g.output = nil
	}
	delete(g.vertices, n)
	g.compile()
	return nil
}

// Connect output of from node to the input socket of to node. It returns
// *CycleError if edge would create a cycle and *TopologyError if edge is
// invalid. Topology is unchanged if error is returned.
func (g *Graph) Connect(from, to Node, socket int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	src, dst, err := g.edge("connect", from, to, socket)
	if err != nil {
		return err
	}
	if src == dst || dst.feeds(src) {
		return &CycleError{From: src.String(), To: dst.String()}
	}
	edges := dst.inputs[socket]
	for _, v := range edges {
		if v == src {
			return &TopologyError{Op: "connect", Node: dst.String(), Socket: socket, Reason: "already connected to " + src.String()}
		}
	}
	if len(edges) > 0 && !dst.desc.Inputs[socket].Multiple {
		return &TopologyError{Op: "connect", Node: dst.String(), Socket: socket, Reason: "occupied"}
	}
	dst.inputs[socket] = append(edges, src)
	g.compile()
	return nil
}

// Disconnect removes the edge between output of from node and the input
// socket of to node.
func (g *Graph) Disconnect(from, to Node, socket int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	src, dst, err := g.edge("disconnect", from, to, socket)
	if err != nil {
		return err
	}
	edges := without(dst.inputs[socket], src)
	if len(edges) == len(dst.inputs[socket]) {
		return &TopologyError{Op: "disconnect", Node: dst.String(), Socket: socket, Reason: "not connected to " + src.String()}
	}
	dst.inputs[socket] = edges
	g.compile()
	return nil
}

// SetOutput selects the node which block is returned by Process. Only
// the output node and its ancestors are processed after this call.
func (g *Graph) SetOutput(n Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.vertices[n]
	if !ok {
		return &TopologyError{Op: "output", Node: describe(n), Socket: -1, Reason: "unknown node"}
	}
	g.output = v
	g.compile()
	return nil
}

// Validate returns errors for every required socket without connected
// inputs. Only processed nodes are validated. Such sockets are processed
// with silence.
func (g *Graph) Validate() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var errs execErrors
	if g.output == nil {
		errs = append(errs, &TopologyError{Op: "validate", Node: "graph", Socket: -1, Reason: "no output"})
	}
	for _, v := range g.processed() {
		for s, socket := range v.desc.Inputs {
			if socket.Required && len(v.inputs[s]) == 0 {
				errs = append(errs, &TopologyError{Op: "validate", Node: v.String(), Socket: s, Reason: "required input " + socket.Name + " is not connected"})
			}
		}
	}
	return errs.ret()
}

// Nodes returns nodes in order they were added.
func (g *Graph) Nodes() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	nodes := make([]Node, 0, len(g.order))
	for _, v := range g.order {
		nodes = append(nodes, v.node)
	}
	return nodes
}

// Process executes nodes of the latest published plan in dependency
// order and returns the output block. Block size is clamped to the graph
// format. Returned block is valid until the next call. If graph has no
// output, silence is returned.
func (g *Graph) Process(blockSize int) signal.Block {
	if blockSize > g.format.BlockSize {
		blockSize = g.format.BlockSize
	}
	if blockSize < 0 {
		blockSize = 0
	}
	p := g.plan.Load()
	g.silence.view.Reslice(g.silence.backing, blockSize)
	for i := range p.steps {
		p.steps[i].execute(blockSize)
	}
	if p.output == nil {
		return g.silence.view
	}
	return p.output.out.view
}

// Reset cancels parameter ramps and clears DSP state of every node.
// Parameter values are retained. Must not be called while graph is
// processed.
func (g *Graph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, v := range g.order {
		for _, p := range v.desc.Params {
			p.Cancel()
		}
		v.node.Reset()
	}
}

// edge validates that both nodes are in the graph and socket exists.
func (g *Graph) edge(op string, from, to Node, socket int) (*vertex, *vertex, error) {
	src, ok := g.vertices[from]
	if !ok {
		return nil, nil, &TopologyError{Op: op, Node: describe(from), Socket: -1, Reason: "unknown node"}
	}
	dst, ok := g.vertices[to]
	if !ok {
		return nil, nil, &TopologyError{Op: op, Node: describe(to), Socket: -1, Reason: "unknown node"}
	}
	if socket < 0 || socket >= len(dst.inputs) {
		return nil, nil, &TopologyError{Op: op, Node: dst.String(), Socket: socket, Reason: "invalid socket index"}
	}
	return src, dst, nil
}

// feeds returns true if v is an ancestor of target.
func (v *vertex) feeds(target *vertex) bool {
	visited := make(map[*vertex]struct{})
	var walk func(*vertex) bool
	walk = func(current *vertex) bool {
		if current == v {
			return true
		}
		if _, ok := visited[current]; ok {
			return false
		}
		visited[current] = struct{}{}
		for _, edges := range current.inputs {
			for _, in := range edges {
				if walk(in) {
					return true
				}
			}
		}
		return false
	}
	return walk(target)
}

func (v *vertex) String() string {
	return fmt.Sprintf("%s(%s)", v.desc.Name, v.id)
}

func describe(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.Describe().Name
}

func without(vertices []*vertex, v *vertex) []*vertex {
	result := vertices[:0:0]
	for _, in := range vertices {
		if in != v {
			result = append(result, in)
		}
	}
	return result
}
