package audiograph

import (
	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/signal"
)

// plan is an immutable processing order compiled on the control side.
type plan struct {
	steps  []step
	output *vertex
}

// step processes a single node.
type step struct {
	node   Node
	params param.List
	in     [][]signal.Block
	out    buffer
}

func (s *step) execute(blockSize int) {
	s.out.view.Reslice(s.out.backing, blockSize)
	for _, p := range s.params {
		p.Ingest()
	}
	s.node.Process(s.in, s.out.view)
}

// compile builds a new plan from the current topology and publishes it.
// Must be called with graph mutex held.
func (g *Graph) compile() {
	vertices := g.processed()
	steps := make([]step, 0, len(vertices))
	for _, v := range vertices {
		in := make([][]signal.Block, len(v.inputs))
		for s, edges := range v.inputs {
			if len(edges) == 0 {
				in[s] = []signal.Block{g.silence.view}
				continue
			}
			in[s] = make([]signal.Block, 0, len(edges))
			for _, e := range edges {
				in[s] = append(in[s], e.out.view)
			}
		}
		steps = append(steps, step{
			node:   v.node,
			params: v.desc.Params,
			in:     in,
			out:    v.out,
		})
	}
	g.plan.Store(&plan{
		steps:  steps,
		output: g.output,
	})
}

// processed returns vertices in dependency order. If graph has output,
// only its ancestors are returned.
func (g *Graph) processed() []*vertex {
	var (
		sorted  []*vertex
		visited = make(map[*vertex]struct{})
	)
	var visit func(*vertex)
	visit = func(v *vertex) {
		if _, ok := visited[v]; ok {
			return
		}
		visited[v] = struct{}{}
		for _, edges := range v.inputs {
			for _, in := range edges {
				visit(in)
			}
		}
		sorted = append(sorted, v)
	}
	if g.output != nil {
		visit(g.output)
		return sorted
	}
	for _, v := range g.order {
		visit(v)
	}
	return sorted
}
