/*
Package audiograph hosts audio processing graphs.

Concept

The package is built around three things:

    Node - a unit of processing with parameters, input sockets and one output;
    Graph - an acyclic set of connected nodes;
    Engine - drives the graph from a device callback.

Nodes and parameters

Each node describes itself with a Descriptor: ordered input sockets and
ordered parameters. Parameters are automated with param.Parameter, which
can be ramped to a target value from any goroutine without locks:

    lowShelf := filter.NewLowShelf()
    p, _ := lowShelf.Describe().Params.ByID("gain")
    err := p.SetTarget(-12, 500*time.Millisecond)

Building the graph

Graph is built on the control side. Every topology change compiles a new
processing plan and publishes it atomically, so the processing side never
waits for the control side:

    g := audiograph.NewGraph(audiograph.Format{
        SampleRate: 44100,
        Channels:   2,
        BlockSize:  512,
    })
    g.AddNode(player)
    g.AddNode(lowShelf)
    g.Connect(player, lowShelf, 0)
    g.SetOutput(lowShelf)

Connect fails with *CycleError if the edge would make a cycle and with
*TopologyError if the edge is invalid. The topology is unchanged in both
cases.

Execution

Engine binds the graph to a Device:

    e := audiograph.New(g, portaudio.Device{})
    if err := e.Start(); err != nil {
        // errors.Is(err, audiograph.ErrDeviceUnavailable)
    }
    defer e.Close()

Device calls the engine for every block. Between blocks the engine applies
mutations staged with Push and the latest plan. A block that takes longer
than its period is counted as a deadline miss. A panic in a node is
recovered, counted as a fault and the block is silenced.
*/
package audiograph
