// Package recipe provides ready-made graphs. Every recipe plays a looped
// buffer through a few nodes and exposes a small set of parameters by id.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/param"
	"pipelined.dev/audiograph/signal"
	"pipelined.dev/audiograph/source"
)

var (
	// ErrUnknownParam is returned when conductor doesn't expose parameter.
	ErrUnknownParam = errors.New("unknown parameter")
	// ErrUnknownRecipe is returned when recipe is not registered.
	ErrUnknownRecipe = errors.New("unknown recipe")
)

type (
	// Conductor owns engine and graph of a recipe and exposes its
	// parameters to controls.
	Conductor struct {
		name   string
		engine *audiograph.Engine
		player *source.Player
		params param.List
		ramps  map[string]time.Duration
	}

	// recipe builds graph around the player and returns output node.
	recipe struct {
		description string
		build       func(b *builder, player *source.Player) audiograph.Node
	}

	// builder adds nodes and edges to the graph, first error stops
	// building.
	builder struct {
		graph  *audiograph.Graph
		params param.List
		ramps  map[string]time.Duration
		err    error
	}
)

var recipes = map[string]recipe{}

func register(name string, r recipe) {
	if _, ok := recipes[name]; ok {
		panic(fmt.Sprintf("recipe %s is already registered", name))
	}
	recipes[name] = r
}

// Names returns sorted names of registered recipes.
func Names() []string {
	names := make([]string, 0, len(recipes))
	for name := range recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Description returns short description of the recipe.
func Description(name string) string {
	return recipes[name].description
}

// New builds recipe for the device. Empty source is replaced with
// synthesized loop. Player starts playing when engine is started.
func New(name string, src signal.Buffer, d audiograph.Device, f audiograph.Format, options ...audiograph.Option) (*Conductor, error) {
	r, ok := recipes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRecipe, name)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("recipe %s: %w", name, err)
	}
	if src.Size() == 0 {
		src = Loop(f.SampleRate)
	}

	b := builder{
		graph: audiograph.NewGraph(f),
		ramps: make(map[string]time.Duration),
	}
	player := source.NewPlayer(src)
	b.add(player)
	out := r.build(&b, player)
	if b.err == nil {
		b.err = b.graph.SetOutput(out)
	}
	if b.err != nil {
		return nil, fmt.Errorf("build recipe %s: %w", name, b.err)
	}

	options = append([]audiograph.Option{audiograph.WithMeter("recipe." + name)}, options...)
	c := Conductor{
		name:   name,
		engine: audiograph.New(b.graph, d, options...),
		player: player,
		params: b.params,
		ramps:  b.ramps,
	}
	if err := c.engine.Push(context.Background(), player.Play()); err != nil {
		return nil, err
	}
	return &c, nil
}

// Name returns name of the recipe.
func (c *Conductor) Name() string {
	return c.name
}

// Engine returns engine of the recipe.
func (c *Conductor) Engine() *audiograph.Engine {
	return c.engine
}

// Player returns source player of the recipe.
func (c *Conductor) Player() *source.Player {
	return c.player
}

// Params returns exposed parameters.
func (c *Conductor) Params() param.List {
	return c.params
}

// Get returns current value of the parameter.
func (c *Conductor) Get(id string) (float64, error) {
	p, ok := c.params.ByID(id)
	if !ok {
		return 0, fmt.Errorf("get %s: %w", id, ErrUnknownParam)
	}
	return p.Get(), nil
}

// Set changes parameter with its default ramp duration.
func (c *Conductor) Set(id string, value float64) error {
	return c.SetTarget(id, value, c.ramps[id])
}

// SetTarget ramps parameter to the value over duration d.
func (c *Conductor) SetTarget(id string, value float64, d time.Duration) error {
	p, ok := c.params.ByID(id)
	if !ok {
		return fmt.Errorf("set %s: %w", id, ErrUnknownParam)
	}
	return p.SetTarget(value, d)
}

// SetRamp overrides default ramp duration of all exposed parameters.
func (c *Conductor) SetRamp(d time.Duration) {
	for _, p := range c.params {
		c.ramps[p.ID] = d
	}
}

// Play resumes the player.
func (c *Conductor) Play(ctx context.Context) error {
	return c.engine.Push(ctx, c.player.Play())
}

// Pause pauses the player.
func (c *Conductor) Pause(ctx context.Context) error {
	return c.engine.Push(ctx, c.player.Pause())
}

// Start starts the engine.
func (c *Conductor) Start() error {
	return c.engine.Start()
}

// Stop stops the engine.
func (c *Conductor) Stop() error {
	return c.engine.Stop()
}

// Close closes the engine.
func (c *Conductor) Close() error {
	return c.engine.Close()
}

func (b *builder) add(nodes ...audiograph.Node) {
	for _, n := range nodes {
		if b.err != nil {
			return
		}
		b.err = b.graph.AddNode(n)
	}
}

func (b *builder) connect(from, to audiograph.Node, socket int) {
	if b.err != nil {
		return
	}
	b.err = b.graph.Connect(from, to, socket)
}

// expose makes node parameter available by id. Ramp is used by
// Conductor.Set.
func (b *builder) expose(n audiograph.Node, id string, ramp time.Duration) {
	if b.err != nil {
		return
	}
	p, ok := n.Describe().Params.ByID(id)
	if !ok {
		b.err = fmt.Errorf("expose %s: %w", id, ErrUnknownParam)
		return
	}
	b.params = append(b.params, p)
	b.ramps[id] = ramp
}
