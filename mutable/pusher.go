package mutable

import "errors"

// ErrUnknownContext is returned when mutation is put for context that has
// no destination.
var ErrUnknownContext = errors.New("unknown mutable context")

type (
	// Pusher groups mutations by destinations of their mutable contexts.
	Pusher struct {
		destinations map[Context]Destination
		mutations    map[Destination]Mutations
	}

	// Destination is a channel that used as source of mutations.
	Destination chan Mutations
)

// NewPusher creates new pusher.
func NewPusher() Pusher {
	return Pusher{
		destinations: make(map[Context]Destination),
		mutations:    make(map[Destination]Mutations),
	}
}

// NewDestination returns destination with a buffer of one set.
func NewDestination() Destination {
	return make(chan Mutations, 1)
}

// AddDestination adds new mapping of mutable context to destination.
func (p Pusher) AddDestination(c Context, d Destination) {
	p.destinations[c] = d
}

// RemoveDestination removes mapping of mutable context.
func (p Pusher) RemoveDestination(c Context) {
	delete(p.destinations, c)
}

// Put mutations to the pusher. Mutations for unknown contexts are not put
// and ErrUnknownContext is returned.
func (p Pusher) Put(mutations ...Mutation) error {
	var err error
	for _, m := range mutations {
		if d, ok := p.destinations[m.Context]; ok {
			p.mutations[d] = p.mutations[d].Put(m)
			continue
		}
		err = ErrUnknownContext
	}
	return err
}

// Return puts back mutations that destination didn't accept. They precede
// mutations put after they were detached.
func (p Pusher) Return(d Destination, ms Mutations) {
	if ms == nil {
		return
	}
	p.mutations[d] = ms.Append(p.mutations[d])
}

// Receive returns pending mutations without blocking. Nil is returned if
// nothing is pending.
func (d Destination) Receive() Mutations {
	select {
	case ms := <-d:
		return ms
	default:
		return nil
	}
}

// Detach removes mutations that weren't sent yet and returns them merged
// into one set.
func (p Pusher) Detach() Mutations {
	var ms Mutations
	for d, m := range p.mutations {
		ms = ms.Append(m)
		delete(p.mutations, d)
	}
	return ms
}
