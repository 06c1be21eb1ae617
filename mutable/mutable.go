// Package mutable allows to change state of objects that are owned by the
// processing goroutine. Control code doesn't touch such objects directly.
// Instead it creates mutations bound to the object's context and pushes
// them to the destination the processing goroutine drains between blocks.
package mutable

import "github.com/rs/xid"

// zero value for context is immutable.
var immutable = Context{}

type (
	// Context can be embedded to make structure behaviour mutable.
	Context xid.ID

	// Mutation is mutator function associated with a certain mutable context.
	Mutation struct {
		Context
		mutator MutatorFunc
	}

	// Mutations is a set of mutators mapped to their contexts.
	Mutations map[Context][]MutatorFunc

	// MutatorFunc mutates the object.
	MutatorFunc func()
)

// Mutable returns new mutable context.
func Mutable() Context {
	return Context(xid.New())
}

// Immutable returns immutable context.
func Immutable() Context {
	return immutable
}

// Mutate associates provided mutator with context and returns mutation.
func (c Context) Mutate(m MutatorFunc) Mutation {
	if c == immutable {
		panic("mutate immutable")
	}
	return Mutation{
		Context: c,
		mutator: m,
	}
}

// IsMutable returns true if object is mutable.
func (c Context) IsMutable() bool {
	return c != immutable
}

func (c Context) String() string {
	return xid.ID(c).String()
}

// Apply mutator function.
func (m Mutation) Apply() {
	m.mutator()
}

// Put mutation to the set of mutations.
func (ms Mutations) Put(m Mutation) Mutations {
	if m.Context == immutable {
		return ms
	}
	if ms == nil {
		return map[Context][]MutatorFunc{m.Context: {m.mutator}}
	}
	ms[m.Context] = append(ms[m.Context], m.mutator)
	return ms
}

// ApplyTo consumes mutations defined for provided context.
func (ms Mutations) ApplyTo(c Context) {
	if ms == nil || c == immutable {
		return
	}
	if fns, ok := ms[c]; ok {
		for _, fn := range fns {
			fn()
		}
		delete(ms, c)
	}
}

// ApplyAll consumes all mutations. Mutators of the same context are applied
// in order they were put.
func (ms Mutations) ApplyAll() {
	for c := range ms {
		ms.ApplyTo(c)
	}
}

// Append mutations from source to the set.
func (ms Mutations) Append(source Mutations) Mutations {
	if ms == nil {
		ms = make(map[Context][]MutatorFunc)
	}
	for c, fns := range source {
		ms[c] = append(ms[c], fns...)
	}
	return ms
}

// Detach mutations for provided context.
func (ms Mutations) Detach(c Context) Mutations {
	if ms == nil {
		return nil
	}
	if v, ok := ms[c]; ok {
		d := map[Context][]MutatorFunc{c: v}
		delete(ms, c)
		return d
	}
	return nil
}
