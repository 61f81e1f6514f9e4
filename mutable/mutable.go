// Package mutable allows to change the state of loop components between
// ticks. A component embeds a Context and exposes methods that return
// Mutations; the loop applies them at the next tick boundary, so a
// component is never mutated while a tick is in progress.
package mutable

import (
	"crypto/rand"
	"errors"
)

// zero value for context is immutable.
var immutable = Context{}

type (
	// Context can be embedded to make structure behaviour mutable.
	Context [16]byte

	// Mutation is mutator function associated with a certain mutable context.
	Mutation struct {
		Context
		mutator MutatorFunc
	}

	// Mutations is a set of Mutations mapped their Mutables.
	Mutations map[Context][]MutatorFunc

	// MutatorFunc mutates the object.
	MutatorFunc func() error
)

// Mutable returns new mutable context.
func Mutable() Context {
	var id [16]byte
	rand.Read(id[:])
	return id
}

// Immutable returns immutable context.
func Immutable() Context {
	return immutable
}

// Mutate associates provided mutator with mutable context and return mutation.
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

// Apply mutator function.
func (m Mutation) Apply() error {
	return m.mutator()
}

// Put mutation to the set of Mutations.
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

// ApplyTo consumes Mutations defined for consumer in this param set.
// All mutators are applied in the order they were put, errors are joined.
func (ms Mutations) ApplyTo(id Context) error {
	if ms == nil || id == immutable {
		return nil
	}
	fns, ok := ms[id]
	if !ok {
		return nil
	}
	delete(ms, id)
	var errs []error
	for _, fn := range fns {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplyAll consumes all Mutations in this set.
func (ms Mutations) ApplyAll() error {
	var errs []error
	for id := range ms {
		if err := ms.ApplyTo(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
