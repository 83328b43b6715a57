package dsl

import (
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/types"
)

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	builder *Builder
	index   int
}

func (s *StateBuilder) spec() *domain.StateSpec {
	return &s.builder.spec.States[s.index]
}

// Name returns the state name.
func (s *StateBuilder) Name() string {
	return s.spec().Name
}

// Base sets the machine run on the same tapes each time the state is entered.
func (s *StateBuilder) Base(a *domain.Automaton) *StateBuilder {
	s.spec().Base = a
	return s
}

// Output sets the procedure called with the current symbols when the state is visited.
func (s *StateBuilder) Output(fn types.Procedure) *StateBuilder {
	s.spec().Output = fn
	return s
}

// On starts a transition matching the given symbols, one per tape.
func (s *StateBuilder) On(symbols ...types.Value) *TransitionBuilder {
	return s.transition(domain.Exact(symbols...))
}

// When starts a transition guarded by fn.
func (s *StateBuilder) When(fn types.Procedure) *TransitionBuilder {
	return s.transition(domain.Guard(fn))
}

// Otherwise starts a wildcard transition.
func (s *StateBuilder) Otherwise() *TransitionBuilder {
	return s.transition(domain.Any())
}

func (s *StateBuilder) transition(p domain.Pattern) *TransitionBuilder {
	return &TransitionBuilder{state: s, spec: domain.TransitionSpec{From: s.Name(), Pattern: p}}
}
