package domain

import (
	"fmt"
	"slices"

	"github.com/aretw0/tlisp/pkg/types"
)

// StateID is a handle into the state arena of one automaton.
// Handles are only meaningful for the automaton that issued them.
type StateID int

// NoState is returned when a name does not resolve.
const NoState StateID = -1

// Reserved next-state names. They can never be declared as states.
const (
	TargetSelf   = "self"
	TargetNext   = "next"
	TargetHalt   = "halt"
	TargetAccept = "accept"
	TargetReject = "reject"
)

var reservedNames = []string{TargetSelf, TargetNext, TargetHalt, TargetAccept, TargetReject}

// IsReserved reports whether name is a reserved target.
func IsReserved(name string) bool {
	return slices.Contains(reservedNames, name)
}

// State is one declared state.
type State struct {
	ID   StateID
	Name string
	// Base is run on the same tapes every time the state is entered.
	Base *Automaton
	// Output is called with the symbols under the heads when the state is visited.
	Output types.Procedure
}

// Registry holds the states of one automaton in declaration order.
type Registry struct {
	states []State
	index  map[string]StateID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]StateID)}
}

// Register adds a state, or returns the existing handle if the name is already known.
func (r *Registry) Register(name string) StateID {
	if id, ok := r.index[name]; ok {
		return id
	}
	id := StateID(len(r.states))
	r.states = append(r.states, State{ID: id, Name: name})
	r.index[name] = id
	return id
}

// Resolve returns the handle of a registered state.
func (r *Registry) Resolve(name string) (StateID, error) {
	if id, ok := r.index[name]; ok {
		return id, nil
	}
	return NoState, fmt.Errorf("%w: %q", ErrStateNotFound, name)
}

// State returns the record for id. It panics on a foreign handle.
func (r *Registry) State(id StateID) *State {
	return &r.states[id]
}

// Len returns the number of registered states.
func (r *Registry) Len() int {
	return len(r.states)
}

// Names lists state names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.states))
	for i, s := range r.states {
		names[i] = s.Name
	}
	return names
}

// Fallthrough is the action of a state without transitions: the next declared state,
// or halt after the last one.
func (r *Registry) Fallthrough(id StateID) Action {
	if int(id)+1 < len(r.states) {
		return Action{Kind: ActionContinue, Target: id + 1}
	}
	return Action{Kind: ActionHalt}
}
