package dsl

import (
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/types"
)

// Option configures a Builder.
type Option func(*Builder)

// WithTapes sets the number of tapes (default 1).
func WithTapes(n int) Option {
	return func(b *Builder) { b.spec.Tapes = n }
}

// WithBlank sets the symbol of unvisited cells (default the empty list).
func WithBlank(v types.Value) Option {
	return func(b *Builder) { b.spec.Blank = v }
}

// Builder manages automaton construction.
type Builder struct {
	spec   domain.Spec
	states map[string]*StateBuilder
}

// New creates a new automaton builder.
func New(name string, opts ...Option) *Builder {
	b := &Builder{
		spec:   domain.Spec{Name: name, Tapes: 1},
		states: make(map[string]*StateBuilder),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add declares a state. The first declared state is the start state unless Start is called.
// If the state already exists, it returns the existing builder.
func (b *Builder) Add(name string) *StateBuilder {
	if sb, ok := b.states[name]; ok {
		return sb
	}
	sb := &StateBuilder{builder: b, index: len(b.spec.States)}
	b.spec.States = append(b.spec.States, domain.StateSpec{Name: name})
	b.states[name] = sb
	return sb
}

// Start overrides the start state.
func (b *Builder) Start(name string) *Builder {
	b.spec.Start = name
	return b
}

// Spec returns a copy of the collected description.
func (b *Builder) Spec() domain.Spec {
	spec := b.spec
	spec.States = append([]domain.StateSpec(nil), b.spec.States...)
	spec.Transitions = append([]domain.TransitionSpec(nil), b.spec.Transitions...)
	return spec
}

// Build validates the description and constructs the automaton.
func (b *Builder) Build() (*domain.Automaton, error) {
	return domain.Build(b.Spec())
}

// Chars splits s into one String symbol per rune, a convenient tape for text inputs.
func Chars(s string) []types.Value {
	out := make([]types.Value, 0, len(s))
	for _, r := range s {
		out = append(out, types.String(string(r)))
	}
	return out
}
