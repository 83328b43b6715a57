package domain

import (
	"context"
	"fmt"

	"github.com/aretw0/tlisp/pkg/types"
)

// Table dispatches (state, symbols) to a transition.
//
// Lookup order: a concrete entry equal to the symbols, then guards in declaration order,
// then the wildcard, then no match. Overlapping entries are kept; for equal concrete
// patterns and for repeated wildcards the first declared one wins.
type Table struct {
	transitions []Transition
	rows        []row
}

type row struct {
	all      []int
	exact    map[string]int
	guards   []int
	wildcard int
}

// NewTable creates a table for states handles 0..states-1.
func NewTable(states int) *Table {
	t := &Table{rows: make([]row, states)}
	for i := range t.rows {
		t.rows[i].wildcard = -1
	}
	return t
}

// Add records a transition. Concrete patterns must contain keyable symbols.
func (t *Table) Add(tr Transition) error {
	if int(tr.From) < 0 || int(tr.From) >= len(t.rows) {
		return fmt.Errorf("%w: handle %d", ErrStateNotFound, tr.From)
	}
	idx := len(t.transitions)
	r := &t.rows[tr.From]
	tr.Index = len(r.all)

	switch tr.Pattern.Kind {
	case PatternExact:
		key, err := symbolsKey(tr.Pattern.Symbols)
		if err != nil {
			return err
		}
		if r.exact == nil {
			r.exact = make(map[string]int)
		}
		if _, dup := r.exact[key]; !dup {
			r.exact[key] = idx
		}
	case PatternGuard:
		if tr.Pattern.Guard == nil {
			return fmt.Errorf("guard pattern without procedure")
		}
		r.guards = append(r.guards, idx)
	case PatternAny:
		if r.wildcard < 0 {
			r.wildcard = idx
		}
	default:
		return fmt.Errorf("unknown pattern kind %d", tr.Pattern.Kind)
	}

	t.transitions = append(t.transitions, tr)
	r.all = append(r.all, idx)
	return nil
}

// Lookup returns the transition chosen for symbols in state, or nil when nothing matches.
// Guards are invoked with ctx; a guard returning a non-boolean is an InvalidSymbolError.
func (t *Table) Lookup(ctx context.Context, state StateID, symbols []types.Value) (*Transition, error) {
	r := &t.rows[state]

	if len(r.exact) > 0 {
		if key, err := symbolsKey(symbols); err == nil {
			if idx, ok := r.exact[key]; ok {
				return &t.transitions[idx], nil
			}
		}
	}

	for _, idx := range r.guards {
		tr := &t.transitions[idx]
		res, err := tr.Pattern.Guard.Call(ctx, symbols)
		if err != nil {
			return nil, err
		}
		b, ok := res.(types.Boolean)
		if !ok {
			return nil, &InvalidSymbolError{Value: res, Reason: "guard must return a boolean"}
		}
		if b {
			return tr, nil
		}
	}

	if r.wildcard >= 0 {
		return &t.transitions[r.wildcard], nil
	}
	return nil, nil
}

// Transitions returns the transitions declared for state, in declaration order.
func (t *Table) Transitions(state StateID) []*Transition {
	r := &t.rows[state]
	out := make([]*Transition, len(r.all))
	for i, idx := range r.all {
		out[i] = &t.transitions[idx]
	}
	return out
}

// Count returns the number of transitions declared for state.
func (t *Table) Count(state StateID) int {
	return len(t.rows[state].all)
}

// Len returns the total number of transitions.
func (t *Table) Len() int {
	return len(t.transitions)
}

func symbolsKey(symbols []types.Value) (string, error) {
	if len(symbols) == 1 {
		key, ok := types.Key(symbols[0])
		if !ok {
			return "", &InvalidSymbolError{Value: symbols[0], Reason: "not a valid tape symbol"}
		}
		return key, nil
	}
	key, ok := types.Key(types.List(symbols...))
	if !ok {
		return "", &InvalidSymbolError{Value: types.List(symbols...), Reason: "not a valid tape symbol"}
	}
	return key, nil
}
