package domain

import (
	"strings"

	"github.com/aretw0/tlisp/pkg/types"
)

// PatternKind selects how a transition matches the symbols under the heads.
type PatternKind uint8

const (
	// PatternExact matches by value equality, one symbol per tape.
	PatternExact PatternKind = iota
	// PatternGuard matches when a procedure called with the symbols returns #t.
	PatternGuard
	// PatternAny is the wildcard.
	PatternAny
)

// Pattern is the input side of a transition.
type Pattern struct {
	Kind    PatternKind
	Symbols []types.Value
	Guard   types.Procedure
}

// Exact matches the given symbols (one per tape).
func Exact(symbols ...types.Value) Pattern {
	return Pattern{Kind: PatternExact, Symbols: symbols}
}

// Guard matches when fn returns #t.
func Guard(fn types.Procedure) Pattern {
	return Pattern{Kind: PatternGuard, Guard: fn}
}

// Any is the wildcard pattern.
func Any() Pattern {
	return Pattern{Kind: PatternAny}
}

func (p Pattern) String() string {
	switch p.Kind {
	case PatternAny:
		return "_"
	case PatternGuard:
		return p.Guard.String()
	}
	if len(p.Symbols) == 1 {
		return p.Symbols[0].String()
	}
	parts := make([]string, len(p.Symbols))
	for i, s := range p.Symbols {
		parts[i] = s.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Transition is one rule of an automaton.
type Transition struct {
	From StateID
	// Index is the position among the transitions of From, assigned by Table.Add.
	Index   int
	Pattern Pattern
	// Ops are applied in order, each seeing the effect of the previous one.
	Ops    []HeadOp
	Action Action
	// Output is called, after Ops are applied, with the symbols the transition matched.
	Output types.Procedure
}
