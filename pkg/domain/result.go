package domain

import "github.com/aretw0/tlisp/pkg/types"

// Result is the terminal state of a completed run.
type Result struct {
	Outcome Outcome
	Tapes   []*Tape
	Steps   int
}

// Value converts the result to (outcome . tapes) where each tape is (head . contents).
func (r *Result) Value() types.Value {
	tapes := make([]types.Value, len(r.Tapes))
	for i, t := range r.Tapes {
		tapes[i] = t.Value()
	}
	return types.Cons(types.Symbol(r.Outcome.String()), types.List(tapes...))
}
