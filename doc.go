/*
Package tlisp is an interpreter for Theory Lisp, a small Lisp whose central value is the automaton.

An automaton is a set of states and transitions operating on one or more tapes that grow in both
directions. Running it reads the symbols under the heads, picks the matching transition (concrete
symbols first, then guards, then the wildcard), applies its head operations and moves on until it
halts, accepts or rejects. A run that finds no matching transition rejects, and every run is bounded
by a step budget.

# Usage

Automata are written in Lisp and called like procedures:

	interp := tlisp.New()
	v, err := interp.Eval(ctx, `
	  (define inc
	    (automaton
	      (s0 ("1" -> self)
	          ("#" "1" halt))))
	  (inc "111#")`)
	// v is (halt (3 "1" "1" "1" "1"))

They can also be declared as data (see package schema) and served from a library:

	lib, _ := loam.Open("./automata")
	interp := tlisp.New(tlisp.WithLibrary(lib))
	res, err := interp.Run(ctx, "binary-increment", types.String("1011#"))

Errors raised while evaluating are host error values (*types.Error) that Lisp code can intercept
with try/catch; ErrorValue maps any other error onto the same representation.
*/
package tlisp
