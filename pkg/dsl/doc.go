/*
Package dsl provides a Go DSL for programmatically constructing Theory Lisp automata.

It is the Go-side counterpart of the automaton\N form: a fluent builder that collects states
and transitions and hands them to domain.Build, so construction errors are the same
ConstructionError values the interpreter raises.

Example usage:

	b := dsl.New("increment")

	b.Add("scan").
		On(types.String("1")).Write(types.String("1")).Right().Go("scan").
		On(types.String("#")).Write(types.String("1")).Halt()

	a, err := b.Build()
	if err != nil {
		// *domain.ConstructionError
	}
*/
package dsl
