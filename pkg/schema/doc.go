// Package schema describes automata declaratively.
//
// A Definition is the data form of an automaton: states, transitions, head
// operations and the source of any guard or output procedures. Definitions
// are read from YAML, JSON or markdown frontmatter and compiled into a
// domain.Automaton through the dsl builder.
//
//	name: increment
//	states:
//	  - name: right
//	    transitions:
//	      - match: "1"
//	        ops: [right]
//	        next: self
//	      - match: "#"
//	        ops: [left]
//	        next: carry
//	  - name: carry
//	    transitions:
//	      - match: "1"
//	        ops: [{write: "0"}, left]
//	        next: self
//	      - any: true
//	        ops: [{write: "1"}]
//	        next: halt
//
// Validate reports every problem of a definition at once as an AggregateError.
package schema
