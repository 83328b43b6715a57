/*
Package domain contains the automaton execution model of Theory Lisp.

It defines states, transitions, head operations, tapes and the construction rules that turn a
declarative description into an immutable Automaton. The run loop lives in internal/runtime;
this package is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Registry: the arena of states of one automaton, addressed by StateID handles.
  - HeadOp: a closed variant (MoveLeft, MoveRight, Write, Nop) applied to one tape.
  - Transition: pattern, head operations and the Action taken next.
  - Table: per-state dispatch (concrete match, then guards, then wildcard).
  - Automaton: the immutable, callable value produced by Build and released by Release.
  - Tape: the working memory of one run, extensible in both directions.
*/
package domain
