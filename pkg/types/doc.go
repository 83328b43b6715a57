/*
Package types defines the host values of Theory Lisp.

Every value produced by the reader or the evaluator implements Value. Automata consume the
same values as tape symbols, so equality and keying live here rather than in the engine.

# Key Entities

  - Integer, Real, String, Symbol, Boolean: atoms.
  - Null and Pair: lists are chains of pairs terminated by Null.
  - Void: the result of forms evaluated for effect.
  - Error: an exception value. It also implements error, so a raised Error travels through
    ordinary Go error returns and is caught by try/catch.
  - Procedure: anything callable (builtins, lambdas, automata).
*/
package types
