package types

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Value is implemented by every Theory Lisp value.
type Value interface {
	// TypeName returns the name used in type errors (e.g. "integer").
	TypeName() string
	// String returns the external (readable) representation.
	String() string
}

// Integer is an exact 64-bit integer.
type Integer int64

func (Integer) TypeName() string { return "integer" }
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

// Real is an inexact floating point number.
type Real float64

func (Real) TypeName() string { return "real" }
func (r Real) String() string {
	s := strconv.FormatFloat(float64(r), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnI") {
		s += ".0"
	}
	return s
}

// String is an immutable character string.
type String string

func (String) TypeName() string { return "string" }
func (s String) String() string { return strconv.Quote(string(s)) }

// Symbol is an interned identifier.
type Symbol string

func (Symbol) TypeName() string { return "symbol" }
func (s Symbol) String() string { return string(s) }

// Boolean is #t or #f.
type Boolean bool

func (Boolean) TypeName() string { return "boolean" }
func (b Boolean) String() string {
	if b {
		return "#t"
	}
	return "#f"
}

// Null is the empty list.
type Null struct{}

func (Null) TypeName() string { return "null" }
func (Null) String() string { return "()" }

// Void is returned by forms evaluated only for their effect.
type Void struct{}

func (Void) TypeName() string { return "void" }
func (Void) String() string { return "#<void>" }

// Pair is a cons cell.
type Pair struct {
	Car Value
	Cdr Value
}

func (*Pair) TypeName() string { return "pair" }

func (p *Pair) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	var cur Value = p
	first := true
	for {
		cell, ok := cur.(*Pair)
		if !ok {
			break
		}
		if !first {
			sb.WriteByte(' ')
		}
		sb.WriteString(cell.Car.String())
		first = false
		cur = cell.Cdr
	}
	if _, ok := cur.(Null); !ok {
		sb.WriteString(" . ")
		sb.WriteString(cur.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Error is the exception value raised by failing operations.
// Kind classifies the failure (see the Kind constants); Message is human readable.
type Error struct {
	Kind    string
	Message string
}

// Error kinds shared by the evaluator and the automaton engine.
const (
	KindError              = "error"
	KindUser               = "user-error"
	KindType               = "type-error"
	KindArity              = "arity-error"
	KindUnbound            = "unbound-variable"
	KindSyntax             = "syntax-error"
	KindConstruction       = "construction-error"
	KindStepBudgetExceeded = "step-budget-exceeded"
	KindInvalidSymbol      = "invalid-symbol"
	KindReleased           = "released"
	KindCancelled          = "cancelled"
)

// NewError builds an Error of the given kind.
func NewError(kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (*Error) TypeName() string { return "error" }
func (e *Error) String() string { return fmt.Sprintf("#<error %s: %s>", e.Kind, e.Message) }
func (e *Error) Error() string { return e.Kind + ": " + e.Message }

// Procedure is a callable value.
type Procedure interface {
	Value
	// Name is used in error messages and printing. May be empty for anonymous lambdas.
	Name() string
	// Arity returns the minimum argument count and whether more are accepted.
	Arity() (min int, variadic bool)
	// Call applies the procedure. Implementations must not retain args.
	Call(ctx context.Context, args []Value) (Value, error)
}

// Display renders v for humans: strings without quotes, everything else as String().
func Display(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	if v == nil {
		return "#<nil>"
	}
	return v.String()
}

// Truthy reports whether v counts as true in a conditional. Only #f is false.
func Truthy(v Value) bool {
	b, ok := v.(Boolean)
	return !ok || bool(b)
}
