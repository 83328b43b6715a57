package types

import (
	"fmt"
	"math"
)

// Cons builds a pair.
func Cons(car, cdr Value) *Pair {
	return &Pair{Car: car, Cdr: cdr}
}

// List builds a proper list from vals.
func List(vals ...Value) Value {
	var out Value = Null{}
	for i := len(vals) - 1; i >= 0; i-- {
		out = Cons(vals[i], out)
	}
	return out
}

// ToSlice flattens a proper list. Improper lists are a type error.
func ToSlice(v Value) ([]Value, error) {
	var out []Value
	for {
		switch cell := v.(type) {
		case Null:
			return out, nil
		case *Pair:
			out = append(out, cell.Car)
			v = cell.Cdr
		default:
			return nil, NewError(KindType, "expected a proper list, got %s", v.TypeName())
		}
	}
}

// IsList reports whether v is a proper list.
func IsList(v Value) bool {
	_, err := ToSlice(v)
	return err == nil
}

// Equal compares values structurally. Numbers of different exactness are not equal,
// and procedures compare by identity.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case *Pair:
		y, ok := b.(*Pair)
		if !ok {
			return false
		}
		return Equal(x.Car, y.Car) && Equal(x.Cdr, y.Cdr)
	case *Error:
		y, ok := b.(*Error)
		return ok && (x == y || *x == *y)
	default:
		return a == b
	}
}

// Key returns a map key that is equal for two values iff Equal holds for them.
// Procedures, void, errors and NaN have no key; they cannot be tape symbols.
func Key(v Value) (string, bool) {
	switch x := v.(type) {
	case Integer:
		return "i" + x.String(), true
	case Real:
		if math.IsNaN(float64(x)) {
			return "", false
		}
		if x == 0 {
			return "r0", true
		}
		return fmt.Sprintf("r%v", float64(x)), true
	case String:
		return "s" + x.String(), true
	case Symbol:
		return "y" + string(x), true
	case Boolean:
		return "b" + x.String(), true
	case Null:
		return "n", true
	case *Pair:
		car, ok := Key(x.Car)
		if !ok {
			return "", false
		}
		cdr, ok := Key(x.Cdr)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("(%d:%s.%s)", len(car), car, cdr), true
	default:
		return "", false
	}
}
