package eval

import (
	"context"
	"math"
	"strings"

	"github.com/aretw0/tlisp/pkg/registry"
	"github.com/aretw0/tlisp/pkg/types"
)

func (ev *Evaluator) registerBuiltins(r *registry.Registry) {
	registerNumeric(r)
	registerLists(r)
	registerPredicates(r)
	registerStrings(r)
	registerErrors(r)
	ev.registerTapes(r)

	r.Register("apply", 2, false, func(ctx context.Context, args []types.Value) (types.Value, error) {
		rest, err := types.ToSlice(args[1])
		if err != nil {
			return nil, err
		}
		return ev.apply(withFrames(ctx), args[0], rest)
	})
}

func number(v types.Value) (float64, bool, error) {
	switch x := v.(type) {
	case types.Integer:
		return float64(x), true, nil
	case types.Real:
		return float64(x), false, nil
	}
	return 0, false, typeError("expected a number, got %s", v)
}

func integer(v types.Value) (int64, error) {
	i, ok := v.(types.Integer)
	if !ok {
		return 0, typeError("expected an integer, got %s", v)
	}
	return int64(i), nil
}

// fold applies an arithmetic operator, staying exact while every operand is an integer.
func fold(args []types.Value, exact func(a, b int64) int64, inexact func(a, b float64) float64) (types.Value, error) {
	accI, isInt := args[0].(types.Integer)
	accF, _, err := number(args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		f, aInt, err := number(a)
		if err != nil {
			return nil, err
		}
		if isInt && aInt {
			accI = types.Integer(exact(int64(accI), int64(a.(types.Integer))))
		}
		isInt = isInt && aInt
		accF = inexact(accF, f)
	}
	if isInt {
		return accI, nil
	}
	return types.Real(accF), nil
}

func registerNumeric(r *registry.Registry) {
	r.Register("+", 0, true, func(_ context.Context, args []types.Value) (types.Value, error) {
		if len(args) == 0 {
			return types.Integer(0), nil
		}
		return fold(args, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	})
	r.Register("*", 0, true, func(_ context.Context, args []types.Value) (types.Value, error) {
		if len(args) == 0 {
			return types.Integer(1), nil
		}
		return fold(args, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	})
	r.Register("-", 1, true, func(_ context.Context, args []types.Value) (types.Value, error) {
		if len(args) == 1 {
			args = []types.Value{types.Integer(0), args[0]}
		}
		return fold(args, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	})
	r.Register("/", 1, true, func(_ context.Context, args []types.Value) (types.Value, error) {
		if len(args) == 1 {
			args = []types.Value{types.Integer(1), args[0]}
		}
		acc := args[0]
		for _, a := range args[1:] {
			d, _, err := number(a)
			if err != nil {
				return nil, err
			}
			if d == 0 {
				return nil, types.NewError(types.KindError, "division by zero")
			}
			n, _, err := number(acc)
			if err != nil {
				return nil, err
			}
			ai, aInt := acc.(types.Integer)
			bi, bInt := a.(types.Integer)
			if aInt && bInt && int64(ai)%int64(bi) == 0 {
				acc = ai / bi
				continue
			}
			acc = types.Real(n / d)
		}
		return acc, nil
	})

	intOp := func(name string, op func(a, b int64) int64) {
		r.Register(name, 2, false, func(_ context.Context, args []types.Value) (types.Value, error) {
			a, err := integer(args[0])
			if err != nil {
				return nil, err
			}
			b, err := integer(args[1])
			if err != nil {
				return nil, err
			}
			if b == 0 {
				return nil, types.NewError(types.KindError, "division by zero")
			}
			return types.Integer(op(a, b)), nil
		})
	}
	intOp("quotient", func(a, b int64) int64 { return a / b })
	intOp("remainder", func(a, b int64) int64 { return a % b })
	intOp("modulo", func(a, b int64) int64 {
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return m
	})

	r.Register("abs", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		if i, ok := args[0].(types.Integer); ok {
			if i < 0 {
				return -i, nil
			}
			return i, nil
		}
		f, _, err := number(args[0])
		if err != nil {
			return nil, err
		}
		return types.Real(math.Abs(f)), nil
	})
	r.Register("min", 1, true, func(_ context.Context, args []types.Value) (types.Value, error) {
		return fold(args, func(a, b int64) int64 { return min(a, b) }, math.Min)
	})
	r.Register("max", 1, true, func(_ context.Context, args []types.Value) (types.Value, error) {
		return fold(args, func(a, b int64) int64 { return max(a, b) }, math.Max)
	})

	compare := func(name string, ok func(a, b float64) bool) {
		r.Register(name, 1, true, func(_ context.Context, args []types.Value) (types.Value, error) {
			for i := 0; i+1 < len(args); i++ {
				a, _, err := number(args[i])
				if err != nil {
					return nil, err
				}
				b, _, err := number(args[i+1])
				if err != nil {
					return nil, err
				}
				if !ok(a, b) {
					return types.Boolean(false), nil
				}
			}
			if _, _, err := number(args[len(args)-1]); err != nil {
				return nil, err
			}
			return types.Boolean(true), nil
		})
	}
	compare("=", func(a, b float64) bool { return a == b })
	compare("<", func(a, b float64) bool { return a < b })
	compare(">", func(a, b float64) bool { return a > b })
	compare("<=", func(a, b float64) bool { return a <= b })
	compare(">=", func(a, b float64) bool { return a >= b })
}

func registerLists(r *registry.Registry) {
	r.Register("cons", 2, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		return types.Cons(args[0], args[1]), nil
	})
	r.Register("car", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		p, ok := args[0].(*types.Pair)
		if !ok {
			return nil, typeError("car of %s", args[0])
		}
		return p.Car, nil
	})
	r.Register("cdr", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		p, ok := args[0].(*types.Pair)
		if !ok {
			return nil, typeError("cdr of %s", args[0])
		}
		return p.Cdr, nil
	})
	r.Register("list", 0, true, func(_ context.Context, args []types.Value) (types.Value, error) {
		return types.List(args...), nil
	})
	r.Register("length", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		items, err := types.ToSlice(args[0])
		if err != nil {
			return nil, err
		}
		return types.Integer(len(items)), nil
	})
	r.Register("reverse", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		items, err := types.ToSlice(args[0])
		if err != nil {
			return nil, err
		}
		out := make([]types.Value, len(items))
		for i, v := range items {
			out[len(items)-1-i] = v
		}
		return types.List(out...), nil
	})
	r.Register("append", 0, true, func(_ context.Context, args []types.Value) (types.Value, error) {
		var out []types.Value
		for _, a := range args {
			items, err := types.ToSlice(a)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
		}
		return types.List(out...), nil
	})
	r.Register("list-ref", 2, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		items, err := types.ToSlice(args[0])
		if err != nil {
			return nil, err
		}
		k, err := integer(args[1])
		if err != nil {
			return nil, err
		}
		if k < 0 || int(k) >= len(items) {
			return nil, types.NewError(types.KindError, "index %d out of range", k)
		}
		return items[k], nil
	})
}

func registerPredicates(r *registry.Registry) {
	pred := func(name string, fn func(types.Value) bool) {
		r.Register(name, 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
			return types.Boolean(fn(args[0])), nil
		})
	}
	is := func(typeName string) func(types.Value) bool {
		return func(v types.Value) bool { return v.TypeName() == typeName }
	}
	pred("null?", is("null"))
	pred("pair?", is("pair"))
	pred("list?", types.IsList)
	pred("integer?", is("integer"))
	pred("real?", is("real"))
	pred("number?", func(v types.Value) bool { return is("integer")(v) || is("real")(v) })
	pred("string?", is("string"))
	pred("symbol?", is("symbol"))
	pred("boolean?", is("boolean"))
	pred("error?", is("error"))
	pred("automaton?", is("automaton"))
	pred("procedure?", func(v types.Value) bool {
		_, ok := v.(types.Procedure)
		return ok
	})
	pred("not", func(v types.Value) bool { return !types.Truthy(v) })

	r.Register("equal?", 2, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		return types.Boolean(types.Equal(args[0], args[1])), nil
	})
	r.Register("eq?", 2, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		if _, ok := args[0].(*types.Pair); ok {
			return types.Boolean(args[0] == args[1]), nil
		}
		return types.Boolean(types.Equal(args[0], args[1])), nil
	})
}

func str(v types.Value) (string, error) {
	s, ok := v.(types.String)
	if !ok {
		return "", typeError("expected a string, got %s", v)
	}
	return string(s), nil
}

func registerStrings(r *registry.Registry) {
	r.Register("string-append", 0, true, func(_ context.Context, args []types.Value) (types.Value, error) {
		var sb strings.Builder
		for _, a := range args {
			s, err := str(a)
			if err != nil {
				return nil, err
			}
			sb.WriteString(s)
		}
		return types.String(sb.String()), nil
	})
	r.Register("string-length", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		s, err := str(args[0])
		if err != nil {
			return nil, err
		}
		return types.Integer(len([]rune(s))), nil
	})
	r.Register("symbol->string", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		sym, ok := args[0].(types.Symbol)
		if !ok {
			return nil, typeError("expected a symbol, got %s", args[0])
		}
		return types.String(sym), nil
	})
	r.Register("string->symbol", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		s, err := str(args[0])
		if err != nil {
			return nil, err
		}
		return types.Symbol(s), nil
	})
	r.Register("number->string", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		if _, _, err := number(args[0]); err != nil {
			return nil, err
		}
		return types.String(args[0].String()), nil
	})
}

func registerErrors(r *registry.Registry) {
	r.Register("error", 1, true, func(_ context.Context, args []types.Value) (types.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = types.Display(a)
		}
		return nil, types.NewError(types.KindUser, "%s", strings.Join(parts, " "))
	})
	r.Register("raise", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		if e, ok := args[0].(*types.Error); ok {
			return nil, e
		}
		return nil, types.NewError(types.KindUser, "%s", types.Display(args[0]))
	})
	r.Register("error-kind", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		e, ok := args[0].(*types.Error)
		if !ok {
			return nil, typeError("expected an error, got %s", args[0])
		}
		return types.Symbol(e.Kind), nil
	})
	r.Register("error-message", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		e, ok := args[0].(*types.Error)
		if !ok {
			return nil, typeError("expected an error, got %s", args[0])
		}
		return types.String(e.Message), nil
	})
}
