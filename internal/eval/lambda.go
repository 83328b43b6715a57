package eval

import (
	"context"

	"github.com/aretw0/tlisp/pkg/types"
)

// Lambda is a user-defined closure.
type Lambda struct {
	name   string
	params []string
	rest   string
	body   types.Value
	env    *Env
	ev     *Evaluator
}

// newLambda accepts (a b c) for fixed parameters and a bare symbol for a variadic list.
func newLambda(ev *Evaluator, name string, formals types.Value, body []types.Value, env *Env) (*Lambda, error) {
	lam := &Lambda{name: name, env: env, ev: ev}
	switch f := formals.(type) {
	case types.Symbol:
		lam.rest = string(f)
	default:
		list, err := types.ToSlice(formals)
		if err != nil {
			return nil, syntaxError("malformed parameter list %s", formals)
		}
		for _, p := range list {
			sym, ok := p.(types.Symbol)
			if !ok {
				return nil, syntaxError("parameter must be a symbol, got %s", p)
			}
			lam.params = append(lam.params, string(sym))
		}
	}
	if len(body) == 0 {
		return nil, syntaxError("lambda without body")
	}
	lam.body = types.Cons(types.Symbol("begin"), types.List(body...))
	return lam, nil
}

func (l *Lambda) TypeName() string { return "procedure" }

func (l *Lambda) String() string {
	if l.name == "" {
		return "#<procedure>"
	}
	return "#<procedure " + l.name + ">"
}

func (l *Lambda) Name() string { return l.name }

func (l *Lambda) Arity() (int, bool) {
	return len(l.params), l.rest != ""
}

// Call evaluates the body with args bound.
func (l *Lambda) Call(ctx context.Context, args []types.Value) (types.Value, error) {
	body, scope, err := l.bind(args)
	if err != nil {
		return nil, err
	}
	return l.ev.eval(withFrames(ctx), body, scope)
}

func (l *Lambda) bind(args []types.Value) (types.Value, *Env, error) {
	if len(args) < len(l.params) || (l.rest == "" && len(args) > len(l.params)) {
		return nil, nil, types.NewError(types.KindArity, "%s expects %d argument(s), got %d", l, len(l.params), len(args))
	}
	scope := NewEnv(l.env)
	for i, p := range l.params {
		scope.Define(p, args[i])
	}
	if l.rest != "" {
		scope.Define(l.rest, types.List(args[len(l.params):]...))
	}
	return l.body, scope, nil
}
