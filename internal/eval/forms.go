package eval

import (
	"context"
	"errors"

	"github.com/aretw0/tlisp/pkg/types"
)

// formResult is either a final value or an expression to continue with in tail position.
type formResult struct {
	value types.Value
	tail  types.Value
	env   *Env
}

func value(v types.Value) formResult { return formResult{value: v} }

func tail(expr types.Value, env *Env) formResult { return formResult{tail: expr, env: env} }

type specialForm func(ev *Evaluator, ctx context.Context, form *types.Pair, env *Env) (formResult, error)

var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"quote":  formQuote,
		"if":     formIf,
		"cond":   formCond,
		"define": formDefine,
		"set!":   formSet,
		"lambda": formLambda,
		"let":    formLet,
		"let*":   formLetStar,
		"begin":  formBegin,
		"and":    formAnd,
		"or":     formOr,
		"try":    formTry,
	}
}

// operands returns the elements after the head, checking the count bounds (max < 0 is unbounded).
func operands(form *types.Pair, min, max int) ([]types.Value, error) {
	args, err := types.ToSlice(form.Cdr)
	if err != nil || len(args) < min || (max >= 0 && len(args) > max) {
		return nil, syntaxError("malformed %s", form.Car)
	}
	return args, nil
}

func formQuote(_ *Evaluator, _ context.Context, form *types.Pair, _ *Env) (formResult, error) {
	args, err := operands(form, 1, 1)
	if err != nil {
		return formResult{}, err
	}
	return value(args[0]), nil
}

func formIf(ev *Evaluator, ctx context.Context, form *types.Pair, env *Env) (formResult, error) {
	args, err := operands(form, 2, 3)
	if err != nil {
		return formResult{}, err
	}
	test, err := ev.eval(ctx, args[0], env)
	if err != nil {
		return formResult{}, err
	}
	if types.Truthy(test) {
		return tail(args[1], env), nil
	}
	if len(args) == 3 {
		return tail(args[2], env), nil
	}
	return value(types.Void{}), nil
}

func formCond(ev *Evaluator, ctx context.Context, form *types.Pair, env *Env) (formResult, error) {
	clauses, err := operands(form, 0, -1)
	if err != nil {
		return formResult{}, err
	}
	for _, c := range clauses {
		parts, err := types.ToSlice(c)
		if err != nil || len(parts) == 0 {
			return formResult{}, syntaxError("malformed cond clause %s", c)
		}
		var test types.Value
		if parts[0] == types.Symbol("else") {
			test = types.Boolean(true)
		} else if test, err = ev.eval(ctx, parts[0], env); err != nil {
			return formResult{}, err
		}
		if !types.Truthy(test) {
			continue
		}
		if len(parts) == 1 {
			return value(test), nil
		}
		return ev.evalBody(ctx, parts[1:], env)
	}
	return value(types.Void{}), nil
}

func formDefine(ev *Evaluator, ctx context.Context, form *types.Pair, env *Env) (formResult, error) {
	args, err := operands(form, 1, -1)
	if err != nil {
		return formResult{}, err
	}

	switch target := args[0].(type) {
	case types.Symbol:
		if len(args) > 2 {
			return formResult{}, syntaxError("malformed define")
		}
		var v types.Value = types.Void{}
		if len(args) == 2 {
			if v, err = ev.evalNamed(ctx, args[1], env, string(target)); err != nil {
				return formResult{}, err
			}
		}
		env.Define(string(target), v)
		return value(types.Void{}), nil
	case *types.Pair:
		name, ok := target.Car.(types.Symbol)
		if !ok {
			return formResult{}, syntaxError("malformed define")
		}
		lam, err := newLambda(ev, string(name), target.Cdr, args[1:], env)
		if err != nil {
			return formResult{}, err
		}
		env.Define(string(name), lam)
		return value(types.Void{}), nil
	default:
		return formResult{}, syntaxError("cannot define %s", args[0])
	}
}

// evalNamed evaluates expr, naming anonymous lambdas and automata after the variable they are bound to.
func (ev *Evaluator) evalNamed(ctx context.Context, expr types.Value, env *Env, name string) (types.Value, error) {
	if form, ok := expr.(*types.Pair); ok {
		if head, ok := form.Car.(types.Symbol); ok && isAutomatonHead(head) {
			return ev.automatonForm(ctx, form, env, name)
		}
	}
	v, err := ev.eval(ctx, expr, env)
	if err != nil {
		return nil, err
	}
	if lam, ok := v.(*Lambda); ok && lam.name == "" {
		lam.name = name
	}
	return v, nil
}

func formSet(ev *Evaluator, ctx context.Context, form *types.Pair, env *Env) (formResult, error) {
	args, err := operands(form, 2, 2)
	if err != nil {
		return formResult{}, err
	}
	name, ok := args[0].(types.Symbol)
	if !ok {
		return formResult{}, syntaxError("set! expects a symbol")
	}
	v, err := ev.eval(ctx, args[1], env)
	if err != nil {
		return formResult{}, err
	}
	if !env.Set(string(name), v) {
		return formResult{}, types.NewError(types.KindUnbound, "unbound variable %s", name)
	}
	return value(types.Void{}), nil
}

func formLambda(ev *Evaluator, _ context.Context, form *types.Pair, env *Env) (formResult, error) {
	args, err := operands(form, 1, -1)
	if err != nil {
		return formResult{}, err
	}
	lam, err := newLambda(ev, "", args[0], args[1:], env)
	if err != nil {
		return formResult{}, err
	}
	return value(lam), nil
}

func bindings(v types.Value) ([]string, []types.Value, error) {
	list, err := types.ToSlice(v)
	if err != nil {
		return nil, nil, syntaxError("malformed bindings")
	}
	names := make([]string, len(list))
	exprs := make([]types.Value, len(list))
	for i, b := range list {
		pair, err := types.ToSlice(b)
		if err != nil || len(pair) != 2 {
			return nil, nil, syntaxError("malformed binding %s", b)
		}
		name, ok := pair[0].(types.Symbol)
		if !ok {
			return nil, nil, syntaxError("binding name must be a symbol, got %s", pair[0])
		}
		names[i], exprs[i] = string(name), pair[1]
	}
	return names, exprs, nil
}

func formLet(ev *Evaluator, ctx context.Context, form *types.Pair, env *Env) (formResult, error) {
	args, err := operands(form, 1, -1)
	if err != nil {
		return formResult{}, err
	}
	names, exprs, err := bindings(args[0])
	if err != nil {
		return formResult{}, err
	}
	scope := NewEnv(env)
	for i, e := range exprs {
		v, err := ev.evalNamed(ctx, e, env, names[i])
		if err != nil {
			return formResult{}, err
		}
		scope.Define(names[i], v)
	}
	return ev.evalBody(ctx, args[1:], scope)
}

func formLetStar(ev *Evaluator, ctx context.Context, form *types.Pair, env *Env) (formResult, error) {
	args, err := operands(form, 1, -1)
	if err != nil {
		return formResult{}, err
	}
	names, exprs, err := bindings(args[0])
	if err != nil {
		return formResult{}, err
	}
	scope := env
	for i, e := range exprs {
		v, err := ev.evalNamed(ctx, e, scope, names[i])
		if err != nil {
			return formResult{}, err
		}
		scope = NewEnv(scope)
		scope.Define(names[i], v)
	}
	return ev.evalBody(ctx, args[1:], NewEnv(scope))
}

func formBegin(ev *Evaluator, ctx context.Context, form *types.Pair, env *Env) (formResult, error) {
	args, err := operands(form, 0, -1)
	if err != nil {
		return formResult{}, err
	}
	return ev.evalBody(ctx, args, env)
}

func formAnd(ev *Evaluator, ctx context.Context, form *types.Pair, env *Env) (formResult, error) {
	args, err := operands(form, 0, -1)
	if err != nil {
		return formResult{}, err
	}
	if len(args) == 0 {
		return value(types.Boolean(true)), nil
	}
	for _, a := range args[:len(args)-1] {
		v, err := ev.eval(ctx, a, env)
		if err != nil {
			return formResult{}, err
		}
		if !types.Truthy(v) {
			return value(v), nil
		}
	}
	return tail(args[len(args)-1], env), nil
}

func formOr(ev *Evaluator, ctx context.Context, form *types.Pair, env *Env) (formResult, error) {
	args, err := operands(form, 0, -1)
	if err != nil {
		return formResult{}, err
	}
	if len(args) == 0 {
		return value(types.Boolean(false)), nil
	}
	for _, a := range args[:len(args)-1] {
		v, err := ev.eval(ctx, a, env)
		if err != nil {
			return formResult{}, err
		}
		if types.Truthy(v) {
			return value(v), nil
		}
	}
	return tail(args[len(args)-1], env), nil
}

// formTry implements (try BODY (catch (e) HANDLER...)). The handler sees the error value.
func formTry(ev *Evaluator, ctx context.Context, form *types.Pair, env *Env) (formResult, error) {
	args, err := operands(form, 2, 2)
	if err != nil {
		return formResult{}, err
	}
	clause, err := types.ToSlice(args[1])
	if err != nil || len(clause) < 2 || clause[0] != types.Symbol("catch") {
		return formResult{}, syntaxError("try expects (catch (var) handler...)")
	}
	params, err := types.ToSlice(clause[1])
	if err != nil || len(params) != 1 {
		return formResult{}, syntaxError("catch expects exactly one variable")
	}
	name, ok := params[0].(types.Symbol)
	if !ok {
		return formResult{}, syntaxError("catch variable must be a symbol")
	}

	v, err := ev.eval(ctx, args[0], env)
	if err == nil {
		return value(v), nil
	}
	lispErr := ToError(err)
	if !catchable(lispErr) || errors.Is(err, context.Canceled) {
		return formResult{}, lispErr
	}
	ev.logger.Debug("Exception Caught", "kind", lispErr.Kind, "err", lispErr.Message)

	scope := NewEnv(env)
	scope.Define(string(name), lispErr)
	return ev.evalBody(ctx, clause[2:], scope)
}
