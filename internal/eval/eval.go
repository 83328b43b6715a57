package eval

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/tlisp/internal/compiler"
	"github.com/aretw0/tlisp/internal/runtime"
	"github.com/aretw0/tlisp/pkg/registry"
	"github.com/aretw0/tlisp/pkg/types"
)

// DefaultMaxDepth bounds nested evaluation.
const DefaultMaxDepth = 10_000

// Option configures the Evaluator.
type Option func(*Evaluator)

// WithLogger sets the evaluator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ev *Evaluator) {
		if logger != nil {
			ev.logger = logger
		}
	}
}

// WithMaxDepth bounds nested evaluation. Zero or negative values select DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(ev *Evaluator) {
		if n > 0 {
			ev.maxDepth = n
		}
	}
}

// WithNatives registers additional native procedures in the global scope.
func WithNatives(r *registry.Registry) Option {
	return func(ev *Evaluator) {
		ev.extra = append(ev.extra, r)
	}
}

// Evaluator evaluates Theory Lisp data. It is safe for concurrent use as long as
// concurrent callers evaluate in separate child scopes of Global.
type Evaluator struct {
	engine   *runtime.Engine
	logger   *slog.Logger
	maxDepth int
	parser   *compiler.Parser
	natives  *registry.Registry
	extra    []*registry.Registry
	global   *Env
}

// New creates an evaluator whose automata run on engine.
func New(engine *runtime.Engine, opts ...Option) *Evaluator {
	ev := &Evaluator{
		engine:   engine,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth: DefaultMaxDepth,
		parser:   compiler.NewParser(),
		natives:  registry.NewRegistry(),
	}
	for _, opt := range opts {
		opt(ev)
	}

	ev.registerBuiltins(ev.natives)
	ev.global = NewEnv(nil)
	for _, r := range append([]*registry.Registry{ev.natives}, ev.extra...) {
		for _, name := range r.Names() {
			p, _ := r.Lookup(name)
			ev.global.Define(name, p)
		}
	}
	return ev
}

// Global returns the root scope.
func (ev *Evaluator) Global() *Env {
	return ev.global
}

// Engine returns the engine automata run on.
func (ev *Evaluator) Engine() *runtime.Engine {
	return ev.engine
}

// Natives returns the builtin procedure registry.
func (ev *Evaluator) Natives() *registry.Registry {
	return ev.natives
}

// EvalString reads and evaluates every expression of src in env, returning the last value.
// Errors are always *types.Error values.
func (ev *Evaluator) EvalString(ctx context.Context, src string, env *Env) (types.Value, error) {
	exprs, err := ev.parser.Parse(src)
	if err != nil {
		return nil, ToError(err)
	}
	var last types.Value = types.Void{}
	for _, expr := range exprs {
		last, err = ev.Eval(ctx, expr, env)
		if err != nil {
			return nil, err
		}
	}
	return last, nil
}

// Eval evaluates one expression in env. Errors are always *types.Error values.
func (ev *Evaluator) Eval(ctx context.Context, expr types.Value, env *Env) (types.Value, error) {
	if env == nil {
		env = ev.global
	}
	v, err := ev.eval(withFrames(ctx), expr, env)
	if err != nil {
		return nil, ToError(err)
	}
	return v, nil
}

type framesKey struct{}

type frames struct {
	depth int
}

func withFrames(ctx context.Context) context.Context {
	if _, ok := ctx.Value(framesKey{}).(*frames); ok {
		return ctx
	}
	return context.WithValue(ctx, framesKey{}, &frames{})
}

func (ev *Evaluator) enter(ctx context.Context) (func(), error) {
	f, ok := ctx.Value(framesKey{}).(*frames)
	if !ok {
		return func() {}, nil
	}
	if f.depth >= ev.maxDepth {
		return nil, types.NewError(types.KindError, "maximum evaluation depth %d exceeded", ev.maxDepth)
	}
	f.depth++
	return func() { f.depth-- }, nil
}

func (ev *Evaluator) eval(ctx context.Context, expr types.Value, env *Env) (types.Value, error) {
	leave, err := ev.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer leave()

	for {
		switch x := expr.(type) {
		case types.Symbol:
			return ev.lookup(x, env)
		case *types.Pair:
			// handled below
		default:
			return expr, nil
		}

		form := expr.(*types.Pair)
		if head, ok := form.Car.(types.Symbol); ok {
			if sf, ok := specialForms[string(head)]; ok {
				res, err := sf(ev, ctx, form, env)
				if err != nil {
					return nil, err
				}
				if res.tail == nil {
					return res.value, nil
				}
				expr, env = res.tail, res.env
				continue
			}
			if isAutomatonHead(head) {
				return ev.automatonForm(ctx, form, env, "")
			}
		}

		fn, err := ev.eval(ctx, form.Car, env)
		if err != nil {
			return nil, err
		}
		args, err := ev.evalArgs(ctx, form.Cdr, env)
		if err != nil {
			return nil, err
		}

		lam, ok := fn.(*Lambda)
		if !ok {
			return ev.apply(ctx, fn, args)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, scope, err := lam.bind(args)
		if err != nil {
			return nil, err
		}
		expr, env = body, scope
	}
}

func (ev *Evaluator) lookup(sym types.Symbol, env *Env) (types.Value, error) {
	if len(sym) > 1 && sym[0] == ':' {
		return sym, nil
	}
	v, ok := env.Lookup(string(sym))
	if !ok {
		return nil, types.NewError(types.KindUnbound, "unbound variable %s", sym)
	}
	return v, nil
}

func (ev *Evaluator) evalArgs(ctx context.Context, list types.Value, env *Env) ([]types.Value, error) {
	exprs, err := types.ToSlice(list)
	if err != nil {
		return nil, syntaxError("malformed application")
	}
	args := make([]types.Value, len(exprs))
	for i, e := range exprs {
		if args[i], err = ev.eval(ctx, e, env); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// Apply calls fn with args; used by natives that call back into the evaluator.
func (ev *Evaluator) apply(ctx context.Context, fn types.Value, args []types.Value) (types.Value, error) {
	p, ok := fn.(types.Procedure)
	if !ok {
		return nil, typeError("%s is not a procedure", fn)
	}
	return p.Call(ctx, args)
}

// evalBody evaluates a sequence and returns the last expression as a tail call.
func (ev *Evaluator) evalBody(ctx context.Context, body []types.Value, env *Env) (formResult, error) {
	if len(body) == 0 {
		return value(types.Void{}), nil
	}
	for _, e := range body[:len(body)-1] {
		if _, err := ev.eval(ctx, e, env); err != nil {
			return formResult{}, err
		}
	}
	return tail(body[len(body)-1], env), nil
}
