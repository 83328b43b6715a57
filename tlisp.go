package tlisp

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/tlisp/internal/eval"
	"github.com/aretw0/tlisp/internal/runtime"
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/ports"
	"github.com/aretw0/tlisp/pkg/registry"
	"github.com/aretw0/tlisp/pkg/schema"
	"github.com/aretw0/tlisp/pkg/types"
)

//go:embed VERSION
var version string

// Version is the release of this module.
var Version = strings.TrimSpace(version)

// Automaton is a compiled automaton bound as a callable host value.
type Automaton = eval.AutomatonProc

// Interpreter is the high-level entry point for the tlisp library.
// It owns a global scope, the engine automata run on and an optional library of definitions.
type Interpreter struct {
	engine   *runtime.Engine
	eval     *eval.Evaluator
	library  ports.LibraryLoader
	natives  []*registry.Registry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	budget   int
	maxDepth int

	mu sync.Mutex
	// dependents maps a base machine name to the automata defined on top of it.
	dependents map[string]map[string]bool
}

// Option defines a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on every run.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(i *Interpreter) {
		i.hooks = i.hooks.Merge(hooks)
	}
}

// WithStepBudget bounds the number of steps of one top-level run.
func WithStepBudget(n int) Option {
	return func(i *Interpreter) {
		i.budget = n
	}
}

// WithMaxDepth bounds the evaluator's recursion depth.
func WithMaxDepth(n int) Option {
	return func(i *Interpreter) {
		i.maxDepth = n
	}
}

// WithLibrary makes the definitions of l resolvable by name.
func WithLibrary(l ports.LibraryLoader) Option {
	return func(i *Interpreter) {
		i.library = l
	}
}

// WithNatives binds extra Go procedures in the global scope.
func WithNatives(r *registry.Registry) Option {
	return func(i *Interpreter) {
		i.natives = append(i.natives, r)
	}
}

// New initializes an Interpreter.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	i.engine = runtime.NewEngine(
		runtime.WithLogger(i.logger),
		runtime.WithLifecycleHooks(i.hooks),
		runtime.WithStepBudget(i.budget),
	)
	evalOpts := []eval.Option{eval.WithLogger(i.logger)}
	if i.maxDepth > 0 {
		evalOpts = append(evalOpts, eval.WithMaxDepth(i.maxDepth))
	}
	for _, r := range i.natives {
		evalOpts = append(evalOpts, eval.WithNatives(r))
	}
	i.eval = eval.New(i.engine, evalOpts...)
	return i
}

// Library returns the configured library, or nil.
func (i *Interpreter) Library() ports.LibraryLoader {
	return i.library
}

// Logger returns the interpreter's logger.
func (i *Interpreter) Logger() *slog.Logger {
	return i.logger
}

// StepBudget returns the effective step budget.
func (i *Interpreter) StepBudget() int {
	return i.engine.StepBudget()
}

// Eval evaluates every expression of src in the global scope and returns the last value.
// Errors are *types.Error values.
func (i *Interpreter) Eval(ctx context.Context, src string) (types.Value, error) {
	return i.eval.EvalString(ctx, src, i.eval.Global())
}

// EvalFile evaluates a source file in the global scope.
func (i *Interpreter) EvalFile(ctx context.Context, path string) (types.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	i.logger.Debug("Evaluating file", "path", path)
	return i.Eval(ctx, string(data))
}

// Define compiles def and binds it in the global scope under def.Name, replacing any
// previous binding. Guard and output sources are evaluated in the global scope; base
// machines are resolved with Lookup.
func (i *Interpreter) Define(ctx context.Context, def *schema.Definition) (*Automaton, error) {
	chain, _ := ctx.Value(definingKey{}).([]string)
	if slices.Contains(chain, def.Name) {
		return nil, &domain.ConstructionError{
			Automaton: def.Name,
			Reason:    fmt.Sprintf("base machine cycle %s -> %s", strings.Join(chain, " -> "), def.Name),
		}
	}
	ctx = context.WithValue(ctx, definingKey{}, append(slices.Clone(chain), def.Name))

	var (
		bases     []*Automaton
		baseNames []string
	)
	c := schema.Compiler{
		Procedure: func(ctx context.Context, src string) (types.Procedure, error) {
			v, err := i.Eval(ctx, src)
			if err != nil {
				return nil, err
			}
			p, ok := v.(types.Procedure)
			if !ok {
				return nil, fmt.Errorf("%q evaluates to %s, not a procedure", src, v.TypeName())
			}
			if !eval.AcceptsSymbols(p, def.TapeCount()) {
				return nil, fmt.Errorf("%s cannot accept %d symbol(s)", p, def.TapeCount())
			}
			return p, nil
		},
		Base: func(ctx context.Context, name string) (*domain.Automaton, error) {
			p, err := i.Lookup(ctx, name)
			if err != nil {
				return nil, err
			}
			bases = append(bases, p)
			baseNames = append(baseNames, name)
			return p.Automaton(), nil
		},
	}

	a, err := c.Compile(ctx, def)
	if err != nil {
		i.logger.Warn("Automaton Construction Failed", "automaton", def.Name, "err", err)
		return nil, err
	}
	p := i.eval.Wrap(a, bases...)
	i.eval.Global().Define(def.Name, p)
	i.recordBases(def.Name, baseNames)
	i.logger.Debug("Automaton Defined", "automaton", def.Name, "states", len(def.States))
	return p, nil
}

type definingKey struct{}

// Forget removes the global binding of an automaton so the next Lookup reloads it from the library.
// Automata defined with it as a base machine are forgotten too.
func (i *Interpreter) Forget(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.forget(name, map[string]bool{})
}

func (i *Interpreter) forget(name string, done map[string]bool) {
	if done[name] {
		return
	}
	done[name] = true
	if v, ok := i.eval.Global().Lookup(name); ok {
		if _, isAutomaton := v.(*Automaton); isAutomaton {
			i.eval.Global().Delete(name)
		}
	}
	dependents := i.dependents[name]
	delete(i.dependents, name)
	for dep := range dependents {
		i.forget(dep, done)
	}
}

func (i *Interpreter) recordBases(name string, bases []string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.dependents == nil {
		i.dependents = make(map[string]map[string]bool)
	}
	for _, base := range bases {
		if i.dependents[base] == nil {
			i.dependents[base] = make(map[string]bool)
		}
		i.dependents[base][name] = true
	}
}

// Lookup resolves an automaton by name: first the global scope, then the library.
// Library definitions are compiled once and bound globally.
func (i *Interpreter) Lookup(ctx context.Context, name string) (*Automaton, error) {
	if v, ok := i.eval.Global().Lookup(name); ok {
		if p, ok := v.(*Automaton); ok {
			return p, nil
		}
		return nil, fmt.Errorf("%s is a %s, not an automaton", name, v.TypeName())
	}
	if i.library == nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrDefinitionNotFound, name)
	}
	def, err := i.library.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	def.Name = name
	return i.Define(ctx, def)
}

// Automata lists the automata bound globally and those in the library.
func (i *Interpreter) Automata(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	for _, name := range i.eval.Global().Names() {
		if v, ok := i.eval.Global().Lookup(name); ok {
			if _, isAutomaton := v.(*Automaton); isAutomaton {
				seen[name] = true
			}
		}
	}
	if i.library != nil {
		names, err := i.library.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Run runs the named automaton on one tape value per tape. Tape values are strings
// or (head . contents) pairs.
func (i *Interpreter) Run(ctx context.Context, name string, tapes ...types.Value) (*domain.Result, error) {
	p, err := i.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, tapes)
}

// Trace runs the named automaton one step at a time and returns every step.
func (i *Interpreter) Trace(ctx context.Context, name string, tapes ...types.Value) ([]*domain.StepEvent, *domain.Result, error) {
	p, err := i.Lookup(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	return i.eval.Trace(ctx, p, tapes)
}

// ErrorValue maps any error returned by the Interpreter to the host error value a
// try/catch handler would see.
func ErrorValue(err error) *types.Error {
	if err == nil {
		return nil
	}
	return eval.ToError(err)
}
