package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/types"
)

// DefaultStepBudget bounds runs when no budget is configured.
const DefaultStepBudget = 1_000_000

// ErrFinished is returned by Step once the execution reached a terminal action.
var ErrFinished = errors.New("execution already finished")

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for run tracing.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithStepBudget bounds the number of steps of one top-level run, nested base machines included.
// Zero or negative values select DefaultStepBudget.
func WithStepBudget(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.budget = n
		}
	}
}

// Engine drives automata over tapes. It holds no per-run state and is safe for concurrent
// and re-entrant use.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	budget int
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		budget: DefaultStepBudget,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StepBudget returns the configured budget.
func (e *Engine) StepBudget() int {
	return e.budget
}

// Run executes a to completion. The run takes ownership of tapes and mutates them;
// the final tapes are returned in the Result.
func (e *Engine) Run(ctx context.Context, a *domain.Automaton, tapes []*domain.Tape) (*domain.Result, error) {
	x, err := e.Start(ctx, a, tapes)
	if err != nil {
		return nil, err
	}
	return x.Finish(ctx)
}

// Start prepares a step-by-step execution of a.
func (e *Engine) Start(ctx context.Context, a *domain.Automaton, tapes []*domain.Tape) (*Execution, error) {
	return e.start(ctx, a, tapes, &counter{limit: e.budget}, 0)
}

func (e *Engine) start(ctx context.Context, a *domain.Automaton, tapes []*domain.Tape, steps *counter, depth int) (*Execution, error) {
	reg, table, err := a.Program()
	if err != nil {
		return nil, err
	}
	if len(tapes) != a.Tapes() {
		return nil, &domain.TapeCountError{Automaton: a.Name(), Want: a.Tapes(), Got: len(tapes)}
	}
	for _, t := range tapes {
		for _, cell := range t.Cells() {
			if err := domain.ValidSymbol(cell); err != nil {
				return nil, err
			}
		}
	}

	x := &Execution{
		engine:    e,
		automaton: a,
		registry:  reg,
		table:     table,
		tapes:     tapes,
		state:     a.Start(),
		steps:     steps,
		depth:     depth,
		startedAt: time.Now(),
		logger:    e.logger.With("automaton", a.Name(), "depth", depth),
	}

	x.logger.Debug("Run Start", "tapes", len(tapes), "start", reg.State(x.state).Name)
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{
			EventBase: x.event(domain.EventRunStart),
			Tapes:     len(tapes),
		})
	}
	return x, nil
}

// counter is shared between a run and its nested base machine runs.
type counter struct {
	used  int
	limit int
}

// Execution is one run of an automaton, advanced with Step.
type Execution struct {
	engine    *Engine
	automaton *domain.Automaton
	registry  *domain.Registry
	table     *domain.Table
	tapes     []*domain.Tape
	state     domain.StateID
	steps     *counter
	depth     int
	taken     int
	startedAt time.Time
	logger    *slog.Logger

	result *domain.Result
	err    error
}

// Done reports whether the execution reached a terminal action or failed.
func (x *Execution) Done() bool {
	return x.result != nil || x.err != nil
}

// Result returns the final result once Done; nil before that or after a failure.
func (x *Execution) Result() *domain.Result {
	return x.result
}

// State returns the name of the current state.
func (x *Execution) State() string {
	return x.registry.State(x.state).Name
}

// Tapes returns the live tapes of the run.
func (x *Execution) Tapes() []*domain.Tape {
	return x.tapes
}

// Steps returns the number of steps taken by this execution, nested base runs excluded.
func (x *Execution) Steps() int {
	return x.taken
}

// Finish runs the remaining steps.
func (x *Execution) Finish(ctx context.Context) (*domain.Result, error) {
	for !x.Done() {
		if _, err := x.Step(ctx); err != nil {
			return nil, err
		}
	}
	return x.result, x.err
}

// Step executes one iteration of the run loop: base machine, state output, dispatch,
// head operations, transition output and next-action.
func (x *Execution) Step(ctx context.Context) (*domain.StepEvent, error) {
	if x.err != nil {
		return nil, x.err
	}
	if x.result != nil {
		return nil, ErrFinished
	}
	ev, err := x.step(ctx)
	if err != nil {
		x.fail(ctx, err)
		return nil, err
	}
	return ev, nil
}

func (x *Execution) step(ctx context.Context) (*domain.StepEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("automaton %s interrupted: %w", x.automaton.Name(), err)
	}
	if x.steps.used >= x.steps.limit {
		return nil, &domain.StepBudgetExceededError{Automaton: x.automaton.Name(), Budget: x.steps.limit}
	}
	x.steps.used++
	x.taken++

	st := x.registry.State(x.state)
	ev := &domain.StepEvent{
		EventBase:  x.event(domain.EventStep),
		Step:       x.taken,
		State:      st.Name,
		Transition: -1,
	}

	if st.Base != nil {
		res, err := x.runBase(ctx, st.Base)
		if err != nil {
			return nil, err
		}
		if res.Outcome != domain.OutcomeHalt {
			ev.Next = res.Outcome.String()
			x.emitStep(ctx, ev)
			x.finish(ctx, res.Outcome)
			return ev, nil
		}
	}

	symbols := x.read()
	ev.Symbols = symbols

	if st.Output != nil {
		if _, err := st.Output.Call(ctx, symbols); err != nil {
			return nil, fmt.Errorf("output of state %s: %w", st.Name, err)
		}
	}

	var action domain.Action
	if x.table.Count(x.state) == 0 {
		action = x.registry.Fallthrough(x.state)
	} else {
		tr, err := x.table.Lookup(ctx, x.state, symbols)
		if err != nil {
			return nil, err
		}
		if tr == nil {
			action = domain.Action{Kind: domain.ActionReject}
		} else {
			ev.Transition = tr.Index
			for _, op := range tr.Ops {
				x.tapes[op.Tape].Apply(op)
			}
			if tr.Output != nil {
				if _, err := tr.Output.Call(ctx, symbols); err != nil {
					return nil, fmt.Errorf("output of transition %d in state %s: %w", tr.Index, st.Name, err)
				}
			}
			action = tr.Action
		}
	}

	ev.Next = domain.TargetName(x.registry, action)
	x.emitStep(ctx, ev)

	if action.Terminal() {
		x.finish(ctx, action.Outcome())
	} else {
		x.state = action.Target
	}
	return ev, nil
}

func (x *Execution) runBase(ctx context.Context, base *domain.Automaton) (*domain.Result, error) {
	sub, err := x.engine.start(ctx, base, x.tapes, x.steps, x.depth+1)
	if err != nil {
		return nil, fmt.Errorf("base machine %s: %w", base.Name(), err)
	}
	return sub.Finish(ctx)
}

func (x *Execution) read() []types.Value {
	symbols := make([]types.Value, len(x.tapes))
	for i, t := range x.tapes {
		symbols[i] = t.Read()
	}
	return symbols
}

func (x *Execution) emitStep(ctx context.Context, ev *domain.StepEvent) {
	x.logger.Debug("Step", "step", ev.Step, "state", ev.State, "transition", ev.Transition, "next", ev.Next)
	if x.engine.hooks.OnStep != nil {
		x.engine.hooks.OnStep(ctx, ev)
	}
}

func (x *Execution) finish(ctx context.Context, outcome domain.Outcome) {
	x.result = &domain.Result{Outcome: outcome, Tapes: x.tapes, Steps: x.taken}
	x.logger.Debug("Run End", "outcome", outcome.String(), "steps", x.taken)
	x.emitEnd(ctx, outcome.String(), nil)
}

func (x *Execution) fail(ctx context.Context, err error) {
	x.err = err
	x.logger.Debug("Run Failed", "steps", x.taken, "err", err)
	x.emitEnd(ctx, "", err)
}

func (x *Execution) emitEnd(ctx context.Context, outcome string, err error) {
	if x.engine.hooks.OnRunEnd == nil {
		return
	}
	x.engine.hooks.OnRunEnd(ctx, &domain.RunEvent{
		EventBase: x.event(domain.EventRunEnd),
		Tapes:     len(x.tapes),
		Steps:     x.taken,
		Outcome:   outcome,
		Err:       err,
		Elapsed:   time.Since(x.startedAt),
	})
}

func (x *Execution) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		Automaton: x.automaton.Name(),
		Depth:     x.depth,
	}
}
