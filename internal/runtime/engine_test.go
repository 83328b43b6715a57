package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tlisp/internal/runtime"
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/dsl"
	"github.com/aretw0/tlisp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// proc adapts a Go function to types.Procedure.
type proc struct {
	name string
	fn   func(args []types.Value) (types.Value, error)
}

func (p *proc) TypeName() string { return "procedure" }
func (p *proc) String() string { return "#<procedure " + p.name + ">" }
func (p *proc) Name() string { return p.name }
func (p *proc) Arity() (int, bool) { return 0, true }
func (p *proc) Call(_ context.Context, args []types.Value) (types.Value, error) {
	return p.fn(args)
}

func s(v string) types.Value { return types.String(v) }

func tapeOf(a *domain.Automaton, text string) []*domain.Tape {
	return []*domain.Tape{a.NewTape(dsl.Chars(text), 0)}
}

func increment(t *testing.T) *domain.Automaton {
	t.Helper()
	b := dsl.New("increment")
	b.Add("S0").
		On(s("1")).Write(s("1")).Right().Go("S0").
		On(s("#")).Write(s("1")).Halt()
	b.Add("S1")
	a, err := b.Build()
	require.NoError(t, err)
	return a
}

func TestRun_UnaryIncrement(t *testing.T) {
	a := increment(t)
	engine := runtime.NewEngine()

	res, err := engine.Run(context.Background(), a, tapeOf(a, "111#"))
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeHalt, res.Outcome)
	assert.Equal(t, dsl.Chars("1111"), res.Tapes[0].Cells())
	assert.Equal(t, 3, res.Tapes[0].Head())
	assert.Equal(t, 4, res.Steps)
	assert.Equal(t, `(halt (3 "1" "1" "1" "1"))`, res.Value().String())
}

func TestRun_RejectOnStuckInput(t *testing.T) {
	b := dsl.New("only-a")
	b.Add("start").On(s("a")).Right().Self()
	a, err := b.Build()
	require.NoError(t, err)

	res, err := runtime.NewEngine().Run(context.Background(), a, tapeOf(a, "b"))
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeReject, res.Outcome)
	assert.Equal(t, dsl.Chars("b"), res.Tapes[0].Cells())
	assert.Equal(t, 0, res.Tapes[0].Head())
}

func TestRun_StepBudgetExceeded(t *testing.T) {
	b := dsl.New("loop")
	b.Add("spin").Otherwise().Nop().Self()
	a, err := b.Build()
	require.NoError(t, err)

	var ended *domain.RunEvent
	engine := runtime.NewEngine(
		runtime.WithStepBudget(1000),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnRunEnd: func(_ context.Context, e *domain.RunEvent) { ended = e },
		}),
	)

	res, err := engine.Run(context.Background(), a, tapeOf(a, ""))
	assert.Nil(t, res)

	var budgetErr *domain.StepBudgetExceededError
	require.True(t, errors.As(err, &budgetErr))
	assert.Equal(t, 1000, budgetErr.Budget)

	require.NotNil(t, ended)
	assert.Equal(t, 1000, ended.Steps)
	assert.Error(t, ended.Err)
}

func TestRun_Determinism(t *testing.T) {
	a := increment(t)
	engine := runtime.NewEngine()

	first, err := engine.Run(context.Background(), a, tapeOf(a, "1111#"))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := engine.Run(context.Background(), a, tapeOf(a, "1111#"))
		require.NoError(t, err)
		assert.Equal(t, first.Value().String(), again.Value().String())
	}
}

func TestRun_MatchingPrecedence(t *testing.T) {
	calls := 0
	guard := &proc{name: "always", fn: func([]types.Value) (types.Value, error) {
		calls++
		return types.Boolean(true), nil
	}}

	b := dsl.New("precedence")
	b.Add("q").
		Otherwise().Reject().
		When(guard).Halt().
		On(s("v")).Accept()
	a, err := b.Build()
	require.NoError(t, err)

	engine := runtime.NewEngine()

	res, err := engine.Run(context.Background(), a, tapeOf(a, "v"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAccept, res.Outcome)
	assert.Equal(t, 0, calls, "guards are not consulted when a concrete entry matches")

	res, err = engine.Run(context.Background(), a, tapeOf(a, "w"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeHalt, res.Outcome)
	assert.Equal(t, 1, calls)
}

func TestRun_GuardMustReturnBoolean(t *testing.T) {
	guard := &proc{name: "bad", fn: func([]types.Value) (types.Value, error) {
		return types.Integer(1), nil
	}}
	b := dsl.New("bad-guard")
	b.Add("q").When(guard).Halt()
	a, err := b.Build()
	require.NoError(t, err)

	_, err = runtime.NewEngine().Run(context.Background(), a, tapeOf(a, "x"))
	var symErr *domain.InvalidSymbolError
	assert.True(t, errors.As(err, &symErr))
}

func TestRun_TapeExtension(t *testing.T) {
	b := dsl.New("walker", dsl.WithBlank(types.Symbol("B")))
	b.Add("left").
		On(s("a")).Left().Self().
		On(types.Symbol("B")).Write(s("<")).Next()
	b.Add("right").
		On(s("<")).Right().Self().
		On(s("a")).Right().Self().
		On(types.Symbol("B")).Write(s(">")).Halt()
	a, err := b.Build()
	require.NoError(t, err)

	res, err := runtime.NewEngine().Run(context.Background(), a, tapeOf(a, "aa"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeHalt, res.Outcome)
	assert.Equal(t, dsl.Chars("<aa>"), res.Tapes[0].Cells())
	assert.Equal(t, 2, res.Tapes[0].Head())
	assert.Equal(t, -1, res.Tapes[0].Origin())
}

func TestRun_PassThroughStates(t *testing.T) {
	b := dsl.New("chain")
	b.Add("a")
	b.Add("b")
	a, err := b.Build()
	require.NoError(t, err)

	res, err := runtime.NewEngine().Run(context.Background(), a, tapeOf(a, "x"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeHalt, res.Outcome)
	assert.Equal(t, 2, res.Steps)
}

func TestRun_BaseMachine(t *testing.T) {
	skip := dsl.New("skip")
	skip.Add("s").On(s("x")).Right().Self().Otherwise().Halt()
	base, err := skip.Build()
	require.NoError(t, err)

	b := dsl.New("outer")
	b.Add("check").Base(base).On(s("y")).Accept()
	a, err := b.Build()
	require.NoError(t, err)

	res, err := runtime.NewEngine().Run(context.Background(), a, tapeOf(a, "xxy"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAccept, res.Outcome)
	assert.Equal(t, 2, res.Tapes[0].Head())

	res, err = runtime.NewEngine().Run(context.Background(), a, tapeOf(a, "xxz"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeReject, res.Outcome)
}

func TestRun_BaseMachineRejectEndsRun(t *testing.T) {
	never := dsl.New("never")
	never.Add("s").Otherwise().Reject()
	base, err := never.Build()
	require.NoError(t, err)

	b := dsl.New("outer")
	b.Add("q").Base(base).Otherwise().Accept()
	a, err := b.Build()
	require.NoError(t, err)

	res, err := runtime.NewEngine().Run(context.Background(), a, tapeOf(a, "x"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeReject, res.Outcome)
}

func TestRun_Outputs(t *testing.T) {
	var seen []string
	record := func(tag string) *proc {
		return &proc{name: tag, fn: func(args []types.Value) (types.Value, error) {
			seen = append(seen, tag+":"+types.Display(args[0]))
			return types.Void{}, nil
		}}
	}

	b := dsl.New("outputs")
	b.Add("q").Output(record("state")).
		On(s("a")).Right().Output(record("transition")).Halt()
	a, err := b.Build()
	require.NoError(t, err)

	_, err = runtime.NewEngine().Run(context.Background(), a, tapeOf(a, "ab"))
	require.NoError(t, err)
	assert.Equal(t, []string{"state:a", "transition:a"}, seen, "transition outputs see the symbols read before the head moved")
}

func TestRun_OutputErrorPropagates(t *testing.T) {
	boom := &proc{name: "boom", fn: func([]types.Value) (types.Value, error) {
		return nil, types.NewError(types.KindUser, "boom")
	}}
	b := dsl.New("failing")
	b.Add("q").Output(boom).Otherwise().Halt()
	a, err := b.Build()
	require.NoError(t, err)

	_, err = runtime.NewEngine().Run(context.Background(), a, tapeOf(a, "a"))
	var lispErr *types.Error
	require.True(t, errors.As(err, &lispErr))
	assert.Equal(t, "boom", lispErr.Message)
}

func TestRun_TapeCount(t *testing.T) {
	a := increment(t)
	_, err := runtime.NewEngine().Run(context.Background(), a, nil)
	var countErr *domain.TapeCountError
	assert.True(t, errors.As(err, &countErr))
}

func TestRun_InvalidInputSymbol(t *testing.T) {
	a := increment(t)
	tape := a.NewTape([]types.Value{types.Void{}}, 0)
	_, err := runtime.NewEngine().Run(context.Background(), a, []*domain.Tape{tape})
	var symErr *domain.InvalidSymbolError
	assert.True(t, errors.As(err, &symErr))
}

func TestRun_Released(t *testing.T) {
	a := increment(t)
	a.Release()
	_, err := runtime.NewEngine().Run(context.Background(), a, tapeOf(a, "1#"))
	assert.ErrorIs(t, err, domain.ErrReleased)
}

func TestRun_Cancelled(t *testing.T) {
	a := increment(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runtime.NewEngine().Run(ctx, a, tapeOf(a, "1#"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ConcurrentRunsShareDefinition(t *testing.T) {
	a := increment(t)
	engine := runtime.NewEngine()

	done := make(chan string, 8)
	for i := 0; i < 8; i++ {
		go func() {
			res, err := engine.Run(context.Background(), a, tapeOf(a, "11#"))
			if err != nil {
				done <- err.Error()
				return
			}
			done <- res.Value().String()
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, `(halt (2 "1" "1" "1"))`, <-done)
	}
}
