package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/tlisp/internal/runtime"
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecution_StepByStep(t *testing.T) {
	a := increment(t)
	var hooked []string
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnStep: func(_ context.Context, e *domain.StepEvent) { hooked = append(hooked, e.State+"->"+e.Next) },
	}))

	x, err := engine.Start(context.Background(), a, tapeOf(a, "1#"))
	require.NoError(t, err)
	assert.Equal(t, "S0", x.State())
	assert.False(t, x.Done())

	ev, err := x.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Step)
	assert.Equal(t, 0, ev.Transition)
	assert.Equal(t, "S0", ev.Next)
	assert.Equal(t, 1, x.Tapes()[0].Head())
	assert.False(t, x.Done())

	ev, err = x.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Transition)
	assert.Equal(t, "halt", ev.Next)
	assert.True(t, x.Done())
	require.NotNil(t, x.Result())
	assert.Equal(t, domain.OutcomeHalt, x.Result().Outcome)

	_, err = x.Step(context.Background())
	assert.ErrorIs(t, err, runtime.ErrFinished)

	assert.Equal(t, []string{"S0->S0", "S0->halt"}, hooked)
}

func TestExecution_ImplicitRejectStep(t *testing.T) {
	a := increment(t)
	x, err := runtime.NewEngine().Start(context.Background(), a, tapeOf(a, "z"))
	require.NoError(t, err)

	ev, err := x.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -1, ev.Transition)
	assert.Equal(t, "reject", ev.Next)
	assert.Equal(t, domain.OutcomeReject, x.Result().Outcome)
}

func TestEngine_StepBudgetDefault(t *testing.T) {
	assert.Equal(t, runtime.DefaultStepBudget, runtime.NewEngine(runtime.WithStepBudget(0)).StepBudget())
	assert.Equal(t, 10, runtime.NewEngine(runtime.WithStepBudget(10)).StepBudget())
}
