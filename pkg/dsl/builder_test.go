package dsl_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/dsl"
	"github.com/aretw0/tlisp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_UnaryIncrement(t *testing.T) {
	b := dsl.New("increment")

	b.Add("s0").
		On(types.String("1")).Write(types.String("1")).Right().Go("s0").
		On(types.String("#")).Write(types.String("1")).Halt()
	b.Add("s1")

	a, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "increment", a.Name())
	assert.Equal(t, 1, a.Tapes())

	reg, table, err := a.Program()
	require.NoError(t, err)
	assert.Equal(t, []string{"s0", "s1"}, reg.Names())

	trs := table.Transitions(a.Start())
	require.Len(t, trs, 2)
	assert.Equal(t, []domain.HeadOp{domain.Write(0, types.String("1")), domain.Right(0)}, trs[0].Ops)
	assert.Equal(t, domain.ActionContinue, trs[0].Action.Kind)
	assert.Equal(t, domain.ActionHalt, trs[1].Action.Kind)
}

func TestBuilder_AddIsIdempotent(t *testing.T) {
	b := dsl.New("m")
	first := b.Add("a")
	again := b.Add("a")
	assert.Same(t, first, again)

	b.Add("a").Otherwise().Accept()
	b.Add("a").On(types.Symbol("x")).Reject()

	a, err := b.Build()
	require.NoError(t, err)
	_, table, err := a.Program()
	require.NoError(t, err)
	assert.Len(t, table.Transitions(0), 2)
}

func TestBuilder_MultiTape(t *testing.T) {
	b := dsl.New("copy", dsl.WithTapes(2), dsl.WithBlank(types.Symbol("_")))
	b.Add("copy").
		On(types.String("a"), types.Symbol("_")).Tape(1).Write(types.String("a")).Right().Tape(0).Right().Self().
		On(types.Symbol("_"), types.Symbol("_")).Accept()

	a, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, types.Symbol("_"), a.Blank())

	_, table, err := a.Program()
	require.NoError(t, err)
	tr, err := table.Lookup(context.Background(), 0, []types.Value{types.String("a"), types.Symbol("_")})
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, []domain.HeadOp{domain.Write(1, types.String("a")), domain.Right(1), domain.Right(0)}, tr.Ops)
}

func TestBuilder_UndeclaredTarget(t *testing.T) {
	b := dsl.New("broken")
	b.Add("start").Otherwise().Go("ghost")

	a, err := b.Build()
	assert.Nil(t, a)

	var cerr *domain.ConstructionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "start", cerr.State)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestBuilder_NaNPattern(t *testing.T) {
	b := dsl.New("nan")
	b.Add("start").On(types.Real(math.NaN())).Halt()

	_, err := b.Build()
	var cerr *domain.ConstructionError
	require.True(t, errors.As(err, &cerr))
	var serr *domain.InvalidSymbolError
	assert.True(t, errors.As(err, &serr))
}

func TestBuilder_Start(t *testing.T) {
	b := dsl.New("m").Start("b")
	b.Add("a")
	b.Add("b")

	a, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, domain.StateID(1), a.Start())
}

func TestChars(t *testing.T) {
	assert.Equal(t, []types.Value{types.String("1"), types.String("#")}, dsl.Chars("1#"))
}
