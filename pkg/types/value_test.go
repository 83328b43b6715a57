package types_test

import (
	"errors"
	"math"
	"testing"

	"github.com/aretw0/tlisp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		v    types.Value
		want string
	}{
		{"integer", types.Integer(-42), "-42"},
		{"real", types.Real(2), "2.0"},
		{"real fraction", types.Real(0.5), "0.5"},
		{"string", types.String("a\"b"), `"a\"b"`},
		{"symbol", types.Symbol("halt"), "halt"},
		{"true", types.Boolean(true), "#t"},
		{"false", types.Boolean(false), "#f"},
		{"null", types.Null{}, "()"},
		{"list", types.List(types.Integer(1), types.Symbol("a")), "(1 a)"},
		{"dotted", types.Cons(types.Integer(0), types.String("x")), `(0 . "x")`},
		{"nested", types.List(types.List(), types.Integer(1)), "(() 1)"},
		{"error", types.NewError(types.KindUser, "boom"), "#<error user-error: boom>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "plain", types.Display(types.String("plain")))
	assert.Equal(t, "(1 2)", types.Display(types.List(types.Integer(1), types.Integer(2))))
}

func TestEqualAndKey(t *testing.T) {
	pairs := []struct {
		a, b  types.Value
		equal bool
	}{
		{types.Integer(1), types.Integer(1), true},
		{types.Integer(1), types.Real(1), false},
		{types.String("1"), types.Symbol("1"), false},
		{types.Real(0), types.Real(-0.0), true},
		{types.List(types.String("a"), types.Null{}), types.List(types.String("a"), types.Null{}), true},
		{types.List(types.String("a")), types.List(types.String("b")), false},
		{types.Null{}, types.Boolean(false), false},
	}
	for _, p := range pairs {
		assert.Equal(t, p.equal, types.Equal(p.a, p.b), "Equal(%s, %s)", p.a, p.b)

		ka, ok := types.Key(p.a)
		require.True(t, ok)
		kb, ok := types.Key(p.b)
		require.True(t, ok)
		assert.Equal(t, p.equal, ka == kb, "Key(%s) vs Key(%s)", p.a, p.b)
	}
}

func TestKey_Unkeyable(t *testing.T) {
	_, ok := types.Key(types.Void{})
	assert.False(t, ok)

	_, ok = types.Key(types.List(types.Integer(1), types.Void{}))
	assert.False(t, ok)

	nan := types.Real(math.NaN())
	assert.False(t, types.Equal(nan, nan))
	_, ok = types.Key(nan)
	assert.False(t, ok, "NaN is not equal to itself")
	_, ok = types.Key(types.List(nan))
	assert.False(t, ok)
}

func TestToSlice(t *testing.T) {
	vals, err := types.ToSlice(types.List(types.Integer(1), types.Integer(2)))
	require.NoError(t, err)
	assert.Equal(t, []types.Value{types.Integer(1), types.Integer(2)}, vals)

	_, err = types.ToSlice(types.Cons(types.Integer(1), types.Integer(2)))
	var lispErr *types.Error
	require.True(t, errors.As(err, &lispErr))
	assert.Equal(t, types.KindType, lispErr.Kind)
}

func TestTruthy(t *testing.T) {
	assert.False(t, types.Truthy(types.Boolean(false)))
	assert.True(t, types.Truthy(types.Null{}))
	assert.True(t, types.Truthy(types.Integer(0)))
}
