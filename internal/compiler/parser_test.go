package compiler_test

import (
	"errors"
	"testing"

	"github.com/aretw0/tlisp/internal/compiler"
	"github.com/aretw0/tlisp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Atoms(t *testing.T) {
	tests := []struct {
		src  string
		want types.Value
	}{
		{"42", types.Integer(42)},
		{"-7", types.Integer(-7)},
		{"3.5", types.Real(3.5)},
		{".5", types.Real(0.5)},
		{"#t", types.Boolean(true)},
		{"#f", types.Boolean(false)},
		{"null", types.Null{}},
		{`"a\"b\n"`, types.String("a\"b\n")},
		{"foo", types.Symbol("foo")},
		{"->", types.Symbol("->")},
		{"<-", types.Symbol("<-")},
		{".", types.Symbol(".")},
		{"-", types.Symbol("-")},
		{`automaton\2`, types.Symbol(`automaton\2`)},
	}
	p := compiler.NewParser()
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := p.ParseOne(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_Lists(t *testing.T) {
	p := compiler.NewParser()

	got, err := p.ParseOne("(a (b 1) () 'c) ; trailing comment")
	require.NoError(t, err)
	assert.Equal(t, "(a (b 1) () (quote c))", got.String())

	all, err := p.Parse("1 2\n(3)")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := p.Parse("  ; only a comment\n")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		more bool
	}{
		{"unbalanced", "(a (b)", "unbalanced parentheses", true},
		{"stray close", ")", "unexpected )", false},
		{"unterminated string", `"abc`, "unterminated string", true},
		{"bad escape", `"\q"`, "unknown escape", false},
		{"dangling quote", "'", "quote at end of input", true},
	}
	p := compiler.NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.src)
			var syn *compiler.SyntaxError
			require.True(t, errors.As(err, &syn), "got %v", err)
			assert.Contains(t, syn.Msg, tt.msg)
			assert.Equal(t, tt.more, compiler.IsIncomplete(err))
		})
	}
}

func TestParser_ParseOneRejectsMany(t *testing.T) {
	_, err := compiler.NewParser().ParseOne("1 2")
	assert.Error(t, err)
}

func TestParser_Positions(t *testing.T) {
	_, err := compiler.NewParser().Parse("(ok)\n  )")
	var syn *compiler.SyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, compiler.Position{Line: 2, Column: 3}, syn.Pos)
}
