package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sym(s string) types.Value { return types.String(s) }

func TestRegistry_RegisterIsIdempotent(t *testing.T) {
	reg := domain.NewRegistry()
	a := reg.Register("a")
	b := reg.Register("b")
	again := reg.Register("a")

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"a", "b"}, reg.Names())

	id, err := reg.Resolve("b")
	require.NoError(t, err)
	assert.Equal(t, b, id)

	_, err = reg.Resolve("ghost")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestTable_ConcreteBeatsWildcard(t *testing.T) {
	table := domain.NewTable(1)
	// Wildcard declared first on purpose: precedence must not depend on order.
	require.NoError(t, table.Add(domain.Transition{From: 0, Pattern: domain.Any(), Action: domain.Action{Kind: domain.ActionReject}}))
	require.NoError(t, table.Add(domain.Transition{From: 0, Pattern: domain.Exact(sym("v")), Action: domain.Action{Kind: domain.ActionAccept}}))

	tr, err := table.Lookup(context.Background(), 0, []types.Value{sym("v")})
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, domain.ActionAccept, tr.Action.Kind)

	tr, err = table.Lookup(context.Background(), 0, []types.Value{sym("w")})
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, domain.ActionReject, tr.Action.Kind)
}

func TestTable_NoMatch(t *testing.T) {
	table := domain.NewTable(1)
	require.NoError(t, table.Add(domain.Transition{From: 0, Pattern: domain.Exact(sym("a"))}))

	tr, err := table.Lookup(context.Background(), 0, []types.Value{sym("b")})
	require.NoError(t, err)
	assert.Nil(t, tr)
}

func TestTable_FirstDuplicateWins(t *testing.T) {
	table := domain.NewTable(1)
	require.NoError(t, table.Add(domain.Transition{From: 0, Pattern: domain.Exact(sym("a")), Action: domain.Action{Kind: domain.ActionHalt}}))
	require.NoError(t, table.Add(domain.Transition{From: 0, Pattern: domain.Exact(sym("a")), Action: domain.Action{Kind: domain.ActionReject}}))

	tr, err := table.Lookup(context.Background(), 0, []types.Value{sym("a")})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionHalt, tr.Action.Kind)
	assert.Len(t, table.Transitions(0), 2)
}

func TestTape_Extension(t *testing.T) {
	blank := types.Symbol("_")
	tape := domain.NewTape([]types.Value{sym("a"), sym("b")}, 0, blank)

	tape.Apply(domain.Left(0))
	assert.Equal(t, -1, tape.Head())
	assert.Equal(t, blank, tape.Read())

	tape.Apply(domain.Write(0, sym("x")))
	for i := 0; i < 20; i++ {
		tape.Apply(domain.Left(0))
	}
	assert.Equal(t, blank, tape.Read())
	assert.Equal(t, -21, tape.Origin())

	for i := 0; i < 23; i++ {
		tape.Apply(domain.Right(0))
	}
	assert.Equal(t, 2, tape.Head())
	assert.Equal(t, blank, tape.Read())

	cells := tape.Cells()
	require.Len(t, cells, 24)
	assert.Equal(t, sym("x"), cells[20])
	assert.Equal(t, sym("a"), cells[21])
	assert.Equal(t, sym("b"), cells[22])
	assert.Equal(t, blank, cells[23])
	assert.Equal(t, 23, tape.Index())
}

func TestTape_WriteThenMove(t *testing.T) {
	tape := domain.NewTape([]types.Value{sym("1")}, 0, nil)
	tape.Apply(domain.Write(0, sym("0")))
	tape.Apply(domain.Right(0))

	assert.Equal(t, types.Null{}, tape.Read())
	assert.Equal(t, "0 [()]", tape.String())
}

func TestTape_HeadOutsideContents(t *testing.T) {
	tape := domain.NewTape(nil, 3, nil)
	assert.Equal(t, 3, tape.Head())
	assert.Equal(t, 4, len(tape.Cells()))

	tape = domain.NewTape([]types.Value{sym("a")}, -2, nil)
	assert.Equal(t, -2, tape.Head())
	assert.Equal(t, 0, tape.Index())
	assert.Equal(t, "(0 () () \"a\")", tape.Value().String())
}

func TestBuild_ConstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		spec domain.Spec
	}{
		{"no states", domain.Spec{Tapes: 1}},
		{"no tapes", domain.Spec{States: []domain.StateSpec{{Name: "s"}}}},
		{"undeclared start", domain.Spec{Tapes: 1, Start: "x", States: []domain.StateSpec{{Name: "s"}}}},
		{"undeclared target", domain.Spec{
			Tapes:       1,
			States:      []domain.StateSpec{{Name: "s"}},
			Transitions: []domain.TransitionSpec{{From: "s", Pattern: domain.Any(), Next: "ghost"}},
		}},
		{"reserved name", domain.Spec{Tapes: 1, States: []domain.StateSpec{{Name: "halt"}}}},
		{"pattern arity", domain.Spec{
			Tapes:       2,
			States:      []domain.StateSpec{{Name: "s"}},
			Transitions: []domain.TransitionSpec{{From: "s", Pattern: domain.Exact(sym("a")), Next: "halt"}},
		}},
		{"write of void", domain.Spec{
			Tapes:       1,
			States:      []domain.StateSpec{{Name: "s"}},
			Transitions: []domain.TransitionSpec{{From: "s", Pattern: domain.Any(), Ops: []domain.HeadOp{domain.Write(0, types.Void{})}, Next: "halt"}},
		}},
		{"tape out of range", domain.Spec{
			Tapes:       1,
			States:      []domain.StateSpec{{Name: "s"}},
			Transitions: []domain.TransitionSpec{{From: "s", Pattern: domain.Any(), Ops: []domain.HeadOp{domain.Right(1)}, Next: "halt"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := domain.Build(tt.spec)
			assert.Nil(t, a)
			var cerr *domain.ConstructionError
			assert.True(t, errors.As(err, &cerr), "expected ConstructionError, got %v", err)
		})
	}
}

func TestBuild_ReservedTargets(t *testing.T) {
	a, err := domain.Build(domain.Spec{
		Tapes:  1,
		States: []domain.StateSpec{{Name: "a"}, {Name: "b"}},
		Transitions: []domain.TransitionSpec{
			{From: "a", Pattern: domain.Exact(sym("s")), Next: "self"},
			{From: "a", Pattern: domain.Exact(sym("n")), Next: "next"},
			{From: "b", Pattern: domain.Any(), Next: "next"},
		},
	})
	require.NoError(t, err)

	reg, table, err := a.Program()
	require.NoError(t, err)

	trs := table.Transitions(0)
	assert.Equal(t, domain.Action{Kind: domain.ActionContinue, Target: 0}, trs[0].Action)
	assert.Equal(t, domain.Action{Kind: domain.ActionContinue, Target: 1}, trs[1].Action)
	assert.Equal(t, domain.ActionHalt, table.Transitions(1)[0].Action.Kind)
	assert.Equal(t, "b", domain.TargetName(reg, trs[1].Action))
}

func TestAutomaton_ReleaseIsIdempotent(t *testing.T) {
	a, err := domain.Build(domain.Spec{Name: "r", Tapes: 1, States: []domain.StateSpec{{Name: "s"}}})
	require.NoError(t, err)

	a.Release()
	assert.True(t, a.Released())
	assert.NotPanics(t, a.Release)

	_, _, err = a.Program()
	assert.ErrorIs(t, err, domain.ErrReleased)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, 0, domain.OutcomeHalt.ExitCode())
	assert.Equal(t, 1, domain.OutcomeAccept.ExitCode())
	assert.Equal(t, -1, domain.OutcomeReject.ExitCode())

	o, ok := domain.ParseOutcome("accept")
	assert.True(t, ok)
	assert.Equal(t, domain.OutcomeAccept, o)
}
