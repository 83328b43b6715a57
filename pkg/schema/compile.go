package schema

import (
	"context"
	"fmt"

	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/dsl"
	"github.com/aretw0/tlisp/pkg/types"
)

// ProcedureFunc evaluates procedure source, such as "(lambda (s) (equal? s \"1\"))".
type ProcedureFunc func(ctx context.Context, src string) (types.Procedure, error)

// BaseFunc resolves the automaton named by a state's base field.
type BaseFunc func(ctx context.Context, name string) (*domain.Automaton, error)

// Compiler turns definitions into automata.
// Procedure is required only for definitions with guards or outputs,
// and Base only for definitions with base machines.
type Compiler struct {
	Procedure ProcedureFunc
	Base      BaseFunc
}

// Compile validates def and builds the automaton.
// Every failure is reported as a *domain.ConstructionError.
func (c Compiler) Compile(ctx context.Context, def *Definition) (*domain.Automaton, error) {
	if err := Validate(def); err != nil {
		return nil, &domain.ConstructionError{Automaton: def.Name, Reason: "invalid definition", Err: err}
	}

	opts := []dsl.Option{dsl.WithTapes(def.TapeCount())}
	if def.Blank != nil {
		blank, err := ToValue(def.Blank)
		if err != nil {
			return nil, &domain.ConstructionError{Automaton: def.Name, Reason: "bad blank symbol", Err: err}
		}
		opts = append(opts, dsl.WithBlank(blank))
	}
	b := dsl.New(def.Name, opts...)

	for _, st := range def.States {
		sb := b.Add(st.Name)
		if st.Base != "" {
			if c.Base == nil {
				return nil, c.fail(def, st.Name, "base machines are not available", nil)
			}
			base, err := c.Base(ctx, st.Base)
			if err != nil {
				return nil, c.fail(def, st.Name, fmt.Sprintf("cannot load base machine %q", st.Base), err)
			}
			sb.Base(base)
		}
		if st.Output != "" {
			fn, err := c.procedure(ctx, st.Output)
			if err != nil {
				return nil, c.fail(def, st.Name, "bad output procedure", err)
			}
			sb.Output(fn)
		}
	}

	for _, st := range def.States {
		sb := b.Add(st.Name)
		for _, tr := range st.Transitions {
			if err := c.transition(ctx, def, sb, tr); err != nil {
				return nil, err
			}
		}
	}

	if def.Start != "" {
		b.Start(def.Start)
	}
	return b.Build()
}

func (c Compiler) transition(ctx context.Context, def *Definition, sb *dsl.StateBuilder, tr TransitionDef) error {
	var tb *dsl.TransitionBuilder
	switch {
	case tr.Any:
		tb = sb.Otherwise()
	case tr.Guard != "":
		fn, err := c.procedure(ctx, tr.Guard)
		if err != nil {
			return c.fail(def, sb.Name(), "bad guard", err)
		}
		tb = sb.When(fn)
	default:
		syms, err := matchSymbols(tr.Match, def.TapeCount())
		if err != nil {
			return c.fail(def, sb.Name(), "bad match", err)
		}
		tb = sb.On(syms...)
	}

	for _, op := range tr.Ops {
		tb.Tape(op.Tape)
		switch op.Kind {
		case OpLeft:
			tb.Left()
		case OpRight:
			tb.Right()
		case OpNop:
			tb.Nop()
		case OpWrite:
			v, err := ToValue(op.Value)
			if err != nil {
				return c.fail(def, sb.Name(), "bad write", err)
			}
			tb.Write(v)
		}
	}
	if tr.Output != "" {
		fn, err := c.procedure(ctx, tr.Output)
		if err != nil {
			return c.fail(def, sb.Name(), "bad output procedure", err)
		}
		tb.Output(fn)
	}
	tb.Go(tr.Next)
	return nil
}

func (c Compiler) procedure(ctx context.Context, src string) (types.Procedure, error) {
	if c.Procedure == nil {
		return nil, fmt.Errorf("procedures are not available")
	}
	return c.Procedure(ctx, src)
}

func (c Compiler) fail(def *Definition, state, reason string, err error) error {
	return &domain.ConstructionError{Automaton: def.Name, State: state, Reason: reason, Err: err}
}
