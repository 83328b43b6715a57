package eval

import (
	"context"
	goruntime "runtime"
	"strings"

	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/registry"
	"github.com/aretw0/tlisp/pkg/types"
)

func (ev *Evaluator) registerTapes(r *registry.Registry) {
	// (tape CONTENTS [HEAD]) builds (head . contents); a string yields one symbol per character.
	r.Register("tape", 1, true, func(_ context.Context, args []types.Value) (types.Value, error) {
		if len(args) > 2 {
			return nil, types.NewError(types.KindArity, "tape expects 1 or 2 arguments, got %d", len(args))
		}
		cells, err := tapeCells(args[0])
		if err != nil {
			return nil, err
		}
		head := int64(0)
		if len(args) == 2 {
			if head, err = integer(args[1]); err != nil {
				return nil, err
			}
		}
		return types.Cons(types.Integer(head), types.List(cells...)), nil
	})

	// (tape->string TAPE) concatenates the displayed cells; blank () cells render empty.
	r.Register("tape->string", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		_, cells, err := TapeContents(args[0])
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		for _, c := range cells {
			if _, blank := c.(types.Null); blank {
				continue
			}
			sb.WriteString(types.Display(c))
		}
		return types.String(sb.String()), nil
	})

	r.Register("automaton-states", 1, false, func(_ context.Context, args []types.Value) (types.Value, error) {
		p, err := automatonArg(args[0])
		if err != nil {
			return nil, err
		}
		reg, _, err := p.automaton.Program()
		if err != nil {
			return nil, err
		}
		names := reg.Names()
		out := make([]types.Value, len(names))
		for i, n := range names {
			out[i] = types.Symbol(n)
		}
		return types.List(out...), nil
	})

	// (automaton-trace A TAPE...) returns (RESULT STEPS) with one (N STATE SYMBOLS NEXT) per step.
	r.Register("automaton-trace", 1, true, func(ctx context.Context, args []types.Value) (types.Value, error) {
		p, err := automatonArg(args[0])
		if err != nil {
			return nil, err
		}
		steps, res, err := ev.Trace(ctx, p, args[1:])
		if err != nil {
			return nil, err
		}
		trace := make([]types.Value, len(steps))
		for i, s := range steps {
			trace[i] = types.List(
				types.Integer(s.Step),
				types.Symbol(s.State),
				types.List(s.Symbols...),
				types.Symbol(s.Next),
			)
		}
		return types.List(res.Value(), types.List(trace...)), nil
	})
}

func automatonArg(v types.Value) (*AutomatonProc, error) {
	p, ok := v.(*AutomatonProc)
	if !ok {
		return nil, typeError("expected an automaton, got %s", v)
	}
	return p, nil
}

// Trace runs p step by step, collecting every step.
func (ev *Evaluator) Trace(ctx context.Context, p *AutomatonProc, args []types.Value) ([]*domain.StepEvent, *domain.Result, error) {
	defer goruntime.KeepAlive(p)
	tapes, err := p.tapes(args)
	if err != nil {
		return nil, nil, err
	}
	x, err := ev.engine.Start(ctx, p.automaton, tapes)
	if err != nil {
		return nil, nil, err
	}
	var steps []*domain.StepEvent
	for !x.Done() {
		step, err := x.Step(ctx)
		if err != nil {
			return nil, nil, err
		}
		steps = append(steps, step)
	}
	return steps, x.Result(), nil
}
