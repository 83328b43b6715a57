package eval

import (
	"context"
	goruntime "runtime"
	"strconv"
	"strings"

	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/dsl"
	"github.com/aretw0/tlisp/pkg/types"
)

const automatonKeyword = "automaton"

// isAutomatonHead recognises automaton and automaton\N.
func isAutomatonHead(sym types.Symbol) bool {
	_, ok := tapeCount(sym)
	return ok
}

func tapeCount(sym types.Symbol) (int, bool) {
	s := string(sym)
	if s == automatonKeyword {
		return 1, true
	}
	rest, ok := strings.CutPrefix(s, automatonKeyword+`\`)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// AutomatonProc is the callable host value wrapping an automaton.
// When it becomes unreachable its automaton is released.
type AutomatonProc struct {
	automaton *domain.Automaton
	ev        *Evaluator
	// bases keeps base machines reachable for as long as this value is.
	bases []*AutomatonProc
}

func (ev *Evaluator) wrap(a *domain.Automaton, bases []*AutomatonProc) *AutomatonProc {
	p := &AutomatonProc{automaton: a, ev: ev, bases: bases}
	goruntime.AddCleanup(p, func(a *domain.Automaton) { a.Release() }, a)
	return p
}

// Automaton returns the wrapped definition.
func (p *AutomatonProc) Automaton() *domain.Automaton { return p.automaton }

func (p *AutomatonProc) TypeName() string { return "automaton" }
func (p *AutomatonProc) String() string { return "#<automaton " + p.automaton.Name() + ">" }
func (p *AutomatonProc) Name() string { return p.automaton.Name() }

func (p *AutomatonProc) Arity() (int, bool) {
	return p.automaton.Tapes(), false
}

// Call runs the automaton with one (head . contents) argument per tape and returns
// (outcome . tapes).
func (p *AutomatonProc) Call(ctx context.Context, args []types.Value) (types.Value, error) {
	res, err := p.Run(ctx, args)
	if err != nil {
		return nil, err
	}
	return res.Value(), nil
}

// Run is Call returning the structured result.
func (p *AutomatonProc) Run(ctx context.Context, args []types.Value) (*domain.Result, error) {
	defer goruntime.KeepAlive(p)
	tapes, err := p.tapes(args)
	if err != nil {
		return nil, err
	}
	return p.ev.engine.Run(ctx, p.automaton, tapes)
}

func (p *AutomatonProc) tapes(args []types.Value) ([]*domain.Tape, error) {
	if len(args) != p.automaton.Tapes() {
		return nil, &domain.TapeCountError{Automaton: p.automaton.Name(), Want: p.automaton.Tapes(), Got: len(args)}
	}
	tapes := make([]*domain.Tape, len(args))
	for i, arg := range args {
		head, cells, err := TapeContents(arg)
		if err != nil {
			return nil, err
		}
		tapes[i] = p.automaton.NewTape(cells, head)
	}
	return tapes, nil
}

// TapeContents accepts (head . contents) or a string (one symbol per character, head 0).
// Plain lists are not tapes: build them with (tape LIST [HEAD]).
func TapeContents(v types.Value) (int, []types.Value, error) {
	switch x := v.(type) {
	case types.String:
		return 0, dsl.Chars(string(x)), nil
	case types.Null:
		return 0, nil, nil
	case *types.Pair:
		head, ok := x.Car.(types.Integer)
		if !ok {
			return 0, nil, typeError("malformed tape %s, expected (head . contents)", v)
		}
		cells, err := types.ToSlice(x.Cdr)
		if err != nil {
			return 0, nil, typeError("malformed tape %s, expected (head . contents)", v)
		}
		return int(head), cells, nil
	}
	return 0, nil, typeError("expected a tape, got %s", v.TypeName())
}

// tapeCells reads the contents argument of (tape CONTENTS [HEAD]): a string or a proper list.
func tapeCells(v types.Value) ([]types.Value, error) {
	if s, ok := v.(types.String); ok {
		return dsl.Chars(string(s)), nil
	}
	cells, err := types.ToSlice(v)
	if err != nil {
		return nil, typeError("tape contents must be a string or a list, got %s", v)
	}
	return cells, nil
}

// automatonForm compiles (automaton\N [:blank EXPR] (STATE [:base EXPR] [:output EXPR] TRANSITION...)...).
func (ev *Evaluator) automatonForm(ctx context.Context, form *types.Pair, env *Env, name string) (types.Value, error) {
	n, _ := tapeCount(form.Car.(types.Symbol))
	items, err := types.ToSlice(form.Cdr)
	if err != nil {
		return nil, syntaxError("malformed automaton")
	}

	c := &automatonCompiler{ev: ev, ctx: ctx, env: env, tapes: n}
	var opts []dsl.Option
	opts = append(opts, dsl.WithTapes(n))

	for len(items) >= 2 && items[0] == types.Symbol(":blank") {
		blank, err := ev.eval(ctx, items[1], env)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dsl.WithBlank(blank))
		items = items[2:]
	}

	b := dsl.New(name, opts...)
	for _, clause := range items {
		if err := c.state(b, clause); err != nil {
			return nil, err
		}
	}

	a, err := b.Build()
	if err != nil {
		ev.logger.Warn("Automaton Construction Failed", "automaton", name, "err", err)
		return nil, err
	}
	reg, table, _ := a.Program()
	ev.logger.Debug("Automaton Built", "automaton", a.Name(), "states", reg.Len(), "transitions", table.Len(), "tapes", n)
	return ev.wrap(a, c.bases), nil
}

type automatonCompiler struct {
	ev    *Evaluator
	ctx   context.Context
	env   *Env
	tapes int
	bases []*AutomatonProc
}

func (c *automatonCompiler) state(b *dsl.Builder, clause types.Value) error {
	parts, err := types.ToSlice(clause)
	if err != nil || len(parts) == 0 {
		return syntaxError("malformed state clause %s", clause)
	}
	name, err := stateName(parts[0])
	if err != nil {
		return err
	}
	sb := b.Add(name)
	parts = parts[1:]

	for len(parts) >= 2 {
		key, ok := parts[0].(types.Symbol)
		if !ok || (key != ":base" && key != ":output") {
			break
		}
		v, err := c.ev.eval(c.ctx, parts[1], c.env)
		if err != nil {
			return err
		}
		switch key {
		case ":base":
			base, ok := v.(*AutomatonProc)
			if !ok {
				return &domain.ConstructionError{Automaton: b.Spec().Name, State: name, Reason: "base machine must be an automaton, got " + v.TypeName()}
			}
			c.bases = append(c.bases, base)
			sb.Base(base.automaton)
		case ":output":
			proc, err := c.procedure(v, name)
			if err != nil {
				return err
			}
			sb.Output(proc)
		}
		parts = parts[2:]
	}

	for _, tr := range parts {
		if err := c.transition(sb, tr); err != nil {
			return err
		}
	}
	return nil
}

func stateName(v types.Value) (string, error) {
	switch x := v.(type) {
	case types.Symbol:
		return string(x), nil
	case types.String:
		return string(x), nil
	case types.Integer:
		return x.String(), nil
	}
	return "", syntaxError("state name must be a symbol, got %s", v)
}

func (c *automatonCompiler) procedure(v types.Value, state string) (types.Procedure, error) {
	proc, ok := v.(types.Procedure)
	if !ok {
		return nil, &domain.ConstructionError{State: state, Reason: "expected a procedure, got " + v.TypeName()}
	}
	if !AcceptsSymbols(proc, c.tapes) {
		return nil, &domain.ConstructionError{State: state, Reason: proc.String() + " cannot accept " + strconv.Itoa(c.tapes) + " symbol(s)"}
	}
	return proc, nil
}

// AcceptsSymbols reports whether proc can be called with one symbol per tape, as guards and
// outputs are.
func AcceptsSymbols(proc types.Procedure, tapes int) bool {
	min, variadic := proc.Arity()
	return min <= tapes && (variadic || min == tapes)
}

// transition compiles (COND OP... NEXT [:output EXPR]).
func (c *automatonCompiler) transition(sb *dsl.StateBuilder, clause types.Value) error {
	parts, err := types.ToSlice(clause)
	if err != nil {
		return syntaxError("malformed transition %s", clause)
	}

	var output types.Procedure
	if l := len(parts); l >= 2 && parts[l-2] == types.Symbol(":output") {
		v, err := c.ev.eval(c.ctx, parts[l-1], c.env)
		if err != nil {
			return err
		}
		if output, err = c.procedure(v, sb.Name()); err != nil {
			return err
		}
		parts = parts[:l-2]
	}
	if len(parts) < 2 {
		return syntaxError("transition needs a condition and a next state: %s", clause)
	}

	tb, err := c.condition(sb, parts[0])
	if err != nil {
		return err
	}
	if err := c.ops(tb, parts[1:len(parts)-1]); err != nil {
		return err
	}
	if output != nil {
		tb.Output(output)
	}

	next, err := stateName(parts[len(parts)-1])
	if err != nil {
		return err
	}
	tb.Go(next)
	return nil
}

func (c *automatonCompiler) condition(sb *dsl.StateBuilder, cond types.Value) (*dsl.TransitionBuilder, error) {
	if cond == types.Symbol("_") {
		return sb.Otherwise(), nil
	}
	v, err := c.ev.eval(c.ctx, cond, c.env)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(types.Procedure); ok {
		proc, err := c.procedure(v, sb.Name())
		if err != nil {
			return nil, err
		}
		return sb.When(proc), nil
	}
	if c.tapes == 1 {
		return sb.On(v), nil
	}
	symbols, err := types.ToSlice(v)
	if err != nil || len(symbols) != c.tapes {
		return nil, &domain.ConstructionError{State: sb.Name(), Reason: "condition " + v.String() + " must list " + strconv.Itoa(c.tapes) + " symbols"}
	}
	return sb.On(symbols...), nil
}

// ops compiles head operations. With one tape they apply in order; with several tapes
// each plain operation addresses the tape at its position. (on K OP...) always targets tape K.
func (c *automatonCompiler) ops(tb *dsl.TransitionBuilder, items []types.Value) error {
	position := 0
	for _, item := range items {
		if form, ok := item.(*types.Pair); ok && form.Car == types.Symbol("on") {
			if err := c.onTape(tb, form); err != nil {
				return err
			}
			continue
		}
		tape := 0
		if c.tapes > 1 {
			if position >= c.tapes {
				return syntaxError("more head operations than tapes")
			}
			tape = position
			position++
		}
		if err := c.op(tb.Tape(tape), item); err != nil {
			return err
		}
	}
	return nil
}

func (c *automatonCompiler) onTape(tb *dsl.TransitionBuilder, form *types.Pair) error {
	parts, err := types.ToSlice(form.Cdr)
	if err != nil || len(parts) < 1 {
		return syntaxError("malformed on %s", form)
	}
	k, err := c.ev.eval(c.ctx, parts[0], c.env)
	if err != nil {
		return err
	}
	idx, ok := k.(types.Integer)
	if !ok {
		return typeError("tape index must be an integer, got %s", k)
	}
	tb.Tape(int(idx))
	for _, item := range parts[1:] {
		if err := c.op(tb, item); err != nil {
			return err
		}
	}
	return nil
}

func (c *automatonCompiler) op(tb *dsl.TransitionBuilder, item types.Value) error {
	switch item {
	case types.Symbol("<-"):
		tb.Left()
		return nil
	case types.Symbol("->"):
		tb.Right()
		return nil
	case types.Symbol("."):
		tb.Nop()
		return nil
	}
	expr := item
	if form, ok := item.(*types.Pair); ok && form.Car == types.Symbol("write") {
		parts, err := types.ToSlice(form.Cdr)
		if err != nil || len(parts) != 1 {
			return syntaxError("malformed write %s", item)
		}
		expr = parts[0]
	}
	v, err := c.ev.eval(c.ctx, expr, c.env)
	if err != nil {
		return err
	}
	tb.Write(v)
	return nil
}

// Wrap exposes a Go-built automaton as a callable host value.
// bases are kept reachable for as long as the returned value is.
func (ev *Evaluator) Wrap(a *domain.Automaton, bases ...*AutomatonProc) *AutomatonProc {
	return ev.wrap(a, bases)
}
