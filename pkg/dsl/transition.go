package dsl

import (
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/types"
)

// TransitionBuilder collects head operations until a next-action closes the transition.
// Operations apply to tape 0 unless Tape selects another one.
type TransitionBuilder struct {
	state *StateBuilder
	spec  domain.TransitionSpec
	tape  int
}

// Tape selects the tape for the following head operations.
func (t *TransitionBuilder) Tape(k int) *TransitionBuilder {
	t.tape = k
	return t
}

// Write replaces the symbol under the head.
func (t *TransitionBuilder) Write(v types.Value) *TransitionBuilder {
	return t.op(domain.Write(t.tape, v))
}

// Left moves the head one cell left.
func (t *TransitionBuilder) Left() *TransitionBuilder {
	return t.op(domain.Left(t.tape))
}

// Right moves the head one cell right.
func (t *TransitionBuilder) Right() *TransitionBuilder {
	return t.op(domain.Right(t.tape))
}

// Nop records an explicit no-op.
func (t *TransitionBuilder) Nop() *TransitionBuilder {
	return t.op(domain.Nop(t.tape))
}

// Output sets the procedure called after the head operations with the matched symbols.
func (t *TransitionBuilder) Output(fn types.Procedure) *TransitionBuilder {
	t.spec.Output = fn
	return t
}

func (t *TransitionBuilder) op(op domain.HeadOp) *TransitionBuilder {
	t.spec.Ops = append(t.spec.Ops, op)
	return t
}

// Go continues with the target state.
func (t *TransitionBuilder) Go(target string) *StateBuilder {
	t.spec.Next = target
	b := t.state.builder
	b.spec.Transitions = append(b.spec.Transitions, t.spec)
	return t.state
}

// Self continues with the current state.
func (t *TransitionBuilder) Self() *StateBuilder { return t.Go(domain.TargetSelf) }

// Next continues with the next declared state.
func (t *TransitionBuilder) Next() *StateBuilder { return t.Go(domain.TargetNext) }

// Halt ends the run with outcome halt.
func (t *TransitionBuilder) Halt() *StateBuilder { return t.Go(domain.TargetHalt) }

// Accept ends the run with outcome accept.
func (t *TransitionBuilder) Accept() *StateBuilder { return t.Go(domain.TargetAccept) }

// Reject ends the run with outcome reject.
func (t *TransitionBuilder) Reject() *StateBuilder { return t.Go(domain.TargetReject) }
