package domain

import (
	"fmt"

	"github.com/aretw0/tlisp/pkg/types"
)

// HeadOpKind enumerates the head operations.
type HeadOpKind uint8

const (
	OpNop HeadOpKind = iota
	OpMoveLeft
	OpMoveRight
	OpWrite
)

func (k HeadOpKind) String() string {
	switch k {
	case OpNop:
		return "nop"
	case OpMoveLeft:
		return "left"
	case OpMoveRight:
		return "right"
	case OpWrite:
		return "write"
	default:
		return fmt.Sprintf("HeadOpKind(%d)", uint8(k))
	}
}

// HeadOp is one atomic mutation of a tape. Value is only set for OpWrite.
type HeadOp struct {
	Kind  HeadOpKind
	Tape  int
	Value types.Value
}

// Left moves the head of tape one cell to the left.
func Left(tape int) HeadOp { return HeadOp{Kind: OpMoveLeft, Tape: tape} }

// Right moves the head of tape one cell to the right.
func Right(tape int) HeadOp { return HeadOp{Kind: OpMoveRight, Tape: tape} }

// Write replaces the symbol under the head of tape.
func Write(tape int, v types.Value) HeadOp { return HeadOp{Kind: OpWrite, Tape: tape, Value: v} }

// Nop leaves tape untouched.
func Nop(tape int) HeadOp { return HeadOp{Kind: OpNop, Tape: tape} }

func (op HeadOp) String() string {
	if op.Kind == OpWrite {
		return fmt.Sprintf("write[%d](%s)", op.Tape, op.Value)
	}
	return fmt.Sprintf("%s[%d]", op.Kind, op.Tape)
}

// ActionKind is what happens after a transition's head operations.
type ActionKind uint8

const (
	ActionContinue ActionKind = iota
	ActionHalt
	ActionAccept
	ActionReject
)

// Action is the next-action of a transition. Target is only meaningful for ActionContinue.
type Action struct {
	Kind   ActionKind
	Target StateID
}

// Terminal reports whether the action ends the run.
func (a Action) Terminal() bool {
	return a.Kind != ActionContinue
}

// Outcome returns the terminal outcome of a terminal action.
func (a Action) Outcome() Outcome {
	switch a.Kind {
	case ActionAccept:
		return OutcomeAccept
	case ActionReject:
		return OutcomeReject
	default:
		return OutcomeHalt
	}
}

// Outcome is the terminal result of a run.
type Outcome uint8

const (
	OutcomeHalt Outcome = iota
	OutcomeAccept
	OutcomeReject
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccept:
		return TargetAccept
	case OutcomeReject:
		return TargetReject
	default:
		return TargetHalt
	}
}

// ExitCode follows the classic convention: 0 halt, 1 accept, -1 reject.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeAccept:
		return 1
	case OutcomeReject:
		return -1
	default:
		return 0
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, bool) {
	switch s {
	case TargetHalt:
		return OutcomeHalt, true
	case TargetAccept:
		return OutcomeAccept, true
	case TargetReject:
		return OutcomeReject, true
	}
	return OutcomeHalt, false
}
