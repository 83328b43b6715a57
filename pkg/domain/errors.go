package domain

import (
	"errors"
	"fmt"

	"github.com/aretw0/tlisp/pkg/types"
)

// ErrStateNotFound is returned when a state name or handle does not resolve.
var ErrStateNotFound = errors.New("state not found")

// ErrReleased is returned when running an automaton whose structures were released.
var ErrReleased = errors.New("automaton released")

// ConstructionError reports a malformed automaton definition. No automaton is created.
type ConstructionError struct {
	Automaton string
	State     string
	Reason    string
	Err       error
}

func (e *ConstructionError) Error() string {
	msg := "invalid automaton"
	if e.Automaton != "" {
		msg += " " + e.Automaton
	}
	if e.State != "" {
		msg += fmt.Sprintf(" (state %q)", e.State)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// StepBudgetExceededError is returned when a run does not reach a terminal action in time.
// It signals probable non-termination and is distinct from a reject outcome.
type StepBudgetExceededError struct {
	Automaton string
	Budget    int
}

func (e *StepBudgetExceededError) Error() string {
	return fmt.Sprintf("automaton %s exceeded step budget of %d", e.Automaton, e.Budget)
}

// InvalidSymbolError reports a value the matching or writing logic cannot handle.
type InvalidSymbolError struct {
	Value  types.Value
	Reason string
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("invalid symbol %s: %s", e.Value, e.Reason)
}

// TapeCountError is returned when a run receives the wrong number of tapes.
type TapeCountError struct {
	Automaton string
	Want      int
	Got       int
}

func (e *TapeCountError) Error() string {
	return fmt.Sprintf("automaton %s expects %d tape(s), got %d", e.Automaton, e.Want, e.Got)
}

// ValidSymbol checks that v can live on a tape.
func ValidSymbol(v types.Value) error {
	if v == nil {
		return &InvalidSymbolError{Value: types.Void{}, Reason: "missing value"}
	}
	if _, ok := types.Key(v); !ok {
		return &InvalidSymbolError{Value: v, Reason: v.TypeName() + " cannot be a tape symbol"}
	}
	return nil
}
