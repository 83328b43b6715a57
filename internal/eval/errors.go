package eval

import (
	"context"
	"errors"

	"github.com/aretw0/tlisp/internal/compiler"
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/types"
)

// ToError maps any Go error onto the host exception value, so that engine failures are
// caught by try/catch exactly like builtin failures.
func ToError(err error) *types.Error {
	if err == nil {
		return nil
	}

	var (
		construction *domain.ConstructionError
		budget       *domain.StepBudgetExceededError
		symbol       *domain.InvalidSymbolError
		tapes        *domain.TapeCountError
		syntax       *compiler.SyntaxError
		lispErr      *types.Error
	)
	switch {
	case errors.As(err, &construction):
		return types.NewError(types.KindConstruction, "%s", err.Error())
	case errors.As(err, &budget):
		return types.NewError(types.KindStepBudgetExceeded, "%s", err.Error())
	case errors.As(err, &lispErr):
		if lispErr.Error() == err.Error() {
			return lispErr
		}
		return types.NewError(lispErr.Kind, "%s", err.Error())
	case errors.As(err, &symbol):
		return types.NewError(types.KindInvalidSymbol, "%s", err.Error())
	case errors.As(err, &tapes):
		return types.NewError(types.KindArity, "%s", err.Error())
	case errors.Is(err, domain.ErrReleased):
		return types.NewError(types.KindReleased, "%s", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.NewError(types.KindCancelled, "%s", err.Error())
	case errors.As(err, &syntax):
		return types.NewError(types.KindSyntax, "%s", err.Error())
	default:
		return types.NewError(types.KindError, "%s", err.Error())
	}
}

// catchable reports whether try/catch may intercept e. Cancellation always propagates.
func catchable(e *types.Error) bool {
	return e.Kind != types.KindCancelled
}

func typeError(format string, args ...any) *types.Error {
	return types.NewError(types.KindType, format, args...)
}

func syntaxError(format string, args ...any) *types.Error {
	return types.NewError(types.KindSyntax, format, args...)
}
