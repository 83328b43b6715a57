package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/types"
)

// LogHooks returns hooks logging every run and step on logger.
// Runs are logged at Info and steps at Debug.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_start", "automaton", e.Automaton, "depth", e.Depth, "tapes", e.Tapes)
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step",
				"automaton", e.Automaton,
				"step", e.Step,
				"state", e.State,
				"symbols", symbols(e.Symbols),
				"next", e.Next,
			)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "run_failed", "automaton", e.Automaton, "depth", e.Depth, "steps", e.Steps, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "run_end",
				"automaton", e.Automaton,
				"depth", e.Depth,
				"outcome", e.Outcome,
				"steps", e.Steps,
				"elapsed", e.Elapsed,
			)
		},
	}
}

func symbols(vals []types.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}
