package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/tlisp"
	"github.com/aretw0/tlisp/pkg/observability"
	"github.com/aretw0/tlisp/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const program = `
(define only-a (automaton (s ("a" -> self) ('() accept))))
(define spin (automaton (loop (_ -> self))))
`

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	interp := tlisp.New(tlisp.WithLifecycleHooks(m.Hooks()), tlisp.WithStepBudget(20))
	ctx := context.Background()
	_, err = interp.Eval(ctx, program)
	require.NoError(t, err)

	_, err = interp.Run(ctx, "only-a", types.String("aa"))
	require.NoError(t, err)
	_, err = interp.Run(ctx, "only-a", types.String("ab"))
	require.NoError(t, err)
	_, err = interp.Run(ctx, "spin", types.String(""))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("only-a", "accept")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("only-a", "reject")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("spin", "step_budget_exceeded")))
	// aa: three steps, ab: two steps.
	assert.Equal(t, 5.0, testutil.ToFloat64(m.StateVisits.WithLabelValues("only-a", "s")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Steps))

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err, "collectors cannot be registered twice")
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	interp := tlisp.New(tlisp.WithLifecycleHooks(observability.LogHooks(logger)))
	ctx := context.Background()
	_, err := interp.Eval(ctx, program)
	require.NoError(t, err)
	_, err = interp.Run(ctx, "only-a", types.String("a"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=run_start")
	assert.Contains(t, out, "msg=step")
	assert.Contains(t, out, "outcome=accept")
}
