package observability

import (
	"context"
	"errors"

	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by engine hooks.
type Metrics struct {
	Runs        *prometheus.CounterVec
	Steps       *prometheus.HistogramVec
	Duration    *prometheus.HistogramVec
	StateVisits *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tlisp_runs_total",
				Help: "Top-level automaton runs by outcome",
			},
			[]string{"automaton", "outcome"},
		),
		Steps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tlisp_run_steps",
				Help:    "Steps taken by top-level runs",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"automaton"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tlisp_run_duration_seconds",
				Help:    "Duration of top-level runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"automaton"},
		),
		StateVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tlisp_state_visits_total",
				Help: "Steps executed per state, base machines included",
			},
			[]string{"automaton", "state"},
		),
	}
	for _, c := range []prometheus.Collector{m.Runs, m.Steps, m.Duration, m.StateVisits} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			m.StateVisits.WithLabelValues(e.Automaton, e.State).Inc()
		},
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) {
			if e.Depth > 0 {
				return
			}
			m.Runs.WithLabelValues(e.Automaton, outcomeLabel(e)).Inc()
			m.Steps.WithLabelValues(e.Automaton).Observe(float64(e.Steps))
			m.Duration.WithLabelValues(e.Automaton).Observe(e.Elapsed.Seconds())
		},
	}
}

func outcomeLabel(e *domain.RunEvent) string {
	if e.Err == nil {
		return e.Outcome
	}
	var budget *domain.StepBudgetExceededError
	switch {
	case errors.As(e.Err, &budget):
		return "step_budget_exceeded"
	case errors.Is(e.Err, context.Canceled), errors.Is(e.Err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "error"
}
