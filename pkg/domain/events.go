package domain

import (
	"context"
	"time"

	"github.com/aretw0/tlisp/pkg/types"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart EventType = "run_start"
	EventStep     EventType = "step"
	EventRunEnd   EventType = "run_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Automaton string    `json:"automaton"`
	// Depth is 0 for a top-level run and grows with nested base machine runs.
	Depth int `json:"depth"`
}

// RunEvent marks the start or end of a run.
type RunEvent struct {
	EventBase
	Tapes   int           `json:"tapes"`
	Steps   int           `json:"steps,omitempty"`
	Outcome string        `json:"outcome,omitempty"`
	Err     error         `json:"-"`
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// StepEvent describes one executed transition.
type StepEvent struct {
	EventBase
	Step    int           `json:"step"`
	State   string        `json:"state"`
	Symbols []types.Value `json:"-"`
	// Transition is the index within the state's transitions, -1 when nothing matched.
	Transition int    `json:"transition"`
	Next       string `json:"next"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnRunStart func(context.Context, *RunEvent)
	OnStep     func(context.Context, *StepEvent)
	OnRunEnd   func(context.Context, *RunEvent)
}

// Merge returns hooks calling h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart: chain(h.OnRunStart, other.OnRunStart),
		OnStep:     chain(h.OnStep, other.OnStep),
		OnRunEnd:   chain(h.OnRunEnd, other.OnRunEnd),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
