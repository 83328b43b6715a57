package domain

import (
	"fmt"
	"sync"

	"github.com/aretw0/tlisp/pkg/types"
)

// StateSpec declares a state. Declaring the same name twice merges the declarations;
// conflicting Base or Output values are a ConstructionError.
type StateSpec struct {
	Name   string
	Base   *Automaton
	Output types.Procedure
}

// TransitionSpec declares a transition by state names.
// Next is a state name or one of the reserved targets.
type TransitionSpec struct {
	From    string
	Pattern Pattern
	Ops     []HeadOp
	Next    string
	Output  types.Procedure
}

// Spec is the complete description handed to Build.
type Spec struct {
	Name  string
	Tapes int
	// Blank defaults to the empty list.
	Blank types.Value
	// Start defaults to the first declared state.
	Start       string
	States      []StateSpec
	Transitions []TransitionSpec
}

// Automaton is an immutable state machine value.
// It is safe to run concurrently and re-entrantly; every run owns its tapes.
type Automaton struct {
	name  string
	tapes int
	blank types.Value
	start StateID

	mu       sync.RWMutex
	registry *Registry
	table    *Table
}

// Build validates spec and constructs the automaton.
// Every failure is reported as a *ConstructionError.
func Build(spec Spec) (*Automaton, error) {
	fail := func(state, format string, args ...any) error {
		return &ConstructionError{Automaton: spec.Name, State: state, Reason: fmt.Sprintf(format, args...)}
	}

	if spec.Tapes < 1 {
		return nil, fail("", "an automaton needs at least one tape, got %d", spec.Tapes)
	}
	blank := spec.Blank
	if blank == nil {
		blank = types.Null{}
	}
	if err := ValidSymbol(blank); err != nil {
		return nil, &ConstructionError{Automaton: spec.Name, Reason: "bad blank symbol", Err: err}
	}
	if len(spec.States) == 0 {
		return nil, fail("", "no states declared")
	}

	reg := NewRegistry()
	for _, ss := range spec.States {
		if ss.Name == "" {
			return nil, fail("", "state without a name")
		}
		if IsReserved(ss.Name) {
			return nil, fail(ss.Name, "%q is a reserved target and cannot name a state", ss.Name)
		}
		st := reg.State(reg.Register(ss.Name))
		if ss.Base != nil {
			if st.Base != nil && st.Base != ss.Base {
				return nil, fail(ss.Name, "conflicting base machines")
			}
			if ss.Base.Tapes() != spec.Tapes {
				return nil, fail(ss.Name, "base machine %s uses %d tape(s), expected %d", ss.Base.Name(), ss.Base.Tapes(), spec.Tapes)
			}
			st.Base = ss.Base
		}
		if ss.Output != nil {
			if st.Output != nil && st.Output != ss.Output {
				return nil, fail(ss.Name, "conflicting output procedures")
			}
			st.Output = ss.Output
		}
	}

	startName := spec.Start
	if startName == "" {
		startName = spec.States[0].Name
	}
	start, err := reg.Resolve(startName)
	if err != nil {
		return nil, &ConstructionError{Automaton: spec.Name, State: startName, Reason: "start state is not declared", Err: err}
	}

	table := NewTable(reg.Len())
	for _, ts := range spec.Transitions {
		from, err := reg.Resolve(ts.From)
		if err != nil {
			return nil, &ConstructionError{Automaton: spec.Name, State: ts.From, Reason: "transition from an undeclared state", Err: err}
		}
		action, err := resolveAction(reg, from, ts.Next)
		if err != nil {
			return nil, &ConstructionError{Automaton: spec.Name, State: ts.From, Reason: "transition target is not declared", Err: err}
		}
		if err := checkPattern(ts.Pattern, spec.Tapes); err != nil {
			return nil, &ConstructionError{Automaton: spec.Name, State: ts.From, Reason: "bad pattern", Err: err}
		}
		for _, op := range ts.Ops {
			if op.Tape < 0 || op.Tape >= spec.Tapes {
				return nil, fail(ts.From, "head operation on tape %d, automaton has %d", op.Tape, spec.Tapes)
			}
			if op.Kind == OpWrite {
				if err := ValidSymbol(op.Value); err != nil {
					return nil, &ConstructionError{Automaton: spec.Name, State: ts.From, Reason: "bad write", Err: err}
				}
			}
		}
		tr := Transition{
			From:    from,
			Pattern: ts.Pattern,
			Ops:     append([]HeadOp(nil), ts.Ops...),
			Action:  action,
			Output:  ts.Output,
		}
		if err := table.Add(tr); err != nil {
			return nil, &ConstructionError{Automaton: spec.Name, State: ts.From, Reason: "bad transition", Err: err}
		}
	}

	return &Automaton{
		name:     spec.Name,
		tapes:    spec.Tapes,
		blank:    blank,
		start:    start,
		registry: reg,
		table:    table,
	}, nil
}

func resolveAction(reg *Registry, from StateID, next string) (Action, error) {
	switch next {
	case TargetHalt:
		return Action{Kind: ActionHalt}, nil
	case TargetAccept:
		return Action{Kind: ActionAccept}, nil
	case TargetReject:
		return Action{Kind: ActionReject}, nil
	case TargetSelf:
		return Action{Kind: ActionContinue, Target: from}, nil
	case TargetNext:
		return reg.Fallthrough(from), nil
	}
	id, err := reg.Resolve(next)
	if err != nil {
		return Action{}, err
	}
	return Action{Kind: ActionContinue, Target: id}, nil
}

func checkPattern(p Pattern, tapes int) error {
	switch p.Kind {
	case PatternExact:
		if len(p.Symbols) != tapes {
			return fmt.Errorf("pattern has %d symbol(s), automaton has %d tape(s)", len(p.Symbols), tapes)
		}
		for _, s := range p.Symbols {
			if err := ValidSymbol(s); err != nil {
				return err
			}
		}
	case PatternGuard:
		if p.Guard == nil {
			return fmt.Errorf("guard pattern without procedure")
		}
	case PatternAny:
	default:
		return fmt.Errorf("unknown pattern kind %d", p.Kind)
	}
	return nil
}

// Name returns the automaton name, possibly empty.
func (a *Automaton) Name() string {
	if a.name == "" {
		return "anonymous"
	}
	return a.name
}

// Tapes returns the number of tapes a run needs.
func (a *Automaton) Tapes() int { return a.tapes }

// Blank returns the symbol of unvisited cells.
func (a *Automaton) Blank() types.Value { return a.blank }

// NewTape creates a run tape using the automaton's blank symbol.
func (a *Automaton) NewTape(contents []types.Value, head int) *Tape {
	return NewTape(contents, head, a.blank)
}

// Start returns the start state handle.
func (a *Automaton) Start() StateID { return a.start }

// Program returns the state registry and transition table for execution.
// Both are read-only; the returned view stays valid even if Release runs concurrently.
func (a *Automaton) Program() (*Registry, *Table, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.registry == nil {
		return nil, nil, fmt.Errorf("%s: %w", a.Name(), ErrReleased)
	}
	return a.registry, a.table, nil
}

// Release drops every state and transition owned by the automaton.
// It is idempotent; later runs fail with ErrReleased.
func (a *Automaton) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.registry = nil
	a.table = nil
}

// Released reports whether Release was called.
func (a *Automaton) Released() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.registry == nil
}

// TargetName renders the next-action of a transition for traces and diagrams.
func TargetName(reg *Registry, act Action) string {
	switch act.Kind {
	case ActionHalt:
		return TargetHalt
	case ActionAccept:
		return TargetAccept
	case ActionReject:
		return TargetReject
	}
	return reg.State(act.Target).Name
}
