// Package validator checks automaton definitions beyond what compilation requires:
// reachability of states, shadowed transitions and references to base machines.
package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/ports"
	"github.com/aretw0/tlisp/pkg/schema"
	"github.com/aretw0/tlisp/pkg/types"
)

// Report collects the findings for one definition.
// Errors prevent compilation; warnings point at dead code.
type Report struct {
	Automaton string
	Errors    []string
	Warnings  []string
}

// OK reports whether the definition has no errors.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) String() string {
	var sb strings.Builder
	for _, e := range r.Errors {
		fmt.Fprintf(&sb, "error: %s: %s\n", r.Automaton, e)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "warning: %s: %s\n", r.Automaton, w)
	}
	return sb.String()
}

// Check validates def. Base machines are looked up in loader when it is not nil.
func Check(ctx context.Context, def *schema.Definition, loader ports.LibraryLoader) *Report {
	r := &Report{Automaton: def.Name}
	if err := schema.Validate(def); err != nil {
		for _, e := range schema.ValidationErrors(err) {
			r.Errors = append(r.Errors, e.Error())
		}
		return r
	}

	if loader != nil {
		for _, st := range def.States {
			if st.Base == "" {
				continue
			}
			if _, err := loader.Load(ctx, st.Base); err != nil {
				if errors.Is(err, ports.ErrDefinitionNotFound) {
					r.Errors = append(r.Errors, fmt.Sprintf("state %q: base machine %q not found", st.Name, st.Base))
				} else {
					r.Errors = append(r.Errors, fmt.Sprintf("state %q: base machine %q: %v", st.Name, st.Base, err))
				}
			}
		}
	}

	reached := Reachable(def)
	for _, st := range def.States {
		if !reached[st.Name] {
			r.Warnings = append(r.Warnings, fmt.Sprintf("state %q is unreachable", st.Name))
		}
		r.Warnings = append(r.Warnings, shadowed(def, st)...)
	}
	return r
}

// Reachable returns the states reachable from the start state.
func Reachable(def *schema.Definition) map[string]bool {
	index := make(map[string]int, len(def.States))
	for i, st := range def.States {
		index[st.Name] = i
	}
	start := def.Start
	if start == "" && len(def.States) > 0 {
		start = def.States[0].Name
	}

	visited := make(map[string]bool)
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		i, ok := index[current]
		if !ok || visited[current] {
			continue
		}
		visited[current] = true

		st := def.States[i]
		if len(st.Transitions) == 0 {
			if i+1 < len(def.States) {
				queue = append(queue, def.States[i+1].Name)
			}
			continue
		}
		for _, tr := range st.Transitions {
			switch tr.Next {
			case domain.TargetSelf, domain.TargetHalt, domain.TargetAccept, domain.TargetReject:
			case domain.TargetNext:
				if i+1 < len(def.States) {
					queue = append(queue, def.States[i+1].Name)
				}
			default:
				queue = append(queue, tr.Next)
			}
		}
	}
	return visited
}

// shadowed reports transitions that can never be chosen: repeated concrete
// patterns and every wildcard after the first.
func shadowed(def *schema.Definition, st schema.StateDef) []string {
	var warnings []string
	seen := make(map[string]int)
	firstAny := -1
	for j, tr := range st.Transitions {
		switch {
		case tr.Any:
			if firstAny >= 0 {
				warnings = append(warnings, fmt.Sprintf("state %q: transition %d is shadowed by wildcard %d", st.Name, j, firstAny))
			} else {
				firstAny = j
			}
		case tr.Match != nil:
			key, ok := matchKey(tr.Match, def.TapeCount())
			if !ok {
				continue
			}
			if prev, dup := seen[key]; dup {
				warnings = append(warnings, fmt.Sprintf("state %q: transition %d is shadowed by transition %d", st.Name, j, prev))
			} else {
				seen[key] = j
			}
		}
	}
	return warnings
}

func matchKey(raw any, tapes int) (string, bool) {
	items := []any{raw}
	if tapes > 1 {
		list, ok := raw.([]any)
		if !ok {
			return "", false
		}
		items = list
	}
	keys := make([]string, len(items))
	for i, item := range items {
		v, err := schema.ToValue(item)
		if err != nil {
			return "", false
		}
		k, ok := types.Key(v)
		if !ok {
			return "", false
		}
		keys[i] = k
	}
	return strings.Join(keys, "\x00"), true
}

// CheckLibrary validates every definition of loader.
func CheckLibrary(ctx context.Context, loader ports.LibraryLoader) ([]*Report, error) {
	names, err := loader.List(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]*Report, 0, len(names))
	for _, name := range names {
		def, err := loader.Load(ctx, name)
		if err != nil {
			reports = append(reports, &Report{Automaton: name, Errors: []string{err.Error()}})
			continue
		}
		reports = append(reports, Check(ctx, def, loader))
	}
	return reports, nil
}
