package schema

import (
	"fmt"

	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/types"
)

// Validate checks a definition and reports every problem found as an *AggregateError.
// It does not compile guard or output sources.
func Validate(def *Definition) error {
	var errs []error
	add := func(key, reason string, value any) {
		errs = append(errs, &ValidationError{Key: key, Reason: reason, Value: value})
	}

	if def.Name == "" {
		add("name", "required", nil)
	}
	if def.Tapes < 0 {
		add("tapes", "must be at least 1", def.Tapes)
	}
	tapes := def.TapeCount()
	if def.Blank != nil {
		if err := checkSymbol(def.Blank); err != nil {
			add("blank", err.Error(), def.Blank)
		}
	}
	if len(def.States) == 0 {
		add("states", "at least one state is required", nil)
	}

	declared := make(map[string]bool, len(def.States))
	for i, st := range def.States {
		key := fmt.Sprintf("states[%d].name", i)
		switch {
		case st.Name == "":
			add(key, "required", nil)
		case domain.IsReserved(st.Name):
			add(key, "reserved target name", st.Name)
		case declared[st.Name]:
			add(key, "duplicate state", st.Name)
		}
		declared[st.Name] = true
	}
	if def.Start != "" && !declared[def.Start] {
		add("start", "not a declared state", def.Start)
	}

	for i, st := range def.States {
		for j, tr := range st.Transitions {
			prefix := fmt.Sprintf("states[%d].transitions[%d]", i, j)
			validateTransition(prefix, tr, tapes, declared, add)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validateTransition(prefix string, tr TransitionDef, tapes int, declared map[string]bool, add func(key, reason string, value any)) {
	patterns := 0
	if tr.Match != nil {
		patterns++
	}
	if tr.Guard != "" {
		patterns++
	}
	if tr.Any {
		patterns++
	}
	if patterns != 1 {
		add(prefix, "exactly one of match, guard and any is required", nil)
	}

	if tr.Match != nil {
		if _, err := matchSymbols(tr.Match, tapes); err != nil {
			add(prefix+".match", err.Error(), tr.Match)
		}
	}

	switch {
	case tr.Next == "":
		add(prefix+".next", "required", nil)
	case !domain.IsReserved(tr.Next) && !declared[tr.Next]:
		add(prefix+".next", "not a declared state", tr.Next)
	}

	for k, op := range tr.Ops {
		key := fmt.Sprintf("%s.ops[%d]", prefix, k)
		if op.Tape < 0 || op.Tape >= tapes {
			add(key+".tape", fmt.Sprintf("must be between 0 and %d", tapes-1), op.Tape)
		}
		if op.Kind == OpWrite {
			if err := checkSymbol(op.Value); err != nil {
				add(key+".write", err.Error(), op.Value)
			}
		}
	}
}

func checkSymbol(raw any) error {
	v, err := ToValue(raw)
	if err != nil {
		return err
	}
	return domain.ValidSymbol(v)
}

// matchSymbols converts a match value into one symbol per tape.
func matchSymbols(raw any, tapes int) ([]types.Value, error) {
	if tapes == 1 {
		v, err := ToValue(raw)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidSymbol(v); err != nil {
			return nil, err
		}
		return []types.Value{v}, nil
	}
	items, ok := raw.([]any)
	if !ok || len(items) != tapes {
		return nil, fmt.Errorf("expected a list of %d symbols", tapes)
	}
	out := make([]types.Value, len(items))
	for i, item := range items {
		v, err := ToValue(item)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidSymbol(v); err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
