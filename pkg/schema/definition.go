package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Definition is the declarative form of an automaton.
type Definition struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	// Tapes defaults to 1.
	Tapes int `json:"tapes,omitempty" yaml:"tapes,omitempty" mapstructure:"tapes"`
	// Blank defaults to the empty list.
	Blank any `json:"blank,omitempty" yaml:"blank,omitempty" mapstructure:"blank"`
	// Start defaults to the first state.
	Start  string     `json:"start,omitempty" yaml:"start,omitempty" mapstructure:"start"`
	States []StateDef `json:"states" yaml:"states" mapstructure:"states"`
}

// TapeCount returns the number of tapes, applying the default.
func (d *Definition) TapeCount() int {
	if d.Tapes == 0 {
		return 1
	}
	return d.Tapes
}

// StateDef declares one state.
type StateDef struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	// Base names another automaton that runs before this state reads its symbols.
	Base string `json:"base,omitempty" yaml:"base,omitempty" mapstructure:"base"`
	// Output is the source of a procedure called with the symbols when the state is visited.
	Output      string          `json:"output,omitempty" yaml:"output,omitempty" mapstructure:"output"`
	Transitions []TransitionDef `json:"transitions,omitempty" yaml:"transitions,omitempty" mapstructure:"transitions"`
}

// TransitionDef declares one transition. Exactly one of Match, Guard and Any is set.
// Match holds one symbol, or a list of one symbol per tape for multi-tape automata.
// The blank cell is written as an empty list.
type TransitionDef struct {
	Match  any    `json:"match,omitempty" yaml:"match,omitempty" mapstructure:"match"`
	Guard  string `json:"guard,omitempty" yaml:"guard,omitempty" mapstructure:"guard"`
	Any    bool   `json:"any,omitempty" yaml:"any,omitempty" mapstructure:"any"`
	Ops    []Op   `json:"ops,omitempty" yaml:"ops,omitempty" mapstructure:"ops"`
	Next   string `json:"next" yaml:"next" mapstructure:"next"`
	Output string `json:"output,omitempty" yaml:"output,omitempty" mapstructure:"output"`
}

// OpKind names a head operation.
type OpKind string

const (
	OpLeft  OpKind = "left"
	OpRight OpKind = "right"
	OpNop   OpKind = "nop"
	OpWrite OpKind = "write"
)

var opAliases = map[string]OpKind{
	"left": OpLeft, "<-": OpLeft,
	"right": OpRight, "->": OpRight,
	"nop": OpNop, ".": OpNop,
}

// Op is a head operation on one tape.
//
// Its text form is a bare word (left, right, nop or <-, ->, .) acting on tape 0.
// The map form selects a tape or writes: {move: left, tape: 1}, {write: "x", tape: 1}.
type Op struct {
	Kind  OpKind
	Tape  int
	Value any
}

// ParseOp converts a decoded YAML/JSON value into an Op.
func ParseOp(raw any) (Op, error) {
	switch v := raw.(type) {
	case string:
		kind, ok := opAliases[v]
		if !ok {
			return Op{}, fmt.Errorf("unknown head operation %q", v)
		}
		return Op{Kind: kind}, nil
	case map[string]any:
		return opFromMap(v)
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = val
		}
		return opFromMap(m)
	case Op:
		return v, nil
	}
	return Op{}, fmt.Errorf("head operation must be a string or a map, got %T", raw)
}

func opFromMap(m map[string]any) (Op, error) {
	var op Op
	if t, ok := m["tape"]; ok {
		k, err := toInt(t)
		if err != nil {
			return Op{}, fmt.Errorf("tape: %w", err)
		}
		op.Tape = k
	}
	w, hasWrite := m["write"]
	mv, hasMove := m["move"]
	switch {
	case hasWrite && hasMove:
		return Op{}, fmt.Errorf("head operation has both write and move")
	case hasWrite:
		op.Kind = OpWrite
		op.Value = w
	case hasMove:
		name, _ := mv.(string)
		kind, ok := opAliases[name]
		if !ok {
			return Op{}, fmt.Errorf("unknown move %v", mv)
		}
		op.Kind = kind
	default:
		return Op{}, fmt.Errorf("head operation needs write or move")
	}
	for k := range m {
		if k != "tape" && k != "write" && k != "move" {
			return Op{}, fmt.Errorf("unknown head operation field %q", k)
		}
	}
	return op, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	}
	return 0, fmt.Errorf("expected an integer, got %v", v)
}

func (op Op) encode() any {
	if op.Kind == OpWrite {
		return map[string]any{"write": op.Value, "tape": op.Tape}
	}
	if op.Tape == 0 {
		return string(op.Kind)
	}
	return map[string]any{"move": string(op.Kind), "tape": op.Tape}
}

func (op Op) String() string {
	switch {
	case op.Kind == OpWrite && op.Tape == 0:
		return fmt.Sprintf("write %v", op.Value)
	case op.Kind == OpWrite:
		return fmt.Sprintf("write %v on %d", op.Value, op.Tape)
	case op.Tape == 0:
		return string(op.Kind)
	}
	return fmt.Sprintf("%s on %d", op.Kind, op.Tape)
}

// MarshalJSON writes the text form when possible.
func (op Op) MarshalJSON() ([]byte, error) {
	return json.Marshal(op.encode())
}

// UnmarshalJSON accepts the text and map forms.
func (op *Op) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseOp(raw)
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// MarshalYAML writes the text form when possible.
func (op Op) MarshalYAML() (any, error) {
	return op.encode(), nil
}

// UnmarshalYAML accepts the text and map forms.
func (op *Op) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseOp(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*op = parsed
	return nil
}

var opType = reflect.TypeOf(Op{})

// OpDecodeHook lets mapstructure decode head operations from their text and map forms.
func OpDecodeHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != opType {
			return data, nil
		}
		return ParseOp(data)
	}
}

// ParseYAML decodes a definition from YAML.
func ParseYAML(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	return &def, nil
}

// ParseJSON decodes a definition from JSON.
func ParseJSON(data []byte) (*Definition, error) {
	var def Definition
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	return &def, nil
}

// Decode builds a definition from a generic map, such as markdown frontmatter.
func Decode(raw map[string]any) (*Definition, error) {
	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       OpDecodeHook(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &def,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}
	return &def, nil
}

// Encode converts a definition to a generic map, the inverse of Decode.
func Encode(def *Definition) (map[string]any, error) {
	data, err := json.Marshal(def)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}
