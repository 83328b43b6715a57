package schema

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/aretw0/tlisp/pkg/types"
)

// ToValue converts a decoded YAML/JSON scalar or list into a tape symbol.
// Strings stay strings, whole numbers become integers, lists become lists
// and nil becomes the empty list.
func ToValue(raw any) (types.Value, error) {
	switch v := raw.(type) {
	case nil:
		return types.Null{}, nil
	case types.Value:
		return v, nil
	case string:
		return types.String(v), nil
	case bool:
		return types.Boolean(v), nil
	case int:
		return types.Integer(v), nil
	case int64:
		return types.Integer(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of range", v)
		}
		return types.Integer(v), nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return types.Integer(int64(v)), nil
		}
		return types.Real(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return types.Integer(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return types.Real(f), nil
	case []any:
		items := make([]types.Value, len(v))
		for i, item := range v {
			val, err := ToValue(item)
			if err != nil {
				return nil, err
			}
			items[i] = val
		}
		return types.List(items...), nil
	}
	return nil, fmt.Errorf("cannot use %T as a symbol", raw)
}

// FromValue is the inverse of ToValue for symbols.
// Symbols and other host values without a data form are rendered as text.
func FromValue(v types.Value) any {
	switch x := v.(type) {
	case types.Null:
		return []any{}
	case types.String:
		return string(x)
	case types.Boolean:
		return bool(x)
	case types.Integer:
		return int64(x)
	case types.Real:
		return float64(x)
	case *types.Pair:
		items, err := types.ToSlice(x)
		if err != nil {
			return x.String()
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = FromValue(item)
		}
		return out
	}
	return v.String()
}
