package pseudo

import (
	"encoding/json"
	"fmt"
	"math"
)

// coerceScalar converts v to the Go representation of t: string, int64,
// float64 or bool. Nil stays nil. Unknown tags pass v through.
func coerceScalar(t DataType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case TypeInt64:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	case TypeFloat64:
		if f, ok := toFloat64(v); ok {
			return f, nil
		}
	case TypeNull:
	default:
		return v, nil
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, t)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt64(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt64(f)
		}
	}
	return 0, false
}

func uintToInt64(n uint64) (int64, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	if u, ok := v.(uint64); ok {
		return float64(u), true
	}
	return 0, false
}

// scalarType returns the data type of a Go scalar value.
func scalarType(v any) (DataType, bool) {
	switch v.(type) {
	case nil:
		return TypeNull, true
	case string:
		return TypeString, true
	case bool:
		return TypeBool, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInt64, true
	case float32, float64:
		return TypeFloat64, true
	case json.Number:
		if _, err := v.(json.Number).Int64(); err == nil {
			return TypeInt64, true
		}
		return TypeFloat64, true
	}
	return "", false
}

// mergeTypes returns the narrowest type that holds both a and b.
func mergeTypes(a, b DataType) (DataType, bool) {
	switch {
	case a == b:
		return a, true
	case a == TypeNull:
		return b, true
	case b == TypeNull:
		return a, true
	case a == TypeInt64 && b == TypeFloat64, a == TypeFloat64 && b == TypeInt64:
		return TypeFloat64, true
	}
	return "", false
}

// coerceValues converts values to t, falling back to the type inferred from
// the values themselves when they do not fit t. It returns the converted
// copy and the resulting type.
func coerceValues(t DataType, values []any) ([]any, DataType, error) {
	if out, err := coerceAll(t, values); err == nil {
		return out, t, nil
	}
	inferred := TypeNull
	for _, v := range values {
		vt, ok := scalarType(v)
		if !ok {
			return nil, "", fmt.Errorf("unsupported value type %T", v)
		}
		merged, ok := mergeTypes(inferred, vt)
		if !ok {
			return nil, "", fmt.Errorf("mixed value types %s and %s", inferred, vt)
		}
		inferred = merged
	}
	out, err := coerceAll(inferred, values)
	if err != nil {
		return nil, "", err
	}
	return out, inferred, nil
}

func coerceAll(t DataType, values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		c, err := coerceScalar(t, v)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
