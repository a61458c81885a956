package core

import (
	"fmt"
	"math"
	"reflect"
)

// NormalizeValue converts an arbitrary Go value into the closed value set used
// for state entries:
//
//	nil | bool | int64 | float64 | string | []any | map[string]any
//
// Integer types widen to int64 and float32 to float64; typed slices, arrays
// and string-keyed maps convert recursively via reflection. The returned tree
// shares no memory with the input, so callers may keep mutating what they
// passed in. Values outside the set (channels, funcs, structs, non-string map
// keys, unsigned integers above the int64 range) fail with
// ErrUnsupportedValue.
func NormalizeValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch v := value.(type) {
	case bool, string, int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%w: uint64 %d overflows int64", ErrUnsupportedValue, v)
		}
		return int64(v), nil
	case float32:
		return float64(v), nil
	case []any:
		return normalizeSlice(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			ne, err := NormalizeValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = ne
		}
		return out, nil
	}

	// Typed containers ([]string, map[string]int, ...) and pointers fall
	// through to reflection.
	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return NormalizeValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ne, err := NormalizeValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = ne
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key type %s", ErrUnsupportedValue, rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			ne, err := NormalizeValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = ne
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
}

func normalizeSlice(in []any) (any, error) {
	out := make([]any, len(in))
	for i, e := range in {
		ne, err := NormalizeValue(e)
		if err != nil {
			return nil, err
		}
		out[i] = ne
	}
	return out, nil
}

// CopyValue deep-copies an already normalized value tree. Scalars are
// returned as-is; sequences and mappings are rebuilt so the copy shares no
// memory with the original.
func CopyValue(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = CopyValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = CopyValue(e)
		}
		return out
	default:
		return v
	}
}
