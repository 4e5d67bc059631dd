package orders

import (
	"reflect"
	"strings"
)

// Field is one candidate key of a sparse update payload.
type Field struct {
	Key    string
	Value  any
	Always bool
}

// Optional includes key only when value is truthy.
func Optional(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Required always includes key.
func Required(key string, value any) Field {
	return Field{Key: key, Value: value, Always: true}
}

// BuildPartial assembles a sparse payload. Optional fields are kept only when
// their value is truthy: a non-blank string, a non-zero number, true, or a
// non-empty map, slice or pointer target. Nested payloads that end up empty are
// dropped with their key.
func BuildPartial(fields ...Field) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Always || truthy(f.Value) {
			out[f.Key] = f.Value
		}
	}
	return out
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case map[string]any:
		return len(t) > 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
