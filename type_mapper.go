package ucb

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Adapter converts a custom native type to and from its plain Object form.
// Serialize runs on output (native value to a JSON-shaped map); Deserialize
// runs on input.
type Adapter interface {
	Serialize(v any) (any, error)
	Deserialize(m map[string]any) (any, error)
}

type adapterEntry struct {
	name    string
	typ     reflect.Type
	adapter Adapter
}

// TypeMapper converts between native Go values and canonical type tags. The
// adapter table is owned by the instance and populated explicitly at startup;
// there is no ambient registry. A TypeMapper is read-only after setup and
// safe for concurrent use.
type TypeMapper struct {
	adapters []adapterEntry
	byType   map[reflect.Type]int
	byName   map[string]int
}

// NewTypeMapper creates an empty type mapper.
func NewTypeMapper() *TypeMapper {
	return &TypeMapper{
		byType: make(map[reflect.Type]int),
		byName: make(map[string]int),
	}
}

// RegisterAdapter registers a custom type adapter under the given name.
// Registered types map to Object instead of Any, and a tag equal to the
// adapter name deserializes through the adapter. Adapters are consulted in
// registration order when no exact type match exists.
func (m *TypeMapper) RegisterAdapter(name string, typ reflect.Type, a Adapter) {
	m.adapters = append(m.adapters, adapterEntry{name: name, typ: typ, adapter: a})
	idx := len(m.adapters) - 1
	if typ != nil {
		m.byType[typ] = idx
	}
	m.byName[name] = idx
}

var (
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// ToCanonical maps a native Go type to its canonical tag. Exact matches win;
// structural inspection handles pointers, containers and records; registered
// adapter types map to Object; everything else defaults to Any.
func (m *TypeMapper) ToCanonical(t reflect.Type) TypeTag {
	if t == nil {
		return TypeNull
	}
	if _, ok := m.byType[t]; ok {
		return TypeObject
	}
	switch t {
	case timeType:
		return TypeDateTime
	case bytesType:
		return TypeBinary
	}

	switch t.Kind() {
	case reflect.Pointer:
		// Optional wrappers collapse to the inner type's tag.
		return m.ToCanonical(t.Elem())
	case reflect.String:
		return TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger
	case reflect.Float32, reflect.Float64:
		return TypeFloat
	case reflect.Bool:
		return TypeBoolean
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return TypeBinary
		}
		if t.Elem().Kind() == reflect.Interface {
			return ArrayOf(TypeAny)
		}
		return ArrayOf(m.ToCanonical(t.Elem()))
	case reflect.Map, reflect.Struct:
		return TypeObject
	case reflect.Interface:
		return TypeAny
	default:
		return TypeAny
	}
}

// InferType infers the canonical tag of a runtime value. Non-empty arrays
// take their element tag from the first element.
func (m *TypeMapper) InferType(v any) TypeTag {
	if v == nil {
		return TypeNull
	}
	if _, ok := m.byType[reflect.TypeOf(v)]; ok {
		return TypeObject
	}

	switch tv := v.(type) {
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInteger
	case float32, float64:
		return TypeFloat
	case time.Time:
		return TypeDateTime
	case []byte:
		return TypeBinary
	case map[string]any:
		return TypeObject
	case []any:
		if len(tv) == 0 {
			return TypeArray
		}
		return ArrayOf(m.InferType(tv[0]))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return TypeNull
		}
		return m.InferType(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return TypeArray
		}
		return ArrayOf(m.InferType(rv.Index(0).Interface()))
	case reflect.Map, reflect.Struct:
		return TypeObject
	default:
		return TypeAny
	}
}

// ValidateAndConvert validates a value against a canonical tag, coercing
// where the tag permits it. Non-convertible input fails with a
// VALIDATION_ERROR carrying the value and expected type.
func (m *TypeMapper) ValidateAndConvert(value any, tag TypeTag) (any, error) {
	if tag == TypeAny || tag == TypeUnion {
		return value, nil
	}

	if tag == TypeNull {
		if value != nil {
			return nil, conversionError(value, tag, "expected null value")
		}
		return nil, nil
	}
	if value == nil {
		return nil, conversionError(nil, tag, fmt.Sprintf("unexpected null value for type %s", tag))
	}

	switch {
	case tag == TypeString:
		return coerceString(value), nil
	case tag == TypeInteger:
		return coerceInteger(value, tag)
	case tag == TypeFloat:
		return coerceFloat(value, tag)
	case tag == TypeBoolean:
		return coerceBoolean(value, tag)
	case tag == TypeObject:
		return m.coerceObject(value)
	case tag.IsArray():
		return m.coerceArray(value, tag)
	case tag == TypeDateTime:
		return coerceDateTime(value, tag)
	case tag == TypeDate:
		return coerceDate(value, tag)
	case tag == TypeBinary:
		return coerceBinary(value, tag)
	}

	// A tag matching a registered adapter name deserializes through it.
	if idx, ok := m.byName[string(tag)]; ok {
		obj, isMap := value.(map[string]any)
		if !isMap {
			return nil, conversionError(value, tag,
				fmt.Sprintf("cannot convert %T to %s", value, tag))
		}
		return m.adapters[idx].adapter.Deserialize(obj)
	}

	return value, nil
}

func conversionError(value any, tag TypeTag, message string) *Error {
	return NewValidationError(message, []map[string]any{
		{"value": value, "expectedType": string(tag)},
	})
}

func coerceString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	if t, ok := value.(time.Time); ok {
		return t.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(value)
}

func coerceInteger(value any, tag TypeTag) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float32:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, conversionError(value, tag, fmt.Sprintf("cannot convert %q to Integer", v))
		}
		return n, nil
	default:
		return nil, conversionError(value, tag, fmt.Sprintf("cannot convert %T to Integer", value))
	}
}

func coerceFloat(value any, tag TypeTag) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, conversionError(value, tag, fmt.Sprintf("cannot convert %q to Float", v))
		}
		return f, nil
	default:
		return nil, conversionError(value, tag, fmt.Sprintf("cannot convert %T to Float", value))
	}
}

func coerceBoolean(value any, tag TypeTag) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
	}
	return nil, conversionError(value, tag, fmt.Sprintf("cannot convert %v to Boolean", value))
}

func (m *TypeMapper) coerceObject(value any) (any, error) {
	if obj, ok := value.(map[string]any); ok {
		return obj, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Map {
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		return out, nil
	}

	if idx, ok := m.byType[reflect.TypeOf(value)]; ok {
		return m.adapters[idx].adapter.Serialize(value)
	}

	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		raw, err := json.Marshal(value)
		if err == nil {
			var out map[string]any
			if json.Unmarshal(raw, &out) == nil {
				return out, nil
			}
		}
	}

	return nil, conversionError(value, TypeObject, fmt.Sprintf("expected Object, got %T", value))
}

func (m *TypeMapper) coerceArray(value any, tag TypeTag) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, conversionError(value, tag, fmt.Sprintf("expected Array, got %T", value))
	}

	out := make([]any, rv.Len())
	if tag == TypeArray {
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}

	elem := tag.Elem()
	for i := 0; i < rv.Len(); i++ {
		converted, err := m.ValidateAndConvert(rv.Index(i).Interface(), elem)
		if err != nil {
			// First element failure aborts with that element's error.
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

func coerceDateTime(value any, tag TypeTag) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
	}
	return nil, conversionError(value, tag, fmt.Sprintf("cannot convert %v to DateTime", value))
}

func coerceDate(value any, tag TypeTag) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t, nil
		}
	}
	return nil, conversionError(value, tag, fmt.Sprintf("cannot convert %v to Date", value))
}

func coerceBinary(value any, tag TypeTag) (any, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		if b, err := base64.StdEncoding.DecodeString(v); err == nil {
			return b, nil
		}
	}
	return nil, conversionError(value, tag, fmt.Sprintf("cannot convert %T to Binary", value))
}
