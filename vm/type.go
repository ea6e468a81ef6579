package vm

import (
	"fmt"
	"reflect"
)

// Type identifies the run-time kind of a Value.
//
// The ordinal of each tag is its wire encoding. Tags must never be
// reordered: doing so changes the meaning of every encoded stream.
type Type uint8

const (
	TypeBoolean Type = iota
	TypeNumber
	TypeVector2
	TypeVector3
	TypeMatrix3
	TypeMatrix4
	TypeBooleanArray
	TypeNumberArray
	TypeVector2Array
	TypeVector3Array
	TypeMatrix3Array
	TypeMatrix4Array

	typeCount
)

var typeNames = [typeCount]string{
	TypeBoolean:      "boolean",
	TypeNumber:       "number",
	TypeVector2:      "vector_2",
	TypeVector3:      "vector_3",
	TypeMatrix3:      "matrix_3",
	TypeMatrix4:      "matrix_4",
	TypeBooleanArray: "boolean_array",
	TypeNumberArray:  "number_array",
	TypeVector2Array: "vector_2_array",
	TypeVector3Array: "vector_3_array",
	TypeMatrix3Array: "matrix_3_array",
	TypeMatrix4Array: "matrix_4_array",
}

// Types returns every tag in ordinal order.
func Types() []Type {
	ts := make([]Type, typeCount)
	for i := range ts {
		ts[i] = Type(i)
	}
	return ts
}

// Valid reports whether t is one of the twelve defined tags.
func (t Type) Valid() bool {
	return t < typeCount
}

// String returns the canonical snake_case name of t.
func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("type(%d)", uint8(t))
	}
	return typeNames[t]
}

// IsArray reports whether t is one of the array kinds.
func (t Type) IsArray() bool {
	return t >= TypeBooleanArray && t < typeCount
}

// Elem returns the element tag of an array tag.
// Panics if t is not an array tag.
func (t Type) Elem() Type {
	if !t.IsArray() {
		panic(fmt.Sprintf("Type.Elem: %s is not an array type", t))
	}
	return t - TypeBooleanArray
}

// ArrayOf returns the array tag whose elements have tag t.
// Panics if t is itself an array tag.
func ArrayOf(t Type) Type {
	if !t.Valid() || t.IsArray() {
		panic(fmt.Sprintf("ArrayOf: no array type for %s", t))
	}
	return t + TypeBooleanArray
}

// ParseType maps a canonical tag name back to its Type.
func ParseType(name string) (Type, error) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown type name %q", ErrInvalidType, name)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidType, uint8(t))
	}
	return []byte(typeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ---------------------------------------------------------------------------
// Static type -> tag association
// ---------------------------------------------------------------------------

// Payload is the set of Go types a Value can hold.
type Payload interface {
	bool | float64 | Vector2 | Vector3 | Matrix3 | Matrix4 |
		*Array[bool] | *Array[float64] | *Array[Vector2] |
		*Array[Vector3] | *Array[Matrix3] | *Array[Matrix4]
}

// TypeOf returns the tag associated with the payload type T.
func TypeOf[T Payload]() Type {
	var zero T
	switch any(zero).(type) {
	case bool:
		return TypeBoolean
	case float64:
		return TypeNumber
	case Vector2:
		return TypeVector2
	case Vector3:
		return TypeVector3
	case Matrix3:
		return TypeMatrix3
	case Matrix4:
		return TypeMatrix4
	case *Array[bool]:
		return TypeBooleanArray
	case *Array[float64]:
		return TypeNumberArray
	case *Array[Vector2]:
		return TypeVector2Array
	case *Array[Vector3]:
		return TypeVector3Array
	case *Array[Matrix3]:
		return TypeMatrix3Array
	case *Array[Matrix4]:
		return TypeMatrix4Array
	}
	panic("unreachable")
}

// reflectTypes maps each payload reflect.Type to its tag. Built once.
var reflectTypes = map[reflect.Type]Type{
	reflect.TypeFor[bool]():            TypeBoolean,
	reflect.TypeFor[float64]():         TypeNumber,
	reflect.TypeFor[Vector2]():         TypeVector2,
	reflect.TypeFor[Vector3]():         TypeVector3,
	reflect.TypeFor[Matrix3]():         TypeMatrix3,
	reflect.TypeFor[Matrix4]():         TypeMatrix4,
	reflect.TypeFor[*Array[bool]]():    TypeBooleanArray,
	reflect.TypeFor[*Array[float64]](): TypeNumberArray,
	reflect.TypeFor[*Array[Vector2]](): TypeVector2Array,
	reflect.TypeFor[*Array[Vector3]](): TypeVector3Array,
	reflect.TypeFor[*Array[Matrix3]](): TypeMatrix3Array,
	reflect.TypeFor[*Array[Matrix4]](): TypeMatrix4Array,
}

// TypeOfReflect returns the tag for a run-time Go type, or false if the
// type cannot be held by a Value.
func TypeOfReflect(rt reflect.Type) (Type, bool) {
	t, ok := reflectTypes[rt]
	return t, ok
}
