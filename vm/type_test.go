package vm

import (
	"errors"
	"reflect"
	"testing"
)

// Tag ordinals are the wire encoding and must never change.
func TestTypeOrdinals(t *testing.T) {
	tests := []struct {
		typ  Type
		want uint8
		name string
	}{
		{TypeBoolean, 0, "boolean"},
		{TypeNumber, 1, "number"},
		{TypeVector2, 2, "vector_2"},
		{TypeVector3, 3, "vector_3"},
		{TypeMatrix3, 4, "matrix_3"},
		{TypeMatrix4, 5, "matrix_4"},
		{TypeBooleanArray, 6, "boolean_array"},
		{TypeNumberArray, 7, "number_array"},
		{TypeVector2Array, 8, "vector_2_array"},
		{TypeVector3Array, 9, "vector_3_array"},
		{TypeMatrix3Array, 10, "matrix_3_array"},
		{TypeMatrix4Array, 11, "matrix_4_array"},
	}
	if len(Types()) != len(tests) {
		t.Fatalf("len(Types()) = %d, want %d", len(Types()), len(tests))
	}
	for i, tt := range tests {
		if uint8(tt.typ) != tt.want {
			t.Errorf("%s ordinal = %d, want %d", tt.name, uint8(tt.typ), tt.want)
		}
		if Types()[i] != tt.typ {
			t.Errorf("Types()[%d] = %s, want %s", i, Types()[i], tt.typ)
		}
		if tt.typ.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.typ.String(), tt.name)
		}
		parsed, err := ParseType(tt.name)
		if err != nil || parsed != tt.typ {
			t.Errorf("ParseType(%q) = %s, %v; want %s", tt.name, parsed, err, tt.typ)
		}
	}
}

func TestTypeValid(t *testing.T) {
	if !TypeMatrix4Array.Valid() {
		t.Error("TypeMatrix4Array.Valid() = false")
	}
	if Type(12).Valid() {
		t.Error("Type(12).Valid() = true")
	}
	if got := Type(200).String(); got != "type(200)" {
		t.Errorf("Type(200).String() = %q, want type(200)", got)
	}
	if _, err := ParseType("quaternion"); !errors.Is(err, ErrInvalidType) {
		t.Errorf("ParseType(quaternion) error = %v, want ErrInvalidType", err)
	}
}

func TestTypeArrayRelations(t *testing.T) {
	for _, elem := range Types()[:6] {
		arr := ArrayOf(elem)
		if !arr.IsArray() {
			t.Errorf("ArrayOf(%s) = %s, not an array type", elem, arr)
		}
		if arr.Elem() != elem {
			t.Errorf("ArrayOf(%s).Elem() = %s", elem, arr.Elem())
		}
		if elem.IsArray() {
			t.Errorf("%s.IsArray() = true", elem)
		}
	}

	mustPanic(t, "ArrayOf(array)", func() { ArrayOf(TypeNumberArray) })
	mustPanic(t, "Elem(scalar)", func() { TypeNumber.Elem() })
}

func TestTypeOf(t *testing.T) {
	checks := []struct {
		got, want Type
	}{
		{TypeOf[bool](), TypeBoolean},
		{TypeOf[float64](), TypeNumber},
		{TypeOf[Vector2](), TypeVector2},
		{TypeOf[Vector3](), TypeVector3},
		{TypeOf[Matrix3](), TypeMatrix3},
		{TypeOf[Matrix4](), TypeMatrix4},
		{TypeOf[*Array[bool]](), TypeBooleanArray},
		{TypeOf[*Array[float64]](), TypeNumberArray},
		{TypeOf[*Array[Vector2]](), TypeVector2Array},
		{TypeOf[*Array[Vector3]](), TypeVector3Array},
		{TypeOf[*Array[Matrix3]](), TypeMatrix3Array},
		{TypeOf[*Array[Matrix4]](), TypeMatrix4Array},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("TypeOf = %s, want %s", c.got, c.want)
		}
	}
}

func TestTypeOfReflect(t *testing.T) {
	if got, ok := TypeOfReflect(reflect.TypeFor[*Array[Vector3]]()); !ok || got != TypeVector3Array {
		t.Errorf("TypeOfReflect(*Array[Vector3]) = %s, %v", got, ok)
	}
	if _, ok := TypeOfReflect(reflect.TypeFor[int]()); ok {
		t.Error("TypeOfReflect(int) ok = true")
	}
	if _, ok := TypeOfReflect(reflect.TypeFor[Array[bool]]()); ok {
		t.Error("TypeOfReflect(Array[bool]) ok = true, arrays are held by pointer")
	}
}

func TestTypeText(t *testing.T) {
	text, err := TypeVector2Array.MarshalText()
	if err != nil || string(text) != "vector_2_array" {
		t.Errorf("MarshalText() = %q, %v", text, err)
	}
	var typ Type
	if err := typ.UnmarshalText([]byte("matrix_3")); err != nil || typ != TypeMatrix3 {
		t.Errorf("UnmarshalText(matrix_3) = %s, %v", typ, err)
	}
	if _, err := Type(12).MarshalText(); !errors.Is(err, ErrInvalidType) {
		t.Errorf("Type(12).MarshalText() error = %v, want ErrInvalidType", err)
	}
}

// mustPanic runs fn and returns the recovered value, failing if fn returns
// normally.
func mustPanic(t *testing.T, what string, fn func()) (r any) {
	t.Helper()
	defer func() {
		r = recover()
		if r == nil {
			t.Errorf("%s did not panic", what)
		}
	}()
	fn()
	return nil
}
