package vm

import "fmt"

// Value is a dynamically typed value holding exactly one of the twelve
// kinds named by Type.
//
// Representation:
//   - boolean, number: stored inline.
//   - vector_2, vector_3, matrix_3, matrix_4: stored behind a pointer that
//     the Value owns exclusively. Accessors return the aggregate by value,
//     so the owned instance is never handed out; Clone copies it.
//   - *_array: stored as a shared *Array. Copying or cloning the Value
//     shares the Array.
//
// Reading a Value through the accessor of another kind panics with a
// *KindError. The zero Value is boolean false.
type Value struct {
	typ Type
	b   bool
	n   float64
	p   any
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// FromBoolean creates a boolean Value.
func FromBoolean(b bool) Value {
	return Value{typ: TypeBoolean, b: b}
}

// FromNumber creates a number Value.
func FromNumber(x float64) Value {
	return Value{typ: TypeNumber, n: x}
}

// FromVector2 creates a vector_2 Value owning a copy of v.
func FromVector2(v Vector2) Value {
	return Value{typ: TypeVector2, p: &v}
}

// FromVector3 creates a vector_3 Value owning a copy of v.
func FromVector3(v Vector3) Value {
	return Value{typ: TypeVector3, p: &v}
}

// FromMatrix3 creates a matrix_3 Value owning a copy of m.
func FromMatrix3(m Matrix3) Value {
	return Value{typ: TypeMatrix3, p: &m}
}

// FromMatrix4 creates a matrix_4 Value owning a copy of m.
func FromMatrix4(m Matrix4) Value {
	return Value{typ: TypeMatrix4, p: &m}
}

// FromBooleanArray creates a boolean_array Value sharing a.
func FromBooleanArray(a *Array[bool]) Value {
	return arrayValue(TypeBooleanArray, a)
}

// FromNumberArray creates a number_array Value sharing a.
func FromNumberArray(a *Array[float64]) Value {
	return arrayValue(TypeNumberArray, a)
}

// FromVector2Array creates a vector_2_array Value sharing a.
func FromVector2Array(a *Array[Vector2]) Value {
	return arrayValue(TypeVector2Array, a)
}

// FromVector3Array creates a vector_3_array Value sharing a.
func FromVector3Array(a *Array[Vector3]) Value {
	return arrayValue(TypeVector3Array, a)
}

// FromMatrix3Array creates a matrix_3_array Value sharing a.
func FromMatrix3Array(a *Array[Matrix3]) Value {
	return arrayValue(TypeMatrix3Array, a)
}

// FromMatrix4Array creates a matrix_4_array Value sharing a.
func FromMatrix4Array(a *Array[Matrix4]) Value {
	return arrayValue(TypeMatrix4Array, a)
}

func arrayValue[T Element](t Type, a *Array[T]) Value {
	if a == nil {
		panic(fmt.Sprintf("vm: nil array for %s value", t))
	}
	return Value{typ: t, p: a}
}

// Make creates a Value from any payload type, choosing the kind from T.
func Make[T Payload](x T) Value {
	v, err := Of(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Of creates a Value from a dynamically typed payload. It fails if x is
// not one of the Payload types or is a nil array.
func Of(x any) (Value, error) {
	switch x := x.(type) {
	case bool:
		return FromBoolean(x), nil
	case float64:
		return FromNumber(x), nil
	case Vector2:
		return FromVector2(x), nil
	case Vector3:
		return FromVector3(x), nil
	case Matrix3:
		return FromMatrix3(x), nil
	case Matrix4:
		return FromMatrix4(x), nil
	case *Array[bool]:
		if x != nil {
			return FromBooleanArray(x), nil
		}
	case *Array[float64]:
		if x != nil {
			return FromNumberArray(x), nil
		}
	case *Array[Vector2]:
		if x != nil {
			return FromVector2Array(x), nil
		}
	case *Array[Vector3]:
		if x != nil {
			return FromVector3Array(x), nil
		}
	case *Array[Matrix3]:
		if x != nil {
			return FromMatrix3Array(x), nil
		}
	case *Array[Matrix4]:
		if x != nil {
			return FromMatrix4Array(x), nil
		}
	}
	return Value{}, fmt.Errorf("vm: cannot make a value from %T", x)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Type returns the kind of v.
func (v Value) Type() Type {
	return v.typ
}

func (v Value) expect(t Type) {
	if v.typ != t {
		panic(&KindError{Want: t, Got: v.typ})
	}
}

// Boolean returns v as a bool. Panics if v is not a boolean.
func (v Value) Boolean() bool {
	v.expect(TypeBoolean)
	return v.b
}

// Number returns v as a float64. Panics if v is not a number.
func (v Value) Number() float64 {
	v.expect(TypeNumber)
	return v.n
}

// Vector2 returns a copy of the owned Vector2. Panics on a kind mismatch.
func (v Value) Vector2() Vector2 {
	v.expect(TypeVector2)
	return *v.p.(*Vector2)
}

// Vector3 returns a copy of the owned Vector3. Panics on a kind mismatch.
func (v Value) Vector3() Vector3 {
	v.expect(TypeVector3)
	return *v.p.(*Vector3)
}

// Matrix3 returns a copy of the owned Matrix3. Panics on a kind mismatch.
func (v Value) Matrix3() Matrix3 {
	v.expect(TypeMatrix3)
	return *v.p.(*Matrix3)
}

// Matrix4 returns a copy of the owned Matrix4. Panics on a kind mismatch.
func (v Value) Matrix4() Matrix4 {
	v.expect(TypeMatrix4)
	return *v.p.(*Matrix4)
}

// BooleanArray returns the shared array. Panics on a kind mismatch.
func (v Value) BooleanArray() *Array[bool] {
	v.expect(TypeBooleanArray)
	return v.p.(*Array[bool])
}

// NumberArray returns the shared array. Panics on a kind mismatch.
func (v Value) NumberArray() *Array[float64] {
	v.expect(TypeNumberArray)
	return v.p.(*Array[float64])
}

// Vector2Array returns the shared array. Panics on a kind mismatch.
func (v Value) Vector2Array() *Array[Vector2] {
	v.expect(TypeVector2Array)
	return v.p.(*Array[Vector2])
}

// Vector3Array returns the shared array. Panics on a kind mismatch.
func (v Value) Vector3Array() *Array[Vector3] {
	v.expect(TypeVector3Array)
	return v.p.(*Array[Vector3])
}

// Matrix3Array returns the shared array. Panics on a kind mismatch.
func (v Value) Matrix3Array() *Array[Matrix3] {
	v.expect(TypeMatrix3Array)
	return v.p.(*Array[Matrix3])
}

// Matrix4Array returns the shared array. Panics on a kind mismatch.
func (v Value) Matrix4Array() *Array[Matrix4] {
	v.expect(TypeMatrix4Array)
	return v.p.(*Array[Matrix4])
}

// Interface returns the live payload: a bool, float64, aggregate copy, or
// the shared *Array.
func (v Value) Interface() any {
	switch v.typ {
	case TypeBoolean:
		return v.b
	case TypeNumber:
		return v.n
	case TypeVector2:
		return v.Vector2()
	case TypeVector3:
		return v.Vector3()
	case TypeMatrix3:
		return v.Matrix3()
	case TypeMatrix4:
		return v.Matrix4()
	}
	return v.p
}

// Get returns the payload of v as T. Panics if v does not hold a T.
func Get[T Payload](v Value) T {
	v.expect(TypeOf[T]())
	return v.Interface().(T)
}

// Is reports whether v holds a T.
func Is[T Payload](v Value) bool {
	return v.typ == TypeOf[T]()
}

// ---------------------------------------------------------------------------
// Copying and comparison
// ---------------------------------------------------------------------------

// Clone returns a copy of v. Aggregates are deep-copied so the clone owns
// its own instance; arrays are shared.
func (v Value) Clone() Value {
	switch v.typ {
	case TypeVector2:
		return FromVector2(*v.p.(*Vector2))
	case TypeVector3:
		return FromVector3(*v.p.(*Vector3))
	case TypeMatrix3:
		return FromMatrix3(*v.p.(*Matrix3))
	case TypeMatrix4:
		return FromMatrix4(*v.p.(*Matrix4))
	}
	return v
}

// Same reports whether a and b are arrays sharing one underlying Array.
func Same(a, b Value) bool {
	return a.typ.IsArray() && a.typ == b.typ && a.p == b.p
}

// Equal reports whether a and b have the same kind and equal components.
// Arrays compare element-wise.
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeBoolean:
		return a.b == b.b
	case TypeNumber:
		return a.n == b.n
	case TypeVector2:
		return a.Vector2() == b.Vector2()
	case TypeVector3:
		return a.Vector3() == b.Vector3()
	case TypeMatrix3:
		return a.Matrix3() == b.Matrix3()
	case TypeMatrix4:
		return a.Matrix4() == b.Matrix4()
	case TypeBooleanArray:
		return a.BooleanArray().equal(b.BooleanArray())
	case TypeNumberArray:
		return a.NumberArray().equal(b.NumberArray())
	case TypeVector2Array:
		return a.Vector2Array().equal(b.Vector2Array())
	case TypeVector3Array:
		return a.Vector3Array().equal(b.Vector3Array())
	case TypeMatrix3Array:
		return a.Matrix3Array().equal(b.Matrix3Array())
	case TypeMatrix4Array:
		return a.Matrix4Array().equal(b.Matrix4Array())
	}
	return false
}

func (v Value) String() string {
	return fmt.Sprintf("%s %v", v.typ, v.Interface())
}
