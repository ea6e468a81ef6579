package vm

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Deserializer: reads slots and tracks index -> shared object mappings
// ---------------------------------------------------------------------------

// Deserializer reads values from a slot buffer it does not own. The buffer
// must not change while decoding.
//
// Any error leaves the value under construction incomplete; callers should
// discard everything decoded by a Deserializer that has failed.
type Deserializer struct {
	slots  []float64
	offset int

	// Shared object mappings: index -> *Array[T]
	shared []any
}

// NewDeserializer creates a Deserializer positioned at the first slot.
func NewDeserializer(slots []float64) *Deserializer {
	return &Deserializer{slots: slots}
}

// Offset returns the index of the next slot to be read.
func (d *Deserializer) Offset() int {
	return d.offset
}

// Remaining returns the number of unread slots.
func (d *Deserializer) Remaining() int {
	return len(d.slots) - d.offset
}

// Shared returns the number of shared objects reconstructed so far.
func (d *Deserializer) Shared() int {
	return len(d.shared)
}

func (d *Deserializer) underflow(need int) error {
	return fmt.Errorf("%w: need %d slots at offset %d, have %d",
		ErrUnderflow, need, d.offset, d.Remaining())
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Number reads one slot.
func (d *Deserializer) Number() (float64, error) {
	if d.offset >= len(d.slots) {
		return 0, d.underflow(1)
	}
	x := d.slots[d.offset]
	d.offset++
	return x, nil
}

// Boolean reads one slot; any non-zero value is true.
func (d *Deserializer) Boolean() (bool, error) {
	x, err := d.Number()
	if err != nil {
		return false, err
	}
	return x != 0, nil
}

// Count reads a non-negative integer slot.
func (d *Deserializer) Count() (int, error) {
	at := d.offset
	x, err := d.Number()
	if err != nil {
		return 0, err
	}
	if x < 0 || x > MaxCount || x != math.Trunc(x) {
		return 0, fmt.Errorf("%w: %v at offset %d", ErrInvalidCount, x, at)
	}
	return int(x), nil
}

// Type reads a tag. A slot that is not one of the defined ordinals fails
// with ErrInvalidType.
func (d *Deserializer) Type() (Type, error) {
	at := d.offset
	x, err := d.Number()
	if err != nil {
		return 0, err
	}
	if x < 0 || x >= float64(typeCount) || x != math.Trunc(x) {
		return 0, fmt.Errorf("%w: %v at offset %d", ErrInvalidType, x, at)
	}
	return Type(x), nil
}

func (d *Deserializer) take(n int) ([]float64, error) {
	if d.Remaining() < n {
		return nil, d.underflow(n)
	}
	xs := d.slots[d.offset : d.offset+n]
	d.offset += n
	return xs, nil
}

// Vector2 reads two components.
func (d *Deserializer) Vector2() (Vector2, error) {
	xs, err := d.take(2)
	if err != nil {
		return Vector2{}, err
	}
	return Vector2FromSlice(xs), nil
}

// Vector3 reads three components.
func (d *Deserializer) Vector3() (Vector3, error) {
	xs, err := d.take(3)
	if err != nil {
		return Vector3{}, err
	}
	return Vector3FromSlice(xs), nil
}

// Matrix3 reads nine components in row-major order.
func (d *Deserializer) Matrix3() (Matrix3, error) {
	xs, err := d.take(9)
	if err != nil {
		return Matrix3{}, err
	}
	return Matrix3FromSlice(xs), nil
}

// Matrix4 reads sixteen components in row-major order.
func (d *Deserializer) Matrix4() (Matrix4, error) {
	xs, err := d.take(16)
	if err != nil {
		return Matrix4{}, err
	}
	return Matrix4FromSlice(xs), nil
}

// ---------------------------------------------------------------------------
// Sequences and shared references
// ---------------------------------------------------------------------------

// slotsPer returns the number of slots one element of T occupies.
func slotsPer[T Element]() int {
	var zero T
	switch any(zero).(type) {
	case Vector2:
		return 2
	case Vector3:
		return 3
	case Matrix3:
		return 9
	case Matrix4:
		return 16
	}
	return 1
}

func readElement[T Element](d *Deserializer) (T, error) {
	var zero T
	var x any
	var err error
	switch any(zero).(type) {
	case bool:
		x, err = d.Boolean()
	case float64:
		x, err = d.Number()
	case Vector2:
		x, err = d.Vector2()
	case Vector3:
		x, err = d.Vector3()
	case Matrix3:
		x, err = d.Matrix3()
	case Matrix4:
		x, err = d.Matrix4()
	}
	if err != nil {
		return zero, err
	}
	return x.(T), nil
}

// ReadArray reads a count followed by that many elements. A count larger
// than the remaining input fails with ErrUnderflow before anything is
// allocated.
func ReadArray[T Element](d *Deserializer) (*Array[T], error) {
	n, err := d.Count()
	if err != nil {
		return nil, err
	}
	per := slotsPer[T]()
	if n > d.Remaining()/per {
		return nil, d.underflow(n * per)
	}
	elems := make([]T, n)
	for i := range elems {
		if elems[i], err = readElement[T](d); err != nil {
			return nil, err
		}
	}
	return adoptArray(elems), nil
}

// ReadShared reads a shared array reference. An index seen before yields
// the array already reconstructed for it; a new index must be the next
// unassigned one and is followed by the full array.
func ReadShared[T Element](d *Deserializer) (*Array[T], error) {
	at := d.offset
	idx, err := d.Count()
	if err != nil {
		return nil, err
	}
	if idx < len(d.shared) {
		a, ok := d.shared[idx].(*Array[T])
		if !ok {
			return nil, fmt.Errorf("%w: index %d at offset %d holds %T",
				ErrSharedKind, idx, at, d.shared[idx])
		}
		return a, nil
	}
	if idx != len(d.shared) {
		return nil, fmt.Errorf("%w: %d at offset %d, next is %d",
			ErrInvalidIndex, idx, at, len(d.shared))
	}
	a, err := ReadArray[T](d)
	if err != nil {
		return nil, err
	}
	d.shared = append(d.shared, a)
	return a, nil
}

// ---------------------------------------------------------------------------
// Values
// ---------------------------------------------------------------------------

// Value reads a tag followed by the payload of that kind, with arrays
// written inline.
func (d *Deserializer) Value() (Value, error) {
	return d.value(false)
}

// SharedValue reads a value written by Serializer.SharedValue.
func (d *Deserializer) SharedValue() (Value, error) {
	return d.value(true)
}

func (d *Deserializer) value(shared bool) (Value, error) {
	t, err := d.Type()
	if err != nil {
		return Value{}, err
	}
	switch t {
	case TypeBoolean:
		b, err := d.Boolean()
		return FromBoolean(b), err
	case TypeNumber:
		x, err := d.Number()
		return FromNumber(x), err
	case TypeVector2:
		v, err := d.Vector2()
		return FromVector2(v), err
	case TypeVector3:
		v, err := d.Vector3()
		return FromVector3(v), err
	case TypeMatrix3:
		m, err := d.Matrix3()
		return FromMatrix3(m), err
	case TypeMatrix4:
		m, err := d.Matrix4()
		return FromMatrix4(m), err
	case TypeBooleanArray:
		return readArrayValue(d, shared, FromBooleanArray)
	case TypeNumberArray:
		return readArrayValue(d, shared, FromNumberArray)
	case TypeVector2Array:
		return readArrayValue(d, shared, FromVector2Array)
	case TypeVector3Array:
		return readArrayValue(d, shared, FromVector3Array)
	case TypeMatrix3Array:
		return readArrayValue(d, shared, FromMatrix3Array)
	case TypeMatrix4Array:
		return readArrayValue(d, shared, FromMatrix4Array)
	}
	panic("unreachable")
}

func readArrayValue[T Element](d *Deserializer, shared bool, wrap func(*Array[T]) Value) (Value, error) {
	var a *Array[T]
	var err error
	if shared {
		a, err = ReadShared[T](d)
	} else {
		a, err = ReadArray[T](d)
	}
	if err != nil {
		return Value{}, err
	}
	return wrap(a), nil
}

// ---------------------------------------------------------------------------
// Convenience entry points
// ---------------------------------------------------------------------------

// Decode reads a single value written by Encode.
func Decode(slots []float64) (Value, error) {
	return NewDeserializer(slots).Value()
}

// DecodeValues reads a stream written by EncodeValues.
func DecodeValues(slots []float64) ([]Value, error) {
	return decodeStream(slots, false)
}

// DecodeShared reads a stream written by EncodeShared. Arrays that were
// shared when encoded are shared again in the result.
func DecodeShared(slots []float64) ([]Value, error) {
	return decodeStream(slots, true)
}

func decodeStream(slots []float64, shared bool) ([]Value, error) {
	d := NewDeserializer(slots)
	n, err := d.Count()
	if err != nil {
		return nil, err
	}
	// Every value takes at least a tag and one payload slot.
	if n > d.Remaining()/2 {
		return nil, d.underflow(n * 2)
	}
	vs := make([]Value, n)
	for i := range vs {
		if vs[i], err = d.value(shared); err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
	}
	return vs, nil
}
