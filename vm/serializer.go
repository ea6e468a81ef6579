package vm

import "fmt"

// MaxCount is the largest count or index that survives the trip through a
// float64 slot exactly.
const MaxCount = 1 << 53

// ---------------------------------------------------------------------------
// Serializer: appends slots and tracks shared object -> index mappings
// ---------------------------------------------------------------------------

// Serializer writes values to a slot buffer it does not own.
//
// Shared arrays are interned by identity: the first time an array is seen
// it is assigned the next index and written in full, later occurrences are
// written as the bare index. Index spaces are private to one Serializer.
type Serializer struct {
	buf *[]float64

	// Shared object mappings: *Array[T] -> index
	sharedIndex map[any]int
}

// NewSerializer creates a Serializer that appends to *buf.
func NewSerializer(buf *[]float64) *Serializer {
	return &Serializer{
		buf:         buf,
		sharedIndex: make(map[any]int),
	}
}

// Len returns the length of the underlying buffer.
func (s *Serializer) Len() int {
	return len(*s.buf)
}

// Interned returns the number of shared objects assigned an index.
func (s *Serializer) Interned() int {
	return len(s.sharedIndex)
}

// register assigns the next index to a shared object.
// Returns the assigned index.
func (s *Serializer) register(ptr any) int {
	if idx, ok := s.sharedIndex[ptr]; ok {
		return idx
	}
	idx := len(s.sharedIndex)
	s.sharedIndex[ptr] = idx
	return idx
}

// lookup returns the index of a shared object, or false if it has not
// been written yet.
func (s *Serializer) lookup(ptr any) (int, bool) {
	idx, ok := s.sharedIndex[ptr]
	return idx, ok
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Number writes one slot holding x.
func (s *Serializer) Number(x float64) {
	*s.buf = append(*s.buf, x)
}

// Boolean writes 1 or 0.
func (s *Serializer) Boolean(b bool) {
	if b {
		s.Number(1)
		return
	}
	s.Number(0)
}

// Count writes a non-negative integer. Panics if n cannot be represented
// exactly in a slot.
func (s *Serializer) Count(n int) {
	if n < 0 || int64(n) > MaxCount {
		panic(fmt.Sprintf("Serializer.Count: %d outside [0, 2^53]", n))
	}
	s.Number(float64(n))
}

// Type writes a tag ordinal. Panics on an undefined tag.
func (s *Serializer) Type(t Type) {
	if !t.Valid() {
		panic(fmt.Sprintf("Serializer.Type: invalid tag %d", uint8(t)))
	}
	s.Count(int(t))
}

// Vector2 writes both components.
func (s *Serializer) Vector2(v Vector2) {
	*s.buf = append(*s.buf, v.v[0], v.v[1])
}

// Vector3 writes all three components.
func (s *Serializer) Vector3(v Vector3) {
	*s.buf = append(*s.buf, v.v[0], v.v[1], v.v[2])
}

// Matrix3 writes the nine components in row-major order.
func (s *Serializer) Matrix3(m Matrix3) {
	for i := range m.m {
		*s.buf = append(*s.buf, m.m[i][:]...)
	}
}

// Matrix4 writes the sixteen components in row-major order.
func (s *Serializer) Matrix4(m Matrix4) {
	for i := range m.m {
		*s.buf = append(*s.buf, m.m[i][:]...)
	}
}

// ---------------------------------------------------------------------------
// Sequences and shared references
// ---------------------------------------------------------------------------

// WriteArray writes a count followed by every element, without interning.
func WriteArray[T Element](s *Serializer, a *Array[T]) {
	s.Count(len(a.elems))
	for _, x := range a.elems {
		writeElement(s, x)
	}
}

// WriteShared writes a shared array reference. On first sight the array is
// assigned the next index and the index is followed by the full array;
// afterwards only the index is written.
func WriteShared[T Element](s *Serializer, a *Array[T]) {
	if idx, ok := s.lookup(a); ok {
		s.Count(idx)
		return
	}
	s.Count(s.register(a))
	WriteArray(s, a)
}

func writeElement[T Element](s *Serializer, x T) {
	switch x := any(x).(type) {
	case bool:
		s.Boolean(x)
	case float64:
		s.Number(x)
	case Vector2:
		s.Vector2(x)
	case Vector3:
		s.Vector3(x)
	case Matrix3:
		s.Matrix3(x)
	case Matrix4:
		s.Matrix4(x)
	}
}

// ---------------------------------------------------------------------------
// Values
// ---------------------------------------------------------------------------

// Value writes the tag of v followed by its payload. Arrays are written
// inline.
func (s *Serializer) Value(v Value) {
	s.value(v, false)
}

// SharedValue writes the tag of v followed by its payload, writing arrays
// as shared references so repeated arrays are emitted once.
func (s *Serializer) SharedValue(v Value) {
	s.value(v, true)
}

func (s *Serializer) value(v Value, shared bool) {
	s.Type(v.typ)
	switch v.typ {
	case TypeBoolean:
		s.Boolean(v.b)
	case TypeNumber:
		s.Number(v.n)
	case TypeVector2:
		s.Vector2(v.Vector2())
	case TypeVector3:
		s.Vector3(v.Vector3())
	case TypeMatrix3:
		s.Matrix3(v.Matrix3())
	case TypeMatrix4:
		s.Matrix4(v.Matrix4())
	case TypeBooleanArray:
		writeArrayValue(s, v.BooleanArray(), shared)
	case TypeNumberArray:
		writeArrayValue(s, v.NumberArray(), shared)
	case TypeVector2Array:
		writeArrayValue(s, v.Vector2Array(), shared)
	case TypeVector3Array:
		writeArrayValue(s, v.Vector3Array(), shared)
	case TypeMatrix3Array:
		writeArrayValue(s, v.Matrix3Array(), shared)
	case TypeMatrix4Array:
		writeArrayValue(s, v.Matrix4Array(), shared)
	}
}

func writeArrayValue[T Element](s *Serializer, a *Array[T], shared bool) {
	if shared {
		WriteShared(s, a)
		return
	}
	WriteArray(s, a)
}

// ---------------------------------------------------------------------------
// Convenience entry points
// ---------------------------------------------------------------------------

// Encode returns the slots of a single value with arrays written inline.
func Encode(v Value) []float64 {
	var buf []float64
	NewSerializer(&buf).Value(v)
	return buf
}

// EncodeValues returns a stream holding a count followed by every value,
// with arrays written inline.
func EncodeValues(vs ...Value) []float64 {
	return encodeStream(vs, false)
}

// EncodeShared returns a stream holding a count followed by every value,
// with arrays interned across the whole stream.
func EncodeShared(vs ...Value) []float64 {
	return encodeStream(vs, true)
}

func encodeStream(vs []Value, shared bool) []float64 {
	var buf []float64
	s := NewSerializer(&buf)
	s.Count(len(vs))
	for _, v := range vs {
		s.value(v, shared)
	}
	return buf
}
