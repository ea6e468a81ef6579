package vm

import (
	"fmt"
	"iter"
	"strings"
)

// Element is the set of types an Array can hold.
type Element interface {
	bool | float64 | Vector2 | Vector3 | Matrix3 | Matrix4
}

// Array is a shared, read-only sequence of elements.
//
// Values of array kind hold a *Array. Copying such a Value copies the
// pointer, so both copies refer to the same Array. Arrays expose no
// mutators, which is what makes that sharing safe.
type Array[T Element] struct {
	elems []T
}

// NewArray creates an Array holding a copy of elems.
func NewArray[T Element](elems ...T) *Array[T] {
	a := &Array[T]{elems: make([]T, len(elems))}
	copy(a.elems, elems)
	return a
}

// adoptArray wraps elems without copying. The caller must not retain elems.
func adoptArray[T Element](elems []T) *Array[T] {
	return &Array[T]{elems: elems}
}

// Len returns the number of elements.
func (a *Array[T]) Len() int {
	return len(a.elems)
}

// At returns element i. Panics if i is out of range.
func (a *Array[T]) At(i int) T {
	checkIndex("array", i, len(a.elems))
	return a.elems[i]
}

// All iterates over the elements in order.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, x := range a.elems {
			if !yield(i, x) {
				return
			}
		}
	}
}

// Slice returns a copy of the elements.
func (a *Array[T]) Slice() []T {
	out := make([]T, len(a.elems))
	copy(out, a.elems)
	return out
}

func (a *Array[T]) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, x := range a.elems {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprint(&sb, x)
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a *Array[T]) equal(b *Array[T]) bool {
	if a == b {
		return true
	}
	if len(a.elems) != len(b.elems) {
		return false
	}
	for i := range a.elems {
		if a.elems[i] != b.elems[i] {
			return false
		}
	}
	return true
}
