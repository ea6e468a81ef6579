package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Decode errors
// ---------------------------------------------------------------------------

var (
	ErrUnderflow      = errors.New("buffer underflow")
	ErrInvalidType    = errors.New("invalid type tag")
	ErrInvalidCount   = errors.New("invalid count")
	ErrInvalidIndex   = errors.New("invalid shared index")
	ErrSharedKind     = errors.New("shared object kind mismatch")
	ErrTruncatedSlots = errors.New("truncated slot data")
)

// ---------------------------------------------------------------------------
// Contract violations (panic values)
// ---------------------------------------------------------------------------

// KindError is the panic value raised when a Value is read through the
// accessor of a kind it does not hold.
type KindError struct {
	Want Type
	Got  Type
}

func (e *KindError) Error() string {
	return fmt.Sprintf("vm: value is %s, not %s", e.Got, e.Want)
}

// IndexError is the panic value raised by out-of-range vector or matrix
// access.
type IndexError struct {
	What  string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("vm: %s index %d out of range [0, %d)", e.What, e.Index, e.Len)
}

func checkIndex(what string, i, n int) {
	if i < 0 || i >= n {
		panic(&IndexError{What: what, Index: i, Len: n})
	}
}
