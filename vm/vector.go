package vm

import "fmt"

// Vector2 is an immutable pair of numbers.
type Vector2 struct {
	v [2]float64
}

// NewVector2 creates a Vector2 from its components.
func NewVector2(x, y float64) Vector2 {
	return Vector2{v: [2]float64{x, y}}
}

// Vector2FromSlice creates a Vector2 from exactly two components.
// Panics if len(xs) != 2.
func Vector2FromSlice(xs []float64) Vector2 {
	if len(xs) != 2 {
		panic(fmt.Sprintf("Vector2FromSlice: need 2 components, got %d", len(xs)))
	}
	return Vector2{v: [2]float64{xs[0], xs[1]}}
}

// At returns component i. Panics if i is not 0 or 1.
func (v Vector2) At(i int) float64 {
	checkIndex("vector_2", i, 2)
	return v.v[i]
}

func (v Vector2) X() float64 { return v.v[0] }
func (v Vector2) Y() float64 { return v.v[1] }

// Components returns the components in index order.
func (v Vector2) Components() [2]float64 {
	return v.v
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%g, %g)", v.v[0], v.v[1])
}

// Vector3 is an immutable triple of numbers.
type Vector3 struct {
	v [3]float64
}

// NewVector3 creates a Vector3 from its components.
func NewVector3(x, y, z float64) Vector3 {
	return Vector3{v: [3]float64{x, y, z}}
}

// Vector3FromSlice creates a Vector3 from exactly three components.
// Panics if len(xs) != 3.
func Vector3FromSlice(xs []float64) Vector3 {
	if len(xs) != 3 {
		panic(fmt.Sprintf("Vector3FromSlice: need 3 components, got %d", len(xs)))
	}
	return Vector3{v: [3]float64{xs[0], xs[1], xs[2]}}
}

// At returns component i. Panics if i is outside [0, 3).
func (v Vector3) At(i int) float64 {
	checkIndex("vector_3", i, 3)
	return v.v[i]
}

func (v Vector3) X() float64 { return v.v[0] }
func (v Vector3) Y() float64 { return v.v[1] }
func (v Vector3) Z() float64 { return v.v[2] }

// Components returns the components in index order.
func (v Vector3) Components() [3]float64 {
	return v.v
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.v[0], v.v[1], v.v[2])
}
