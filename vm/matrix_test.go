package vm

import (
	"errors"
	"testing"
)

// Integer-valued matrices keep every product exact, so the algebra laws
// can be checked with ==.
var (
	m3a = NewMatrix3([3][3]float64{{2, -1, 3}, {0, 4, 1}, {0, 0, 1}})
	m3b = NewMatrix3([3][3]float64{{1, 2, -2}, {3, 0, 5}, {0, 0, 1}})
	m3c = NewMatrix3([3][3]float64{{0, 1, 1}, {-1, 0, 2}, {0, 0, 1}})

	m4a = NewMatrix4([4][4]float64{{1, 2, 0, 3}, {0, 1, -1, 2}, {2, 0, 1, -4}, {0, 0, 0, 1}})
	m4b = NewMatrix4([4][4]float64{{0, 1, 0, 1}, {1, 0, 0, 2}, {0, 0, 3, 3}, {0, 0, 0, 1}})
	m4c = NewMatrix4([4][4]float64{{2, 0, 1, 0}, {0, -1, 0, 1}, {1, 1, 1, 1}, {0, 0, 0, 1}})
)

// ---------------------------------------------------------------------------
// Vectors
// ---------------------------------------------------------------------------

func TestVectorComponents(t *testing.T) {
	v := NewVector3(1, 2, 3)
	for i, want := range []float64{1, 2, 3} {
		if got := v.At(i); got != want {
			t.Errorf("At(%d) = %v, want %v", i, got, want)
		}
	}
	if v.X() != 1 || v.Y() != 2 || v.Z() != 3 {
		t.Errorf("X/Y/Z = %v %v %v", v.X(), v.Y(), v.Z())
	}
	if got := Vector2FromSlice([]float64{4, 5}); got != NewVector2(4, 5) {
		t.Errorf("Vector2FromSlice = %v", got)
	}
	if got := NewVector2(1.5, -2).String(); got != "(1.5, -2)" {
		t.Errorf("String() = %q", got)
	}
}

func TestVectorIndexPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"vector_2[2]", func() { NewVector2(0, 0).At(2) }},
		{"vector_2[-1]", func() { NewVector2(0, 0).At(-1) }},
		{"vector_3[3]", func() { NewVector3(0, 0, 0).At(3) }},
		{"matrix_3 row 3", func() { IdentityMatrix3().Row(3) }},
		{"matrix_3 column 3", func() { IdentityMatrix3().At(0, 3) }},
		{"matrix_4 row -1", func() { IdentityMatrix4().Row(-1) }},
		{"matrix_4 column 4", func() { IdentityMatrix4().Row(0).At(4) }},
	}
	for _, tt := range tests {
		r := mustPanic(t, tt.name, tt.fn)
		if err, ok := r.(error); ok {
			var ie *IndexError
			if !errors.As(err, &ie) {
				t.Errorf("%s: panic value %T, want *IndexError", tt.name, r)
			}
		} else if r != nil {
			t.Errorf("%s: panic value %v is not an error", tt.name, r)
		}
	}

	mustPanic(t, "Vector3FromSlice(short)", func() { Vector3FromSlice([]float64{1}) })
	mustPanic(t, "Matrix3FromSlice(short)", func() { Matrix3FromSlice(make([]float64, 8)) })
	mustPanic(t, "Matrix4FromSlice(long)", func() { Matrix4FromSlice(make([]float64, 17)) })
}

// ---------------------------------------------------------------------------
// Matrix3
// ---------------------------------------------------------------------------

func TestMatrix3FromSliceRowMajor(t *testing.T) {
	m := Matrix3FromSlice([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if m.At(0, 2) != 3 || m.At(2, 0) != 7 || m.Row(1).At(1) != 5 {
		t.Errorf("Matrix3FromSlice not row-major: %v", m)
	}
	if m.Rows() != [3][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}} {
		t.Errorf("Rows() = %v", m.Rows())
	}
}

func TestMatrix3Identity(t *testing.T) {
	id := IdentityMatrix3()
	if got := id.Mul(m3a); got != m3a {
		t.Errorf("I * A = %v, want %v", got, m3a)
	}
	if got := m3a.Mul(id); got != m3a {
		t.Errorf("A * I = %v, want %v", got, m3a)
	}
	v := NewVector2(5, 7)
	if got := id.Apply(v); got != v {
		t.Errorf("I.Apply(%v) = %v", v, got)
	}
}

func TestMatrix3Associative(t *testing.T) {
	left := m3a.Mul(m3b).Mul(m3c)
	right := m3a.Mul(m3b.Mul(m3c))
	if left != right {
		t.Errorf("(AB)C = %v, A(BC) = %v", left, right)
	}
}

func TestMatrix3Composition(t *testing.T) {
	// Applying A*B equals applying B then A.
	v := NewVector2(3, -2)
	if got, want := m3a.Mul(m3b).Apply(v), m3a.Apply(m3b.Apply(v)); got != want {
		t.Errorf("(A*B).Apply(v) = %v, A.Apply(B.Apply(v)) = %v", got, want)
	}
}

func TestMatrix3Affine(t *testing.T) {
	if got := Translation3(10, -4).Apply(NewVector2(1, 2)); got != NewVector2(11, -2) {
		t.Errorf("Translation3.Apply = %v, want (11, -2)", got)
	}
	if got := Scaling3(2, 3).Apply(NewVector2(1, 2)); got != NewVector2(2, 6) {
		t.Errorf("Scaling3.Apply = %v, want (2, 6)", got)
	}
	// Scale first, then translate.
	m := Translation3(1, 1).Mul(Scaling3(2, 2))
	if got := m.Apply(NewVector2(3, 4)); got != NewVector2(7, 9) {
		t.Errorf("T*S.Apply = %v, want (7, 9)", got)
	}
}

func TestMatrix3Transpose(t *testing.T) {
	if got := m3a.Transpose().Transpose(); got != m3a {
		t.Errorf("transpose twice = %v, want %v", got, m3a)
	}
	if got, want := m3a.Mul(m3b).Transpose(), m3b.Transpose().Mul(m3a.Transpose()); got != want {
		t.Errorf("(AB)^T = %v, B^T A^T = %v", got, want)
	}
	if m3a.Transpose().At(2, 0) != m3a.At(0, 2) {
		t.Error("Transpose did not swap (0,2) and (2,0)")
	}
}

// ---------------------------------------------------------------------------
// Matrix4
// ---------------------------------------------------------------------------

func TestMatrix4Identity(t *testing.T) {
	id := IdentityMatrix4()
	if got := id.Mul(m4a); got != m4a {
		t.Errorf("I * A = %v, want %v", got, m4a)
	}
	if got := m4a.Mul(id); got != m4a {
		t.Errorf("A * I = %v, want %v", got, m4a)
	}
	v := NewVector3(5, 7, 9)
	if got := id.Apply(v); got != v {
		t.Errorf("I.Apply(%v) = %v", v, got)
	}
}

func TestMatrix4Associative(t *testing.T) {
	left := m4a.Mul(m4b).Mul(m4c)
	right := m4a.Mul(m4b.Mul(m4c))
	if left != right {
		t.Errorf("(AB)C = %v, A(BC) = %v", left, right)
	}
}

func TestMatrix4Affine(t *testing.T) {
	v := NewVector3(1, 2, 3)
	if got := Translation4(1, -1, 2).Apply(v); got != NewVector3(2, 1, 5) {
		t.Errorf("Translation4.Apply = %v, want (2, 1, 5)", got)
	}
	if got := Scaling4(2, 2, 2).Apply(v); got != NewVector3(2, 4, 6) {
		t.Errorf("Scaling4.Apply = %v, want (2, 4, 6)", got)
	}
	if got, want := m4a.Mul(m4b).Apply(v), m4a.Apply(m4b.Apply(v)); got != want {
		t.Errorf("(A*B).Apply(v) = %v, A.Apply(B.Apply(v)) = %v", got, want)
	}
}

func TestMatrix4Transpose(t *testing.T) {
	if got := m4a.Transpose().Transpose(); got != m4a {
		t.Errorf("transpose twice = %v, want %v", got, m4a)
	}
	if got, want := m4a.Mul(m4b).Transpose(), m4b.Transpose().Mul(m4a.Transpose()); got != want {
		t.Errorf("(AB)^T = %v, B^T A^T = %v", got, want)
	}
}

func TestMatrixString(t *testing.T) {
	if got := Translation3(1, 2).String(); got != "[[1 0 1], [0 1 2], [0 0 1]]" {
		t.Errorf("Matrix3.String() = %q", got)
	}
	if got := IdentityMatrix4().String(); got != "[[1 0 0 0], [0 1 0 0], [0 0 1 0], [0 0 0 1]]" {
		t.Errorf("Matrix4.String() = %q", got)
	}
}
