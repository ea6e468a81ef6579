package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Matrix3
// ---------------------------------------------------------------------------

// Matrix3 is an immutable 3x3 row-major matrix. As an affine transform of
// the plane, the last column holds the translation.
type Matrix3 struct {
	m [3][3]float64
}

// Row3 is a read-only view of one row of a Matrix3.
type Row3 struct {
	r [3]float64
}

// At returns element j of the row. Panics if j is outside [0, 3).
func (r Row3) At(j int) float64 {
	checkIndex("matrix_3 column", j, 3)
	return r.r[j]
}

// NewMatrix3 creates a Matrix3 from its rows.
func NewMatrix3(rows [3][3]float64) Matrix3 {
	return Matrix3{m: rows}
}

// Matrix3FromSlice creates a Matrix3 from nine components in row-major
// order. Panics if len(xs) != 9.
func Matrix3FromSlice(xs []float64) Matrix3 {
	if len(xs) != 9 {
		panic(fmt.Sprintf("Matrix3FromSlice: need 9 components, got %d", len(xs)))
	}
	var m Matrix3
	for i := 0; i < 3; i++ {
		copy(m.m[i][:], xs[i*3:i*3+3])
	}
	return m
}

// IdentityMatrix3 returns the 3x3 identity.
func IdentityMatrix3() Matrix3 {
	return Matrix3{m: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// Translation3 returns the affine transform that moves points by (tx, ty).
func Translation3(tx, ty float64) Matrix3 {
	return Matrix3{m: [3][3]float64{{1, 0, tx}, {0, 1, ty}, {0, 0, 1}}}
}

// Scaling3 returns the affine transform that scales by (sx, sy).
func Scaling3(sx, sy float64) Matrix3 {
	return Matrix3{m: [3][3]float64{{sx, 0, 0}, {0, sy, 0}, {0, 0, 1}}}
}

// Row returns row i. Panics if i is outside [0, 3).
func (m Matrix3) Row(i int) Row3 {
	checkIndex("matrix_3 row", i, 3)
	return Row3{r: m.m[i]}
}

// At returns the element at row i, column j.
func (m Matrix3) At(i, j int) float64 {
	return m.Row(i).At(j)
}

// Rows returns a copy of the matrix elements.
func (m Matrix3) Rows() [3][3]float64 {
	return m.m
}

// Mul returns the product m * n.
func (m Matrix3) Mul(n Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += m.m[i][k] * n.m[k][j]
			}
			out.m[i][j] = sum
		}
	}
	return out
}

// Apply transforms v as a point: the upper-left 2x2 block is applied and
// the last column is added as translation.
func (m Matrix3) Apply(v Vector2) Vector2 {
	var out [2]float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i] += m.m[i][j] * v.v[j]
		}
		out[i] += m.m[i][2]
	}
	return Vector2{v: out}
}

// Transpose returns the transpose of m.
func (m Matrix3) Transpose() Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.m[j][i] = m.m[i][j]
		}
	}
	return out
}

func (m Matrix3) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, row := range m.m {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "[%g %g %g]", row[0], row[1], row[2])
	}
	sb.WriteByte(']')
	return sb.String()
}

// ---------------------------------------------------------------------------
// Matrix4
// ---------------------------------------------------------------------------

// Matrix4 is an immutable 4x4 row-major matrix. As an affine transform of
// space, the last column holds the translation.
type Matrix4 struct {
	m [4][4]float64
}

// Row4 is a read-only view of one row of a Matrix4.
type Row4 struct {
	r [4]float64
}

// At returns element j of the row. Panics if j is outside [0, 4).
func (r Row4) At(j int) float64 {
	checkIndex("matrix_4 column", j, 4)
	return r.r[j]
}

// NewMatrix4 creates a Matrix4 from its rows.
func NewMatrix4(rows [4][4]float64) Matrix4 {
	return Matrix4{m: rows}
}

// Matrix4FromSlice creates a Matrix4 from sixteen components in row-major
// order. Panics if len(xs) != 16.
func Matrix4FromSlice(xs []float64) Matrix4 {
	if len(xs) != 16 {
		panic(fmt.Sprintf("Matrix4FromSlice: need 16 components, got %d", len(xs)))
	}
	var m Matrix4
	for i := 0; i < 4; i++ {
		copy(m.m[i][:], xs[i*4:i*4+4])
	}
	return m
}

// IdentityMatrix4 returns the 4x4 identity.
func IdentityMatrix4() Matrix4 {
	return Matrix4{m: [4][4]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}}
}

// Translation4 returns the affine transform that moves points by (tx, ty, tz).
func Translation4(tx, ty, tz float64) Matrix4 {
	return Matrix4{m: [4][4]float64{
		{1, 0, 0, tx},
		{0, 1, 0, ty},
		{0, 0, 1, tz},
		{0, 0, 0, 1},
	}}
}

// Scaling4 returns the affine transform that scales by (sx, sy, sz).
func Scaling4(sx, sy, sz float64) Matrix4 {
	return Matrix4{m: [4][4]float64{
		{sx, 0, 0, 0},
		{0, sy, 0, 0},
		{0, 0, sz, 0},
		{0, 0, 0, 1},
	}}
}

// Row returns row i. Panics if i is outside [0, 4).
func (m Matrix4) Row(i int) Row4 {
	checkIndex("matrix_4 row", i, 4)
	return Row4{r: m.m[i]}
}

// At returns the element at row i, column j.
func (m Matrix4) At(i, j int) float64 {
	return m.Row(i).At(j)
}

// Rows returns a copy of the matrix elements.
func (m Matrix4) Rows() [4][4]float64 {
	return m.m
}

// Mul returns the product m * n.
func (m Matrix4) Mul(n Matrix4) Matrix4 {
	var out Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m.m[i][k] * n.m[k][j]
			}
			out.m[i][j] = sum
		}
	}
	return out
}

// Apply transforms v as a point: the upper-left 3x3 block is applied and
// the last column is added as translation.
func (m Matrix4) Apply(v Vector3) Vector3 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i] += m.m[i][j] * v.v[j]
		}
		out[i] += m.m[i][3]
	}
	return Vector3{v: out}
}

// Transpose returns the transpose of m.
func (m Matrix4) Transpose() Matrix4 {
	var out Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out.m[j][i] = m.m[i][j]
		}
	}
	return out
}

func (m Matrix4) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, row := range m.m {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "[%g %g %g %g]", row[0], row[1], row[2], row[3])
	}
	sb.WriteByte(']')
	return sb.String()
}
