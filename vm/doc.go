// Package vm implements the Borges value layer.
//
// This package contains:
//   - The closed Type tag enumeration, which doubles as the wire discriminant
//   - Value, a tagged union over booleans, numbers, vectors, matrices and
//     shared arrays of each
//   - Vector2, Vector3, Matrix3 and Matrix4 with affine matrix algebra
//   - Serializer and Deserializer for the flat slot format, including
//     identity interning of shared arrays
//   - The little-endian byte layout of slots
//   - Function descriptors and a table of native functions over Values
//
// Wire format: a stream is a flat sequence of float64 slots. A Value is
// its tag ordinal followed by its payload; aggregates are their components
// in row-major order; arrays are a count followed by their elements. A
// shared array reference is an index, followed by the full array the first
// time that index appears.
package vm
