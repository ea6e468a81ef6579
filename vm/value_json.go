package vm

import (
	"encoding/json"
	"fmt"
)

// JSON form: {"type": "<tag name>", "value": <payload>}. Vectors are
// number lists, matrices are lists of rows, arrays are lists of elements.

type valueJSON struct {
	Type  Type            `json:"type"`
	Value json.RawMessage `json:"value"`
}

// valueJSONIn distinguishes an absent "type" from the boolean tag 0.
type valueJSONIn struct {
	Type  *Type           `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.typ {
	case TypeBoolean:
		payload = v.b
	case TypeNumber:
		payload = v.n
	case TypeVector2:
		payload = v.Vector2().v
	case TypeVector3:
		payload = v.Vector3().v
	case TypeMatrix3:
		payload = v.Matrix3().m
	case TypeMatrix4:
		payload = v.Matrix4().m
	case TypeBooleanArray:
		payload = v.BooleanArray().elems
	case TypeNumberArray:
		payload = v.NumberArray().elems
	case TypeVector2Array:
		payload = mapElems(v.Vector2Array(), func(x Vector2) [2]float64 { return x.v })
	case TypeVector3Array:
		payload = mapElems(v.Vector3Array(), func(x Vector3) [3]float64 { return x.v })
	case TypeMatrix3Array:
		payload = mapElems(v.Matrix3Array(), func(x Matrix3) [3][3]float64 { return x.m })
	case TypeMatrix4Array:
		payload = mapElems(v.Matrix4Array(), func(x Matrix4) [4][4]float64 { return x.m })
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("vm: marshal %s: %w", v.typ, err)
	}
	return json.Marshal(valueJSON{Type: v.typ, Value: raw})
}

// UnmarshalJSON implements json.Unmarshaler. Vectors and matrices must
// carry exactly as many components as their kind has.
func (v *Value) UnmarshalJSON(data []byte) error {
	var vj valueJSONIn
	if err := json.Unmarshal(data, &vj); err != nil {
		return err
	}
	if vj.Type == nil {
		return fmt.Errorf("vm: unmarshal value: missing \"type\"")
	}
	t := *vj.Type
	var err error
	switch t {
	case TypeBoolean:
		var b bool
		err = json.Unmarshal(vj.Value, &b)
		*v = FromBoolean(b)
	case TypeNumber:
		var x float64
		err = json.Unmarshal(vj.Value, &x)
		*v = FromNumber(x)
	case TypeVector2:
		var x Vector2
		x, err = vector2JSON(vj.Value)
		*v = FromVector2(x)
	case TypeVector3:
		var x Vector3
		x, err = vector3JSON(vj.Value)
		*v = FromVector3(x)
	case TypeMatrix3:
		var x Matrix3
		x, err = matrix3JSON(vj.Value)
		*v = FromMatrix3(x)
	case TypeMatrix4:
		var x Matrix4
		x, err = matrix4JSON(vj.Value)
		*v = FromMatrix4(x)
	case TypeBooleanArray:
		var xs []bool
		err = json.Unmarshal(vj.Value, &xs)
		*v = FromBooleanArray(adoptArray(xs))
	case TypeNumberArray:
		var xs []float64
		err = json.Unmarshal(vj.Value, &xs)
		*v = FromNumberArray(adoptArray(xs))
	case TypeVector2Array:
		var a *Array[Vector2]
		if a, err = arrayJSON(vj.Value, vector2JSON); err == nil {
			*v = FromVector2Array(a)
		}
	case TypeVector3Array:
		var a *Array[Vector3]
		if a, err = arrayJSON(vj.Value, vector3JSON); err == nil {
			*v = FromVector3Array(a)
		}
	case TypeMatrix3Array:
		var a *Array[Matrix3]
		if a, err = arrayJSON(vj.Value, matrix3JSON); err == nil {
			*v = FromMatrix3Array(a)
		}
	case TypeMatrix4Array:
		var a *Array[Matrix4]
		if a, err = arrayJSON(vj.Value, matrix4JSON); err == nil {
			*v = FromMatrix4Array(a)
		}
	default:
		return fmt.Errorf("%w: %d", ErrInvalidType, uint8(t))
	}
	if err != nil {
		*v = Value{}
		return fmt.Errorf("vm: unmarshal %s: %w", t, err)
	}
	return nil
}

// componentsJSON decodes a list of exactly n numbers.
func componentsJSON(raw json.RawMessage, n int) ([]float64, error) {
	var xs []float64
	if err := json.Unmarshal(raw, &xs); err != nil {
		return nil, err
	}
	if len(xs) != n {
		return nil, fmt.Errorf("want %d components, got %d", n, len(xs))
	}
	return xs, nil
}

// rowsJSON decodes an n x n list of rows into row-major components.
func rowsJSON(raw json.RawMessage, n int) ([]float64, error) {
	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	if len(rows) != n {
		return nil, fmt.Errorf("want %d rows, got %d", n, len(rows))
	}
	xs := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d: want %d components, got %d", i, n, len(row))
		}
		xs = append(xs, row...)
	}
	return xs, nil
}

func vector2JSON(raw json.RawMessage) (Vector2, error) {
	xs, err := componentsJSON(raw, 2)
	if err != nil {
		return Vector2{}, err
	}
	return Vector2FromSlice(xs), nil
}

func vector3JSON(raw json.RawMessage) (Vector3, error) {
	xs, err := componentsJSON(raw, 3)
	if err != nil {
		return Vector3{}, err
	}
	return Vector3FromSlice(xs), nil
}

func matrix3JSON(raw json.RawMessage) (Matrix3, error) {
	xs, err := rowsJSON(raw, 3)
	if err != nil {
		return Matrix3{}, err
	}
	return Matrix3FromSlice(xs), nil
}

func matrix4JSON(raw json.RawMessage) (Matrix4, error) {
	xs, err := rowsJSON(raw, 4)
	if err != nil {
		return Matrix4{}, err
	}
	return Matrix4FromSlice(xs), nil
}

func arrayJSON[T Element](raw json.RawMessage, elem func(json.RawMessage) (T, error)) (*Array[T], error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	elems := make([]T, len(items))
	for i, item := range items {
		x, err := elem(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		elems[i] = x
	}
	return adoptArray(elems), nil
}

func mapElems[T Element, S any](a *Array[T], f func(T) S) []S {
	out := make([]S, len(a.elems))
	for i, x := range a.elems {
		out[i] = f(x)
	}
	return out
}
