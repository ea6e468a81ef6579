package vm

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	ErrUnknownFunction = errors.New("unknown native function")
	ErrArity           = errors.New("wrong number of arguments")
	ErrArgumentType    = errors.New("wrong argument type")
)

// Native is a Go function registered for invocation over Values.
type Native struct {
	Name       string
	Descriptor *FunctionDescriptor

	fn reflect.Value
}

// Call checks args against the descriptor, invokes the function and wraps
// its result. Panics raised by the function propagate.
func (n *Native) Call(args ...Value) (Value, error) {
	params := n.Descriptor.Params
	if len(args) != len(params) {
		return Value{}, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, n.Name, len(params), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg.Type() != params[i] {
			return Value{}, fmt.Errorf("%w: %s argument %d is %s, want %s",
				ErrArgumentType, n.Name, i, arg.Type(), params[i])
		}
		in[i] = reflect.ValueOf(arg.Interface())
	}
	out := n.fn.Call(in)
	return Of(out[0].Interface())
}

// NativeTable maps names to native functions.
type NativeTable struct {
	natives map[string]*Native
}

// NewNativeTable creates an empty table.
func NewNativeTable() *NativeTable {
	return &NativeTable{natives: make(map[string]*Native)}
}

// Register describes fn and adds it under name. It fails if fn cannot be
// described or the name is taken.
func (t *NativeTable) Register(name string, fn any) error {
	if _, exists := t.natives[name]; exists {
		return fmt.Errorf("vm: native %q already registered", name)
	}
	fd, err := Describe(fn)
	if err != nil {
		return fmt.Errorf("vm: register %q: %w", name, err)
	}
	t.natives[name] = &Native{Name: name, Descriptor: fd, fn: reflect.ValueOf(fn)}
	return nil
}

// MustRegister is Register that panics on error.
func (t *NativeTable) MustRegister(name string, fn any) {
	if err := t.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the native registered under name.
func (t *NativeTable) Lookup(name string) (*Native, bool) {
	n, ok := t.natives[name]
	return n, ok
}

// Names returns the registered names in sorted order.
func (t *NativeTable) Names() []string {
	names := make([]string, 0, len(t.natives))
	for name := range t.natives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes the native registered under name.
func (t *NativeTable) Call(name string, args ...Value) (Value, error) {
	n, ok := t.natives[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return n.Call(args...)
}

// ---------------------------------------------------------------------------
// Geometry natives
// ---------------------------------------------------------------------------

// RegisterGeometry adds the matrix algebra natives to t.
func RegisterGeometry(t *NativeTable) {
	t.MustRegister("matrix_3.identity", IdentityMatrix3)
	t.MustRegister("matrix_3.mul", Matrix3.Mul)
	t.MustRegister("matrix_3.apply", Matrix3.Apply)
	t.MustRegister("matrix_3.translation", Translation3)
	t.MustRegister("matrix_4.identity", IdentityMatrix4)
	t.MustRegister("matrix_4.mul", Matrix4.Mul)
	t.MustRegister("matrix_4.apply", Matrix4.Apply)
	t.MustRegister("matrix_4.translation", Translation4)
	t.MustRegister("number_array.sum", func(a *Array[float64]) float64 {
		var sum float64
		for _, x := range a.elems {
			sum += x
		}
		return sum
	})
	t.MustRegister("vector_2_array.transform", func(m Matrix3, a *Array[Vector2]) *Array[Vector2] {
		out := make([]Vector2, len(a.elems))
		for i, v := range a.elems {
			out[i] = m.Apply(v)
		}
		return adoptArray(out)
	})
}
