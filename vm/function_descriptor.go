package vm

import (
	"fmt"
	"reflect"
	"sync"
)

// FunctionDescriptor describes the run-time types of a native function:
// the tag of its result and the tag of each parameter, in order.
type FunctionDescriptor struct {
	Result Type
	Params []Type
}

func (fd *FunctionDescriptor) String() string {
	return fmt.Sprintf("%v -> %s", fd.Params, fd.Result)
}

// descriptors caches one descriptor per function type.
var descriptors sync.Map // reflect.Type -> *FunctionDescriptor

// Describe returns the descriptor for the function fn. The function must
// return exactly one value, and its result and parameters must all be
// Payload types. Descriptors are computed once per function type.
func Describe(fn any) (*FunctionDescriptor, error) {
	if fn == nil {
		return nil, fmt.Errorf("vm: cannot describe nil function")
	}
	return DescribeType(reflect.TypeOf(fn))
}

// DescribeType is Describe for a reflect.Type.
func DescribeType(ft reflect.Type) (*FunctionDescriptor, error) {
	if cached, ok := descriptors.Load(ft); ok {
		return cached.(*FunctionDescriptor), nil
	}
	fd, err := describe(ft)
	if err != nil {
		return nil, err
	}
	actual, _ := descriptors.LoadOrStore(ft, fd)
	return actual.(*FunctionDescriptor), nil
}

func describe(ft reflect.Type) (*FunctionDescriptor, error) {
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("vm: %s is not a function", ft)
	}
	if ft.IsVariadic() {
		return nil, fmt.Errorf("vm: variadic function %s is not supported", ft)
	}
	if ft.NumOut() != 1 {
		return nil, fmt.Errorf("vm: function %s must return exactly one value", ft)
	}
	result, ok := TypeOfReflect(ft.Out(0))
	if !ok {
		return nil, fmt.Errorf("vm: result type %s has no value kind", ft.Out(0))
	}
	params := make([]Type, ft.NumIn())
	for i := range params {
		pt, ok := TypeOfReflect(ft.In(i))
		if !ok {
			return nil, fmt.Errorf("vm: parameter %d type %s has no value kind", i, ft.In(i))
		}
		params[i] = pt
	}
	return &FunctionDescriptor{Result: result, Params: params}, nil
}
