package vm

import (
	"strings"

	"github.com/angi-lang/angi/object"
)

// Eval evaluates the dotted path and converts the result to T.
func Eval[T any](vm *VirtualMachine, path string) (T, error) {
	value, err := vm.Eval(path)
	if err != nil {
		var zero T
		return zero, err
	}
	return object.As[T](value)
}

// CallAs calls fn and converts its result to T.
func CallAs[T any](vm *VirtualMachine, fn *object.Function, args ...object.Object) (T, error) {
	value, err := vm.Call(fn, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return object.As[T](value)
}

// Get looks up a dotted key within a table, forcing thunks along the way,
// and converts the result to T.
func Get[T any](vm *VirtualMachine, table *object.Table, key string) (T, error) {
	var zero T
	var value object.Object = table
	for _, segment := range strings.Split(key, object.PathSeparator) {
		var err error
		if value, err = vm.childSafe(value, segment); err != nil {
			return zero, err
		}
	}
	value, err := vm.Force(value)
	if err != nil {
		return zero, err
	}
	return object.As[T](value)
}

func (vm *VirtualMachine) childSafe(value object.Object, key string) (result object.Object, err error) {
	defer vm.recoverPanic(&err)
	return vm.child(value, key)
}
