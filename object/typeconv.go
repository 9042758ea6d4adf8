package object

import (
	"fmt"

	"github.com/angi-lang/angi/errz"
)

func mismatch(expected string, obj Object) error {
	if obj == nil {
		return errz.New(errz.ValueTypeMismatch, "expected %s (nothing given)", expected)
	}
	return errz.New(errz.ValueTypeMismatch, "expected %s (%s given)", expected, obj.Type())
}

func AsInt(obj Object) (int64, error) {
	i, ok := obj.(*Int)
	if !ok {
		return 0, mismatch("an int", obj)
	}
	return i.value, nil
}

func AsString(obj Object) (string, error) {
	s, ok := obj.(*String)
	if !ok {
		return "", mismatch("a string", obj)
	}
	return s.value, nil
}

func AsTable(obj Object) (*Table, error) {
	t, ok := obj.(*Table)
	if !ok {
		return nil, mismatch("a table", obj)
	}
	return t, nil
}

func AsList(obj Object) (*List, error) {
	ls, ok := obj.(*List)
	if !ok {
		return nil, mismatch("a list", obj)
	}
	return ls, nil
}

func AsFunction(obj Object) (*Function, error) {
	f, ok := obj.(*Function)
	if !ok {
		return nil, mismatch("a function", obj)
	}
	return f, nil
}

// As converts obj to T. Supported targets are int64, int, string, *Table,
// *List, *Function, *Thunk, Object and any (the native Go value).
func As[T any](obj Object) (T, error) {
	var zero T
	var err error
	switch p := any(&zero).(type) {
	case *int64:
		*p, err = AsInt(obj)
	case *int:
		var v int64
		v, err = AsInt(obj)
		*p = int(v)
	case *string:
		*p, err = AsString(obj)
	case **Table:
		*p, err = AsTable(obj)
	case **List:
		*p, err = AsList(obj)
	case **Function:
		*p, err = AsFunction(obj)
	case **Thunk:
		t, ok := obj.(*Thunk)
		if !ok {
			return zero, mismatch("a thunk", obj)
		}
		*p = t
	case *Object:
		if obj == nil {
			return zero, mismatch("a value", obj)
		}
		*p = obj
	case *any:
		if obj == nil {
			return zero, mismatch("a value", obj)
		}
		*p = obj.Interface()
	default:
		return zero, errz.New(errz.ValueTypeMismatch, "unsupported conversion target %T", zero)
	}
	if err != nil {
		var empty T
		return empty, err
	}
	return zero, nil
}

// TypeName returns a readable name for the conversion target T.
func TypeName[T any]() string {
	var zero T
	switch any(&zero).(type) {
	case *int64, *int:
		return string(INT)
	case *string:
		return string(STRING)
	case **Table:
		return string(TABLE)
	case **List:
		return string(LIST)
	case **Function:
		return string(FUNCTION)
	case **Thunk:
		return string(THUNK)
	default:
		return fmt.Sprintf("%T", zero)
	}
}
