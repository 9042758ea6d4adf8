// Package object provides the runtime values produced by the Angi virtual
// machine.
//
// Callers usually type switch on an object.Object to reach a concrete type:
//
//	switch obj := obj.(type) {
//	case *object.Table:
//		// look up obj.Get("key")
//	case *object.String:
//		// use obj.Value()
//	}
//
// Values handed out by the virtual machine are deep copies. Tables and lists
// may still hold unevaluated *Thunk values until they are forced.
package object

// Type of an object as a string.
type Type string

// Type constants
const (
	INT           Type = "int"
	STRING        Type = "string"
	TABLE         Type = "table"
	LIST          Type = "list"
	THUNK         Type = "thunk"
	FUNCTION      Type = "function"
	UNINITIALIZED Type = "uninitialized"
)

// Object is the interface that all runtime values implement.
type Object interface {
	// Type of the object.
	Type() Type

	// Inspect returns a string representation of the given object.
	Inspect() string

	// Interface converts the given object to a native Go value.
	Interface() any

	// Equals returns true if the given object is equal to this object.
	Equals(other Object) bool

	// Clone returns a deep copy of the object. Immutable objects may return
	// themselves.
	Clone() Object
}

// Forcer resolves thunks to the values they compute.
type Forcer interface {
	Force(obj Object) (Object, error)
}
