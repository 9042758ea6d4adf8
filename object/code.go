package object

import (
	"encoding/json"
	"fmt"
)

// Thunk refers to a deferred table or list literal by its thunk table index.
// Forcing it runs the thunk's code block.
type Thunk struct {
	index uint32
}

func NewThunk(index uint32) *Thunk {
	return &Thunk{index: index}
}

func (t *Thunk) Type() Type {
	return THUNK
}

// Index returns the 1-based thunk table index.
func (t *Thunk) Index() uint32 {
	return t.index
}

func (t *Thunk) Inspect() string {
	return fmt.Sprintf("thunk(%d)", t.index)
}

func (t *Thunk) Interface() any {
	return t.Inspect()
}

func (t *Thunk) Equals(other Object) bool {
	o, ok := other.(*Thunk)
	return ok && o.index == t.index
}

func (t *Thunk) Clone() Object {
	return t
}

func (t *Thunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Inspect())
}

// Function refers to a compiled function by its function table index.
type Function struct {
	index uint32
}

func NewFunction(index uint32) *Function {
	return &Function{index: index}
}

func (f *Function) Type() Type {
	return FUNCTION
}

// Index returns the 1-based function table index.
func (f *Function) Index() uint32 {
	return f.index
}

func (f *Function) Inspect() string {
	return fmt.Sprintf("function(%d)", f.index)
}

func (f *Function) Interface() any {
	return f.Inspect()
}

func (f *Function) Equals(other Object) bool {
	o, ok := other.(*Function)
	return ok && o.index == f.index
}

func (f *Function) Clone() Object {
	return f
}

func (f *Function) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Inspect())
}

// UninitializedType is the value of a register that has not been written in
// the current execution window.
type UninitializedType struct{}

// Uninitialized is the only value of UninitializedType.
var Uninitialized = &UninitializedType{}

func (u *UninitializedType) Type() Type {
	return UNINITIALIZED
}

func (u *UninitializedType) Inspect() string {
	return "uninitialized"
}

func (u *UninitializedType) Interface() any {
	return nil
}

func (u *UninitializedType) Equals(other Object) bool {
	_, ok := other.(*UninitializedType)
	return ok
}

func (u *UninitializedType) Clone() Object {
	return u
}

func (u *UninitializedType) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}
