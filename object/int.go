package object

import (
	"strconv"
)

// Int wraps int64 and implements Object.
type Int struct {
	value int64
}

func NewInt(value int64) *Int {
	return &Int{value: value}
}

func (i *Int) Type() Type {
	return INT
}

func (i *Int) Value() int64 {
	return i.value
}

func (i *Int) Inspect() string {
	return strconv.FormatInt(i.value, 10)
}

func (i *Int) String() string {
	return i.Inspect()
}

func (i *Int) Interface() any {
	return i.value
}

func (i *Int) Equals(other Object) bool {
	o, ok := other.(*Int)
	return ok && o.value == i.value
}

func (i *Int) Clone() Object {
	return i
}

func (i *Int) MarshalJSON() ([]byte, error) {
	return []byte(i.Inspect()), nil
}
