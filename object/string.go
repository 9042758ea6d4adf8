package object

import (
	"encoding/json"
	"strconv"
)

type String struct {
	value string
}

func NewString(s string) *String {
	return &String{value: s}
}

func (s *String) Type() Type {
	return STRING
}

func (s *String) Value() string {
	return s.value
}

func (s *String) Inspect() string {
	return strconv.Quote(s.value)
}

func (s *String) String() string {
	return s.value
}

func (s *String) Interface() any {
	return s.value
}

func (s *String) Equals(other Object) bool {
	o, ok := other.(*String)
	return ok && o.value == s.value
}

func (s *String) Clone() Object {
	return s
}

func (s *String) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value)
}
