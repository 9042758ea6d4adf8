package object

import (
	"encoding/json"
	"strings"
)

// List is an ordered collection. Elements may be thunks until the list is
// forced.
type List struct {
	items []Object
}

func NewList(items ...Object) *List {
	return &List{items: items}
}

func (ls *List) Type() Type {
	return LIST
}

func (ls *List) Append(obj Object) {
	ls.items = append(ls.items, obj)
}

func (ls *List) Len() int {
	return len(ls.items)
}

// At returns the element at index i.
func (ls *List) At(i int) (Object, bool) {
	if i < 0 || i >= len(ls.items) {
		return nil, false
	}
	return ls.items[i], true
}

// Items returns a copy of the element slice.
func (ls *List) Items() []Object {
	return append([]Object(nil), ls.items...)
}

// Force resolves every thunk element with f and caches the results in the
// list, so each element is evaluated at most once.
func (ls *List) Force(f Forcer) error {
	for i, item := range ls.items {
		if _, ok := item.(*Thunk); !ok {
			continue
		}
		value, err := f.Force(item)
		if err != nil {
			return err
		}
		ls.items[i] = value
	}
	return nil
}

func (ls *List) Inspect() string {
	parts := make([]string, 0, len(ls.items))
	for _, item := range ls.items {
		parts = append(parts, item.Inspect())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (ls *List) String() string {
	return ls.Inspect()
}

func (ls *List) Interface() any {
	items := make([]any, 0, len(ls.items))
	for _, item := range ls.items {
		items = append(items, item.Interface())
	}
	return items
}

func (ls *List) Equals(other Object) bool {
	o, ok := other.(*List)
	if !ok || len(o.items) != len(ls.items) {
		return false
	}
	for i, item := range ls.items {
		if !item.Equals(o.items[i]) {
			return false
		}
	}
	return true
}

func (ls *List) Clone() Object {
	items := make([]Object, len(ls.items))
	for i, item := range ls.items {
		items[i] = item.Clone()
	}
	return &List{items: items}
}

func (ls *List) MarshalJSON() ([]byte, error) {
	if ls.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(ls.items)
}
