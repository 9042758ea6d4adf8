package object

import (
	"bytes"
	"encoding/json"
	"strings"
)

// PathSeparator splits dotted table keys into tree paths.
const PathSeparator = "."

// Table is a keyed collection backed by a Tree. Keys set with dots, such as
// "a.b", create nested entries.
type Table struct {
	tree *Tree
}

func NewTable() *Table {
	return &Table{tree: NewTree()}
}

// TableFromTree returns a table view over an existing tree.
func TableFromTree(tree *Tree) *Table {
	return &Table{tree: tree}
}

func (t *Table) Type() Type {
	return TABLE
}

// Tree returns the underlying tree.
func (t *Table) Tree() *Tree {
	return t.tree
}

// Set stores value under key, splitting dotted keys into a path.
func (t *Table) Set(key string, value Object) {
	t.tree.Insert(strings.Split(key, PathSeparator), value)
}

// Get returns the direct child with the given key. A branch is returned as
// a table view sharing the branch.
func (t *Table) Get(key string) (Object, bool) {
	n, ok := t.tree.Child(key)
	if !ok {
		return nil, false
	}
	if n.IsLeaf() {
		return n.value, true
	}
	return TableFromTree(n.branch), true
}

// Keys returns the direct keys in insertion order.
func (t *Table) Keys() []string {
	return t.tree.Keys()
}

func (t *Table) Len() int {
	return t.tree.Len()
}

func (t *Table) Inspect() string {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, k := range t.tree.Keys() {
		if i > 0 {
			buf.WriteString(" ")
		}
		v, _ := t.Get(k)
		buf.WriteString(k)
		buf.WriteString(" = ")
		buf.WriteString(v.Inspect())
		buf.WriteString(";")
	}
	buf.WriteString("}")
	return buf.String()
}

func (t *Table) String() string {
	return t.Inspect()
}

func (t *Table) Interface() any {
	m := make(map[string]any, t.tree.Len())
	for _, k := range t.tree.Keys() {
		v, _ := t.Get(k)
		m[k] = v.Interface()
	}
	return m
}

func (t *Table) Equals(other Object) bool {
	o, ok := other.(*Table)
	return ok && t.tree.Equals(o.tree)
}

func (t *Table) Clone() Object {
	return &Table{tree: t.tree.Clone()}
}

// MarshalJSON writes the table as a JSON object with keys in insertion
// order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.tree.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v, _ := t.Get(k)
		value, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
