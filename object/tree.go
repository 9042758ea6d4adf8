package object

// Node is a tree entry: either a leaf holding a value or a branch holding a
// subtree.
type Node struct {
	value  Object
	branch *Tree
}

// IsLeaf reports whether the node holds a value.
func (n *Node) IsLeaf() bool {
	return n.branch == nil
}

// Value returns the leaf value, or nil for a branch.
func (n *Node) Value() Object {
	return n.value
}

// Branch returns the subtree, or nil for a leaf.
func (n *Node) Branch() *Tree {
	return n.branch
}

func (n *Node) clone() *Node {
	if n.branch != nil {
		return &Node{branch: n.branch.Clone()}
	}
	return &Node{value: n.value.Clone()}
}

func (n *Node) equals(other *Node) bool {
	if n.IsLeaf() != other.IsLeaf() {
		return false
	}
	if n.IsLeaf() {
		return n.value.Equals(other.value)
	}
	return n.branch.Equals(other.branch)
}

// Tree stores values under key paths. Keys keep their first insertion order.
type Tree struct {
	keys     []string
	children map[string]*Node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{children: map[string]*Node{}}
}

// Len returns the number of direct children.
func (t *Tree) Len() int {
	return len(t.keys)
}

// Keys returns the direct child keys in insertion order.
func (t *Tree) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Child returns the direct child with the given key.
func (t *Tree) Child(key string) (*Node, bool) {
	n, ok := t.children[key]
	return n, ok
}

func (t *Tree) set(key string, n *Node) {
	if _, ok := t.children[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.children[key] = n
}

// Insert stores value at path. Intermediate segments become branches; a
// leaf found along the way is replaced by an empty branch and its value is
// dropped. The final segment always becomes a leaf, replacing whatever was
// there. An empty path is ignored.
func (t *Tree) Insert(path []string, value Object) {
	if len(path) == 0 {
		return
	}
	cur := t
	for _, key := range path[:len(path)-1] {
		n, ok := cur.children[key]
		if !ok || n.IsLeaf() {
			n = &Node{branch: NewTree()}
			cur.set(key, n)
		}
		cur = n.branch
	}
	cur.set(path[len(path)-1], &Node{value: value})
}

// Get returns the node at path.
func (t *Tree) Get(path []string) (*Node, bool) {
	if len(path) == 0 {
		return nil, false
	}
	cur := t
	var n *Node
	for i, key := range path {
		var ok bool
		n, ok = cur.children[key]
		if !ok {
			return nil, false
		}
		if i < len(path)-1 {
			if n.IsLeaf() {
				return nil, false
			}
			cur = n.branch
		}
	}
	return n, true
}

// Lookup returns the leaf value at path. Branches report false.
func (t *Tree) Lookup(path []string) (Object, bool) {
	n, ok := t.Get(path)
	if !ok || !n.IsLeaf() {
		return nil, false
	}
	return n.value, true
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		keys:     append([]string(nil), t.keys...),
		children: make(map[string]*Node, len(t.children)),
	}
	for k, n := range t.children {
		c.children[k] = n.clone()
	}
	return c
}

// Equals compares two trees. Key order is not significant.
func (t *Tree) Equals(other *Tree) bool {
	if len(t.children) != len(other.children) {
		return false
	}
	for k, n := range t.children {
		o, ok := other.children[k]
		if !ok || !n.equals(o) {
			return false
		}
	}
	return true
}
