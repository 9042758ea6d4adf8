package ast

import "iter"

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	switch n := node.(type) {
	case *Prefix:
		Walk(v, n.X)
	case *Infix:
		Walk(v, n.X)
		Walk(v, n.Y)
	case *Table:
		for _, f := range n.Fields {
			Walk(v, f.Value)
		}
	case *List:
		for _, item := range n.Items {
			Walk(v, item)
		}
	case *Func:
		for _, p := range n.Params {
			Walk(v, p)
		}
		Walk(v, n.Body)
	case *Call:
		Walk(v, n.Fun)
		for _, a := range n.Args {
			Walk(v, a)
		}
	}
	v.Visit(nil)
}

type inspector func(Node) bool

// Inspect traverses an AST in depth-first order, calling f for each node.
// If f returns false, the children of that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

func (f inspector) Visit(node Node) Visitor {
	if node == nil {
		return nil
	}
	if f(node) {
		return f
	}
	return nil
}

// Preorder returns an iterator over all nodes of the tree rooted at root,
// parents before children.
func Preorder(root Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		ok := true
		Inspect(root, func(n Node) bool {
			if !ok {
				return false
			}
			ok = yield(n)
			return ok
		})
	}
}
