package compiler

import (
	"github.com/angi-lang/angi/ast"
	"github.com/angi-lang/angi/errz"
	"github.com/hashicorp/go-multierror"
)

// Check reports every unresolved variable, unknown function and arity
// mismatch in expr, together with those in the global functions it calls.
// It returns nil or a *multierror.Error whose entries are *errz.Error.
func Check(expr ast.Expr, options ...Option) error {
	return New(options...).check(expr)
}

type checker struct {
	c       *Compiler
	visited map[string]bool
	result  *multierror.Error
}

func (c *Compiler) check(expr ast.Expr) error {
	ch := &checker{c: c, visited: map[string]bool{}}
	ch.visit(expr, nil)
	return ch.result.ErrorOrNil()
}

func (ch *checker) fail(err error) {
	ch.result = multierror.Append(ch.result, err)
}

// visit walks node. Scope holds the parameters of the enclosing function;
// functions do not capture, so a nested lambda starts a fresh scope.
func (ch *checker) visit(node ast.Expr, scope map[string]bool) {
	switch node := node.(type) {
	case *ast.Ident:
		if !scope[node.Name] {
			ch.fail(ch.c.errorAt(node, errz.NotFoundVariable, "variable %q not found", node.Name))
		}
	case *ast.Prefix:
		ch.visit(node.X, scope)
	case *ast.Infix:
		ch.visit(node.X, scope)
		ch.visit(node.Y, scope)
	case *ast.Table:
		for _, field := range node.Fields {
			ch.visit(field.Value, scope)
		}
	case *ast.List:
		for _, item := range node.Items {
			ch.visit(item, scope)
		}
	case *ast.Func:
		inner := make(map[string]bool, len(node.Params))
		for _, param := range node.Params {
			inner[param.Name] = true
		}
		ch.visit(node.Body, inner)
	case *ast.Call:
		for _, arg := range node.Args {
			ch.visit(arg, scope)
		}
		ch.visitCallee(node, scope)
	case *ast.Int, *ast.String, *ast.Bool:
	default:
		ch.fail(ch.c.errorAt(node, errz.UnexpectExpr, "unexpected expression %s", describe(node)))
	}
}

func (ch *checker) visitCallee(node *ast.Call, scope map[string]bool) {
	name := node.Fun.Name
	if scope[name] {
		// Bound variables are checked when called.
		return
	}
	fn, ok := ch.c.library[name]
	if !ok {
		ch.fail(ch.c.errorAt(node.Fun, errz.NotFoundFunction, "function %q not found", name))
		return
	}
	if len(fn.Params) != len(node.Args) {
		ch.fail(ch.c.errorAt(node, errz.ArityMismatch,
			"function %s takes %d argument(s) (%d given)", name, len(fn.Params), len(node.Args)))
	}
	if !ch.visited[name] {
		ch.visited[name] = true
		ch.visit(fn, nil)
	}
}
