package compiler

import (
	"strconv"

	"github.com/angi-lang/angi/ast"
	"github.com/angi-lang/angi/internal/token"
)

// Fold returns expr with integer arithmetic on literals evaluated. Nodes
// that change are copied; the input tree is not modified. Division by zero
// is left in place so it is reported when the program runs.
func Fold(expr ast.Expr) ast.Expr {
	switch node := expr.(type) {
	case *ast.Prefix:
		x := Fold(node.X)
		if lit, ok := x.(*ast.Int); ok {
			switch node.Op {
			case "+":
				return lit
			case "-":
				return intAt(node.OpPos, -lit.Value)
			}
		}
		if x == node.X {
			return node
		}
		return &ast.Prefix{OpPos: node.OpPos, Op: node.Op, X: x}
	case *ast.Infix:
		x, y := Fold(node.X), Fold(node.Y)
		lhs, lok := x.(*ast.Int)
		rhs, rok := y.(*ast.Int)
		if lok && rok {
			if v, ok := foldInts(node.Op, lhs.Value, rhs.Value); ok {
				return intAt(lhs.ValuePos, v)
			}
		}
		if x == node.X && y == node.Y {
			return node
		}
		return &ast.Infix{X: x, OpPos: node.OpPos, Op: node.Op, Y: y}
	case *ast.Table:
		var fields []*ast.Field
		for i, field := range node.Fields {
			value := Fold(field.Value)
			if value != field.Value && fields == nil {
				fields = append(make([]*ast.Field, 0, len(node.Fields)), node.Fields[:i]...)
			}
			switch {
			case fields == nil:
			case value == field.Value:
				fields = append(fields, field)
			default:
				fields = append(fields, &ast.Field{KeyPos: field.KeyPos, Path: field.Path, Value: value})
			}
		}
		if fields == nil {
			return node
		}
		return &ast.Table{Lbrace: node.Lbrace, Fields: fields, Rbrace: node.Rbrace}
	case *ast.List:
		items, changed := foldAll(node.Items)
		if !changed {
			return node
		}
		return &ast.List{Lbrack: node.Lbrack, Items: items, Rbrack: node.Rbrack}
	case *ast.Func:
		body := Fold(node.Body)
		if body == node.Body {
			return node
		}
		return &ast.Func{Lparen: node.Lparen, Params: node.Params, Body: body}
	case *ast.Call:
		args, changed := foldAll(node.Args)
		if !changed {
			return node
		}
		return &ast.Call{Fun: node.Fun, Lparen: node.Lparen, Args: args, Rparen: node.Rparen}
	default:
		return expr
	}
}

func foldAll(exprs []ast.Expr) ([]ast.Expr, bool) {
	out := make([]ast.Expr, len(exprs))
	changed := false
	for i, expr := range exprs {
		out[i] = Fold(expr)
		if out[i] != expr {
			changed = true
		}
	}
	return out, changed
}

func foldInts(operator string, a, b int64) (int64, bool) {
	switch operator {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "/":
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}
	return 0, false
}

func intAt(pos token.Position, v int64) *ast.Int {
	return &ast.Int{ValuePos: pos, Literal: strconv.FormatInt(v, 10), Value: v}
}
