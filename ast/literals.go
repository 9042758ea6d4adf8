package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/angi-lang/angi/internal/token"
)

// Int is an expression node that holds an integer literal.
type Int struct {
	ValuePos token.Position // position of the literal
	Literal  string         // the literal text
	Value    int64          // the parsed value
}

func (x *Int) exprNode() {}

func (x *Int) Pos() token.Position { return x.ValuePos }
func (x *Int) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }

func (x *Int) String() string {
	if x.Literal == "" {
		return strconv.FormatInt(x.Value, 10)
	}
	return x.Literal
}

// String is an expression node that holds a string literal.
type String struct {
	ValuePos token.Position // position of the opening quote
	EndPos   token.Position // position after the closing quote
	Value    string         // the unquoted value
}

func (x *String) exprNode() {}

func (x *String) Pos() token.Position { return x.ValuePos }
func (x *String) End() token.Position { return x.EndPos }

func (x *String) String() string { return strconv.Quote(x.Value) }

// Bool is an expression node that holds a boolean literal.
type Bool struct {
	ValuePos token.Position // position of "true" or "false"
	Literal  string         // "true" or "false"
	Value    bool           // the boolean value
}

func (x *Bool) exprNode() {}

func (x *Bool) Pos() token.Position { return x.ValuePos }
func (x *Bool) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }

func (x *Bool) String() string { return x.Literal }

// Field is one `key = value;` entry of a table literal. A dotted key such as
// `server.port` is stored as a path.
type Field struct {
	KeyPos token.Position
	Path   []string
	Value  Expr
}

// Key returns the dotted key.
func (f *Field) Key() string {
	return strings.Join(f.Path, ".")
}

func (f *Field) String() string {
	return f.Key() + " = " + f.Value.String() + ";"
}

// Table is an expression node that holds a table literal. Fields keep their
// source order.
type Table struct {
	Lbrace token.Position // position of "{"
	Fields []*Field
	Rbrace token.Position // position of "}"
}

func (x *Table) exprNode() {}

func (x *Table) Pos() token.Position { return x.Lbrace }
func (x *Table) End() token.Position { return x.Rbrace.Advance(1) }

func (x *Table) String() string {
	var out bytes.Buffer
	out.WriteString("{")
	for i, f := range x.Fields {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(f.String())
	}
	out.WriteString("}")
	return out.String()
}

// List is an expression node that holds a list literal.
type List struct {
	Lbrack token.Position // position of "["
	Items  []Expr
	Rbrack token.Position // position of "]"
}

func (x *List) exprNode() {}

func (x *List) Pos() token.Position { return x.Lbrack }
func (x *List) End() token.Position { return x.Rbrack.Advance(1) }

func (x *List) String() string {
	items := make([]string, 0, len(x.Items))
	for _, item := range x.Items {
		items = append(items, item.String())
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// Func is an expression node that holds a lambda: `(a, b) => body`.
type Func struct {
	Lparen token.Position // position of "("
	Params []*Ident
	Body   Expr
}

func (x *Func) exprNode() {}

func (x *Func) Pos() token.Position { return x.Lparen }
func (x *Func) End() token.Position { return x.Body.End() }

// ParamNames returns the parameter names in declaration order.
func (x *Func) ParamNames() []string {
	names := make([]string, 0, len(x.Params))
	for _, p := range x.Params {
		names = append(names, p.Name)
	}
	return names
}

func (x *Func) String() string {
	return "(" + strings.Join(x.ParamNames(), ", ") + ") => " + x.Body.String()
}
