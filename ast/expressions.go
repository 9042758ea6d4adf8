package ast

import (
	"strings"

	"github.com/angi-lang/angi/internal/token"
)

// Ident is an expression node that refers to a variable by name.
type Ident struct {
	NamePos token.Position
	Name    string
}

func (x *Ident) exprNode() {}

func (x *Ident) Pos() token.Position { return x.NamePos }
func (x *Ident) End() token.Position { return x.NamePos.Advance(len(x.Name)) }

func (x *Ident) String() string { return x.Name }

// Prefix is an expression node that holds a prefix operator expression,
// e.g. `-x`.
type Prefix struct {
	OpPos token.Position
	Op    string // "+" or "-"
	X     Expr
}

func (x *Prefix) exprNode() {}

func (x *Prefix) Pos() token.Position { return x.OpPos }
func (x *Prefix) End() token.Position { return x.X.End() }

func (x *Prefix) String() string {
	return "(" + x.Op + x.X.String() + ")"
}

// Infix is an expression node that holds a binary arithmetic expression.
type Infix struct {
	X     Expr
	OpPos token.Position
	Op    string // "+", "-", "*" or "/"
	Y     Expr
}

func (x *Infix) exprNode() {}

func (x *Infix) Pos() token.Position { return x.X.Pos() }
func (x *Infix) End() token.Position { return x.Y.End() }

func (x *Infix) String() string {
	return "(" + x.X.String() + " " + x.Op + " " + x.Y.String() + ")"
}

// Call is an expression node that calls a function by name.
type Call struct {
	Fun    *Ident
	Lparen token.Position
	Args   []Expr
	Rparen token.Position
}

func (x *Call) exprNode() {}

func (x *Call) Pos() token.Position { return x.Fun.Pos() }
func (x *Call) End() token.Position { return x.Rparen.Advance(1) }

func (x *Call) String() string {
	args := make([]string, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, a.String())
	}
	return x.Fun.Name + "(" + strings.Join(args, ", ") + ")"
}
