package parser

import (
	"strconv"

	"github.com/angi-lang/angi/ast"
	"github.com/angi-lang/angi/internal/token"
)

func (p *Parser) parseIdent() ast.Expr {
	return p.newIdent(p.cur)
}

func (p *Parser) parseInt() ast.Expr {
	tok := p.cur
	value, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		return p.errorAt(tok, "invalid integer: %s", tok.Literal)
	}
	return &ast.Int{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: value}
}

func (p *Parser) parseString() ast.Expr {
	tok := p.cur
	return &ast.String{ValuePos: tok.StartPosition, EndPos: tok.EndPosition, Value: tok.Literal}
}

func (p *Parser) parseBoolean() ast.Expr {
	tok := p.cur
	return &ast.Bool{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil
	}
	right := p.parseExpression(PREFIX)
	if right == nil {
		return nil
	}
	return &ast.Prefix{OpPos: tok.StartPosition, Op: tok.Literal, X: right}
}

func (p *Parser) parseInfixExpr(leftNode ast.Expr) ast.Expr {
	tok := p.cur
	precedence := p.currentPrecedence()
	if err := p.advance(); err != nil {
		return nil
	}
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return &ast.Infix{X: leftNode, OpPos: tok.StartPosition, Op: tok.Literal, Y: right}
}

// parseCall parses `name(args...)`. Only named functions can be called.
func (p *Parser) parseCall(fn ast.Expr) ast.Expr {
	ident, ok := fn.(*ast.Ident)
	if !ok {
		return p.errorAt(p.cur, "cannot call %s (only named functions can be called)", fn.String())
	}
	lparen := p.cur.StartPosition
	args, ok := p.parseExprList("call arguments", token.RPAREN)
	if !ok {
		return nil
	}
	return &ast.Call{Fun: ident, Lparen: lparen, Args: args, Rparen: p.cur.StartPosition}
}

// parseExprList parses comma separated expressions up to and including the
// closing token. A trailing comma is allowed.
func (p *Parser) parseExprList(context string, end token.Type) ([]ast.Expr, bool) {
	var items []ast.Expr
	for {
		if p.peekTokenIs(end) {
			if err := p.advance(); err != nil {
				return nil, false
			}
			return items, true
		}
		if err := p.advance(); err != nil {
			return nil, false
		}
		item := p.parseExpression(LOWEST)
		if item == nil {
			return nil, false
		}
		items = append(items, item)
		if p.peekTokenIs(token.COMMA) {
			if err := p.advance(); err != nil {
				return nil, false
			}
			continue
		}
		if !p.expectPeek(context, end) {
			return nil, false
		}
		return items, true
	}
}

func (p *Parser) parseList() ast.Expr {
	lbrack := p.cur.StartPosition
	items, ok := p.parseExprList("list", token.RBRACKET)
	if !ok {
		return nil
	}
	return &ast.List{Lbrack: lbrack, Items: items, Rbrack: p.cur.StartPosition}
}

// parseTable parses `{ key = expr; a.b = expr; }`. The semicolon after the
// last field may be omitted.
func (p *Parser) parseTable() ast.Expr {
	table := &ast.Table{Lbrace: p.cur.StartPosition}
	for {
		if p.peekTokenIs(token.RBRACE) {
			if err := p.advance(); err != nil {
				return nil
			}
			table.Rbrace = p.cur.StartPosition
			return table
		}
		if !p.expectPeek("table", token.IDENT) {
			return nil
		}
		field := &ast.Field{KeyPos: p.cur.StartPosition, Path: []string{p.cur.Literal}}
		for p.peekTokenIs(token.PERIOD) {
			if err := p.advance(); err != nil {
				return nil
			}
			if !p.expectPeek("table key", token.IDENT) {
				return nil
			}
			field.Path = append(field.Path, p.cur.Literal)
		}
		if !p.expectPeek("table field", token.ASSIGN) {
			return nil
		}
		if err := p.advance(); err != nil {
			return nil
		}
		field.Value = p.parseExpression(LOWEST)
		if field.Value == nil {
			return nil
		}
		table.Fields = append(table.Fields, field)
		if p.peekTokenIs(token.SEMICOLON) {
			if err := p.advance(); err != nil {
				return nil
			}
			continue
		}
		if !p.peekTokenIs(token.RBRACE) {
			p.expected("table field", token.SEMICOLON)
			return nil
		}
	}
}

// parseGroupedOrFunc parses either a parenthesized expression `(a + b)` or
// a lambda `(a, b) => body`. The two are told apart by the `=>` following
// the closing parenthesis.
func (p *Parser) parseGroupedOrFunc() ast.Expr {
	lparen := p.cur
	items, ok := p.parseExprList("parenthesized expression", token.RPAREN)
	if !ok {
		return nil
	}
	if p.peekTokenIs(token.ARROW) {
		params := make([]*ast.Ident, 0, len(items))
		seen := map[string]bool{}
		for _, item := range items {
			ident, ok := item.(*ast.Ident)
			if !ok {
				return p.errorAt(lparen, "invalid function parameter %s", item.String())
			}
			if seen[ident.Name] {
				return p.errorAt(lparen, "duplicate function parameter %q", ident.Name)
			}
			seen[ident.Name] = true
			params = append(params, ident)
		}
		if err := p.advance(); err != nil { // move to '=>'
			return nil
		}
		if err := p.advance(); err != nil { // move past '=>'
			return nil
		}
		body := p.parseExpression(LOWEST)
		if body == nil {
			return nil
		}
		return &ast.Func{Lparen: lparen.StartPosition, Params: params, Body: body}
	}
	if len(items) != 1 {
		return p.errorAt(lparen, "expected a single expression in parentheses")
	}
	return items[0]
}
