// Package parser builds the syntax tree of an Angi program with a Pratt
// parser over the token stream produced by the lexer.
package parser

import (
	"context"
	"fmt"

	"github.com/angi-lang/angi/ast"
	"github.com/angi-lang/angi/internal/lexer"
	"github.com/angi-lang/angi/internal/token"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// Parse lexes and parses input.
func Parse(ctx context.Context, input string, options ...Option) (ast.Expr, error) {
	var probe Parser
	for _, opt := range options {
		opt(&probe)
	}
	l := lexer.New(input, lexer.WithFile(probe.file))
	p := New(l, options...)
	return p.Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name reported in errors.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.file = filename
	}
}

// WithMaxDepth limits how deeply expressions may nest. The default is
// DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.limit = depth
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 500

// Parser turns a token stream into a single expression. A Parser is used
// for one Parse call.
type Parser struct {
	ctx   context.Context
	l     *lexer.Lexer
	cur   token.Token
	peek  token.Token
	errs  ErrorList
	file  string
	depth int
	limit int

	prefix map[token.Type]prefixParseFn
	infix  map[token.Type]infixParseFn
}

// New returns a Parser reading tokens from l.
func New(l *lexer.Lexer, options ...Option) *Parser {
	p := &Parser{
		l:     l,
		limit: DefaultMaxDepth,
		file:  l.Filename(),
	}
	for _, opt := range options {
		opt(p)
	}
	p.prefix = map[token.Type]prefixParseFn{
		token.EOF:      p.illegalToken,
		token.ILLEGAL:  p.illegalToken,
		token.FALSE:    p.parseBoolean,
		token.TRUE:     p.parseBoolean,
		token.IDENT:    p.parseIdent,
		token.INT:      p.parseInt,
		token.STRING:   p.parseString,
		token.LBRACE:   p.parseTable,
		token.LBRACKET: p.parseList,
		token.LPAREN:   p.parseGroupedOrFunc,
		token.MINUS:    p.parsePrefixExpr,
		token.PLUS:     p.parsePrefixExpr,
	}
	p.infix = map[token.Type]infixParseFn{
		token.PLUS:     p.parseInfixExpr,
		token.MINUS:    p.parseInfixExpr,
		token.ASTERISK: p.parseInfixExpr,
		token.SLASH:    p.parseInfixExpr,
		token.LPAREN:   p.parseCall,
	}
	// Fill cur and peek.
	p.advance()
	p.advance()
	return p
}

// advance shifts peek into cur and reads the next token. A lexer error is
// recorded as a syntax error and returned.
func (p *Parser) advance() error {
	var err error
	p.cur = p.peek
	p.peek, err = p.l.Next()
	if err != nil {
		p.errs = append(p.errs, &Error{
			Kind:  SyntaxError,
			Cause: err,
			File:  p.file,
			Start: p.peek.StartPosition,
			End:   p.peek.EndPosition,
			Line:  p.l.GetLineText(p.peek),
		})
	}
	return err
}

// Parse reads exactly one expression followed by the end of input.
func (p *Parser) Parse(ctx context.Context) (ast.Expr, error) {
	p.ctx = ctx
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expr := p.parseExpression(LOWEST)
	if len(p.errs) == 0 && p.peek.Type != token.EOF {
		p.errorAt(p.peek, "unexpected %s after expression", describe(p.peek))
	}
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return expr, nil
}

func (p *Parser) failed() bool {
	if len(p.errs) > 0 {
		return true
	}
	if p.ctx == nil || p.ctx.Err() == nil {
		return false
	}
	p.errs = append(p.errs, &Error{Kind: ContextError, Msg: p.ctx.Err().Error(), File: p.file})
	return true
}

func (p *Parser) parseExpression(precedence int) ast.Expr {
	if p.failed() {
		return nil
	}
	if p.depth >= p.limit {
		return p.errorAt(p.cur, "maximum nesting depth exceeded")
	}
	p.depth++
	defer func() { p.depth-- }()

	prefix, ok := p.prefix[p.cur.Type]
	if !ok {
		return p.errorAt(p.cur, "invalid syntax (unexpected %s)", describe(p.cur))
	}
	left := prefix()
	for left != nil && len(p.errs) == 0 && precedence < p.peekPrecedence() {
		infix, ok := p.infix[p.peek.Type]
		if !ok {
			break
		}
		if p.advance() != nil {
			return nil
		}
		left = infix(left)
	}
	if len(p.errs) > 0 {
		return nil
	}
	return left
}

func (p *Parser) illegalToken() ast.Expr {
	if p.cur.Type == token.EOF {
		return p.errorAt(p.cur, "unexpected end of file")
	}
	return p.errorAt(p.cur, "illegal token %s", p.cur.Literal)
}

// errorAt records a parse error located at t and returns a nil expression.
func (p *Parser) errorAt(t token.Token, format string, args ...any) ast.Expr {
	p.errs = append(p.errs, &Error{
		Kind:  ParseError,
		Msg:   fmt.Sprintf(format, args...),
		File:  p.file,
		Start: t.StartPosition,
		End:   t.EndPosition,
		Line:  p.l.GetLineText(t),
	})
	return nil
}

// expected records that the token after the current one should have been
// of type want.
func (p *Parser) expected(context string, want token.Type) {
	p.errorAt(p.peek, "unexpected %s while parsing %s (expected %s)",
		describe(p.peek), context, describeType(want))
}

func (p *Parser) newIdent(tok token.Token) *ast.Ident {
	return &ast.Ident{NamePos: tok.StartPosition, Name: tok.Literal}
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.cur.Type == t
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peek.Type == t
}

// expectPeek advances when the next token has type t and records an error
// otherwise.
func (p *Parser) expectPeek(context string, t token.Type) bool {
	if p.peekTokenIs(t) {
		return p.advance() == nil
	}
	p.expected(context, t)
	return false
}

func (p *Parser) peekPrecedence() int {
	return precedenceOf(p.peek.Type)
}

func (p *Parser) currentPrecedence() int {
	return precedenceOf(p.cur.Type)
}
