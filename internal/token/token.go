// Package token defines the tokens of the Angi language and their source
// positions.
package token

import "fmt"

// Type names a kind of token. Punctuation types are spelled as they appear
// in source.
type Type string

// Position locates a byte in a source file. Char, Line and Column count
// from zero.
type Position struct {
	Char   int
	Line   int
	Column int
	File   string
}

// LineNumber is Line counted from one, as shown to users.
func (p Position) LineNumber() int { return p.Line + 1 }

// ColumnNumber is Column counted from one.
func (p Position) ColumnNumber() int { return p.Column + 1 }

// Advance moves the position n bytes to the right on the same line.
func (p Position) Advance(n int) Position {
	p.Char += n
	p.Column += n
	return p
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.LineNumber(), p.ColumnNumber())
	}
	return fmt.Sprintf("%d:%d", p.LineNumber(), p.ColumnNumber())
}

// Token is one lexeme with its extent in the source.
type Token struct {
	Type          Type
	Literal       string
	StartPosition Position
	EndPosition   Position
}

const (
	ARROW     Type = "=>"
	ASSIGN    Type = "="
	ASTERISK  Type = "*"
	COMMA     Type = ","
	EOF       Type = "EOF"
	FALSE     Type = "FALSE"
	IDENT     Type = "IDENT"
	ILLEGAL   Type = "ILLEGAL"
	INT       Type = "INT"
	LBRACE    Type = "{"
	LBRACKET  Type = "["
	LPAREN    Type = "("
	MINUS     Type = "-"
	PERIOD    Type = "."
	PLUS      Type = "+"
	RBRACE    Type = "}"
	RBRACKET  Type = "]"
	RPAREN    Type = ")"
	SEMICOLON Type = ";"
	SLASH     Type = "/"
	STRING    Type = "STRING"
	TRUE      Type = "TRUE"
)

var keywords = map[string]Type{
	"false": FALSE,
	"true":  TRUE,
}

// LookupIdentifier returns the keyword type for word, or IDENT.
func LookupIdentifier(identifier string) Type {
	if tok, ok := keywords[identifier]; ok {
		return tok
	}
	return IDENT
}
