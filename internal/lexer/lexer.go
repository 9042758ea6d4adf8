// Package lexer turns source text into tokens.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/angi-lang/angi/internal/token"
)

// Lexer holds our object-state.
type Lexer struct {
	input    string
	file     string
	pos      int  // byte offset of ch
	next     int  // byte offset after ch
	ch       rune // current character
	line     int
	lineHead int // byte offset of the start of the current line
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithFile sets the filename reported in token positions.
func WithFile(file string) Option {
	return func(l *Lexer) {
		l.file = file
	}
}

// New returns a Lexer for the given input.
func New(input string, options ...Option) *Lexer {
	l := &Lexer{input: input}
	for _, opt := range options {
		opt(l)
	}
	l.readChar()
	return l
}

// Filename returns the filename used in token positions.
func (l *Lexer) Filename() string {
	return l.file
}

// Input returns the source text.
func (l *Lexer) Input() string {
	return l.input
}

// GetLineText returns the text of the line a token starts on.
func (l *Lexer) GetLineText(tok token.Token) string {
	lines := strings.Split(l.input, "\n")
	line := tok.StartPosition.Line
	if line < 0 || line >= len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line], "\r")
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.lineHead = l.next
	}
	l.pos = l.next
	if l.next >= len(l.input) {
		l.ch = 0
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.next:])
	l.ch = r
	l.next += size
}

func (l *Lexer) peekChar() rune {
	if l.next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.next:])
	return r
}

func (l *Lexer) position() token.Position {
	return token.Position{
		Char:   l.pos,
		Line:   l.line,
		Column: l.pos - l.lineHead,
		File:   l.file,
	}
}

func (l *Lexer) newToken(typ token.Type, literal string, start token.Position) token.Token {
	return token.Token{
		Type:          typ,
		Literal:       literal,
		StartPosition: start,
		EndPosition:   l.position(),
	}
}

// Next returns the next token. After the input is exhausted it keeps
// returning EOF.
func (l *Lexer) Next() (token.Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token.Token{Type: token.ILLEGAL, StartPosition: l.position()}, err
	}
	start := l.position()
	single := func(typ token.Type) (token.Token, error) {
		lit := string(l.ch)
		l.readChar()
		return l.newToken(typ, lit, start), nil
	}
	switch l.ch {
	case 0:
		if l.pos >= len(l.input) {
			return l.newToken(token.EOF, "", start), nil
		}
		return l.illegal(start)
	case '=':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return l.newToken(token.ARROW, "=>", start), nil
		}
		return single(token.ASSIGN)
	case '*':
		return single(token.ASTERISK)
	case ',':
		return single(token.COMMA)
	case '{':
		return single(token.LBRACE)
	case '}':
		return single(token.RBRACE)
	case '[':
		return single(token.LBRACKET)
	case ']':
		return single(token.RBRACKET)
	case '(':
		return single(token.LPAREN)
	case ')':
		return single(token.RPAREN)
	case '-':
		return single(token.MINUS)
	case '+':
		return single(token.PLUS)
	case '.':
		return single(token.PERIOD)
	case ';':
		return single(token.SEMICOLON)
	case '/':
		return single(token.SLASH)
	case '"':
		s, err := l.readString()
		if err != nil {
			return l.newToken(token.ILLEGAL, s, start), err
		}
		return l.newToken(token.STRING, s, start), nil
	}
	if isDigit(l.ch) {
		lit := l.readWhile(isDigit)
		if isIdentifierChar(l.ch) {
			lit += l.readWhile(isIdentifierChar)
			return l.newToken(token.ILLEGAL, lit, start),
				fmt.Errorf("invalid integer literal %q (%s)", lit, start)
		}
		return l.newToken(token.INT, lit, start), nil
	}
	if isIdentifierStart(l.ch) {
		lit := l.readWhile(isIdentifierChar)
		return l.newToken(token.LookupIdentifier(lit), lit, start), nil
	}
	return l.illegal(start)
}

func (l *Lexer) illegal(start token.Position) (token.Token, error) {
	ch := l.ch
	l.readChar()
	return l.newToken(token.ILLEGAL, string(ch), start),
		fmt.Errorf("unexpected character %q (%s)", ch, start)
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.pos < len(l.input) {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			start := l.position()
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') {
				if l.pos >= len(l.input) {
					return fmt.Errorf("unterminated comment (%s)", start)
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
		default:
			return nil
		}
	}
}

func (l *Lexer) readWhile(pred func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.input) && pred(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readString() (string, error) {
	start := l.position()
	var out strings.Builder
	l.readChar() // opening quote
	for {
		if l.pos >= len(l.input) || l.ch == '\n' {
			return out.String(), fmt.Errorf("unterminated string literal (%s)", start)
		}
		if l.ch == '"' {
			l.readChar()
			return out.String(), nil
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				out.WriteRune('\n')
			case 'r':
				out.WriteRune('\r')
			case 't':
				out.WriteRune('\t')
			case '\\':
				out.WriteRune('\\')
			case '"':
				out.WriteRune('"')
			default:
				return out.String(), fmt.Errorf("invalid escape sequence \\%c (%s)", l.ch, l.position())
			}
			l.readChar()
			continue
		}
		out.WriteRune(l.ch)
		l.readChar()
	}
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentifierStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentifierChar(ch rune) bool {
	return isIdentifierStart(ch) || isDigit(ch)
}
