package parser

import (
	"fmt"
	"strings"

	"github.com/angi-lang/angi/internal/token"
)

// Error kinds.
const (
	SyntaxError  = "syntax error"
	ParseError   = "parse error"
	ContextError = "context error"
)

// Error is one problem found in the source. Lexer failures are reported with
// kind SyntaxError and carry the lexer error as Cause.
type Error struct {
	Kind  string
	Msg   string
	Cause error
	File  string
	Start token.Position
	End   token.Position
	// Line is the source text of the line containing Start.
	Line string
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Kind != "" {
		msg = e.Kind + ": " + msg
	}
	return fmt.Sprintf("%s (%s)", msg, e.Start)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// FriendlyErrorMessage renders the error followed by the offending line with
// the token underlined.
func (e *Error) FriendlyErrorMessage() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	sb.WriteString("\n")
	if e.Line == "" {
		return sb.String()
	}
	underline := 1
	if e.End.Line == e.Start.Line && e.End.Column > e.Start.Column {
		underline = e.End.Column - e.Start.Column
	}
	fmt.Fprintf(&sb, " | %s\n | %s%s\n", e.Line,
		strings.Repeat(" ", e.Start.Column), strings.Repeat("^", underline))
	return sb.String()
}

// ErrorList holds every error recorded during one Parse call.
type ErrorList []*Error

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (l ErrorList) Unwrap() []error {
	out := make([]error, len(l))
	for i, err := range l {
		out[i] = err
	}
	return out
}

func (l ErrorList) FriendlyErrorMessage() string {
	var sb strings.Builder
	for _, err := range l {
		sb.WriteString(err.FriendlyErrorMessage())
	}
	return sb.String()
}

func describeType(t token.Type) string {
	switch t {
	case token.EOF:
		return "end of file"
	case token.IDENT:
		return "identifier"
	}
	return string(t)
}

func describe(t token.Token) string {
	switch {
	case t.Type == token.EOF:
		return "end of file"
	case t.Type == token.STRING:
		return fmt.Sprintf("%q", t.Literal)
	case t.Literal == "":
		return string(t.Type)
	}
	return t.Literal
}
