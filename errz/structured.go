// Package errz defines the error kinds raised while compiling and running
// programs, and the positioned error type that carries them.
package errz

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Kind represents the category of an error.
type Kind int

const (
	// UnexpectExpr indicates an AST node that violates a compile step's
	// expectations.
	UnexpectExpr Kind = iota + 1
	// NotFoundVariable indicates a reference to an unbound variable.
	NotFoundVariable
	// NotFoundFunction indicates a call to a function that is neither a bound
	// variable nor part of the global function table. Raised by both the
	// compiler and the virtual machine.
	NotFoundFunction
	// ArityMismatch indicates a call with the wrong number of arguments.
	ArityMismatch
	// RegisterOverflow indicates that an expression needs more registers
	// than the machine provides.
	RegisterOverflow
	// OperandOverflow indicates an instruction operand that does not fit in
	// its encoded field.
	OperandOverflow
	// ValueTypeMismatch indicates a value of the wrong type.
	ValueTypeMismatch
	// UnexpectedError is the catch-all for failed lookups and reads.
	UnexpectedError
	// InstructionExecution indicates an instruction that could not be
	// executed, e.g. a division by zero.
	InstructionExecution
	// DecodeError indicates a truncated or undecodable bytecode stream.
	DecodeError
	// FormatError indicates a container (bytecode or archive) whose framing
	// is not recognized.
	FormatError
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case UnexpectExpr:
		return "unexpected expression"
	case NotFoundVariable:
		return "variable not found"
	case NotFoundFunction:
		return "function not found"
	case ArityMismatch:
		return "arity mismatch"
	case RegisterOverflow:
		return "register overflow"
	case OperandOverflow:
		return "operand overflow"
	case ValueTypeMismatch:
		return "type mismatch"
	case UnexpectedError:
		return "unexpected error"
	case InstructionExecution:
		return "instruction error"
	case DecodeError:
		return "decode error"
	case FormatError:
		return "format error"
	default:
		return "error"
	}
}

// Sentinels for use with errors.Is. A sentinel matches any *Error of the
// same kind.
var (
	ErrUnexpectExpr         = &Error{Kind: UnexpectExpr}
	ErrNotFoundVariable     = &Error{Kind: NotFoundVariable}
	ErrNotFoundFunction     = &Error{Kind: NotFoundFunction}
	ErrArityMismatch        = &Error{Kind: ArityMismatch}
	ErrRegisterOverflow     = &Error{Kind: RegisterOverflow}
	ErrOperandOverflow      = &Error{Kind: OperandOverflow}
	ErrValueTypeMismatch    = &Error{Kind: ValueTypeMismatch}
	ErrUnexpected           = &Error{Kind: UnexpectedError}
	ErrInstructionExecution = &Error{Kind: InstructionExecution}
	ErrDecode               = &Error{Kind: DecodeError}
	ErrFormat               = &Error{Kind: FormatError}
)

// SourceLocation points at the source text an error relates to.
type SourceLocation struct {
	Filename string
	Line     int // 1-indexed
	Column   int // 1-indexed
	Source   string
}

// IsZero reports whether the location is unset.
func (l SourceLocation) IsZero() bool {
	return l.Line == 0 && l.Column == 0
}

func (l SourceLocation) String() string {
	if l.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Column)
	}
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Error is the error type returned by the compiler and the virtual machine.
type Error struct {
	Kind     Kind
	Message  string
	Location SourceLocation
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Location.IsZero() {
		return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind.String(), e.Message, e.Location)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches sentinels: a target *Error with no message matches any error
// of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return t.Kind == e.Kind
	}
	return t == e
}

// FriendlyErrorMessage returns the error with a source snippet and a caret
// under the offending column, when the location is known.
func (e *Error) FriendlyErrorMessage() string {
	var msg bytes.Buffer
	msg.WriteString(e.Error())
	msg.WriteString("\n")
	if e.Location.Source != "" {
		msg.WriteString(" | ")
		msg.WriteString(e.Location.Source)
		msg.WriteString("\n")
		if e.Location.Column > 0 {
			msg.WriteString(" | ")
			msg.WriteString(strings.Repeat(" ", e.Location.Column-1))
			msg.WriteString("^\n")
		}
	}
	return msg.String()
}

// WithCause wraps the error with a cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// New creates an Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewAt creates an Error with a formatted message and a source location.
func NewAt(kind Kind, loc SourceLocation, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Location: loc}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
