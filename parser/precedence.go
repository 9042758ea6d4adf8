package parser

import "github.com/angi-lang/angi/internal/token"

// Binding power of operators, lowest first.
const (
	_ int = iota
	LOWEST
	SUM     // + or -
	PRODUCT // * or /
	PREFIX  // -X or +X
	CALL    // myFunction(X)
)

var precedences = map[token.Type]int{
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.SLASH:    PRODUCT,
	token.ASTERISK: PRODUCT,
	token.LPAREN:   CALL,
}

func precedenceOf(t token.Type) int {
	if prec, ok := precedences[t]; ok {
		return prec
	}
	return LOWEST
}
