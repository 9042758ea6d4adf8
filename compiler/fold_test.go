package compiler

import (
	"testing"

	"github.com/angi-lang/angi/ast"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "7"},
		{"(10 - 4) / 4", "1"},
		{"-7 / 2", "-3"},
		{"-(2 * 3)", "-6"},
		{"+5", "5"},
		{"1 / 0", "(1 / 0)"},
		{"(x) => x * (2 + 2)", "(x) => (x * 4)"},
		{"[1 + 1, \"a\"]", `[2, "a"]`},
		{"{ a = 2 * 21; }", "{a = 42;}"},
		{"html(3 - 1)", "html(2)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, Fold(parse(t, tt.input)).String())
		})
	}
}

func TestFoldDoesNotModifyInput(t *testing.T) {
	expr := parse(t, "{ a = 1 + 2; b = 3; }")
	folded := Fold(expr)
	require.Equal(t, "(1 + 2)", expr.(*ast.Table).Fields[0].Value.String())
	require.Equal(t, "3", folded.(*ast.Table).Fields[0].Value.String())
	// Unchanged subtrees are shared.
	require.Same(t, expr.(*ast.Table).Fields[1], folded.(*ast.Table).Fields[1])
}

func TestFoldSharesFieldsAfterChange(t *testing.T) {
	expr := parse(t, "{ a = 1; b = 2 * 2; c = \"x\"; d = [1]; }").(*ast.Table)
	folded := Fold(expr).(*ast.Table)
	require.NotSame(t, expr, folded)
	require.Same(t, expr.Fields[0], folded.Fields[0])
	require.NotSame(t, expr.Fields[1], folded.Fields[1])
	require.Equal(t, "4", folded.Fields[1].Value.String())
	require.Same(t, expr.Fields[2], folded.Fields[2])
	require.Same(t, expr.Fields[3], folded.Fields[3])
}

func TestFoldUnchanged(t *testing.T) {
	expr := parse(t, `{ a = "x"; b = [1, 2]; }`)
	require.Same(t, expr, Fold(expr))
}
