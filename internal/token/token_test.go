package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupIdentifier(t *testing.T) {
	require.Equal(t, TRUE, LookupIdentifier("true"))
	require.Equal(t, FALSE, LookupIdentifier("false"))
	require.Equal(t, IDENT, LookupIdentifier("TRUE"))
	require.Equal(t, IDENT, LookupIdentifier("routes"))
}

func TestPosition(t *testing.T) {
	pos := Position{Char: 14, Line: 2}
	require.Equal(t, 3, pos.LineNumber())
	require.Equal(t, 1, pos.ColumnNumber())
	require.Equal(t, "3:1", pos.String())

	pos.File = "app.ag"
	require.Equal(t, "app.ag:3:1", pos.String())

	next := pos.Advance(4)
	require.Equal(t, Position{Char: 18, Line: 2, Column: 4, File: "app.ag"}, next)
	require.Equal(t, "app.ag:3:5", next.String())
}
