package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf)
	table.WithHeader([]string{"HEADER1", "H2", "h3"})
	table.WithColumnAlignment([]Alignment{AlignLeft, AlignRight, AlignLeft})
	table.WithHeaderAlignment([]Alignment{AlignCenter, AlignCenter, AlignRight})
	table.Append([]string{"ROW1", "ROW2", "foo bar"})
	table.Append([]string{"a", "b", "c"})
	require.NoError(t, table.Render())

	expected := `
+---------+------+---------+
| HEADER1 |  H2  |      h3 |
+---------+------+---------+
| ROW1    | ROW2 | foo bar |
| a       |    b | c       |
+---------+------+---------+
`
	require.Equal(t, strings.TrimSpace(expected)+"\n", buf.String())
}

func TestColoredTable(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = noColor }()

	var buf bytes.Buffer
	table := NewTable(&buf)
	table.WithHeader([]string{"HEADER1", "HEADER2", "HEADER3"})
	table.WithColumnAlignment([]Alignment{AlignLeft, AlignRight, AlignLeft})
	table.WithHeaderAlignment([]Alignment{AlignCenter, AlignCenter, AlignCenter})
	table.Append([]string{
		color.New(color.Bold).Sprint("Bold text"),
		"12345",
		color.GreenString("Green text"),
	})
	table.Append([]string{
		"Normal",
		color.New(color.Bold).Sprint("999"),
		color.GreenString("More color"),
	})
	require.NoError(t, table.Render())

	result := buf.String()
	require.Contains(t, result, "\x1b[")

	lines := strings.Split(strings.TrimSuffix(result, "\n"), "\n")
	require.Len(t, lines, 6)
	for i, line := range lines {
		require.Equal(t, len(lines[0]), width(line), "line %d", i)
	}
}

func TestEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTable(&buf).Render())
	require.Empty(t, buf.String())
}
