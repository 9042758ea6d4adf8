// Package table renders rows of text as an ASCII box table.
package table

import (
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Table accumulates rows and writes them with Render.
type Table struct {
	w           io.Writer
	header      []string
	rows        [][]string
	align       []Alignment
	headerAlign []Alignment
}

func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

func (t *Table) WithColumnAlignment(align []Alignment) *Table {
	t.align = align
	return t
}

func (t *Table) WithHeaderAlignment(align []Alignment) *Table {
	t.headerAlign = align
	return t
}

func (t *Table) Append(row []string) {
	t.rows = append(t.rows, row)
}

// Render writes the table. Cell widths ignore ANSI color sequences.
func (t *Table) Render() error {
	widths := t.widths()
	if len(widths) == 0 {
		return nil
	}
	var sb strings.Builder
	sep := separator(widths)
	sb.WriteString(sep)
	if len(t.header) > 0 {
		t.writeRow(&sb, t.header, widths, t.headerAlign)
		sb.WriteString(sep)
	}
	for _, row := range t.rows {
		t.writeRow(&sb, row, widths, t.align)
	}
	if len(t.rows) > 0 {
		sb.WriteString(sep)
	}
	_, err := io.WriteString(t.w, sb.String())
	return err
}

func (t *Table) widths() []int {
	var widths []int
	measure := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], width(cell))
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func (t *Table) writeRow(sb *strings.Builder, row []string, widths []int, align []Alignment) {
	sb.WriteString("|")
	for i, w := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		a := AlignLeft
		if i < len(align) {
			a = align[i]
		}
		sb.WriteString(" ")
		sb.WriteString(pad(cell, w, a))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func separator(widths []int) string {
	var sb strings.Builder
	sb.WriteString("+")
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("+")
	}
	sb.WriteString("\n")
	return sb.String()
}

func width(s string) int {
	return utf8.RuneCountInString(ansi.ReplaceAllString(s, ""))
}

func pad(s string, w int, a Alignment) string {
	gap := w - width(s)
	if gap <= 0 {
		return s
	}
	switch a {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}
