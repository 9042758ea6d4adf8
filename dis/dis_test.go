package dis

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/angi-lang/angi/builtins"
	"github.com/angi-lang/angi/bytecode"
	"github.com/angi-lang/angi/compiler"
	"github.com/angi-lang/angi/op"
	"github.com/angi-lang/angi/parser"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) []byte {
	t.Helper()
	expr, err := parser.Parse(context.Background(), src)
	require.NoError(t, err)
	lib, err := builtins.Functions()
	require.NoError(t, err)
	data, err := compiler.Compile(expr, compiler.WithLibrary(lib))
	require.NoError(t, err)
	return data
}

func program(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	p, err := bytecode.Unmarshal(compile(t, src))
	require.NoError(t, err)
	return p
}

func withoutColor(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })
}

func TestPrint(t *testing.T) {
	withoutColor(t)
	instructions, err := Disassemble(program(t, `{ a = 1; }`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Print(instructions, &buf))
	expected := strings.TrimSpace(`
+--------+-------+-----------+----------+------+
| OFFSET | BLOCK |  OPCODE   | OPERANDS | INFO |
+--------+-------+-----------+----------+------+
|      0 | root  | MAKETABLE | r0       |      |
|      1 |       | LOADCONST | r1 1     | "a"  |
|      2 |       | LOADCONST | r2 2     | 1    |
|      3 |       | SETATTR   | r0 r1 r2 |      |
|      4 |       | RETURN    | r0       |      |
+--------+-------+-----------+----------+------+
`)
	require.Equal(t, expected+"\n", buf.String())
}

func TestBlockLabels(t *testing.T) {
	p := program(t, `{ page = () => html("x"); nested = { b = 2; }; }`)
	instructions, err := Disassemble(p)
	require.NoError(t, err)

	labels := map[string]op.Code{}
	for _, instr := range instructions {
		if instr.Block != "" {
			labels[instr.Block] = instr.Opcode
		}
	}
	require.Contains(t, labels, "root")
	require.Contains(t, labels, "thunk 1")
	require.Contains(t, labels, "func 1")

	var global string
	for label := range labels {
		if strings.HasSuffix(label, " html") {
			global = label
		}
	}
	require.NotEmpty(t, global)
	require.Equal(t, op.LoadArg, labels[global])

	for _, instr := range instructions {
		if instr.Opcode == op.MakeFunc {
			require.Equal(t, "func 1/0 @", instr.Info[:len("func 1/0 @")])
		}
	}
}

func TestDump(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	require.NoError(t, Dump(compile(t, `{ page = () => html("x"); }`), &buf))
	out := buf.String()
	require.Contains(t, out, "magic=0x414e4749 version=1")
	require.Contains(t, out, "| constants ")
	require.Contains(t, out, `"html"`)
	require.Contains(t, out, "MAKEFUNC")
	require.Contains(t, out, "2 functions (1 global)")
	require.Contains(t, out, "code\n")
}

func TestDumpRejectsGarbage(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, Dump([]byte("not a program"), &buf))
}
