package compiler

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/angi-lang/angi/ast"
	"github.com/angi-lang/angi/builtins"
	"github.com/angi-lang/angi/bytecode"
	"github.com/angi-lang/angi/errz"
	"github.com/angi-lang/angi/op"
	"github.com/angi-lang/angi/parser"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, input string) ast.Expr {
	t.Helper()
	expr, err := parser.Parse(context.Background(), input, parser.WithFilename("t.ag"))
	require.NoError(t, err)
	return expr
}

func compileProgram(t *testing.T, input string, options ...Option) *bytecode.Program {
	t.Helper()
	lib, err := builtins.Functions()
	require.NoError(t, err)
	options = append([]Option{WithLibrary(lib), WithSource(input)}, options...)
	program, err := New(options...).Compile(parse(t, input))
	require.NoError(t, err)
	return program
}

func compileError(t *testing.T, input string) error {
	t.Helper()
	lib, err := builtins.Functions()
	require.NoError(t, err)
	_, err = New(WithLibrary(lib), WithSource(input)).Compile(parse(t, input))
	require.Error(t, err)
	return err
}

func listing(t *testing.T, p *bytecode.Program) []string {
	t.Helper()
	var out []string
	for i := 0; i < len(p.Code); i += op.WordSize {
		instr, ok := op.DecodeWord(binary.BigEndian.Uint32(p.Code[i:]))
		require.True(t, ok)
		out = append(out, instr.String())
	}
	return out
}

func TestConstantDeduplication(t *testing.T) {
	p := compileProgram(t, `{ a = 7; b = 7; }`)
	require.Equal(t, []bytecode.Constant{
		bytecode.String("a"),
		bytecode.Int(7),
		bytecode.String("b"),
	}, p.Constants)
	require.Equal(t, []string{
		"MAKETABLE r0",
		"LOADCONST r1 1",
		"LOADCONST r2 2",
		"SETATTR r0 r1 r2",
		"LOADCONST r1 3",
		"LOADCONST r2 2",
		"SETATTR r0 r1 r2",
		"RETURN r0",
	}, listing(t, p))
}

func TestThunks(t *testing.T) {
	p := compileProgram(t, `{
    port = 3030;
    routes = [
        {path="/"; handler="Message 1";},
        {path="/Hello"; handler="Message Hello";},
    ];
}`)
	require.Equal(t, []uint32{8, 14, 22}, p.Thunks)
	require.Empty(t, p.Functions)
	require.Empty(t, p.Globals)

	code := listing(t, p)
	require.Len(t, code, 30)
	require.Equal(t, "MAKETHUNK r2 1", code[5])
	require.Equal(t, []string{
		"MAKELIST r0",
		"MAKETHUNK r1 2",
		"ADDLIST r0 r1",
		"MAKETHUNK r1 3",
		"ADDLIST r0 r1",
		"RETURN r0",
	}, code[8:14])
	// Each thunk body ends with its own return.
	require.Equal(t, "RETURN r0", code[21])
	require.Equal(t, "RETURN r0", code[29])
}

func TestGlobalFunctionCall(t *testing.T) {
	p := compileProgram(t, `{ page = () => html("<h1>Hi</h1>"); }`)
	require.Equal(t, []bytecode.FunctionEntry{
		{NumArgs: 0, Offset: 5},
		{NumArgs: 1, Offset: 10},
	}, p.Functions)
	require.Equal(t, []bytecode.GlobalEntry{{Name: 3, Function: 2}}, p.Globals)
	require.Equal(t, bytecode.String("html"), p.Constants[2])

	require.Equal(t, []string{
		"MAKETABLE r0",
		"LOADCONST r1 1",
		"MAKEFUNC r2 1",
		"SETATTR r0 r1 r2",
		"RETURN r0",
		// () => html("<h1>Hi</h1>")
		"LOADCONST r0 2",
		"PUSHARG r0",
		"LOADCONST r0 3",
		"CALL r1 r0",
		"RETURN r1",
		// html(content)
		"LOADARG r0",
		"MAKETABLE r1",
		"LOADCONST r2 4",
		"LOADCONST r3 3",
		"SETATTR r1 r2 r3",
		"LOADCONST r2 3",
		"SETATTR r1 r2 r0",
		"RETURN r1",
	}, listing(t, p))
}

func TestGlobalFunctionCompiledOnce(t *testing.T) {
	p := compileProgram(t, `{ a = () => text("a"); b = () => text("b"); }`)
	require.Len(t, p.Functions, 3)
	require.Len(t, p.Globals, 1)
	require.Equal(t, uint32(3), p.Globals[0].Function)
}

func TestArithmetic(t *testing.T) {
	p := compileProgram(t, `(a, b) => a * b - -a`, WithoutFolding())
	require.Equal(t, []string{
		"MAKEFUNC r0 1",
		"RETURN r0",
		"LOADARG r0",
		"LOADARG r1",
		"MUL r2 r0 r1",
		"LOADCONST r3 1",
		"SUB r4 r3 r0",
		"SUB r3 r2 r4",
		"RETURN r3",
	}, listing(t, p))
	require.Equal(t, []bytecode.Constant{bytecode.Int(0)}, p.Constants)
}

func TestEmittedOpcodes(t *testing.T) {
	p := compileProgram(t, `{ page = (x) => html([x / 2, x + 1]); }`, WithoutFolding())
	var codes []op.Code
	for i := 0; i < len(p.Code); i += op.WordSize {
		code, ok := op.Extract(binary.BigEndian.Uint32(p.Code[i:]))
		require.True(t, ok)
		codes = append(codes, code)
	}
	require.Subset(t, codes, []op.Code{
		op.MakeTable, op.LoadConst, op.MakeFunc, op.SetAttr, op.Return,
		op.LoadArg, op.MakeList, op.Div, op.Add, op.AddList, op.PushArg, op.Call,
	})
}

func TestBooleansAreIntegers(t *testing.T) {
	p := compileProgram(t, `[true, false]`)
	require.Equal(t, []bytecode.Constant{bytecode.Int(1), bytecode.Int(0)}, p.Constants)
}

func TestDottedKeys(t *testing.T) {
	p := compileProgram(t, `{ server.port = 80; }`)
	require.Equal(t, bytecode.String("server.port"), p.Constants[0])
}

func TestCallBoundFunction(t *testing.T) {
	p := compileProgram(t, `(f, x) => f(x)`)
	require.Empty(t, p.Globals)
	require.Equal(t, []string{
		"MAKEFUNC r0 1",
		"RETURN r0",
		"LOADARG r0",
		"LOADARG r1",
		"PUSHARG r1",
		"CALL r2 r0",
		"RETURN r2",
	}, listing(t, p))
}

func TestCompositesInFunctionsAreEager(t *testing.T) {
	p := compileProgram(t, `(x) => { items = [x, x]; }`)
	require.Empty(t, p.Thunks)
	require.Contains(t, listing(t, p), "MAKELIST r3")
}

func TestSerializedHeader(t *testing.T) {
	lib, err := builtins.Functions()
	require.NoError(t, err)
	data, err := Compile(parse(t, `{ a = 1; f = () => json([1]); }`), WithLibrary(lib))
	require.NoError(t, err)

	require.Equal(t, uint32(bytecode.Magic), binary.BigEndian.Uint32(data[0:]))
	require.Equal(t, uint32(len(data)), binary.BigEndian.Uint32(data[len(data)-4:]))

	h, err := bytecode.ReadHeader(data)
	require.NoError(t, err)
	require.Equal(t, uint32(bytecode.HeaderSize), h.Constants.Offset)
	require.Equal(t, uint32(1), h.Globals.Count)
	require.Equal(t, h.Globals.Offset+bytecode.GlobalEntrySize, h.Code.Offset)

	p, err := bytecode.Unmarshal(data)
	require.NoError(t, err)
	name, ok := p.Constant(p.Globals[0].Name)
	require.True(t, ok)
	require.Equal(t, "json", name.Str)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  errz.Kind
		msg   string
	}{
		{`{ a = b; }`, errz.NotFoundVariable, `variable "b" not found (t.ag:1:7)`},
		{`{ a = nope(1); }`, errz.NotFoundFunction, `function "nope" not found (t.ag:1:7)`},
		{`{ a = html(1, 2); }`, errz.ArityMismatch, "function html takes 1 argument(s) (2 given)"},
		{`(x) => (y) => x + y`, errz.NotFoundVariable, `variable "x" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := compileError(t, tt.input)
			kind, ok := errz.KindOf(err)
			require.True(t, ok)
			require.Equal(t, tt.kind, kind)
			require.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCheckCollectsAllErrors(t *testing.T) {
	err := compileError(t, "{\n  a = b;\n  c = d;\n  e = f();\n}")
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 3)

	var first *errz.Error
	require.True(t, errors.As(merr.Errors[0], &first))
	require.Equal(t, 2, first.Location.Line)
	require.Equal(t, 7, first.Location.Column)
	require.Equal(t, "  a = b;", first.Location.Source)
	require.True(t, errors.Is(merr.Errors[2], errz.ErrNotFoundFunction))
}

func TestRegisterOverflow(t *testing.T) {
	// Right-nested sums keep every left product live.
	var sb strings.Builder
	sb.WriteString("(x) => ")
	for i := 0; i < op.NumRegisters; i++ {
		sb.WriteString("x * x + (")
	}
	sb.WriteString("x")
	sb.WriteString(strings.Repeat(")", op.NumRegisters))
	err := compileError(t, sb.String())
	require.True(t, errors.Is(err, errz.ErrRegisterOverflow))
}

func TestRegistersReleased(t *testing.T) {
	var fields []string
	for i := 0; i < 100; i++ {
		fields = append(fields, fmt.Sprintf("f%d = %d * (%d + 1);", i, i, i))
	}
	p := compileProgram(t, "{"+strings.Join(fields, " ")+"}", WithoutFolding())
	require.NotEmpty(t, p.Code)
}

func TestNothingToCompile(t *testing.T) {
	_, err := New().Compile(nil)
	require.True(t, errors.Is(err, errz.ErrUnexpectExpr))
}
